package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrPropertyNotFound = errors.New("property not found")
	ErrNoBids           = errors.New("no bids found for auction")
	ErrUserNoBids       = errors.New("user has not placed any bids")
	ErrNoWinningBid     = errors.New("no winning bid for auction")
)

// Validation errors: client-fixable, no state mutation occurs.
var (
	ErrInvalidBid          = errors.New("invalid bid")
	ErrInvalidAuction      = errors.New("invalid auction")
	ErrInvalidSchedule     = errors.New("auction end date must be after start date")
	ErrInvalidTransition   = errors.New("auction status transition not allowed")
	ErrAuctionNotPublished = errors.New("auction is not published")
	ErrAuctionNotLive      = errors.New("auction is not live")
	ErrAuctionEnded        = errors.New("auction has ended")
	ErrBidTooLow           = errors.New("bid amount does not exceed minimum next bid")
	ErrOwnBid              = errors.New("property owner cannot bid on own auction")
	ErrCeilingBelowAmount  = errors.New("maximum proxy amount is below bid amount")
)

// Concurrency outcomes: expected under contention, returned as typed results.
var (
	// ErrBidSuperseded means the bid lost the race inside reconciliation to a
	// concurrent higher bid that serialized first. Resubmit with a higher amount.
	ErrBidSuperseded = errors.New("bid superseded by concurrent higher bid")

	// ErrAuctionBusy means the per-auction serialization slot could not be
	// acquired within the configured wait. Retryable after backoff.
	ErrAuctionBusy = errors.New("auction busy, retry later")
)

// ErrInvariantViolation marks states that must never occur in correct
// operation (multiple winning bids, current bid diverging from the winning
// amount). Logged as a critical defect; the process must not crash.
var ErrInvariantViolation = errors.New("auction aggregate invariant violated")
