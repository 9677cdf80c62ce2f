package models

import (
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// AuctionStatus is the lifecycle state of an auction.
type AuctionStatus string

const (
	AuctionDraft     AuctionStatus = "draft"
	AuctionScheduled AuctionStatus = "scheduled"
	AuctionLive      AuctionStatus = "live"
	AuctionEnded     AuctionStatus = "ended"
	AuctionCancelled AuctionStatus = "cancelled"
	AuctionCompleted AuctionStatus = "completed"
)

// auctionTransitions lists the allowed next states for each auction status.
// cancelled is a manual early termination out of live; completed requires a
// settled (ended) auction first.
var auctionTransitions = map[AuctionStatus][]AuctionStatus{
	AuctionDraft:     {AuctionScheduled},
	AuctionScheduled: {AuctionLive},
	AuctionLive:      {AuctionEnded, AuctionCancelled},
	AuctionEnded:     {AuctionCompleted},
}

// CanTransitionTo reports whether the state machine allows moving from s to target.
func (s AuctionStatus) CanTransitionTo(target AuctionStatus) bool {
	for _, next := range auctionTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s AuctionStatus) IsTerminal() bool {
	return len(auctionTransitions[s]) == 0
}

// BidStatus is the state of a single bid. Transitions are one-directional:
// pending -> accepted -> winning -> outbid, or pending -> rejected.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidWinning  BidStatus = "winning"
	BidOutbid   BidStatus = "outbid"
	BidRejected BidStatus = "rejected"
)

// Counted reports whether a bid in this status contributes to the auction's
// bid count. Rejected bids are stored for audit but never counted.
func (s BidStatus) Counted() bool {
	return s == BidAccepted || s == BidWinning || s == BidOutbid
}

// PropertyStatus is the sale state of a property.
type PropertyStatus string

const (
	PropertyAvailable     PropertyStatus = "available"
	PropertyUnderContract PropertyStatus = "under_contract"
	PropertySold          PropertyStatus = "sold"
	PropertyInAuction     PropertyStatus = "in_auction"
)

// Property is the minimal view of a property this engine needs: ownership
// for the self-bid rule and a status field mirrored while its auction is
// active. Full property management lives outside this service.
type Property struct {
	PropertyID string         `json:"property_id"`
	Title      string         `json:"title"`
	OwnerID    string         `json:"owner_id"`
	Status     PropertyStatus `json:"status"`
}

// Auction is a scheduled, time-bounded bidding process against one property.
type Auction struct {
	AuctionID            string          `json:"auction_id"`
	Slug                 string          `json:"slug"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Status               AuctionStatus   `json:"status"`
	PropertyID           string          `json:"property_id"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	RegistrationDeadline *time.Time      `json:"registration_deadline,omitempty"`
	StartingBid          decimal.Decimal `json:"starting_bid"`
	CurrentBid           decimal.Decimal `json:"current_bid"`
	HasBid               bool            `json:"has_bid"`
	MinimumIncrement     decimal.Decimal `json:"minimum_increment"`
	BidCount             int             `json:"bid_count"`
	AutoExtendMinutes    int             `json:"auto_extend_minutes"`
	Published            bool            `json:"published"`
	NotifyBeforeStart    int             `json:"notify_before_start"`
	NotifyBeforeEnd      int             `json:"notify_before_end"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// CurrentPrice returns the price a new bid is measured against: the current
// bid once one has been accepted, else the starting bid.
func (a *Auction) CurrentPrice() decimal.Decimal {
	if a.HasBid {
		return a.CurrentBid
	}
	return a.StartingBid
}

// MinimumNextBid returns the floor for new bids. A valid bid must be
// strictly greater than this value.
func (a *Auction) MinimumNextBid() decimal.Decimal {
	return a.CurrentPrice().Add(a.MinimumIncrement)
}

// InExtensionWindow reports whether a bid placed at ts lands inside the
// anti-sniping window before the auction's end date.
func (a *Auction) InExtensionWindow(ts time.Time) bool {
	if a.AutoExtendMinutes <= 0 {
		return false
	}
	windowStart := a.EndDate.Add(-time.Duration(a.AutoExtendMinutes) * time.Minute)
	return !ts.Before(windowStart) && ts.Before(a.EndDate)
}

// TimeRemaining is the countdown until an auction's end date.
type TimeRemaining struct {
	Days         int     `json:"days"`
	Hours        int     `json:"hours"`
	Minutes      int     `json:"minutes"`
	Seconds      int     `json:"seconds"`
	TotalSeconds float64 `json:"total_seconds"`
}

// TimeRemaining returns the countdown until EndDate, clamped at zero once
// the auction has passed its end date.
func (a *Auction) TimeRemaining(now time.Time) TimeRemaining {
	if !a.EndDate.After(now) {
		return TimeRemaining{}
	}
	left := a.EndDate.Sub(now)
	total := left.Seconds()
	days := int(left.Hours()) / 24
	hours := int(left.Hours()) % 24
	minutes := int(left.Minutes()) % 60
	seconds := int(left.Seconds()) % 60
	return TimeRemaining{
		Days:         days,
		Hours:        hours,
		Minutes:      minutes,
		Seconds:      seconds,
		TotalSeconds: total,
	}
}

// Bid represents a user's monetary offer against a live auction. MaxAmount
// is an optional proxy ceiling: it is validated and stored but never used to
// auto-raise the bid against competitors.
type Bid struct {
	BidID     string           `json:"bid_id"`
	AuctionID string           `json:"auction_id"`
	BidderID  string           `json:"bidder_id"`
	Amount    decimal.Decimal  `json:"amount"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	Status    BidStatus        `json:"status"`
	PlacedAt  time.Time        `json:"placed_at"`
	IPAddress string           `json:"ip_address,omitempty"`
	UserAgent string           `json:"user_agent,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// SlugFromTitle derives the url-safe base slug for an auction title.
// Uniqueness (suffixing on collision) is the repository's concern.
func SlugFromTitle(title string) string {
	return slug.Make(title)
}
