package auction

import (
	"context"
	"fmt"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/models"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// BidAudit carries request metadata stored on the bid for audit. It plays no
// part in ordering or admission decisions.
type BidAudit struct {
	IPAddress string
	UserAgent string
}

// BidResult reports the outcome of an accepted bid.
type BidResult struct {
	Bid      models.Bid
	Winning  bool
	Extended bool
	EndDate  time.Time
}

// SubmitBid validates and reconciles a bid against a live auction.
//
// Admission runs stateless checks against a snapshot; reconciliation then
// re-validates the floor inside the auction's serialization slot, so a bid
// that raced past admission while a higher bid committed first is rejected
// there with ErrBidSuperseded. Accepting the bid, demoting the previous
// winner, bumping the aggregates and any anti-sniping extension commit as one
// atomic unit.
func (s *AuctionService) SubmitBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, maxAmount *decimal.Decimal, audit BidAudit) (BidResult, error) {
	if err := validateSubmission(auctionID, bidderID, amount, maxAmount); err != nil {
		return BidResult{}, err
	}

	snapshot, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return BidResult{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	if err := s.admit(snapshot, bidderID, amount); err != nil {
		s.recordRejection(snapshot, bidderID, amount, maxAmount, audit, err)
		return BidResult{}, err
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return BidResult{}, err
	}
	defer release()

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		MaxAmount: maxAmount,
		Status:    models.BidPending,
		PlacedAt:  s.clock(),
		IPAddress: audit.IPAddress,
		UserAgent: audit.UserAgent,
	}

	var (
		superseded bool
		extended   bool
	)
	updated, err := s.repo.ReconcileAuction(auctionID, func(a *models.Auction, bids []*models.Bid) (*models.Bid, error) {
		// The scheduler may have ended the auction while we waited for the slot.
		if a.Status != models.AuctionLive {
			return nil, fmt.Errorf("service: %w", auctionerrors.ErrAuctionNotLive)
		}
		if !bid.PlacedAt.Before(a.EndDate) {
			return nil, fmt.Errorf("service: %w", auctionerrors.ErrAuctionEnded)
		}
		if err := checkAggregates(a, bids); err != nil {
			return nil, err
		}

		if amount.Cmp(a.MinimumNextBid()) <= 0 {
			// Lost the race to a concurrent higher bid. Keep the record for
			// audit but leave every aggregate untouched.
			superseded = true
			bid.Status = models.BidRejected
			bid.Note = "superseded by concurrent higher bid"
			return &bid, nil
		}

		for _, b := range bids {
			if b.Status == models.BidWinning {
				b.Status = models.BidOutbid
			}
		}

		bid.Status = models.BidWinning
		a.CurrentBid = amount
		a.HasBid = true
		a.BidCount++

		if a.InExtensionWindow(bid.PlacedAt) {
			a.EndDate = bid.PlacedAt.Add(time.Duration(a.AutoExtendMinutes) * time.Minute)
			extended = true
		}
		return &bid, nil
	})
	if err != nil {
		return BidResult{}, err
	}

	if superseded {
		return BidResult{}, fmt.Errorf("service: %w", auctionerrors.ErrBidSuperseded)
	}

	utils.Info("bid accepted", map[string]any{
		"auction_id": auctionID,
		"bid_id":     bid.BidID,
		"bidder_id":  bidderID,
		"amount":     amount.String(),
		"extended":   extended,
	})

	return BidResult{
		Bid:      bid,
		Winning:  true,
		Extended: extended,
		EndDate:  updated.EndDate,
	}, nil
}

// validateSubmission checks input shape before any state is touched
func validateSubmission(auctionID, bidderID string, amount decimal.Decimal, maxAmount *decimal.Decimal) error {
	if auctionID == "" || bidderID == "" {
		return fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidBid)
	}
	if amount.Sign() <= 0 {
		return fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}
	if maxAmount != nil && maxAmount.Cmp(amount) < 0 {
		return fmt.Errorf("service: %w", auctionerrors.ErrCeilingBelowAmount)
	}
	return nil
}

// admit runs the stateless admission checks against an auction snapshot.
// The floor check is repeated inside reconciliation against the latest state.
func (s *AuctionService) admit(a models.Auction, bidderID string, amount decimal.Decimal) error {
	if !a.Published {
		return fmt.Errorf("service: %w", auctionerrors.ErrAuctionNotPublished)
	}
	if a.Status != models.AuctionLive {
		return fmt.Errorf("service: %w - auction is %s", auctionerrors.ErrAuctionNotLive, a.Status)
	}
	if !s.clock().Before(a.EndDate) {
		return fmt.Errorf("service: %w", auctionerrors.ErrAuctionEnded)
	}

	property, err := s.repo.GetProperty(a.PropertyID)
	if err != nil {
		return fmt.Errorf("service: failed to load property %s: %w", a.PropertyID, err)
	}
	if property.OwnerID == bidderID {
		return fmt.Errorf("service: %w", auctionerrors.ErrOwnBid)
	}

	if amount.Cmp(a.MinimumNextBid()) <= 0 {
		return fmt.Errorf("service: %w - minimum next bid is %s", auctionerrors.ErrBidTooLow, a.MinimumNextBid())
	}
	return nil
}

// recordRejection stores an audit row for bids that failed price or
// ownership rules against a live published auction. Other admission failures
// (draft auction, unknown auction) leave no record.
func (s *AuctionService) recordRejection(a models.Auction, bidderID string, amount decimal.Decimal, maxAmount *decimal.Decimal, audit BidAudit, cause error) {
	if !a.Published || a.Status != models.AuctionLive {
		return
	}

	rejected := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: a.AuctionID,
		BidderID:  bidderID,
		Amount:    amount,
		MaxAmount: maxAmount,
		Status:    models.BidRejected,
		PlacedAt:  s.clock(),
		IPAddress: audit.IPAddress,
		UserAgent: audit.UserAgent,
		Note:      cause.Error(),
	}
	if _, err := s.repo.RecordAuditBid(rejected); err != nil {
		utils.Warn("failed to record rejected bid for audit", map[string]any{
			"auction_id": a.AuctionID,
			"bidder_id":  bidderID,
			"error":      err.Error(),
		})
	}
}

// checkAggregates verifies the invariants that must hold inside the
// serialized section: at most one winning bid, and the auction's current bid
// matching that bid's amount. A violation is logged as a critical defect and
// the mutation is aborted; the process keeps serving.
func checkAggregates(a *models.Auction, bids []*models.Bid) error {
	var winning *models.Bid
	winningCount := 0
	for _, b := range bids {
		if b.Status == models.BidWinning {
			winning = b
			winningCount++
		}
	}

	violated := winningCount > 1 ||
		(winning != nil && (!a.HasBid || !a.CurrentBid.Equal(winning.Amount))) ||
		(winning == nil && a.HasBid)
	if !violated {
		return nil
	}

	utils.Error("auction flagged for manual reconciliation", map[string]any{
		"auction_id":    a.AuctionID,
		"winning_count": winningCount,
		"has_bid":       a.HasBid,
		"current_bid":   a.CurrentBid.String(),
	})
	return fmt.Errorf("service: %w - auction %s", auctionerrors.ErrInvariantViolation, a.AuctionID)
}
