package auction

import (
	"context"
	"errors"
	"time"

	"auction-engine/internal/models"
	"auction-engine/utils"
)

// errNoChange aborts a reconciliation that found nothing to do, leaving the
// auction untouched. Keeps AdvanceSchedules idempotent for a repeated instant.
var errNoChange = errors.New("no schedule change")

// SweepResult reports how many auctions a scheduler pass transitioned.
type SweepResult struct {
	Started int
	Ended   int
	Skipped int
}

// AdvanceSchedules moves scheduled auctions whose start date has passed to
// live, and live auctions whose end date has passed to ended. Each transition
// runs inside the auction's serialization slot and re-reads the schedule
// there, so an end date pushed forward by an in-flight anti-sniping extension
// is honored. Invoking it twice for the same instant is a no-op the second
// time.
func (s *AuctionService) AdvanceSchedules(ctx context.Context, now time.Time) (SweepResult, error) {
	var result SweepResult

	scheduled, err := s.repo.ListAuctionsByStatus(models.AuctionScheduled)
	if err != nil {
		return result, err
	}
	for _, a := range scheduled {
		switch s.sweepOne(ctx, a.AuctionID, now, models.AuctionScheduled) {
		case sweepTransitioned:
			result.Started++
		case sweepSkipped:
			result.Skipped++
		}
	}

	live, err := s.repo.ListAuctionsByStatus(models.AuctionLive)
	if err != nil {
		return result, err
	}
	for _, a := range live {
		switch s.sweepOne(ctx, a.AuctionID, now, models.AuctionLive) {
		case sweepTransitioned:
			result.Ended++
		case sweepSkipped:
			result.Skipped++
		}
	}

	return result, nil
}

type sweepOutcome int

const (
	sweepNoChange sweepOutcome = iota
	sweepTransitioned
	sweepSkipped
)

// sweepOne applies the automatic transition for one auction if it is due.
// from is the status observed in the listing; the status and dates are
// re-checked inside the slot because bids may have run in between.
func (s *AuctionService) sweepOne(ctx context.Context, auctionID string, now time.Time, from models.AuctionStatus) sweepOutcome {
	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		utils.Warn("scheduler: slot busy, auction skipped this pass", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return sweepSkipped
	}
	defer release()

	var (
		target models.AuctionStatus
		mirror bool
	)
	updated, err := s.repo.ReconcileAuction(auctionID, func(a *models.Auction, bids []*models.Bid) (*models.Bid, error) {
		if a.Status != from {
			return nil, errNoChange
		}
		switch a.Status {
		case models.AuctionScheduled:
			if now.Before(a.StartDate) {
				return nil, errNoChange
			}
			target = models.AuctionLive
		case models.AuctionLive:
			if now.Before(a.EndDate) {
				return nil, errNoChange
			}
			target = models.AuctionEnded
		default:
			return nil, errNoChange
		}
		a.Status = target
		mirror = a.Published && target == models.AuctionLive
		return nil, nil
	})
	if errors.Is(err, errNoChange) {
		return sweepNoChange
	}
	if err != nil {
		utils.Error("scheduler: transition failed", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return sweepSkipped
	}

	if mirror {
		if err := s.repo.SetPropertyStatus(updated.PropertyID, models.PropertyInAuction); err != nil {
			utils.Warn("scheduler: property status mirror failed", map[string]any{
				"auction_id":  auctionID,
				"property_id": updated.PropertyID,
				"error":       err.Error(),
			})
		}
	}

	utils.Info("scheduler: auction transitioned", map[string]any{
		"auction_id": auctionID,
		"status":     string(updated.Status),
	})
	return sweepTransitioned
}
