package auction

import (
	"context"
	"fmt"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/lock"
	"auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

// defaultMinimumIncrement applies when an auction is created without one.
var defaultMinimumIncrement = decimal.NewFromInt(100)

// AuctionService owns the auction lifecycle state machine, bid admission and
// reconciliation. Every aggregate mutation for one auction runs inside that
// auction's serialization slot, so bid reconciliation, manual transitions and
// scheduler sweeps never interleave for the same auction.
type AuctionService struct {
	repo     repository.AuctionDB
	locks    *lock.KeyedLock
	lockWait time.Duration
	clock    func() time.Time
}

// NewAuctionService creates a new AuctionService instance. lockWait bounds
// how long a caller may wait for an auction's serialization slot.
func NewAuctionService(repo repository.AuctionDB, locks *lock.KeyedLock, lockWait time.Duration) *AuctionService {
	return &AuctionService{
		repo:     repo,
		locks:    locks,
		lockWait: lockWait,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the service's time source. Intended for tests only.
func (s *AuctionService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// CreateAuctionInput carries the caller-supplied fields for a new auction.
type CreateAuctionInput struct {
	Title                string
	Description          string
	PropertyID           string
	StartDate            time.Time
	EndDate              time.Time
	RegistrationDeadline *time.Time
	StartingBid          decimal.Decimal
	MinimumIncrement     *decimal.Decimal
	AutoExtendMinutes    int
	NotifyBeforeStart    int
	NotifyBeforeEnd      int
}

// CreateAuction validates the schedule and stores a new auction in draft.
func (s *AuctionService) CreateAuction(in CreateAuctionInput) (models.Auction, error) {
	if in.Title == "" || in.PropertyID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing title or property id", auctionerrors.ErrInvalidAuction)
	}
	if in.StartingBid.Sign() <= 0 {
		return models.Auction{}, fmt.Errorf("service: %w - starting bid must be positive", auctionerrors.ErrInvalidAuction)
	}
	if err := validateSchedule(in.StartDate, in.EndDate, in.RegistrationDeadline); err != nil {
		return models.Auction{}, err
	}
	if in.AutoExtendMinutes < 0 {
		return models.Auction{}, fmt.Errorf("service: %w - negative auto extend window", auctionerrors.ErrInvalidAuction)
	}

	increment := defaultMinimumIncrement
	if in.MinimumIncrement != nil {
		if in.MinimumIncrement.Sign() < 0 {
			return models.Auction{}, fmt.Errorf("service: %w - negative minimum increment", auctionerrors.ErrInvalidAuction)
		}
		increment = *in.MinimumIncrement
	}

	now := s.clock()
	a := models.Auction{
		AuctionID:            utils.GenerateID(),
		Title:                in.Title,
		Description:          in.Description,
		Status:               models.AuctionDraft,
		PropertyID:           in.PropertyID,
		StartDate:            in.StartDate,
		EndDate:              in.EndDate,
		RegistrationDeadline: in.RegistrationDeadline,
		StartingBid:          in.StartingBid,
		MinimumIncrement:     increment,
		AutoExtendMinutes:    in.AutoExtendMinutes,
		NotifyBeforeStart:    in.NotifyBeforeStart,
		NotifyBeforeEnd:      in.NotifyBeforeEnd,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	created, err := s.repo.CreateAuction(a)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction for property %s: %w", in.PropertyID, err)
	}
	return created, nil
}

// TransitionAuction applies a manual lifecycle transition (for example a
// cancel) inside the auction's serialization slot.
func (s *AuctionService) TransitionAuction(ctx context.Context, auctionID string, target models.AuctionStatus, actorID string) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	defer release()

	var mirrorProperty bool
	updated, err := s.repo.ReconcileAuction(auctionID, func(a *models.Auction, bids []*models.Bid) (*models.Bid, error) {
		if !a.Status.CanTransitionTo(target) {
			return nil, fmt.Errorf("service: %w - %s to %s", auctionerrors.ErrInvalidTransition, a.Status, target)
		}
		if target == models.AuctionScheduled {
			if err := validateSchedule(a.StartDate, a.EndDate, a.RegistrationDeadline); err != nil {
				return nil, err
			}
		}
		a.Status = target
		mirrorProperty = a.Published && (target == models.AuctionScheduled || target == models.AuctionLive)
		return nil, nil
	})
	if err != nil {
		return models.Auction{}, err
	}

	if mirrorProperty {
		if err := s.repo.SetPropertyStatus(updated.PropertyID, models.PropertyInAuction); err != nil {
			utils.Warn("transition: property status mirror failed", map[string]any{
				"auction_id":  auctionID,
				"property_id": updated.PropertyID,
				"error":       err.Error(),
			})
		}
	}

	utils.Info("auction transitioned", map[string]any{
		"auction_id": auctionID,
		"status":     string(updated.Status),
		"actor_id":   actorID,
	})
	return updated, nil
}

// SetPublished flips the auction's visibility flag. Publishing an auction
// that is already scheduled or live mirrors the property status to in_auction.
func (s *AuctionService) SetPublished(ctx context.Context, auctionID string, published bool) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}

	release, err := s.acquire(ctx, auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	defer release()

	var mirrorProperty bool
	updated, err := s.repo.ReconcileAuction(auctionID, func(a *models.Auction, bids []*models.Bid) (*models.Bid, error) {
		a.Published = published
		mirrorProperty = published && (a.Status == models.AuctionScheduled || a.Status == models.AuctionLive)
		return nil, nil
	})
	if err != nil {
		return models.Auction{}, err
	}

	if mirrorProperty {
		if err := s.repo.SetPropertyStatus(updated.PropertyID, models.PropertyInAuction); err != nil {
			utils.Warn("publish: property status mirror failed", map[string]any{
				"auction_id":  auctionID,
				"property_id": updated.PropertyID,
				"error":       err.Error(),
			})
		}
	}
	return updated, nil
}

// AuctionState is the read model exposed for one auction.
type AuctionState struct {
	AuctionID     string               `json:"auction_id"`
	Slug          string               `json:"slug"`
	Status        models.AuctionStatus `json:"status"`
	CurrentBid    *decimal.Decimal     `json:"current_bid"`
	BidCount      int                  `json:"bid_count"`
	EndDate       time.Time            `json:"end_date"`
	TimeRemaining models.TimeRemaining `json:"time_remaining"`
}

// GetAuctionState returns the auction's status and aggregates
func (s *AuctionService) GetAuctionState(auctionID string) (AuctionState, error) {
	if auctionID == "" {
		return AuctionState{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidAuction)
	}

	a, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return AuctionState{}, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	return s.stateOf(a), nil
}

// GetAuctionStateBySlug returns the auction's status and aggregates looked up by slug
func (s *AuctionService) GetAuctionStateBySlug(slug string) (AuctionState, error) {
	if slug == "" {
		return AuctionState{}, fmt.Errorf("service: %w - empty slug", auctionerrors.ErrInvalidAuction)
	}

	a, err := s.repo.GetAuctionBySlug(slug)
	if err != nil {
		return AuctionState{}, fmt.Errorf("service: failed to get auction by slug %s: %w", slug, err)
	}
	return s.stateOf(a), nil
}

func (s *AuctionService) stateOf(a models.Auction) AuctionState {
	state := AuctionState{
		AuctionID:     a.AuctionID,
		Slug:          a.Slug,
		Status:        a.Status,
		BidCount:      a.BidCount,
		EndDate:       a.EndDate,
		TimeRemaining: a.TimeRemaining(s.clock()),
	}
	if a.HasBid {
		current := a.CurrentBid
		state.CurrentBid = &current
	}
	return state
}

// GetBidsForAuction returns all bids recorded for a specific auction
func (s *AuctionService) GetBidsForAuction(auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByAuction(auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetWinningBid returns the bid currently holding winning status
func (s *AuctionService) GetWinningBid(auctionID string) (models.Bid, error) {
	if auctionID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidBid)
	}

	bid, err := s.repo.GetWinningBid(auctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to get winning bid for auction %s: %w", auctionID, err)
	}
	return bid, nil
}

// GetAuctionsByBidder returns all auctions a user has placed bids on
func (s *AuctionService) GetAuctionsByBidder(userID string) ([]models.Auction, error) {
	if userID == "" {
		return nil, fmt.Errorf("service: %w - empty user ID", auctionerrors.ErrInvalidBid)
	}

	auctions, err := s.repo.GetAuctionsByBidder(userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions for user %s: %w", userID, err)
	}
	return auctions, nil
}

// acquire takes the auction's serialization slot, bounded by lockWait unless
// the caller's context ends first.
func (s *AuctionService) acquire(ctx context.Context, auctionID string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	release, err := s.locks.Acquire(waitCtx, auctionID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("service: %w", err)
	}
	return func() {
		release()
		cancel()
	}, nil
}

func validateSchedule(start, end time.Time, regDeadline *time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("service: %w - start and end dates required", auctionerrors.ErrInvalidSchedule)
	}
	if !end.After(start) {
		return fmt.Errorf("service: %w", auctionerrors.ErrInvalidSchedule)
	}
	if regDeadline != nil && regDeadline.After(start) {
		return fmt.Errorf("service: %w - registration deadline after start", auctionerrors.ErrInvalidSchedule)
	}
	return nil
}
