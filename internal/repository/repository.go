package repository

import (
	"fmt"
	"sync"
	"time"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
)

// ReconcileFunc mutates one auction and its bids inside the registry's
// atomic update unit. It may return a new bid to append; the repository
// assigns its PlacedAt timestamp, monotonic per auction. If the function
// returns an error, no mutation is committed.
type ReconcileFunc func(a *model.Auction, bids []*model.Bid) (*model.Bid, error)

// AuctionDB defines the auction and bid storage interface for the engine.
// ReconcileAuction is the atomic multi-field update scoped to one auction;
// every aggregate mutation (bid reconciliation, lifecycle transition,
// anti-sniping extension) goes through it.
type AuctionDB interface {
	CreateAuction(a model.Auction) (model.Auction, error)
	GetAuction(auctionID string) (model.Auction, error)
	GetAuctionBySlug(slug string) (model.Auction, error)
	ListAuctionsByStatus(status model.AuctionStatus) ([]model.Auction, error)
	ReconcileAuction(auctionID string, fn ReconcileFunc) (model.Auction, error)
	RecordAuditBid(bid model.Bid) (model.Bid, error)
	GetBidsByAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
	GetAuctionsByBidder(userID string) ([]model.Auction, error)
	GetProperty(propertyID string) (model.Property, error)
	SetPropertyStatus(propertyID string, status model.PropertyStatus) error
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu          sync.RWMutex
	auctions    map[string]model.Auction // key: auctionID
	slugs       map[string]string        // key: slug -> auctionID
	bids        map[string][]model.Bid   // key: auctionID -> bids in placement order
	lastBidTime map[string]time.Time     // key: auctionID -> latest assigned PlacedAt
	properties  map[string]model.Property
	userBids    map[string][]string // key: userID -> auctionIDs the user has bid on
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:    make(map[string]model.Auction),
		slugs:       make(map[string]string),
		bids:        make(map[string][]model.Bid),
		lastBidTime: make(map[string]time.Time),
		properties:  make(map[string]model.Property),
		userBids:    make(map[string][]string),
	}
}

// CreateAuction stores a new auction, deriving a globally unique slug from
// its title. Slug collisions are resolved by suffixing an incrementing counter.
func (r *MemoryRepo) CreateAuction(a model.Auction) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[a.AuctionID]; ok {
		return model.Auction{}, fmt.Errorf("create auction %s: %w - id already exists", a.AuctionID, auctionerrors.ErrInvalidAuction)
	}
	if _, ok := r.properties[a.PropertyID]; !ok {
		return model.Auction{}, fmt.Errorf("create auction %s: %w", a.AuctionID, auctionerrors.ErrPropertyNotFound)
	}

	base := model.SlugFromTitle(a.Title)
	candidate := base
	for count := 1; ; count++ {
		if _, taken := r.slugs[candidate]; !taken {
			break
		}
		candidate = fmt.Sprintf("%s-%d", base, count)
	}
	a.Slug = candidate

	r.slugs[a.Slug] = a.AuctionID
	r.auctions[a.AuctionID] = a
	return a, nil
}

// GetAuction returns the auction with the given id
func (r *MemoryRepo) GetAuction(auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// GetAuctionBySlug returns the auction with the given slug
func (r *MemoryRepo) GetAuctionBySlug(slug string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.slugs[slug]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction by slug %s: %w", slug, auctionerrors.ErrAuctionNotFound)
	}
	return r.auctions[id], nil
}

// ListAuctionsByStatus returns all auctions currently in the given status
func (r *MemoryRepo) ListAuctionsByStatus(status model.AuctionStatus) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Auction
	for _, a := range r.auctions {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

// ReconcileAuction runs fn against the auction's current state and commits
// all resulting mutations as one unit. The auction, its bids, and any new
// bid returned by fn are written back together; on error nothing changes.
func (r *MemoryRepo) ReconcileAuction(auctionID string, fn ReconcileFunc) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("reconcile auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	stored := r.bids[auctionID]
	working := make([]model.Bid, len(stored))
	copy(working, stored)
	refs := make([]*model.Bid, len(working))
	for i := range working {
		refs[i] = &working[i]
	}

	newBid, err := fn(&a, refs)
	if err != nil {
		return model.Auction{}, err
	}

	if newBid != nil {
		newBid.PlacedAt = r.nextBidTime(auctionID, newBid.PlacedAt)
		working = append(working, *newBid)
		r.trackBidder(newBid.BidderID, auctionID)
	}

	a.UpdatedAt = time.Now().UTC()
	r.auctions[auctionID] = a
	r.bids[auctionID] = working
	return a, nil
}

// RecordAuditBid stores a bid record outside the reconciliation path, used
// for rejected bids kept for audit. It never touches auction aggregates.
func (r *MemoryRepo) RecordAuditBid(bid model.Bid) (model.Bid, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[bid.AuctionID]; !ok {
		return model.Bid{}, fmt.Errorf("record audit bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	bid.PlacedAt = r.nextBidTime(bid.AuctionID, bid.PlacedAt)
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)
	r.trackBidder(bid.BidderID, bid.AuctionID)
	return bid, nil
}

// GetBidsByAuction returns all bids recorded for an auction, rejected ones included
func (r *MemoryRepo) GetBidsByAuction(auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	bids := r.bids[auctionID]
	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return append([]model.Bid(nil), bids...), nil
}

// GetWinningBid returns the bid currently holding winning status for an auction
func (r *MemoryRepo) GetWinningBid(auctionID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	for _, b := range r.bids[auctionID] {
		if b.Status == model.BidWinning {
			return b, nil
		}
	}
	return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoWinningBid)
}

// GetAuctionsByBidder returns all auctions a user has placed bids on
func (r *MemoryRepo) GetAuctionsByBidder(userID string) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.userBids[userID]
	if !ok || len(ids) == 0 {
		return nil, fmt.Errorf("get auctions for user %s: %w", userID, auctionerrors.ErrUserNoBids)
	}

	auctions := make([]model.Auction, 0, len(ids))
	for _, id := range ids {
		if a, exists := r.auctions[id]; exists {
			auctions = append(auctions, a)
		}
	}
	return auctions, nil
}

// GetProperty returns the property with the given id
func (r *MemoryRepo) GetProperty(propertyID string) (model.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.properties[propertyID]
	if !ok {
		return model.Property{}, fmt.Errorf("get property %s: %w", propertyID, auctionerrors.ErrPropertyNotFound)
	}
	return p, nil
}

// SetPropertyStatus updates the mirrored status of a property
func (r *MemoryRepo) SetPropertyStatus(propertyID string, status model.PropertyStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.properties[propertyID]
	if !ok {
		return fmt.Errorf("set property status %s: %w", propertyID, auctionerrors.ErrPropertyNotFound)
	}
	p.Status = status
	r.properties[propertyID] = p
	return nil
}

// AddProperty adds a property to the repository, used for seeding and tests.
func (r *MemoryRepo) AddProperty(p model.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties[p.PropertyID] = p
}

// nextBidTime assigns a per-auction monotonic timestamp so equal submission
// times still have a deterministic order. Caller must hold r.mu.
func (r *MemoryRepo) nextBidTime(auctionID string, proposed time.Time) time.Time {
	if proposed.IsZero() {
		proposed = time.Now().UTC()
	}
	if last, ok := r.lastBidTime[auctionID]; ok && !proposed.After(last) {
		proposed = last.Add(time.Nanosecond)
	}
	r.lastBidTime[auctionID] = proposed
	return proposed
}

// trackBidder records that a user has bid on an auction. Caller must hold r.mu.
func (r *MemoryRepo) trackBidder(userID, auctionID string) {
	for _, id := range r.userBids[userID] {
		if id == auctionID {
			return
		}
	}
	r.userBids[userID] = append(r.userBids[userID], auctionID)
}
