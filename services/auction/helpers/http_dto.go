package helpers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs
type SubmitBidRequest struct {
	AuctionID string           `json:"auction_id" binding:"required"`
	BidderID  string           `json:"bidder_id" binding:"required"`
	Amount    decimal.Decimal  `json:"amount" binding:"required"`
	MaxAmount *decimal.Decimal `json:"max_amount"`
}

type BidResponse struct {
	BidID     string           `json:"bid_id"`
	AuctionID string           `json:"auction_id"`
	BidderID  string           `json:"bidder_id"`
	Amount    decimal.Decimal  `json:"amount"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	Status    string           `json:"status"`
	Winning   bool             `json:"winning"`
	Extended  bool             `json:"extended"`
	EndDate   string           `json:"end_date"`
	PlacedAt  string           `json:"placed_at"`
}

type CreateAuctionRequest struct {
	Title                string           `json:"title" binding:"required"`
	Description          string           `json:"description"`
	PropertyID           string           `json:"property_id" binding:"required"`
	StartDate            time.Time        `json:"start_date" binding:"required"`
	EndDate              time.Time        `json:"end_date" binding:"required"`
	RegistrationDeadline *time.Time       `json:"registration_deadline"`
	StartingBid          decimal.Decimal  `json:"starting_bid" binding:"required"`
	MinimumIncrement     *decimal.Decimal `json:"minimum_increment"`
	AutoExtendMinutes    int              `json:"auto_extend_minutes"`
	NotifyBeforeStart    int              `json:"notify_before_start"`
	NotifyBeforeEnd      int              `json:"notify_before_end"`
}

type PublishAuctionRequest struct {
	Published *bool `json:"published" binding:"required"`
}

type TransitionAuctionRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
	ActorID      string `json:"actor_id" binding:"required"`
}
