package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-engine/internal/auctionerrors"
	auction "auction-engine/internal/auctionService"
	model "auction-engine/internal/models"
	"auction-engine/services/auction/helpers"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AuctionServiceInterface interface {
	CreateAuction(in auction.CreateAuctionInput) (model.Auction, error)
	SetPublished(ctx context.Context, auctionID string, published bool) (model.Auction, error)
	TransitionAuction(ctx context.Context, auctionID string, target model.AuctionStatus, actorID string) (model.Auction, error)
	SubmitBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal, maxAmount *decimal.Decimal, audit auction.BidAudit) (auction.BidResult, error)
	GetAuctionState(auctionID string) (auction.AuctionState, error)
	GetAuctionStateBySlug(slug string) (auction.AuctionState, error)
	GetBidsForAuction(auctionID string) ([]model.Bid, error)
	GetWinningBid(auctionID string) (model.Bid, error)
	GetAuctionsByBidder(userID string) ([]model.Auction, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	created, err := h.service.CreateAuction(auction.CreateAuctionInput{
		Title:                req.Title,
		Description:          req.Description,
		PropertyID:           req.PropertyID,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		StartingBid:          req.StartingBid,
		MinimumIncrement:     req.MinimumIncrement,
		AutoExtendMinutes:    req.AutoExtendMinutes,
		NotifyBeforeStart:    req.NotifyBeforeStart,
		NotifyBeforeEnd:      req.NotifyBeforeEnd,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"property_id": req.PropertyID,
			"error":       err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, created, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id":  created.AuctionID,
		"slug":        created.Slug,
		"property_id": created.PropertyID,
	})
}

// PublishAuctionHandler handles POST /auctions/:auction_id/publish
func (h *AuctionHandler) PublishAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.PublishAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PublishAuctionHandler", err)
		return
	}

	updated, err := h.service.SetPublished(c.Request.Context(), auctionID, *req.Published)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("PublishAuctionHandler: failed to update visibility", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, updated, "auction visibility updated")
	helpers.LogSuccess("PublishAuctionHandler", "auction visibility updated", map[string]any{
		"auction_id": updated.AuctionID,
		"published":  updated.Published,
	})
}

// TransitionAuctionHandler handles POST /auctions/:auction_id/transition
func (h *AuctionHandler) TransitionAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.TransitionAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "TransitionAuctionHandler", err)
		return
	}

	updated, err := h.service.TransitionAuction(c.Request.Context(), auctionID, model.AuctionStatus(req.TargetStatus), req.ActorID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("TransitionAuctionHandler: transition failed", map[string]any{
			"auction_id": auctionID,
			"target":     req.TargetStatus,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, updated, "auction transitioned successfully")
	helpers.LogSuccess("TransitionAuctionHandler", "auction transitioned successfully", map[string]any{
		"auction_id": updated.AuctionID,
		"status":     string(updated.Status),
		"actor_id":   req.ActorID,
	})
}

// SubmitBidHandler handles POST /bids
func (h *AuctionHandler) SubmitBidHandler(c *gin.Context) {
	var req helpers.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SubmitBidHandler", err)
		return
	}

	audit := auction.BidAudit{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	result, err := h.service.SubmitBid(c.Request.Context(), req.AuctionID, req.BidderID, req.Amount, req.MaxAmount, audit)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("SubmitBidHandler: bid not accepted", map[string]any{
			"auction_id": req.AuctionID,
			"bidder_id":  req.BidderID,
			"amount":     req.Amount.String(),
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.BidResponse{
		BidID:     result.Bid.BidID,
		AuctionID: result.Bid.AuctionID,
		BidderID:  result.Bid.BidderID,
		Amount:    result.Bid.Amount,
		MaxAmount: result.Bid.MaxAmount,
		Status:    string(result.Bid.Status),
		Winning:   result.Winning,
		Extended:  result.Extended,
		EndDate:   result.EndDate.UTC().Format(time.RFC3339),
		PlacedAt:  result.Bid.PlacedAt.UTC().Format(time.RFC3339Nano),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid accepted")
	helpers.LogSuccess("SubmitBidHandler", "bid accepted", map[string]any{
		"bid_id":     result.Bid.BidID,
		"auction_id": result.Bid.AuctionID,
		"bidder_id":  result.Bid.BidderID,
		"amount":     result.Bid.Amount.String(),
		"extended":   result.Extended,
	})
}

// GetAuctionStateHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionStateHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	state, err := h.service.GetAuctionState(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionStateHandler: error retrieving auction", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, state, "auction state retrieved successfully")
}

// GetAuctionBySlugHandler handles GET /auctions/slug/:slug
func (h *AuctionHandler) GetAuctionBySlugHandler(c *gin.Context) {
	slug := c.Param("slug")
	state, err := h.service.GetAuctionStateBySlug(slug)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionBySlugHandler: error retrieving auction", map[string]any{"slug": slug, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, state, "auction state retrieved successfully")
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidsForAuction(auctionID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetBidsByAuctionHandler: error retrieving bids", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}

// GetWinningBidHandler handles GET /auctions/:auction_id/winning
func (h *AuctionHandler) GetWinningBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bid, err := h.service.GetWinningBid(auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoWinningBid) {
			utils.JSONError(c, http.StatusNotFound, err, "no winning bid found")
			utils.Info("GetWinningBidHandler: no winning bid found", map[string]any{"auction_id": auctionID})
			return
		}
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetWinningBidHandler: winning bid error", map[string]any{"auction_id": auctionID, "error": err.Error()})
		return
	}

	resp := helpers.BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		MaxAmount: bid.MaxAmount,
		Status:    string(bid.Status),
		Winning:   true,
		PlacedAt:  bid.PlacedAt.UTC().Format(time.RFC3339Nano),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "winning bid retrieved successfully")
}

// GetAuctionsByUserHandler handles GET /users/:user_id/auctions
func (h *AuctionHandler) GetAuctionsByUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	auctions, err := h.service.GetAuctionsByBidder(userID)
	if err != nil && !errors.Is(err, auctionerrors.ErrUserNoBids) {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionsByUserHandler: error retrieving auctions", map[string]any{"user_id": userID, "error": err.Error()})
		return
	}

	if auctions == nil {
		auctions = []model.Auction{}
	}

	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
	helpers.LogSuccess("GetAuctionsByUserHandler", "auctions retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(auctions),
	})
}
