package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-engine/internal/auctionerrors"
	"auction-engine/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message.
// Validation and concurrency rejections are expected outcomes, not internal
// errors; only invariant violations fall through to 500.
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrPropertyNotFound):
		return http.StatusNotFound, "property not found"
	case errors.Is(err, auctionerrors.ErrInvalidBid),
		errors.Is(err, auctionerrors.ErrInvalidAuction),
		errors.Is(err, auctionerrors.ErrInvalidSchedule),
		errors.Is(err, auctionerrors.ErrCeilingBelowAmount):
		return http.StatusBadRequest, "invalid request details"
	case errors.Is(err, auctionerrors.ErrOwnBid):
		return http.StatusForbidden, "property owner cannot bid on own auction"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrBidSuperseded):
		return http.StatusConflict, "bid superseded by concurrent higher bid"
	case errors.Is(err, auctionerrors.ErrInvalidTransition):
		return http.StatusConflict, "transition not allowed"
	case errors.Is(err, auctionerrors.ErrAuctionNotLive),
		errors.Is(err, auctionerrors.ErrAuctionNotPublished),
		errors.Is(err, auctionerrors.ErrAuctionEnded):
		return http.StatusUnprocessableEntity, "auction is not accepting bids"
	case errors.Is(err, auctionerrors.ErrAuctionBusy):
		return http.StatusServiceUnavailable, "auction busy, retry later"
	case errors.Is(err, auctionerrors.ErrNoBids):
		return http.StatusOK, "no bids found for auction"
	case errors.Is(err, auctionerrors.ErrUserNoBids):
		return http.StatusOK, "no auctions found for user"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
