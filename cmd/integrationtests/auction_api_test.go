package integrationtests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	auction "auction-engine/internal/auctionService"
	"auction-engine/services/auction/helpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// SubmitBidHandler tests
func TestSubmitBidEndpoint(t *testing.T) {
	t.Run("Valid_Bid", func(t *testing.T) {
		env := SetupTestEnv(t)
		a := env.SeedLiveAuction(t, 900, 50, time.Hour, 0)

		req := helpers.SubmitBidRequest{
			AuctionID: a.AuctionID,
			BidderID:  "user1",
			Amount:    dec(1000),
		}
		resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bids", req)
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, a.AuctionID, resp["auction_id"])
		require.Equal(t, "user1", resp["bidder_id"])
		require.Equal(t, "winning", resp["status"])
		require.Equal(t, true, resp["winning"])
		require.NotEmpty(t, resp["bid_id"])

		_, err := time.Parse(time.RFC3339Nano, resp["placed_at"].(string))
		require.NoError(t, err)
	})

	t.Run("Invalid_JSON", func(t *testing.T) {
		env := SetupTestEnv(t)
		_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bids", "{auction_id: 'missing quotes'}")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Bid_Below_Floor_Conflicts", func(t *testing.T) {
		env := SetupTestEnv(t)
		a := env.SeedLiveAuction(t, 900, 50, time.Hour, 0)

		_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bids", helpers.SubmitBidRequest{
			AuctionID: a.AuctionID, BidderID: "user1", Amount: dec(950),
		})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Owner_Self_Bid_Forbidden", func(t *testing.T) {
		env := SetupTestEnv(t)
		a := env.SeedLiveAuction(t, 900, 50, time.Hour, 0)

		_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bids", helpers.SubmitBidRequest{
			AuctionID: a.AuctionID, BidderID: "owner1", Amount: dec(1000),
		})
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Unknown_Auction_NotFound", func(t *testing.T) {
		env := SetupTestEnv(t)
		_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bids", helpers.SubmitBidRequest{
			AuctionID: "missing", BidderID: "user1", Amount: dec(1000),
		})
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Draft_Auction_Unprocessable", func(t *testing.T) {
		env := SetupTestEnv(t)
		created, err := env.Service.CreateAuction(newDraftInput())
		require.NoError(t, err)

		_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bids", helpers.SubmitBidRequest{
			AuctionID: created.AuctionID, BidderID: "user1", Amount: dec(5000),
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

// CreateAuctionHandler tests
func TestCreateAuctionEndpoint(t *testing.T) {
	t.Run("Valid_Auction", func(t *testing.T) {
		env := SetupTestEnv(t)
		now := time.Now().UTC()

		req := helpers.CreateAuctionRequest{
			Title:       "Seaside Villa Auction",
			PropertyID:  "prop1",
			StartDate:   now.Add(time.Hour),
			EndDate:     now.Add(25 * time.Hour),
			StartingBid: dec(500000),
		}
		resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions", req)
		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "seaside-villa-auction", resp["slug"])
		require.Equal(t, "draft", resp["status"])
	})

	t.Run("End_Before_Start_Rejected", func(t *testing.T) {
		env := SetupTestEnv(t)
		now := time.Now().UTC()

		req := helpers.CreateAuctionRequest{
			Title:       "Broken Schedule",
			PropertyID:  "prop1",
			StartDate:   now.Add(2 * time.Hour),
			EndDate:     now.Add(time.Hour),
			StartingBid: dec(500000),
		}
		_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions", req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Duplicate_Title_Gets_Suffixed_Slug", func(t *testing.T) {
		env := SetupTestEnv(t)
		now := time.Now().UTC()

		req := helpers.CreateAuctionRequest{
			Title:       "Twin Auction",
			PropertyID:  "prop1",
			StartDate:   now.Add(time.Hour),
			EndDate:     now.Add(25 * time.Hour),
			StartingBid: dec(1000),
		}
		first, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions", req)
		require.Equal(t, http.StatusCreated, w.Code)
		second, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/auctions", req)
		require.Equal(t, http.StatusCreated, w.Code)

		require.Equal(t, "twin-auction", first["slug"])
		require.Equal(t, "twin-auction-1", second["slug"])
	})
}

// GetAuctionStateHandler tests
func TestGetAuctionStateEndpoint(t *testing.T) {
	env := SetupTestEnv(t)
	a := env.SeedLiveAuction(t, 900, 50, time.Hour, 0)

	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+a.AuctionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "live", resp["status"])
	require.Nil(t, resp["current_bid"])
	require.Equal(t, 0.0, resp["bid_count"])

	_, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bids", helpers.SubmitBidRequest{
		AuctionID: a.AuctionID, BidderID: "user1", Amount: dec(1000),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+a.AuctionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1000", resp["current_bid"])
	require.Equal(t, 1.0, resp["bid_count"])

	bySlug, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/slug/"+a.Slug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, a.AuctionID, bySlug["auction_id"])

	_, w = ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/nonexistent", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

// TransitionAuctionHandler tests
func TestTransitionEndpoint(t *testing.T) {
	env := SetupTestEnv(t)
	a := env.SeedLiveAuction(t, 900, 50, time.Hour, 0)

	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost,
		fmt.Sprintf("/auctions/%s/transition", a.AuctionID),
		helpers.TransitionAuctionRequest{TargetStatus: "cancelled", ActorID: "admin1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "cancelled", resp["status"])

	// cancelled is terminal
	_, w = ExecuteRequestAndParse(t, env.Router, http.MethodPost,
		fmt.Sprintf("/auctions/%s/transition", a.AuctionID),
		helpers.TransitionAuctionRequest{TargetStatus: "completed", ActorID: "admin1"})
	require.Equal(t, http.StatusConflict, w.Code)
}

// Winning bid and bid listing endpoints
func TestBidReadEndpoints(t *testing.T) {
	env := SetupTestEnv(t)
	a := env.SeedLiveAuction(t, 900, 50, time.Hour, 0)

	// No winning bid yet
	_, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+a.AuctionID+"/winning", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	for i, amount := range []int64{1000, 1100, 1200} {
		_, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bids", helpers.SubmitBidRequest{
			AuctionID: a.AuctionID, BidderID: fmt.Sprintf("user%d", i), Amount: dec(amount),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	winning, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+a.AuctionID+"/winning", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1200", winning["amount"])
	require.Equal(t, "user2", winning["bidder_id"])

	list, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/auctions/"+a.AuctionID+"/bids", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, list["data"], 3)

	userAuctions, w := ExecuteRequestAndParse(t, env.Router, http.MethodGet, "/users/user0/auctions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, userAuctions["data"], 1)
}

// Anti-sniping through the full HTTP path
func TestAntiSnipingThroughAPI(t *testing.T) {
	env := SetupTestEnv(t)
	a := env.SeedLiveAuction(t, 900, 50, 2*time.Minute, 5)

	resp, w := ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bids", helpers.SubmitBidRequest{
		AuctionID: a.AuctionID, BidderID: "user1", Amount: dec(1000),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, true, resp["extended"])

	newEnd, err := time.Parse(time.RFC3339, resp["end_date"].(string))
	require.NoError(t, err)
	require.True(t, newEnd.After(a.EndDate.Add(2*time.Minute+59*time.Second)))
}

func newDraftInput() auction.CreateAuctionInput {
	now := time.Now().UTC()
	return auction.CreateAuctionInput{
		Title:       "Draft Only Auction",
		PropertyID:  "prop1",
		StartDate:   now.Add(time.Hour),
		EndDate:     now.Add(25 * time.Hour),
		StartingBid: dec(1000),
	}
}
