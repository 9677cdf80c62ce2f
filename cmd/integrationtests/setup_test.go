package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "auction-engine/internal/auctionService"
	"auction-engine/internal/lock"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestEnv bundles the router with the live handles tests need for seeding.
type TestEnv struct {
	Router  *gin.Engine
	Repo    *repository.MemoryRepo
	Service *auction.AuctionService
}

// SetupTestEnv initializes the router with an in-memory repository for
// integration testing and seeds one property.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	repo.AddProperty(model.Property{
		PropertyID: "prop1",
		Title:      "Integration Test Property",
		OwnerID:    "owner1",
		Status:     model.PropertyAvailable,
	})

	service := auction.NewAuctionService(repo, lock.NewKeyedLock(), 500*time.Millisecond)
	return &TestEnv{
		Router:  server.SetupRouter(service),
		Repo:    repo,
		Service: service,
	}
}

// SeedLiveAuction creates a published live auction ready to accept bids.
func (env *TestEnv) SeedLiveAuction(t *testing.T, startingBid, increment int64, endIn time.Duration, autoExtendMinutes int) model.Auction {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	incr := decimal.NewFromInt(increment)
	created, err := env.Service.CreateAuction(auction.CreateAuctionInput{
		Title:             "Integration Test Auction",
		PropertyID:        "prop1",
		StartDate:         now.Add(-time.Hour),
		EndDate:           now.Add(endIn),
		StartingBid:       decimal.NewFromInt(startingBid),
		MinimumIncrement:  &incr,
		AutoExtendMinutes: autoExtendMinutes,
	})
	require.NoError(t, err)

	_, err = env.Service.TransitionAuction(ctx, created.AuctionID, model.AuctionScheduled, "seed")
	require.NoError(t, err)
	_, err = env.Service.SetPublished(ctx, created.AuctionID, true)
	require.NoError(t, err)
	live, err := env.Service.TransitionAuction(ctx, created.AuctionID, model.AuctionLive, "seed")
	require.NoError(t, err)
	return live
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses
// the enveloped response. For 2xx creations the data payload is returned.
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if data, ok := resp["data"].(map[string]any); ok && w.Code >= 200 && w.Code < 300 {
			resp = data
		}
	}
	return resp, w
}
