package main

import (
	"context"
	"fmt"
	"os"
	"time"

	auction "auction-engine/internal/auctionService"
	"auction-engine/internal/config"
	"auction-engine/internal/lock"
	model "auction-engine/internal/models"
	"auction-engine/internal/repository"
	"auction-engine/internal/scheduler"
	"auction-engine/internal/server"
	"auction-engine/utils"

	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	utils.SetDebug(cfg.Debug)

	repo := repository.NewMemoryRepo()
	auctionSvc := auction.NewAuctionService(repo, lock.NewKeyedLock(), cfg.Engine.LockWait)

	if cfg.Debug {
		seedDemoData(repo, auctionSvc)
	}

	sched := scheduler.New(auctionSvc, cfg.Engine.SchedulerInterval)
	sched.Start()
	defer sched.Stop()

	router := server.SetupRouter(auctionSvc)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	fmt.Printf("Starting auction server on %s...\n", addr)
	if err := router.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}
}

// seedDemoData populates the in-memory repo with a property and a published
// live auction so the API can be exercised right after startup.
func seedDemoData(repo *repository.MemoryRepo, svc *auction.AuctionService) {
	repo.AddProperty(model.Property{
		PropertyID: "prop1",
		Title:      "Villa in Riyadh",
		OwnerID:    "owner1",
		Status:     model.PropertyAvailable,
	})

	now := time.Now().UTC()
	increment := decimal.NewFromInt(50)
	created, err := svc.CreateAuction(auction.CreateAuctionInput{
		Title:             "Villa in Riyadh Auction",
		Description:       "Demo auction seeded in debug mode",
		PropertyID:        "prop1",
		StartDate:         now.Add(-time.Minute),
		EndDate:           now.Add(24 * time.Hour),
		StartingBid:       decimal.NewFromInt(500000),
		MinimumIncrement:  &increment,
		AutoExtendMinutes: 5,
	})
	if err != nil {
		utils.Warn("demo seed: create auction failed", map[string]any{"error": err.Error()})
		return
	}

	ctx := context.Background()
	if _, err := svc.TransitionAuction(ctx, created.AuctionID, model.AuctionScheduled, "seed"); err != nil {
		utils.Warn("demo seed: schedule failed", map[string]any{"error": err.Error()})
		return
	}
	if _, err := svc.SetPublished(ctx, created.AuctionID, true); err != nil {
		utils.Warn("demo seed: publish failed", map[string]any{"error": err.Error()})
		return
	}

	utils.Info("demo auction seeded", map[string]any{
		"auction_id": created.AuctionID,
		"slug":       created.Slug,
	})
}
