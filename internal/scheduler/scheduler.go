package scheduler

import (
	"context"
	"sync"
	"time"

	auction "auction-engine/internal/auctionService"
	"auction-engine/utils"
)

// Scheduler periodically advances auction schedules: scheduled auctions go
// live when their start date passes, live auctions end when their end date
// passes. All transitions go through the service's per-auction serialization,
// so a sweep never races an in-flight bid.
type Scheduler struct {
	service  *auction.AuctionService
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a scheduler ticking at the given interval
func New(service *auction.AuctionService, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		service:  service,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the sweep loop. An immediate pass runs before the first tick
// so restarts catch up on overdue transitions without waiting an interval.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.sweep()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.ctx.Done():
				return
			}
		}
	}()

	utils.Info("scheduler started", map[string]any{"interval": s.interval.String()})
}

// Stop cancels the loop and waits for an in-flight sweep to finish
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	utils.Info("scheduler stopped", nil)
}

func (s *Scheduler) sweep() {
	result, err := s.service.AdvanceSchedules(s.ctx, time.Now().UTC())
	if err != nil {
		utils.Error("scheduler sweep failed", map[string]any{"error": err.Error()})
		return
	}
	if result.Started > 0 || result.Ended > 0 || result.Skipped > 0 {
		utils.Info("scheduler sweep completed", map[string]any{
			"started": result.Started,
			"ended":   result.Ended,
			"skipped": result.Skipped,
		})
	}
}
