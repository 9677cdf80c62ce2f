package auction

import (
	"context"
	"testing"
	"time"

	"auction-engine/internal/auctionerrors"
	"auction-engine/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func createScheduledAuction(t *testing.T, service *AuctionService, start, end time.Time, published bool) models.Auction {
	t.Helper()
	ctx := context.Background()

	created, err := service.CreateAuction(CreateAuctionInput{
		Title:       "Schedule Test Auction",
		PropertyID:  "prop1",
		StartDate:   start,
		EndDate:     end,
		StartingBid: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	scheduled, err := service.TransitionAuction(ctx, created.AuctionID, models.AuctionScheduled, "test")
	require.NoError(t, err)
	if published {
		scheduled, err = service.SetPublished(ctx, created.AuctionID, true)
		require.NoError(t, err)
	}
	return scheduled
}

func TestAdvanceSchedules_StartsDueAuctions(t *testing.T) {
	service, repo := newEngineFixture(t)
	now := time.Now().UTC()
	a := createScheduledAuction(t, service, now.Add(-time.Minute), now.Add(time.Hour), true)

	result, err := service.AdvanceSchedules(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, result.Started)
	require.Equal(t, 0, result.Ended)

	stored, err := repo.GetAuction(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, models.AuctionLive, stored.Status)

	// Going live while published mirrors the property status
	p, err := repo.GetProperty("prop1")
	require.NoError(t, err)
	require.Equal(t, models.PropertyInAuction, p.Status)
}

func TestAdvanceSchedules_IdempotentForSameInstant(t *testing.T) {
	service, _ := newEngineFixture(t)
	now := time.Now().UTC()
	createScheduledAuction(t, service, now.Add(-time.Minute), now.Add(time.Hour), true)

	first, err := service.AdvanceSchedules(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, first.Started)

	second, err := service.AdvanceSchedules(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 0, second.Started)
	require.Equal(t, 0, second.Ended)
}

func TestAdvanceSchedules_LeavesFutureAuctionsAlone(t *testing.T) {
	service, repo := newEngineFixture(t)
	now := time.Now().UTC()
	a := createScheduledAuction(t, service, now.Add(time.Hour), now.Add(2*time.Hour), true)

	result, err := service.AdvanceSchedules(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 0, result.Started)

	stored, err := repo.GetAuction(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, models.AuctionScheduled, stored.Status)
}

func TestAdvanceSchedules_EndsOverdueLiveAuctions(t *testing.T) {
	service, repo := newEngineFixture(t)
	a := newLiveAuction(t, service, 900, 50, time.Minute, 0)

	after := a.EndDate.Add(time.Second)
	result, err := service.AdvanceSchedules(context.Background(), after)
	require.NoError(t, err)
	require.Equal(t, 1, result.Ended)

	stored, err := repo.GetAuction(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, models.AuctionEnded, stored.Status)

	// A second sweep for the same instant finds nothing to do
	again, err := service.AdvanceSchedules(context.Background(), after)
	require.NoError(t, err)
	require.Equal(t, 0, again.Ended)
}

// An anti-sniping extension committed by a bid must be honored by the sweep:
// the end date is re-read inside the serialization slot.
func TestAdvanceSchedules_SkipsExtendedAuction(t *testing.T) {
	service, repo := newEngineFixture(t)
	a := newLiveAuction(t, service, 900, 50, 2*time.Minute, 5)
	originalEnd := a.EndDate

	result, err := service.SubmitBid(context.Background(), a.AuctionID, "user1", dec(1000), nil, BidAudit{})
	require.NoError(t, err)
	require.True(t, result.Extended)

	sweep, err := service.AdvanceSchedules(context.Background(), originalEnd.Add(time.Second))
	require.NoError(t, err)
	require.Equal(t, 0, sweep.Ended)

	stored, err := repo.GetAuction(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, models.AuctionLive, stored.Status)
}

func TestAdvanceSchedules_SkipsBusyAuction(t *testing.T) {
	service, repo := newEngineFixture(t)
	now := time.Now().UTC()
	a := createScheduledAuction(t, service, now.Add(-time.Minute), now.Add(time.Hour), true)

	release, err := service.locks.Acquire(context.Background(), a.AuctionID)
	require.NoError(t, err)
	defer release()

	result, err := service.AdvanceSchedules(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 0, result.Started)
	require.Equal(t, 1, result.Skipped)

	stored, err := repo.GetAuction(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, models.AuctionScheduled, stored.Status)
}

func TestTransitionAuction_Lifecycle(t *testing.T) {
	service, repo := newEngineFixture(t)
	ctx := context.Background()
	a := newLiveAuction(t, service, 900, 50, time.Hour, 0)

	// live -> cancelled is the manual early termination
	cancelled, err := service.TransitionAuction(ctx, a.AuctionID, models.AuctionCancelled, "admin1")
	require.NoError(t, err)
	require.Equal(t, models.AuctionCancelled, cancelled.Status)

	// cancelled is terminal
	_, err = service.TransitionAuction(ctx, a.AuctionID, models.AuctionCompleted, "admin1")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)

	stored, err := repo.GetAuction(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, models.AuctionCancelled, stored.Status)
}

func TestTransitionAuction_EndedToCompleted(t *testing.T) {
	service, _ := newEngineFixture(t)
	ctx := context.Background()
	a := newLiveAuction(t, service, 900, 50, time.Minute, 0)

	ended, err := service.TransitionAuction(ctx, a.AuctionID, models.AuctionEnded, "admin1")
	require.NoError(t, err)
	require.Equal(t, models.AuctionEnded, ended.Status)

	completed, err := service.TransitionAuction(ctx, a.AuctionID, models.AuctionCompleted, "admin1")
	require.NoError(t, err)
	require.Equal(t, models.AuctionCompleted, completed.Status)
}

func TestTransitionAuction_RejectsSkippedStates(t *testing.T) {
	service, _ := newEngineFixture(t)
	ctx := context.Background()

	created, err := service.CreateAuction(CreateAuctionInput{
		Title:       "Draft Auction",
		PropertyID:  "prop1",
		StartDate:   time.Now().UTC().Add(time.Hour),
		EndDate:     time.Now().UTC().Add(2 * time.Hour),
		StartingBid: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	_, err = service.TransitionAuction(ctx, created.AuctionID, models.AuctionLive, "admin1")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)

	_, err = service.TransitionAuction(ctx, created.AuctionID, models.AuctionEnded, "admin1")
	require.ErrorIs(t, err, auctionerrors.ErrInvalidTransition)
}

func TestSetPublished_MirrorsPropertyStatus(t *testing.T) {
	service, repo := newEngineFixture(t)
	now := time.Now().UTC()

	// Publishing a draft does not touch the property
	created, err := service.CreateAuction(CreateAuctionInput{
		Title:       "Mirror Test",
		PropertyID:  "prop1",
		StartDate:   now.Add(time.Hour),
		EndDate:     now.Add(2 * time.Hour),
		StartingBid: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	_, err = service.SetPublished(context.Background(), created.AuctionID, true)
	require.NoError(t, err)
	p, err := repo.GetProperty("prop1")
	require.NoError(t, err)
	require.Equal(t, models.PropertyAvailable, p.Status)

	// Publishing once scheduled mirrors the property to in_auction
	_, err = service.TransitionAuction(context.Background(), created.AuctionID, models.AuctionScheduled, "test")
	require.NoError(t, err)
	_, err = service.SetPublished(context.Background(), created.AuctionID, true)
	require.NoError(t, err)

	p, err = repo.GetProperty("prop1")
	require.NoError(t, err)
	require.Equal(t, models.PropertyInAuction, p.Status)
}

func TestGetAuctionState(t *testing.T) {
	service, _ := newEngineFixture(t)
	a := newLiveAuction(t, service, 900, 50, time.Hour, 0)

	state, err := service.GetAuctionState(a.AuctionID)
	require.NoError(t, err)
	require.Equal(t, models.AuctionLive, state.Status)
	require.Nil(t, state.CurrentBid)
	require.Equal(t, 0, state.BidCount)
	require.Greater(t, state.TimeRemaining.TotalSeconds, 0.0)

	_, err = service.SubmitBid(context.Background(), a.AuctionID, "user1", dec(1000), nil, BidAudit{})
	require.NoError(t, err)

	state, err = service.GetAuctionState(a.AuctionID)
	require.NoError(t, err)
	require.NotNil(t, state.CurrentBid)
	require.True(t, state.CurrentBid.Equal(dec(1000)))
	require.Equal(t, 1, state.BidCount)

	bySlug, err := service.GetAuctionStateBySlug(a.Slug)
	require.NoError(t, err)
	require.Equal(t, state.AuctionID, bySlug.AuctionID)
}
