package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"auction-engine/internal/auctionerrors"
)

// KeyedLock serializes all state-mutating work per auction id. Each key owns
// one slot; holders of different keys proceed fully in parallel. Acquisition
// is bounded by the caller's context: a deadline expiry surfaces as
// ErrAuctionBusy, a cancellation before entry surfaces as the context error.
type KeyedLock struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewKeyedLock creates an empty lock registry
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{
		slots: make(map[string]chan struct{}),
	}
}

// Acquire blocks until the slot for key is free or ctx ends. On success the
// returned release function must be called exactly once.
func (l *KeyedLock) Acquire(ctx context.Context, key string) (func(), error) {
	slot := l.slot(key)

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("acquire slot for auction %s: %w", key, auctionerrors.ErrAuctionBusy)
		}
		return nil, fmt.Errorf("acquire slot for auction %s: %w", key, ctx.Err())
	}
}

// slot returns the channel guarding key, creating it on first use
func (l *KeyedLock) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[key] = s
	}
	return s
}
