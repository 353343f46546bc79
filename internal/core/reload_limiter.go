package core

// reload_limiter.go bounds how many dataset reloads may run at once.
//
// A reload reads the whole source and builds a new dataset, so running two
// side by side only doubles the work: the second one publishes a dataset the
// first one was about to replace. The limiter uses a semaphore; callers that
// cannot get a slot within maxWait receive ErrReloadInProgress.
//
// WaitForDrain blocks until running reloads finish, for graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrReloadInProgress is returned when every reload slot stays busy for the
// whole wait period.
var ErrReloadInProgress = errors.New("reload already in progress, please try again later")

// DefaultMaxConcurrentReloads is the default number of parallel reloads.
const DefaultMaxConcurrentReloads = 1

// DefaultReloadWait is how long to wait for a slot before rejecting.
const DefaultReloadWait = 30 * time.Second

// ReloadLimiter controls concurrent reloads using a semaphore.
type ReloadLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewReloadLimiter creates a limiter that allows at most maxConcurrent reloads.
func NewReloadLimiter(maxConcurrent int, maxWait time.Duration) *ReloadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentReloads
	}
	if maxWait <= 0 {
		maxWait = DefaultReloadWait
	}

	return &ReloadLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a reload slot.
// The caller MUST call Release() when the reload completes (use defer).
func (l *ReloadLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish the caller giving up from our own wait expiring
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrReloadInProgress
	}
}

// TryAcquire acquires a slot without blocking.
func (l *ReloadLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *ReloadLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of running reloads.
func (l *ReloadLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until all running reloads complete or ctx is done.
func (l *ReloadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
