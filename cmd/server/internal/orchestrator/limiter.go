package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// EngineLimiter caps the number of transcriptions running in the engine at once.
type EngineLimiter struct {
	sem          *semaphore.Weighted
	queueTimeout time.Duration
}

// NewEngineLimiter creates a limiter with maxConcurrent slots. A non-positive
// maxConcurrent returns nil, which means unlimited.
func NewEngineLimiter(maxConcurrent int, queueTimeout time.Duration) *EngineLimiter {
	if maxConcurrent <= 0 {
		return nil
	}
	return &EngineLimiter{
		sem:          semaphore.NewWeighted(int64(maxConcurrent)),
		queueTimeout: queueTimeout,
	}
}

// Acquire blocks until a slot is free, ctx is done or the queue timeout passes.
// A nil limiter always succeeds.
func (l *EngineLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}

	if l.queueTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.queueTimeout)
		defer cancel()
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire engine slot: %w", err)
	}
	return nil
}

// Release returns a slot taken by Acquire.
func (l *EngineLimiter) Release() {
	if l == nil {
		return
	}
	l.sem.Release(1)
}
