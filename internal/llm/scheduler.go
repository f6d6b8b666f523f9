package llm

import (
	"context"
	"time"

	"focusflow/internal/logging"
	"focusflow/internal/types"

	"golang.org/x/sync/semaphore"
)

// Scheduled wraps a Client with a weighted semaphore capping concurrent
// outbound calls. When no slot frees up within the acquire timeout, the call
// fails fast with types.ErrServiceBusy instead of queueing unboundedly.
type Scheduled struct {
	inner          Client
	sem            *semaphore.Weighted
	acquireTimeout time.Duration
}

// NewScheduled creates a scheduling wrapper around inner.
func NewScheduled(inner Client, maxConcurrent int64, acquireTimeout time.Duration) *Scheduled {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	if acquireTimeout <= 0 {
		acquireTimeout = 2 * time.Second
	}
	return &Scheduled{
		inner:          inner,
		sem:            semaphore.NewWeighted(maxConcurrent),
		acquireTimeout: acquireTimeout,
	}
}

// Complete acquires a slot then delegates.
func (s *Scheduled) Complete(ctx context.Context, prompt string) (string, error) {
	return s.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem acquires a slot then delegates.
func (s *Scheduled) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return s.inner.CompleteWithSystem(ctx, systemPrompt, userPrompt)
}

func (s *Scheduled) acquire(ctx context.Context) (func(), error) {
	acqCtx, cancel := context.WithTimeout(ctx, s.acquireTimeout)
	defer cancel()

	if err := s.sem.Acquire(acqCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Get(logging.CategoryAPI).Warn("llm call budget exhausted")
		return nil, types.ErrServiceBusy
	}
	return func() { s.sem.Release(1) }, nil
}
