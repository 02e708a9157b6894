package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// ModelGuard serializes access to a non-re-entrant model handle. The ASR
// and diarization backends are long-lived singletons owned by an external
// model manager; if the hosting process allows concurrent pipeline runs,
// every inference call on the same handle must be serialized.
//
// A weighted semaphore of size 1 is used instead of a mutex so acquisition
// honors the caller's context deadline.
type ModelGuard struct {
	sem *semaphore.Weighted
}

// NewModelGuard creates a guard admitting one caller at a time.
func NewModelGuard() *ModelGuard {
	return &ModelGuard{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the handle is free or ctx is done.
func (g *ModelGuard) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire model handle: %w", err)
	}
	return nil
}

// Release frees the handle. Call in a defer after a successful Acquire.
func (g *ModelGuard) Release() {
	g.sem.Release(1)
}
