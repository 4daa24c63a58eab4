// Package resilience provides fail-fast patterns for backend calls:
// circuit breaker and bulkhead. Calls are never retried automatically.
package resilience

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
type Config struct {
	MaxConcurrency int
	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// NewCircuitBreaker creates a circuit breaker that opens after repeated
// transport failures. isFailure decides which errors count against it;
// nil counts every error.
func NewCircuitBreaker(name string, cfg Config, isFailure func(error) bool) *gobreaker.CircuitBreaker {
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     timeout,          // open -> half-open
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	}
	if isFailure != nil {
		settings.IsSuccessful = func(err error) bool { return err == nil || !isFailure(err) }
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
// Non-positive values mean unlimited.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency <= 0 {
		return &Bulkhead{}
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if b.sem == nil {
		return ctx.Err()
	}
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	if b.sem == nil {
		return
	}
	<-b.sem
}
