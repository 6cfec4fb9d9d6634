// Package retrier provides a bounded retry policy with fixed backoff,
// decoupling retry behavior from call sites.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultInterval   = 2 * time.Second
	defaultMaxRetries = 3
	defaultJitter     = 0.1
)

// Retrier retries an operation a bounded number of times with a fixed
// interval between attempts, plus a small jitter to avoid lockstep retries.
type Retrier struct {
	interval   time.Duration
	maxRetries int
	jitter     float64
}

// Option defines a function to configure the Retrier.
type Option func(*Retrier)

// WithInterval sets the delay between attempts.
func WithInterval(d time.Duration) Option {
	return func(r *Retrier) {
		r.interval = d
	}
}

// WithMaxRetries sets the maximum number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) {
		r.maxRetries = n
	}
}

// WithJitter sets the jitter factor (0.0 to 1.0) applied to the interval.
func WithJitter(j float64) Option {
	return func(r *Retrier) {
		r.jitter = j
	}
}

// New creates a new Retrier with default values and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		interval:   defaultInterval,
		maxRetries: defaultMaxRetries,
		jitter:     defaultJitter,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Do executes fn until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The last error is returned on exhaustion.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			jitter := (rand.Float64()*2 - 1) * r.jitter * float64(r.interval)
			sleep := time.Duration(float64(r.interval) + jitter)
			if sleep < 0 {
				sleep = 0
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
	}

	return err
}

// DoWithData executes fn with retries and returns its value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}
