package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior with exponential backoff and jitter.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Base is the delay before the first retry; it doubles per attempt.
	Base time.Duration
	// Max caps a single delay, including server Retry-After hints.
	Max time.Duration
	// Jitter is the ± fraction applied to each computed delay.
	Jitter float64
	// Operation names the call in retry logs.
	Operation string
}

// DefaultPolicy returns the retry policy used for persistence transport calls.
func DefaultPolicy(operation string) Policy {
	return Policy{
		Attempts:  3,
		Base:      500 * time.Millisecond,
		Max:       10 * time.Second,
		Jitter:    0.25,
		Operation: operation,
	}
}

// Do runs fn until it succeeds, returns a non-transient error, exhausts the
// policy, or ctx is done.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is Do for calls that return a value.
func DoVal[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsTransient(err) || attempt == p.Attempts-1 {
			break
		}

		delay := p.backoff(attempt, err)
		zap.L().Warn("retrying operation",
			zap.String("operation", p.Operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Base <= 0 {
		p.Base = 500 * time.Millisecond
	}
	if p.Max <= 0 {
		p.Max = 10 * time.Second
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

func (p Policy) backoff(attempt int, err error) time.Duration {
	var te *TransientError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		return min(te.RetryAfter, p.Max)
	}

	delay := float64(p.Base) * math.Pow(2, float64(attempt))
	delay = math.Min(delay, float64(p.Max))
	if p.Jitter > 0 {
		delay += (rand.Float64()*2 - 1) * delay * p.Jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
