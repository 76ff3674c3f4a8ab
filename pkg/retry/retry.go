package retry

import (
	"context"
	"time"
)

// Policy is a pure retry configuration: total attempts, initial delay between
// attempts and the delay multiplier. It carries no state.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultPolicy matches the alert-dispatch contract: 3 attempts, 1s initial
// delay, doubling.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: 1 * time.Second, Multiplier: 2}
}

// Delays returns the wait before each retry (length MaxAttempts-1).
func (p Policy) Delays() []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	out := make([]time.Duration, 0, p.MaxAttempts-1)
	d := p.InitialDelay
	for i := 1; i < p.MaxAttempts; i++ {
		out = append(out, d)
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return out
}

// Do runs fn up to MaxAttempts times, sleeping the policy's delay between
// attempts. The last error is returned after exhaustion; context cancellation
// aborts the wait.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	delay := p.InitialDelay
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	return err
}
