package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidsub/internal/services"
)

type retryPolicy struct {
	attempts int
	base     time.Duration
	limit    time.Duration
	sleep    func(time.Duration)
}

// do calls fn until it succeeds, returns a non-transient error, or runs out of
// attempts.
func (p retryPolicy) do(ctx context.Context, fn func() error) error {
	attempts := max(p.attempts, 1)
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, services.ErrTransient) || ctx.Err() != nil {
			return err
		}
		if attempt >= attempts {
			if attempts > 1 {
				return fmt.Errorf("failed after %d attempts: %w", attempts, err)
			}
			return err
		}
		if err := p.wait(ctx, p.delay(err, attempt)); err != nil {
			return err
		}
	}
}

// delay honours Retry-After when present and otherwise doubles base per attempt.
func (p retryPolicy) delay(err error, attempt int) time.Duration {
	var hint *retryAfter
	if errors.As(err, &hint) {
		return p.clamp(hint.wait)
	}
	if p.base <= 0 {
		return 0
	}
	d := p.base
	for i := 1; i < attempt && (p.limit <= 0 || d < p.limit); i++ {
		d *= 2
	}
	return p.clamp(d)
}

func (p retryPolicy) clamp(d time.Duration) time.Duration {
	if p.limit > 0 && d > p.limit {
		return p.limit
	}
	return max(d, 0)
}

func (p retryPolicy) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if p.sleep != nil {
		p.sleep(d)
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
