package resilience

import (
	"context"
	"fmt"
	"time"
)

// Executor wraps provider calls with the retry policy and the shared circuit
// breaker. One Executor is shared by all saga executions in the process.
type Executor struct {
	breaker  *Breaker
	policies map[string]Policy
	fallback Policy
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewExecutor returns an Executor over the given breaker table using
// DefaultPolicy for every provider.
func NewExecutor(breaker *Breaker) *Executor {
	return &Executor{
		breaker:  breaker,
		policies: map[string]Policy{},
		fallback: DefaultPolicy(),
		sleep:    sleepCtx,
	}
}

// SetPolicy overrides the retry policy for one provider.
func (e *Executor) SetPolicy(provider string, p Policy) {
	e.policies[provider] = p
}

func (e *Executor) policy(provider string) Policy {
	if p, ok := e.policies[provider]; ok {
		return p
	}
	return e.fallback
}

// Execute runs op against the named provider under the breaker and retry
// policy. It returns the number of attempts made (0 when the breaker rejected
// the call) and the terminal error, if any. The breaker is updated exactly
// once per terminal outcome.
func (e *Executor) Execute(ctx context.Context, provider string, op func(ctx context.Context) error) (int, error) {
	if err := e.breaker.Allow(provider); err != nil {
		return 0, err
	}

	p := e.policy(provider)
	attempts := 0
	var lastErr error

	for attempts < p.MaxAttempts {
		attempts++
		lastErr = e.attempt(ctx, p, op)
		if lastErr == nil {
			e.breaker.OnSuccess(provider)
			return attempts, nil
		}
		if p.Retryable == nil || !p.Retryable(lastErr) {
			break
		}
		if attempts < p.MaxAttempts {
			if err := e.sleep(ctx, p.delayAfter(attempts)); err != nil {
				break
			}
		}
	}

	e.breaker.OnFailure(provider)
	return attempts, fmt.Errorf("provider %s failed after %d attempt(s): %w", provider, attempts, lastErr)
}

func (e *Executor) attempt(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	if p.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
		defer cancel()
	}
	return op(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
