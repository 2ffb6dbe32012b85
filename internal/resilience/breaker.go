package resilience

import (
	"fmt"
	"sync"
	"time"
)

// Breaker states
const (
	StateClosed   = "CLOSED"
	StateOpen     = "OPEN"
	StateHalfOpen = "HALF_OPEN"
)

// CircuitOpenError is the fast-fail returned while a provider's breaker is
// open. RetryAfter hints when the next call may be worth attempting.
type CircuitOpenError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("provider %s unavailable (circuit open), retry after %s", e.Provider, e.RetryAfter)
}

// BreakerSettings configures the shared breaker table.
type BreakerSettings struct {
	FailureThreshold int           // failures within Window that trip the breaker
	Window           time.Duration // rolling window for the failure counter
	Cooldown         time.Duration // OPEN -> HALF_OPEN delay
}

// DefaultBreakerSettings returns the standard settings: 5 failures in 60s
// opens the breaker for 30s.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		FailureThreshold: 5,
		Window:           60 * time.Second,
		Cooldown:         30 * time.Second,
	}
}

type providerState struct {
	state         string
	failures      []time.Time // terminal failures within the rolling window
	openedUntil   time.Time
	trialInFlight bool
}

// Breaker holds per-provider circuit state, shared across concurrent saga
// executions. All reads and writes go through one mutex; the table is injected
// where needed rather than living in a package-level variable.
type Breaker struct {
	mu        sync.Mutex
	settings  BreakerSettings
	providers map[string]*providerState
	nowFunc   func() time.Time
}

// NewBreaker returns a breaker table with the given settings.
func NewBreaker(settings BreakerSettings) *Breaker {
	return &Breaker{
		settings:  settings,
		providers: map[string]*providerState{},
		nowFunc:   time.Now,
	}
}

func (b *Breaker) provider(name string) *providerState {
	ps, ok := b.providers[name]
	if !ok {
		ps = &providerState{state: StateClosed}
		b.providers[name] = ps
	}
	return ps
}

// Allow reports whether a call to the provider may proceed. While OPEN it
// returns a CircuitOpenError until the cooldown elapses, then admits exactly
// one HALF_OPEN trial; concurrent callers during the trial are rejected.
func (b *Breaker) Allow(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ps := b.provider(name)
	now := b.nowFunc()

	switch ps.state {
	case StateOpen:
		if now.Before(ps.openedUntil) {
			return &CircuitOpenError{Provider: name, RetryAfter: ps.openedUntil.Sub(now)}
		}
		ps.state = StateHalfOpen
		ps.trialInFlight = true
		return nil
	case StateHalfOpen:
		if ps.trialInFlight {
			return &CircuitOpenError{Provider: name, RetryAfter: b.settings.Cooldown}
		}
		ps.trialInFlight = true
		return nil
	default:
		return nil
	}
}

// OnSuccess records a terminal success: the rolling counter resets and a
// HALF_OPEN trial closes the breaker.
func (b *Breaker) OnSuccess(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ps := b.provider(name)
	ps.state = StateClosed
	ps.failures = nil
	ps.trialInFlight = false
}

// OnFailure records a terminal failure. A failed HALF_OPEN trial re-opens
// immediately and extends the cooldown; otherwise the rolling counter is
// incremented and the breaker opens once the threshold is reached within the
// window.
func (b *Breaker) OnFailure(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ps := b.provider(name)
	now := b.nowFunc()

	if ps.state == StateHalfOpen {
		ps.state = StateOpen
		ps.openedUntil = now.Add(b.settings.Cooldown)
		ps.trialInFlight = false
		return
	}

	// prune failures that fell out of the rolling window
	cutoff := now.Add(-b.settings.Window)
	kept := ps.failures[:0]
	for _, t := range ps.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	ps.failures = append(kept, now)

	if len(ps.failures) >= b.settings.FailureThreshold {
		ps.state = StateOpen
		ps.openedUntil = now.Add(b.settings.Cooldown)
		ps.failures = nil
	}
}

// State returns the current state tag for a provider, mainly for telemetry.
func (b *Breaker) State(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.provider(name).state
}
