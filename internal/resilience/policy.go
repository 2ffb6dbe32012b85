package resilience

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/aws/smithy-go"
)

// Policy is a declarative retry policy consumed by the Executor. Policies can
// be swapped per provider without touching orchestration logic.
type Policy struct {
	MaxAttempts    int
	Backoff        []time.Duration // delay after attempt i (1-based); last entry repeats
	AttemptTimeout time.Duration   // per-attempt deadline; 0 disables
	Retryable      func(error) bool
}

// DefaultPolicy returns the standard provider policy: three attempts with
// exponential backoff, retrying transient errors only.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		Backoff:        []time.Duration{500 * time.Millisecond, 1 * time.Second, 2 * time.Second},
		AttemptTimeout: 10 * time.Second,
		Retryable:      IsTransient,
	}
}

// delayAfter returns how long to wait after the given (1-based) failed attempt.
func (p Policy) delayAfter(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx >= len(p.Backoff) {
		idx = len(p.Backoff) - 1
	}
	return p.Backoff[idx]
}

// TransientError marks an error as retryable regardless of its underlying
// type. Used where the caller knows a retry can help, e.g. an upload that has
// not propagated yet.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient classifies an error as worth retrying: timeouts, network
// failures, and server-side (5xx-equivalent) provider faults. Validation and
// other client-side rejections are not retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorFault() {
		case smithy.FaultServer:
			return true
		case smithy.FaultClient:
			return false
		}
		// unknown fault: common throttling codes are transient
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "ProvisionedThroughputExceededException",
			"RequestTimeout", "ServiceUnavailable", "InternalError", "SlowDown":
			return true
		}
		return false
	}
	return false
}
