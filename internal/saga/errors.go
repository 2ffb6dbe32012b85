package saga

import (
	"fmt"
	"time"
)

// Code is the actionable error code surfaced to the caller.
type Code string

const (
	CodeValidation              Code = "validation"
	CodeProviderUnavailable     Code = "provider_unavailable"
	CodePersistenceFailed       Code = "persistence_failed"
	CodePersistenceFailedOrphan Code = "persistence_failed_with_orphan"
)

// Error is the single terminal error shape returned by the orchestrator.
// Every request failure is a normal, reportable outcome; nothing here is
// fatal to the process.
type Error struct {
	Code           Code
	Message        string
	CorrelationID  string
	RetryAfter     time.Duration // set when the circuit breaker fast-failed
	OrphanAssetKey string        // set for persistence_failed_with_orphan
	cause          error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }
