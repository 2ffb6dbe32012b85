package saga

// Phase identifies where a saga execution is in its lifecycle.
type Phase string

const (
	PhaseStart              Phase = "START"
	PhaseUploading          Phase = "UPLOADING"
	PhaseVerifying          Phase = "VERIFYING"
	PhasePersisting         Phase = "PERSISTING"
	PhaseDone               Phase = "DONE"
	PhaseCompensating       Phase = "COMPENSATING"
	PhaseCompensated        Phase = "COMPENSATED"
	PhaseCompensationFailed Phase = "COMPENSATION_FAILED"
	PhaseAborted            Phase = "ABORTED"
)

// StepEvent is the outcome of the work performed in a phase.
type StepEvent string

const (
	EventSucceeded StepEvent = "succeeded"
	EventFailed    StepEvent = "failed"
)

// Transition is the pure phase transition function. Failures before any
// durable write abort; a persistence failure after the upload triggers
// compensation. A failed verify aborts WITHOUT compensation: the asset is
// unconfirmed and deleting it could race its eventual propagation.
func Transition(p Phase, ev StepEvent) Phase {
	switch p {
	case PhaseStart:
		if ev == EventSucceeded {
			return PhaseUploading
		}
		return PhaseAborted
	case PhaseUploading:
		if ev == EventSucceeded {
			return PhaseVerifying
		}
		return PhaseAborted
	case PhaseVerifying:
		if ev == EventSucceeded {
			return PhasePersisting
		}
		return PhaseAborted
	case PhasePersisting:
		if ev == EventSucceeded {
			return PhaseDone
		}
		return PhaseCompensating
	case PhaseCompensating:
		if ev == EventSucceeded {
			return PhaseCompensated
		}
		return PhaseCompensationFailed
	default:
		// terminal phases absorb all events
		return p
	}
}

// Terminal reports whether the phase ends the execution.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseDone, PhaseAborted, PhaseCompensated, PhaseCompensationFailed:
		return true
	}
	return false
}
