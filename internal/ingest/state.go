package ingest

// State is a stage of the per-file lifecycle.
type State string

const (
	StateDetected       State = "detected"
	StateStabilityCheck State = "stability_check"
	StateStable         State = "stable"
	StateDiscarded      State = "discarded"
	StateClassifying    State = "classifying"
	StateResolving      State = "resolving"
	StateMoving         State = "moving"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Terminal reports whether s ends the lifecycle.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateFailed, StateDiscarded:
		return true
	default:
		return false
	}
}

// Discard reasons.
const (
	ReasonIgnored   = "ignored"
	ReasonTooSmall  = "too_small"
	ReasonNotFile   = "not_regular_file"
	ReasonOutside   = "outside_root"
	ReasonVanished  = "vanished"
	ReasonUnstable  = "still_changing"
	ReasonCancelled = "cancelled"
	ReasonInFlight  = "in_flight"
	// ReasonCoalesced marks an event folded into a running stability check.
	ReasonCoalesced = "coalesced"
)
