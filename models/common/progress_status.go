package common

import "fmt"

// LifecycleState Enumeration of the states of a dispatched workload
type LifecycleState int

const (
	// Queued Submitted, no phase observed yet
	Queued LifecycleState = iota

	// Running Workload container is running
	Running

	// Stopping Deletion requested before the workload finished
	Stopping

	// Stopped Deletion confirmed after a stop request
	Stopped

	// Failed Workload finished unsuccessfully
	Failed

	// Done Workload finished successfully
	Done

	numStates
)

func (s LifecycleState) String() string {
	if s < 0 || s >= numStates {
		return "Unsupported"
	}
	return [...]string{"Queued", "Running", "Stopping", "Stopped", "Failed", "Done"}[s]
}

// IsTerminal No further transitions happen from this state
func (s LifecycleState) IsTerminal() bool {
	return s == Done || s == Failed || s == Stopped
}

// MarshalText implements encoding.TextMarshaler
func (s LifecycleState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *LifecycleState) UnmarshalText(text []byte) error {
	for state := Queued; state < numStates; state++ {
		if state.String() == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown lifecycle state %q", string(text))
}
