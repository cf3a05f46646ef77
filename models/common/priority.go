package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PriorityLevel Closed set of scheduling priorities, each mapped to a cluster priority class
type PriorityLevel int

const (
	// PriorityLowest lowest priority class
	PriorityLowest PriorityLevel = iota

	// PriorityLow low priority class
	PriorityLow

	// PriorityMedium medium priority class
	PriorityMedium

	// PriorityHigh high priority class
	PriorityHigh

	// PriorityHighest highest priority class
	PriorityHighest

	numPriorities
)

var priorityClassNames = [...]string{"lowest", "low", "medium", "high", "highest"}

// String Name of the priority class
func (p PriorityLevel) String() string {
	if p < 0 || p >= numPriorities {
		return "unsupported"
	}
	return priorityClassNames[p]
}

// IsValid The priority is one of the defined levels
func (p PriorityLevel) IsValid() bool {
	return p >= PriorityLowest && p < numPriorities
}

// ParsePriorityLevel Gets the priority level from its priority class name
func ParsePriorityLevel(name string) (PriorityLevel, error) {
	for priority := PriorityLowest; priority < numPriorities; priority++ {
		if strings.EqualFold(priority.String(), name) {
			return priority, nil
		}
	}
	return numPriorities, fmt.Errorf("unknown priority %q, expected one of %s", name, strings.Join(priorityClassNames[:], ", "))
}

// MarshalJSON implements json.Marshaler
func (p PriorityLevel) MarshalJSON() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("unknown priority level %d", int(p))
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (p *PriorityLevel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("priority must be a string: %w", err)
	}
	priority, err := ParsePriorityLevel(name)
	if err != nil {
		return err
	}
	*p = priority
	return nil
}
