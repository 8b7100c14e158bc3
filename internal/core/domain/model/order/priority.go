package order

import (
	"fmt"

	"dispatch/internal/pkg/errs"
)

// Priority affects how the planner ranks couriers. It never changes the
// lifecycle of an order.
type Priority int

const (
	PriorityUnknown Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

var priorityNames = map[Priority]string{
	PriorityLow:    "baja",
	PriorityNormal: "normal",
	PriorityHigh:   "alta",
	PriorityUrgent: "urgente",
}

// ParsePriority accepts the wire names. An empty string yields PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	for p, name := range priorityNames {
		if name == s {
			return p, nil
		}
	}
	return PriorityUnknown, errs.NewValueIsInvalidErrorWithCause("priority", fmt.Errorf("%q is not a valid priority", s))
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "unknown"
}

func (p Priority) Validate() error {
	if _, ok := priorityNames[p]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("priority", fmt.Errorf("%d is not a valid priority", p))
	}
	return nil
}

// ProximityDominates reports whether the planner should rank purely by
// distance for this priority.
func (p Priority) ProximityDominates() bool {
	return p == PriorityHigh || p == PriorityUrgent
}
