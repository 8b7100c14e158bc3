package commands

import "time"

// Clock returns the current instant. Handlers never call time.Now directly.
type Clock func() time.Time

// SystemClock returns UTC wall-clock time.
func SystemClock() time.Time {
	return time.Now().UTC()
}
