package courier

import "time"

// Availability is derived at read time and never stored.
type Availability string

const (
	Available Availability = "available"
	EnRoute   Availability = "en_ruta"
	Offline   Availability = "offline"
)

// DeriveAvailability reports offline when there is no sample fresher than
// threshold, en_ruta when the courier holds active orders and available
// otherwise.
func DeriveAvailability(latest *LocationSample, activeCount int, now time.Time, threshold time.Duration) Availability {
	if latest == nil || !latest.IsFreshAt(now, threshold) {
		return Offline
	}
	if activeCount > 0 {
		return EnRoute
	}
	return Available
}
