package courier

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

const (
	MinBatteryPct = 0
	MaxBatteryPct = 100

	// MaxClockSkew is how far past the server clock a device may report.
	MaxClockSkew = time.Minute
)

// LocationSample is one position report of a courier device.
type LocationSample struct {
	CourierID  kernel.UUID
	Point      kernel.GeoPoint
	ReportedAt time.Time
	BatteryPct *int
}

// NewLocationSample validates the courier reference, the point, a non-zero
// report time and an optional battery percentage in [0, 100].
func NewLocationSample(courierID kernel.UUID, point kernel.GeoPoint, reportedAt time.Time, batteryPct *int) (LocationSample, error) {
	var errList []error
	errList = append(errList, courierID.Validate(), point.Validate())
	if reportedAt.IsZero() {
		errList = append(errList, errs.NewValueIsRequiredError("reportedAt"))
	}
	if batteryPct != nil && (*batteryPct < MinBatteryPct || *batteryPct > MaxBatteryPct) {
		errList = append(errList, errs.NewValueIsOutOfRangeError("batteryPct", *batteryPct, MinBatteryPct, MaxBatteryPct))
	}
	if err := errors.Join(errList...); err != nil {
		return LocationSample{}, err
	}

	sample := LocationSample{
		CourierID:  courierID,
		Point:      point,
		ReportedAt: reportedAt.UTC(),
	}
	if batteryPct != nil {
		battery := *batteryPct
		sample.BatteryPct = &battery
	}
	return sample, nil
}

// CheckReportedAt rejects a sample reported more than MaxClockSkew after now.
func (s LocationSample) CheckReportedAt(now time.Time) error {
	if limit := now.Add(MaxClockSkew); s.ReportedAt.After(limit) {
		return errs.NewValueIsOutOfRangeError("reportedAt", s.ReportedAt, "-inf", limit)
	}
	return nil
}

// IsFreshAt reports whether the sample is no older than threshold at now.
// Samples up to MaxClockSkew in the future count as fresh; later ones do not.
func (s LocationSample) IsFreshAt(now time.Time, threshold time.Duration) bool {
	age := now.Sub(s.ReportedAt)
	return age <= threshold && age >= -MaxClockSkew
}
