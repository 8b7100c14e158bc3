package courier_test

import (
	"testing"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocationSample(t *testing.T) {
	point, _ := kernel.NewGeoPoint(19.40, -99.15)
	battery := 64
	reportedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("CST", -6*3600))

	sample, err := courier.NewLocationSample(kernel.NewUUID(), point, reportedAt, &battery)

	require.NoError(t, err)
	assert.Equal(t, time.UTC, sample.ReportedAt.Location())
	assert.True(t, sample.ReportedAt.Equal(reportedAt))
	require.NotNil(t, sample.BatteryPct)
	battery = 1
	assert.Equal(t, 64, *sample.BatteryPct)
}

func TestNewLocationSample_ValidationErrors(t *testing.T) {
	battery := 140

	_, err := courier.NewLocationSample(kernel.UUID{}, kernel.GeoPoint{}, time.Time{}, &battery)

	require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
	require.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestDeriveAvailability(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	threshold := 5 * time.Minute
	point, _ := kernel.NewGeoPoint(19.40, -99.15)
	fresh, _ := courier.NewLocationSample(kernel.NewUUID(), point, now.Add(-time.Minute), nil)
	edge, _ := courier.NewLocationSample(kernel.NewUUID(), point, now.Add(-threshold), nil)
	stale, _ := courier.NewLocationSample(kernel.NewUUID(), point, now.Add(-threshold-time.Second), nil)

	assert.Equal(t, courier.Offline, courier.DeriveAvailability(nil, 0, now, threshold))
	assert.Equal(t, courier.Offline, courier.DeriveAvailability(&stale, 0, now, threshold))
	assert.Equal(t, courier.Offline, courier.DeriveAvailability(&stale, 2, now, threshold))
	assert.Equal(t, courier.Available, courier.DeriveAvailability(&fresh, 0, now, threshold))
	assert.Equal(t, courier.Available, courier.DeriveAvailability(&edge, 0, now, threshold))
	assert.Equal(t, courier.EnRoute, courier.DeriveAvailability(&fresh, 1, now, threshold))
}

func TestLocationSample_FutureReports(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	point, _ := kernel.NewGeoPoint(19.40, -99.15)

	tests := []struct {
		name       string
		reportedAt time.Time
		accepted   bool
		fresh      bool
	}{
		{name: "now", reportedAt: now, accepted: true, fresh: true},
		{name: "within skew", reportedAt: now.Add(30 * time.Second), accepted: true, fresh: true},
		{name: "at skew", reportedAt: now.Add(courier.MaxClockSkew), accepted: true, fresh: true},
		{name: "past skew", reportedAt: now.Add(courier.MaxClockSkew + time.Second), accepted: false, fresh: false},
		{name: "next year", reportedAt: now.AddDate(1, 0, 0), accepted: false, fresh: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample, err := courier.NewLocationSample(kernel.NewUUID(), point, tt.reportedAt, nil)
			require.NoError(t, err)

			err = sample.CheckReportedAt(now)
			if tt.accepted {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
				assert.True(t, errs.IsValidation(err))
			}
			assert.Equal(t, tt.fresh, sample.IsFreshAt(now, 5*time.Minute))
		})
	}
}
