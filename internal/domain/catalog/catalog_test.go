package catalog

import (
	"testing"

	"github.com/careops/clinicops/internal/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeedsDoctor(t *testing.T) {
	assert.False(t, (&Service{Category: CategoryConsult}).NeedsDoctor())
	assert.True(t, (&Service{Category: CategoryTest}).NeedsDoctor())
	assert.True(t, (&Service{Category: CategoryTreatment}).NeedsDoctor())
}

func TestShiftWindowsDefaults(t *testing.T) {
	s := &Service{}
	windows, err := s.ShiftWindows(DefaultShiftWindows())
	require.NoError(t, err)
	assert.Equal(t, DefaultShiftWindows(), windows)
}

func TestShiftWindowsClipped(t *testing.T) {
	// A service operating 09:00–15:00 is clipped against both shifts so
	// no slot can span the midday break.
	s := &Service{WindowStart: "09:00", WindowEnd: "15:00"}

	windows, err := s.ShiftWindows(DefaultShiftWindows())
	require.NoError(t, err)
	require.Len(t, windows, 2)

	assert.Equal(t, scheduling.ShiftMorning, windows[0].Shift)
	assert.Equal(t, "09:00", windows[0].Start.String())
	assert.Equal(t, "11:00", windows[0].End.String())

	assert.Equal(t, scheduling.ShiftAfternoon, windows[1].Shift)
	assert.Equal(t, "13:00", windows[1].Start.String())
	assert.Equal(t, "15:00", windows[1].End.String())
}

func TestShiftWindowsOutsideShifts(t *testing.T) {
	// A window entirely inside the midday break yields nothing.
	s := &Service{WindowStart: "11:30", WindowEnd: "12:30"}
	windows, err := s.ShiftWindows(DefaultShiftWindows())
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestShiftWindowsMorningOnly(t *testing.T) {
	s := &Service{WindowStart: "07:30", WindowEnd: "10:00"}
	windows, err := s.ShiftWindows(DefaultShiftWindows())
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, scheduling.ShiftMorning, windows[0].Shift)
}

func TestShiftWindowsBadClock(t *testing.T) {
	s := &Service{WindowStart: "soon", WindowEnd: "17:00"}
	_, err := s.ShiftWindows(DefaultShiftWindows())
	assert.Error(t, err)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, CategoryConsult.IsValid())
	assert.False(t, ServiceCategory("SURGERY").IsValid())
	assert.True(t, UnitWeek.IsValid())
	assert.False(t, DurationUnit("YEAR").IsValid())
	assert.True(t, ScheduleEvening.IsValid())
	assert.False(t, MedicationSchedule("HOURLY").IsValid())
}
