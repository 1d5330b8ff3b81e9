package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func morningWindow() ShiftWindow {
	return ShiftWindow{Shift: ShiftMorning, Start: MustClock("07:00"), End: MustClock("11:00")}
}

func afternoonWindow() ShiftWindow {
	return ShiftWindow{Shift: ShiftAfternoon, Start: MustClock("13:00"), End: MustClock("17:00")}
}

func TestGenerateThirtyMinuteMorning(t *testing.T) {
	slots := Generate(30*time.Minute, 5*time.Minute, []ShiftWindow{morningWindow()})

	require.Len(t, slots, 7)
	assert.Equal(t, "07:00", slots[0].Start.String())
	assert.Equal(t, "07:30", slots[0].End.String())
	assert.Equal(t, "07:35", slots[1].Start.String())
	assert.Equal(t, "08:05", slots[1].End.String())
	assert.Equal(t, "10:30", slots[6].Start.String())
	assert.Equal(t, "11:00", slots[6].End.String())

	for _, s := range slots {
		assert.Equal(t, ShiftMorning, s.Shift)
	}
}

func TestGenerateTilesWindowsIndependently(t *testing.T) {
	windows := []ShiftWindow{morningWindow(), afternoonWindow()}
	slots := Generate(30*time.Minute, 5*time.Minute, windows)

	require.Len(t, slots, 14)

	// The afternoon restarts from its own window start; no carry-over
	// from where the morning tiling stopped.
	assert.Equal(t, "13:00", slots[7].Start.String())
	assert.Equal(t, ShiftAfternoon, slots[7].Shift)
	assert.Equal(t, "16:30", slots[13].Start.String())
	assert.Equal(t, "17:00", slots[13].End.String())
}

func TestGenerateDropsTrailingRemainder(t *testing.T) {
	// 50-minute slots in a 4-hour window: 07:00, 07:55, 08:50, 09:45;
	// the next would end 11:30, past the window, so the 10:40 remainder
	// is dropped entirely.
	slots := Generate(50*time.Minute, 5*time.Minute, []ShiftWindow{morningWindow()})

	require.Len(t, slots, 4)
	assert.Equal(t, "09:45", slots[3].Start.String())
	assert.Equal(t, "10:35", slots[3].End.String())
}

func TestGenerateExactFit(t *testing.T) {
	// A slot ending exactly at the window end is kept.
	w := ShiftWindow{Shift: ShiftMorning, Start: MustClock("07:00"), End: MustClock("07:30")}
	slots := Generate(30*time.Minute, 5*time.Minute, []ShiftWindow{w})

	require.Len(t, slots, 1)
	assert.Equal(t, "07:30", slots[0].End.String())
}

func TestGenerateDurationLongerThanWindow(t *testing.T) {
	slots := Generate(5*time.Hour, 5*time.Minute, []ShiftWindow{morningWindow()})
	assert.Empty(t, slots)
}

func TestGenerateNonPositiveDuration(t *testing.T) {
	assert.Nil(t, Generate(0, 5*time.Minute, []ShiftWindow{morningWindow()}))
	assert.Nil(t, Generate(-time.Hour, 5*time.Minute, []ShiftWindow{morningWindow()}))
}

func TestGenerateZeroGap(t *testing.T) {
	slots := Generate(60*time.Minute, 0, []ShiftWindow{morningWindow()})

	require.Len(t, slots, 4)
	assert.Equal(t, "08:00", slots[1].Start.String())
}

func TestGenerateDeterministic(t *testing.T) {
	windows := []ShiftWindow{morningWindow(), afternoonWindow()}

	first := Generate(20*time.Minute, 5*time.Minute, windows)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Generate(20*time.Minute, 5*time.Minute, windows))
	}
}
