package scheduling

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"07:00", 420, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"7:00", 420, false},
		{"noon", 0, true},
		{"", 0, true},
		{"07:00:00", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidClockTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ClockTime(tt.want), got)
		})
	}
}

func TestClockTimeString(t *testing.T) {
	assert.Equal(t, "07:05", ClockTime(425).String())
	assert.Equal(t, "00:00", ClockTime(0).String())
	assert.Equal(t, "23:59", ClockTime(1439).String())
}

func TestClockTimeAt(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	date := time.Date(2026, 9, 14, 22, 45, 0, 0, time.UTC)
	got := MustClock("07:00").At(date, loc)

	// The date is interpreted in the clinic zone, not the input zone.
	assert.Equal(t, 7, got.Hour())
	assert.Equal(t, loc, got.Location())
	assert.Equal(t, 15, got.Day())
}

func TestClockTimeJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(MustClock("09:20"))
	require.NoError(t, err)
	assert.Equal(t, `"09:20"`, string(b))

	var c ClockTime
	require.NoError(t, json.Unmarshal([]byte(`"16:30"`), &c))
	assert.Equal(t, MustClock("16:30"), c)

	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &c))
}

func TestSlotContains(t *testing.T) {
	loc := time.UTC
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, loc)
	s := Slot{Start: MustClock("13:00"), End: MustClock("13:30"), Shift: ShiftAfternoon}

	assert.True(t, s.Contains(time.Date(2026, 9, 14, 13, 0, 0, 0, loc), date, loc))
	assert.True(t, s.Contains(time.Date(2026, 9, 14, 13, 15, 0, 0, loc), date, loc))
	assert.False(t, s.Contains(time.Date(2026, 9, 14, 13, 30, 0, 0, loc), date, loc))
	assert.False(t, s.Contains(time.Date(2026, 9, 14, 12, 59, 59, 0, loc), date, loc))
}
