package scheduling

import "time"

type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
)

func (s Shift) IsValid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon:
		return true
	}
	return false
}

// ShiftWindow is a named sub-window of the clinic day. Slots never cross
// a window boundary.
type ShiftWindow struct {
	Shift Shift     `json:"shift"`
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Slot is a candidate bookable interval. It is a value: recomputed per
// request, never persisted, and carries no identity.
type Slot struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
	Shift Shift     `json:"shift"`
}

// Contains reports whether the instant t falls within [start, end) of the
// slot anchored on the given date. The half-open interval means an
// appointment at exactly the slot's end does not occupy it.
func (s Slot) Contains(t time.Time, date time.Time, loc *time.Location) bool {
	start := s.Start.At(date, loc)
	end := s.End.At(date, loc)
	return !t.Before(start) && t.Before(end)
}
