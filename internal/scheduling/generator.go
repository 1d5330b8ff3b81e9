package scheduling

import "time"

// Generate produces the ordered slot grid for one calendar day.
//
// Each window is tiled independently from its start: a slot of length
// duration, then a gap, then the next slot. Tiling stops once the next
// full slot would run past the window's end; a trailing remainder that
// cannot fit a whole slot is dropped rather than emitted short. The
// result is the concatenation of all windows' slots in the order the
// windows are given, which is chronological as long as the windows are.
//
// Pure and deterministic: no clock reads, no I/O, identical inputs yield
// identical output. A non-positive duration, or a duration longer than a
// window, yields no slots for that window.
func Generate(duration, gap time.Duration, windows []ShiftWindow) []Slot {
	if duration <= 0 {
		return nil
	}

	step := ClockTime(duration / time.Minute)
	pause := ClockTime(gap / time.Minute)
	if step <= 0 {
		return nil
	}

	var slots []Slot
	for _, w := range windows {
		for cursor := w.Start; cursor+step <= w.End; cursor += step + pause {
			slots = append(slots, Slot{
				Start: cursor,
				End:   cursor + step,
				Shift: w.Shift,
			})
		}
	}
	return slots
}
