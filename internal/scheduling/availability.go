package scheduling

import "time"

// FilterAvailable removes every slot that already holds a booked
// appointment instant for the day. A slot is occupied iff some
// appointment time falls in [start, end) on the slot's date; exact
// containment is the whole conflict rule — adjacency and partial overlap
// with appointments of other durations are resolved server-side at
// creation time. Input order is preserved.
func FilterAvailable(date time.Time, loc *time.Location, slots []Slot, booked []time.Time) []Slot {
	if len(booked) == 0 {
		return slots
	}

	available := make([]Slot, 0, len(slots))
	for _, s := range slots {
		occupied := false
		for _, t := range booked {
			if s.Contains(t, date, loc) {
				occupied = true
				break
			}
		}
		if !occupied {
			available = append(available, s)
		}
	}
	return available
}
