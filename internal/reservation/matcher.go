package reservation

import "salon-booking/internal/db/models"

// SlotsNeeded converts a service duration into a slot count at the given
// granularity, rounding up. Never less than 1.
func SlotsNeeded(durationMin, slotMin int) int {
	if slotMin <= 0 || durationMin <= slotMin {
		return 1
	}
	n := durationMin / slotMin
	if durationMin%slotMin != 0 {
		n++
	}
	return n
}

// ConsecutiveRun takes free slots sorted by start time and returns the first
// n as a run, but only if every slot's end time equals the next slot's start
// time. Any gap, or fewer than n candidates, yields nil: a run is all or
// nothing.
func ConsecutiveRun(slots []models.Slot, n int) []models.Slot {
	if n <= 0 || len(slots) < n {
		return nil
	}
	run := slots[:n]
	if !adjacent(run) {
		return nil
	}
	return run
}

// RunStarts filters free slots (sorted by start time) down to those that
// anchor a contiguous run of length n. Used by the schedule read path to
// hide slots a multi-slot service could never start at; it reserves nothing.
func RunStarts(slots []models.Slot, n int) []models.Slot {
	if n <= 1 {
		return slots
	}
	starts := []models.Slot{}
	for i := 0; i+n <= len(slots); i++ {
		if adjacent(slots[i : i+n]) {
			starts = append(starts, slots[i])
		}
	}
	return starts
}

func adjacent(run []models.Slot) bool {
	for i := 0; i < len(run)-1; i++ {
		if run[i].EndTime != run[i+1].StartTime {
			return false
		}
	}
	return true
}
