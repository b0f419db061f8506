package schedule

import (
	"time"
)

// searchRadius bounds FindAvailableTimeSlot to four match durations on
// either side of the preferred time.
const searchRadius = 4

// GenerateTimeSlots returns one start instant per match, filling courts
// in parallel: the first courtCount matches share the start time, the
// next courtCount start one match duration later, and so on. Used for
// display and previews; the generator allocates with CourtTracker
// instead.
func GenerateTimeSlots(start time.Time, matchDurationMinutes, courtCount, totalMatches int) []time.Time {
	if courtCount < 1 || totalMatches < 1 {
		return nil
	}
	duration := time.Duration(matchDurationMinutes) * time.Minute

	slots := make([]time.Time, 0, totalMatches)
	for i := 0; i < totalMatches; i++ {
		wave := i / courtCount
		slots = append(slots, start.Add(time.Duration(wave)*duration))
	}
	return slots
}

// FindAvailableTimeSlot looks for a slot-aligned start near preferred
// that does not overlap any reserved start. Candidates are tried
// nearest-first (preferred, then +1, -1, +2, -2 ... durations away) and
// the search gives up beyond four durations in either direction,
// returning false.
func FindAvailableTimeSlot(preferred time.Time, matchDurationMinutes int, reserved []time.Time) (time.Time, bool) {
	duration := time.Duration(matchDurationMinutes) * time.Minute

	for step := 0; step <= searchRadius; step++ {
		offsets := []int{step, -step}
		if step == 0 {
			offsets = []int{0}
		}
		for _, o := range offsets {
			candidate := preferred.Add(time.Duration(o) * duration)
			if slotFree(candidate, duration, reserved) {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}

func slotFree(candidate time.Time, duration time.Duration, reserved []time.Time) bool {
	for _, r := range reserved {
		if overlaps(candidate, candidate.Add(duration), r, r.Add(duration)) {
			return false
		}
	}
	return true
}

// overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
