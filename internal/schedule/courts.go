package schedule

import "time"

type reservation struct {
	start time.Time
	end   time.Time
}

// CourtTracker greedily allocates courts for a single generation run.
// It is not safe for reuse across runs; construct a fresh tracker per
// call to Generate.
type CourtTracker struct {
	courtCount    int
	matchDuration time.Duration
	reservations  map[int][]reservation // court number -> booked intervals
}

func NewCourtTracker(courtCount, matchDurationMinutes int) *CourtTracker {
	return &CourtTracker{
		courtCount:    courtCount,
		matchDuration: time.Duration(matchDurationMinutes) * time.Minute,
		reservations:  make(map[int][]reservation),
	}
}

// FindAvailableCourt scans courts in ascending order for the first one
// free for a full match starting at preferred. If every court is busy
// the candidate time advances by one match duration and the scan
// repeats; time always frees up eventually, so there is no failure
// case.
func (t *CourtTracker) FindAvailableCourt(preferred time.Time) (int, time.Time) {
	candidate := preferred
	for {
		for court := 1; court <= t.courtCount; court++ {
			if t.courtFree(court, candidate) {
				return court, candidate
			}
		}
		candidate = candidate.Add(t.matchDuration)
	}
}

func (t *CourtTracker) courtFree(court int, start time.Time) bool {
	end := start.Add(t.matchDuration)
	for _, r := range t.reservations[court] {
		if overlaps(start, end, r.start, r.end) {
			return false
		}
	}
	return true
}

// ReserveCourt records a match-length booking on the given court.
func (t *CourtTracker) ReserveCourt(court int, start time.Time) {
	t.reservations[court] = append(t.reservations[court], reservation{
		start: start,
		end:   start.Add(t.matchDuration),
	})
}

// CourtUtilization is the percentage of available court-time consumed
// by reservations, given the schedule's total duration in minutes.
func (t *CourtTracker) CourtUtilization(totalDurationMinutes int) float64 {
	if t.courtCount == 0 || totalDurationMinutes == 0 {
		return 0
	}
	var booked time.Duration
	for _, rs := range t.reservations {
		for _, r := range rs {
			booked += r.end.Sub(r.start)
		}
	}
	available := float64(t.courtCount) * float64(totalDurationMinutes)
	return booked.Minutes() / available * 100
}
