package schedule

import "time"

// RestTracker enforces the minimum gap between a participant's matches
// during a single generation run.
type RestTracker struct {
	restPeriod time.Duration
	lastEnd    map[string]time.Time // participant id -> last match end
}

func NewRestTracker(restPeriodMinutes int) *RestTracker {
	return &RestTracker{
		restPeriod: time.Duration(restPeriodMinutes) * time.Minute,
		lastEnd:    make(map[string]time.Time),
	}
}

// EarliestPlayTime returns current if the participant has not played
// yet, otherwise the later of current and last end plus the rest
// period.
func (t *RestTracker) EarliestPlayTime(participantID string, current time.Time) time.Time {
	end, ok := t.lastEnd[participantID]
	if !ok {
		return current
	}
	rested := end.Add(t.restPeriod)
	if rested.After(current) {
		return rested
	}
	return current
}

// EarliestMatchTime returns the earliest instant at which every listed
// participant has cleared their rest window.
func (t *RestTracker) EarliestMatchTime(participantIDs []string, current time.Time) time.Time {
	earliest := current
	for _, id := range participantIDs {
		if at := t.EarliestPlayTime(id, current); at.After(earliest) {
			earliest = at
		}
	}
	return earliest
}

// RecordMatchEnd notes when a participant's match finished. A later end
// time overwrites an earlier one.
func (t *RestTracker) RecordMatchEnd(participantID string, end time.Time) {
	t.lastEnd[participantID] = end
}
