package conflict

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jlcarver/courtplan/internal/model"
)

type Kind string

const (
	KindCourtDoubleBooking Kind = "court_double_booking"
	KindPlayerOverlap      Kind = "player_overlap"
	KindTimeConflict       Kind = "time_conflict"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict describes one scheduling problem found in a match set.
// Conflicts are ephemeral: recomputed on demand, never persisted.
type Conflict struct {
	Kind        Kind
	Severity    Severity
	Message     string
	MatchIDs    []string
	Suggestions []string
}

// slotBucketMinutes is the granularity used to decide whether two
// matches occupy "the same" slot.
const slotBucketMinutes = 15

// minCourtGap is the smallest back-to-back gap on one court that does
// not draw a timing warning.
const minCourtGap = 5 * time.Minute

// Detect runs all conflict passes over a match/round set and returns
// the concatenated findings. It never fails; an empty slice means a
// clean schedule. Callers decide how to treat severities.
func Detect(matches []model.Match, rounds []model.Round) []Conflict {
	sorted := sortedByTime(matches)

	var conflicts []Conflict
	conflicts = append(conflicts, checkCourtDoubleBooking(sorted)...)
	conflicts = append(conflicts, checkPlayerOverlap(sorted)...)
	conflicts = append(conflicts, checkRoundTiming(sorted, rounds)...)
	return conflicts
}

// ValidateMatchReschedule previews the conflicts a proposed move would
// cause: the match is substituted with the new time and court among the
// other matches and detection reruns in full.
func ValidateMatchReschedule(m model.Match, newTime time.Time, newCourt int, allMatches []model.Match) []Conflict {
	hypothetical := m
	hypothetical.ScheduledTime = newTime
	hypothetical.CourtNumber = newCourt

	candidate := make([]model.Match, 0, len(allMatches))
	replaced := false
	for _, other := range allMatches {
		if other.ID == m.ID {
			candidate = append(candidate, hypothetical)
			replaced = true
			continue
		}
		candidate = append(candidate, other)
	}
	if !replaced {
		candidate = append(candidate, hypothetical)
	}

	return Detect(candidate, nil)
}

// Errors filters conflicts down to error severity.
func Errors(conflicts []Conflict) []Conflict {
	var out []Conflict
	for _, c := range conflicts {
		if c.Severity == SeverityError {
			out = append(out, c)
		}
	}
	return out
}

// Warnings filters conflicts down to warning severity.
func Warnings(conflicts []Conflict) []Conflict {
	var out []Conflict
	for _, c := range conflicts {
		if c.Severity == SeverityWarning {
			out = append(out, c)
		}
	}
	return out
}

// slotBucket rounds a time down to the nearest 15-minute boundary.
func slotBucket(t time.Time) time.Time {
	return t.Truncate(slotBucketMinutes * time.Minute)
}

// sortedByTime returns a copy ordered by time, then id, so detection
// output does not depend on input order.
func sortedByTime(matches []model.Match) []model.Match {
	out := make([]model.Match, len(matches))
	copy(out, matches)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].ScheduledTime.Before(out[j].ScheduledTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type courtSlotKey struct {
	court int
	slot  time.Time
}

func checkCourtDoubleBooking(matches []model.Match) []Conflict {
	buckets := make(map[courtSlotKey][]string)
	var order []courtSlotKey
	for _, m := range matches {
		key := courtSlotKey{m.CourtNumber, slotBucket(m.ScheduledTime)}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], m.ID)
	}

	var conflicts []Conflict
	for _, key := range order {
		ids := buckets[key]
		if len(ids) < 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:     KindCourtDoubleBooking,
			Severity: SeverityError,
			Message: fmt.Sprintf("court %d is double-booked at %s (%d matches)",
				key.court, key.slot.Format("15:04"), len(ids)),
			MatchIDs: ids,
			Suggestions: []string{
				"reschedule one of the matches to a later slot",
				"reassign one of the matches to a free court",
				"shorten the match duration to free the slot sooner",
			},
		})
	}
	return conflicts
}

type teamSlotKey struct {
	teamID string
	slot   time.Time
}

// checkPlayerOverlap keys on team identity, not individual participant
// identity: a participant appearing on two distinct team records in the
// same slot is not detected. This narrowing is deliberate and must not
// be widened silently.
func checkPlayerOverlap(matches []model.Match) []Conflict {
	buckets := make(map[teamSlotKey][]string)
	var order []teamSlotKey
	add := func(teamID string, m model.Match) {
		key := teamSlotKey{teamID, slotBucket(m.ScheduledTime)}
		if _, seen := buckets[key]; !seen {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], m.ID)
	}
	for _, m := range matches {
		add(m.Team1ID, m)
		add(m.Team2ID, m)
	}

	var conflicts []Conflict
	for _, key := range order {
		ids := buckets[key]
		if len(ids) < 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:     KindPlayerOverlap,
			Severity: SeverityError,
			Message: fmt.Sprintf("team %s is scheduled in %d matches at %s",
				key.teamID, len(ids), key.slot.Format("15:04")),
			MatchIDs: ids,
			Suggestions: []string{
				"reschedule one of the matches to a different slot",
			},
		})
	}
	return conflicts
}

// checkRoundTiming warns when consecutive matches on the same court
// within a round are less than five minutes apart.
func checkRoundTiming(matches []model.Match, rounds []model.Round) []Conflict {
	byRound := make(map[int][]model.Match)
	var roundNumbers []int
	for _, m := range matches {
		if _, seen := byRound[m.RoundNumber]; !seen {
			roundNumbers = append(roundNumbers, m.RoundNumber)
		}
		byRound[m.RoundNumber] = append(byRound[m.RoundNumber], m)
	}
	sort.Ints(roundNumbers)

	var conflicts []Conflict
	for _, rn := range roundNumbers {
		rms := byRound[rn] // already time-sorted by the caller
		for i := 1; i < len(rms); i++ {
			prev, cur := rms[i-1], rms[i]
			if prev.CourtNumber != cur.CourtNumber {
				continue
			}
			gap := cur.ScheduledTime.Sub(prev.ScheduledTime)
			if gap >= minCourtGap || gap < 0 {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Kind:     KindTimeConflict,
				Severity: SeverityWarning,
				Message: fmt.Sprintf("round %d: matches on court %d are only %s apart",
					rn, cur.CourtNumber, gap),
				MatchIDs: []string{prev.ID, cur.ID},
				Suggestions: []string{
					"allow at least 5 minutes between matches on the same court",
				},
			})
		}
	}
	return conflicts
}

// Summarize renders a short human-readable report, error lines first.
func Summarize(conflicts []Conflict) string {
	if len(conflicts) == 0 {
		return "no conflicts"
	}
	var b strings.Builder
	for _, c := range Errors(conflicts) {
		fmt.Fprintf(&b, "error: %s\n", c.Message)
	}
	for _, c := range Warnings(conflicts) {
		fmt.Fprintf(&b, "warning: %s\n", c.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
