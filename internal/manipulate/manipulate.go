// Package manipulate edits an existing schedule: reschedules, court
// reassignments, round swaps, and single-step undo. Operations return
// new values rather than mutating their inputs, and record themselves
// into a history log. Conflict checking is deliberately not done here;
// callers preview mutations with the conflict package and decide
// whether to proceed.
package manipulate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tiendc/go-deepcopy"

	"github.com/jlcarver/courtplan/internal/history"
	"github.com/jlcarver/courtplan/internal/model"
)

// roundAnchorHour is the fixed daily anchor used when SwapRounds
// recomputes match times.
const roundAnchorHour = 9

// matchStagger is the flat gap between consecutive matches of a round
// after a plain swap.
const matchStagger = 2 * time.Minute

// RescheduleMatch moves a match to a new time and court, recording the
// old and new values for undo. Completed matches are immutable.
func RescheduleMatch(m model.Match, newTime time.Time, newCourt int, h *history.History) (model.Match, error) {
	if m.Status == model.MatchCompleted {
		return m, fmt.Errorf("match %s is completed and cannot be rescheduled", m.ID)
	}

	updated := m
	updated.ScheduledTime = newTime
	updated.CourtNumber = newCourt

	h.Add(history.Change{
		Kind: history.KindMatchReschedule,
		Description: fmt.Sprintf("moved match %d of round %d to court %d at %s",
			m.MatchNumber, m.RoundNumber, newCourt, newTime.Format("15:04")),
		MatchID:  m.ID,
		OldMatch: &history.MatchFields{ScheduledTime: m.ScheduledTime, CourtNumber: m.CourtNumber},
		NewMatch: &history.MatchFields{ScheduledTime: newTime, CourtNumber: newCourt},
	})

	return updated, nil
}

// ReassignCourt moves a match to another court without changing its
// time. Completed matches are immutable.
func ReassignCourt(m model.Match, newCourt int, h *history.History) (model.Match, error) {
	if m.Status == model.MatchCompleted {
		return m, fmt.Errorf("match %s is completed and cannot be reassigned", m.ID)
	}

	updated := m
	updated.CourtNumber = newCourt

	h.Add(history.Change{
		Kind: history.KindCourtReassign,
		Description: fmt.Sprintf("moved match %d of round %d from court %d to court %d",
			m.MatchNumber, m.RoundNumber, m.CourtNumber, newCourt),
		MatchID:  m.ID,
		OldMatch: &history.MatchFields{ScheduledTime: m.ScheduledTime, CourtNumber: m.CourtNumber},
		NewMatch: &history.MatchFields{ScheduledTime: m.ScheduledTime, CourtNumber: newCourt},
	})

	return updated, nil
}

// SwapValidation reports whether a round swap may proceed. Errors block
// the swap; warnings are informational.
type SwapValidation struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// ValidateRoundSwap checks the preconditions for exchanging two rounds.
func ValidateRoundSwap(r1, r2 model.Round, matches []model.Match) SwapValidation {
	v := SwapValidation{}

	if r1.RoundNumber == r2.RoundNumber {
		v.Errors = append(v.Errors, "cannot swap a round with itself")
	}

	for _, r := range []model.Round{r1, r2} {
		if r.Status == model.RoundCompleted {
			v.Errors = append(v.Errors, fmt.Sprintf("round %d is completed and cannot be swapped", r.RoundNumber))
			continue
		}
		if n := completedMatchCount(matches, r.RoundNumber); n > 0 {
			v.Errors = append(v.Errors, fmt.Sprintf("round %d has %d completed matches and cannot be swapped", r.RoundNumber, n))
		}
	}

	if hasBye(r1) != hasBye(r2) {
		v.Warnings = append(v.Warnings, "one round has a bye and the other does not")
	}

	t1, t2 := distinctTeamCount(matches, r1.RoundNumber), distinctTeamCount(matches, r2.RoundNumber)
	if t1 != t2 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("rounds have different team counts (%d vs %d)", t1, t2))
	}

	if gap := r1.RoundNumber - r2.RoundNumber; gap > 2 || gap < -2 {
		v.Warnings = append(v.Warnings, "rounds are more than 2 apart; the swap may disrupt the schedule flow")
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

func hasBye(r model.Round) bool {
	return r.ByeTeamID != nil || r.ByeParticipantID != nil
}

func completedMatchCount(matches []model.Match, roundNumber int) int {
	n := 0
	for _, m := range matches {
		if m.RoundNumber == roundNumber && m.Status == model.MatchCompleted {
			n++
		}
	}
	return n
}

func distinctTeamCount(matches []model.Match, roundNumber int) int {
	teams := make(map[string]bool)
	for _, m := range matches {
		if m.RoundNumber == roundNumber {
			teams[m.Team1ID] = true
			teams[m.Team2ID] = true
		}
	}
	return len(teams)
}

// SwapRounds exchanges the round numbers of two rounds and their
// matches, then re-times the moved matches against a fixed 09:00 daily
// anchor with a flat two-minute stagger within each round. The retiming
// does not re-run court allocation, so it is only self-consistent when
// the rest of the schedule was generated against the same anchor and
// duration. SwapRoundsWithCourtRebalancing is the variant new callers
// should prefer.
func SwapRounds(r1, r2 model.Round, matches []model.Match, h *history.History, matchDurationMinutes int) (model.Round, model.Round, []model.Match, error) {
	swapped1, swapped2, out, err := exchangeRoundNumbers(r1, r2, matches, h)
	if err != nil {
		return r1, r2, nil, err
	}

	duration := time.Duration(matchDurationMinutes) * time.Minute
	for _, rn := range []int{swapped1.RoundNumber, swapped2.RoundNumber} {
		idx := roundMatchIndexes(out, rn)
		for i, mi := range idx {
			base := dayAnchor(out[mi].ScheduledTime)
			out[mi].ScheduledTime = base.
				Add(time.Duration(rn-1) * duration).
				Add(time.Duration(i) * matchStagger)
		}
	}

	return swapped1, swapped2, out, nil
}

// SwapRoundsWithCourtRebalancing exchanges the round numbers like
// SwapRounds but redistributes each swapped round's matches across up
// to courtCount parallel slots, reassigning courts evenly instead of
// staggering everything on the original courts.
func SwapRoundsWithCourtRebalancing(r1, r2 model.Round, matches []model.Match, h *history.History, matchDurationMinutes, courtCount int) (model.Round, model.Round, []model.Match, error) {
	swapped1, swapped2, out, err := exchangeRoundNumbers(r1, r2, matches, h)
	if err != nil {
		return r1, r2, nil, err
	}

	duration := time.Duration(matchDurationMinutes) * time.Minute
	for _, rn := range []int{swapped1.RoundNumber, swapped2.RoundNumber} {
		idx := roundMatchIndexes(out, rn)
		if len(idx) == 0 {
			continue
		}
		matchesPerSlot := courtCount
		if len(idx) < matchesPerSlot {
			matchesPerSlot = len(idx)
		}
		for i, mi := range idx {
			slot := i / matchesPerSlot
			base := dayAnchor(out[mi].ScheduledTime)
			out[mi].CourtNumber = i%matchesPerSlot + 1
			out[mi].ScheduledTime = base.
				Add(time.Duration(rn-1) * duration).
				Add(time.Duration(slot) * duration)
		}
	}

	return swapped1, swapped2, out, nil
}

// exchangeRoundNumbers validates the swap, clones the match set, swaps
// the round numbers on rounds and matches, and records the change.
func exchangeRoundNumbers(r1, r2 model.Round, matches []model.Match, h *history.History) (model.Round, model.Round, []model.Match, error) {
	v := ValidateRoundSwap(r1, r2, matches)
	if !v.IsValid {
		return r1, r2, nil, fmt.Errorf("invalid round swap: %s", strings.Join(v.Errors, "; "))
	}

	var out []model.Match
	if err := deepcopy.Copy(&out, matches); err != nil {
		return r1, r2, nil, fmt.Errorf("copying matches: %w", err)
	}

	old1, old2 := r1.RoundNumber, r2.RoundNumber
	for i := range out {
		switch out[i].RoundNumber {
		case old1:
			out[i].RoundNumber = old2
		case old2:
			out[i].RoundNumber = old1
		}
	}

	swapped1, swapped2 := r1, r2
	swapped1.RoundNumber = old2
	swapped2.RoundNumber = old1

	h.Add(history.Change{
		Kind:        history.KindRoundSwap,
		Description: fmt.Sprintf("swapped round %d with round %d", old1, old2),
		OldRounds:   &history.RoundNumbers{Round1: old1, Round2: old2},
		NewRounds:   &history.RoundNumbers{Round1: old2, Round2: old1},
	})

	return swapped1, swapped2, out, nil
}

// roundMatchIndexes returns the indexes of a round's matches ordered by
// original match number.
func roundMatchIndexes(matches []model.Match, roundNumber int) []int {
	var idx []int
	for i, m := range matches {
		if m.RoundNumber == roundNumber {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		return matches[idx[a]].MatchNumber < matches[idx[b]].MatchNumber
	})
	return idx
}

// dayAnchor returns 09:00 on the day the match is currently scheduled.
func dayAnchor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), roundAnchorHour, 0, 0, 0, t.Location())
}

// UndoLastChange inverts one recorded change, returning updated copies
// of the match and round sets. Malformed or unknown change records fail
// loudly rather than no-opping.
func UndoLastChange(c history.Change, matches []model.Match, rounds []model.Round) ([]model.Match, []model.Round, error) {
	var outMatches []model.Match
	if err := deepcopy.Copy(&outMatches, matches); err != nil {
		return nil, nil, fmt.Errorf("copying matches: %w", err)
	}
	var outRounds []model.Round
	if err := deepcopy.Copy(&outRounds, rounds); err != nil {
		return nil, nil, fmt.Errorf("copying rounds: %w", err)
	}

	switch c.Kind {
	case history.KindMatchReschedule, history.KindCourtReassign:
		if c.OldMatch == nil || c.MatchID == "" {
			return nil, nil, fmt.Errorf("malformed %s change %s: missing match snapshot", c.Kind, c.ID)
		}
		found := false
		for i := range outMatches {
			if outMatches[i].ID == c.MatchID {
				outMatches[i].ScheduledTime = c.OldMatch.ScheduledTime
				outMatches[i].CourtNumber = c.OldMatch.CourtNumber
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("cannot undo change %s: match %s not found", c.ID, c.MatchID)
		}

	case history.KindRoundSwap:
		if c.OldRounds == nil || c.NewRounds == nil {
			return nil, nil, fmt.Errorf("malformed round swap change %s: missing round snapshots", c.ID)
		}
		restore := func(current int) (int, bool) {
			switch current {
			case c.NewRounds.Round1:
				return c.OldRounds.Round1, true
			case c.NewRounds.Round2:
				return c.OldRounds.Round2, true
			}
			return 0, false
		}
		for i := range outRounds {
			if n, ok := restore(outRounds[i].RoundNumber); ok {
				outRounds[i].RoundNumber = n
			}
		}
		for i := range outMatches {
			if n, ok := restore(outMatches[i].RoundNumber); ok {
				outMatches[i].RoundNumber = n
			}
		}

	default:
		return nil, nil, fmt.Errorf("unsupported change kind %q", c.Kind)
	}

	return outMatches, outRounds, nil
}
