package conflict

import (
	"strings"
	"testing"
	"time"

	"github.com/jlcarver/courtplan/internal/model"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 9, 12, hour, minute, 0, 0, time.UTC)
}

func match(id string, round, court int, start time.Time, team1, team2 string) model.Match {
	return model.Match{
		ID:            id,
		RoundNumber:   round,
		MatchNumber:   1,
		Team1ID:       team1,
		Team2ID:       team2,
		CourtNumber:   court,
		ScheduledTime: start,
		Status:        model.MatchScheduled,
	}
}

func kinds(conflicts []Conflict) map[Kind]int {
	out := make(map[Kind]int)
	for _, c := range conflicts {
		out[c.Kind]++
	}
	return out
}

func TestDetectCleanSchedule(t *testing.T) {
	matches := []model.Match{
		match("m1", 1, 1, at(9, 0), "ta", "tb"),
		match("m2", 1, 2, at(9, 0), "tc", "td"),
		match("m3", 2, 1, at(9, 45), "te", "tf"),
	}

	if got := Detect(matches, nil); len(got) != 0 {
		t.Errorf("expected no conflicts, got %d: %s", len(got), Summarize(got))
	}
}

func TestDetectCourtDoubleBooking(t *testing.T) {
	matches := []model.Match{
		match("m1", 1, 1, at(9, 0), "ta", "tb"),
		match("m2", 1, 1, at(9, 10), "tc", "td"), // same 15-minute bucket
	}

	got := Detect(matches, nil)
	byKind := kinds(got)
	if byKind[KindCourtDoubleBooking] != 1 {
		t.Fatalf("got %d double-booking conflicts, want 1 (all: %v)", byKind[KindCourtDoubleBooking], byKind)
	}

	var c Conflict
	for _, candidate := range got {
		if candidate.Kind == KindCourtDoubleBooking {
			c = candidate
		}
	}
	if c.Severity != SeverityError {
		t.Errorf("severity = %s, want error", c.Severity)
	}
	if len(c.MatchIDs) != 2 {
		t.Errorf("match ids = %v, want both matches", c.MatchIDs)
	}
	if len(c.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
}

func TestDetectBucketBoundary(t *testing.T) {
	// 09:10 and 09:15 fall in different 15-minute buckets, so the
	// bucketing pass does not flag them even though the matches overlap
	// in real time.
	matches := []model.Match{
		match("m1", 1, 1, at(9, 10), "ta", "tb"),
		match("m2", 1, 1, at(9, 15), "tc", "td"),
	}

	got := Detect(matches, nil)
	if kinds(got)[KindCourtDoubleBooking] != 0 {
		t.Errorf("expected no double-booking across bucket boundary, got: %s", Summarize(got))
	}
}

func TestDetectPlayerOverlap(t *testing.T) {
	matches := []model.Match{
		match("m1", 1, 1, at(9, 0), "ta", "tb"),
		match("m2", 1, 2, at(9, 0), "ta", "tc"), // ta in both
	}

	got := Detect(matches, nil)
	byKind := kinds(got)
	if byKind[KindPlayerOverlap] != 1 {
		t.Fatalf("got %d overlap conflicts, want 1 (all: %v)", byKind[KindPlayerOverlap], byKind)
	}
	for _, c := range got {
		if c.Kind != KindPlayerOverlap {
			continue
		}
		if c.Severity != SeverityError {
			t.Errorf("severity = %s, want error", c.Severity)
		}
		if !strings.Contains(c.Message, "ta") {
			t.Errorf("message %q does not name the team", c.Message)
		}
	}
}

func TestDetectOverlapIsTeamKeyed(t *testing.T) {
	// Two distinct team records in the same slot do not collide, even if
	// they shared a player. Overlap detection is by team identity only.
	matches := []model.Match{
		match("m1", 1, 1, at(9, 0), "ta", "tb"),
		match("m2", 1, 2, at(9, 0), "tc", "td"),
	}

	got := Detect(matches, nil)
	if kinds(got)[KindPlayerOverlap] != 0 {
		t.Errorf("expected no overlap for distinct teams, got: %s", Summarize(got))
	}
}

func TestDetectRoundTimingWarning(t *testing.T) {
	matches := []model.Match{
		match("m1", 1, 1, at(9, 0), "ta", "tb"),
		match("m2", 1, 1, at(9, 33), "tc", "td"), // 33 minutes later: clean
		match("m3", 1, 1, at(9, 36), "te", "tf"), // 3 minutes after m2
	}

	got := Detect(matches, nil)
	byKind := kinds(got)
	if byKind[KindTimeConflict] != 1 {
		t.Fatalf("got %d timing conflicts, want 1 (all: %v)", byKind[KindTimeConflict], byKind)
	}
	for _, c := range got {
		if c.Kind != KindTimeConflict {
			continue
		}
		if c.Severity != SeverityWarning {
			t.Errorf("severity = %s, want warning", c.Severity)
		}
		if len(c.MatchIDs) != 2 || c.MatchIDs[0] != "m2" || c.MatchIDs[1] != "m3" {
			t.Errorf("match ids = %v, want [m2 m3]", c.MatchIDs)
		}
	}
}

func TestDetectRoundTimingIgnoresOtherCourts(t *testing.T) {
	matches := []model.Match{
		match("m1", 1, 1, at(9, 0), "ta", "tb"),
		match("m2", 1, 2, at(9, 2), "tc", "td"),
	}

	got := Detect(matches, nil)
	if kinds(got)[KindTimeConflict] != 0 {
		t.Errorf("expected no timing warning across courts, got: %s", Summarize(got))
	}
}

func TestDetectIsOrderIndependent(t *testing.T) {
	forward := []model.Match{
		match("m1", 1, 1, at(9, 0), "ta", "tb"),
		match("m2", 1, 1, at(9, 5), "tc", "td"),
		match("m3", 2, 2, at(10, 0), "ta", "tc"),
	}
	reversed := []model.Match{forward[2], forward[1], forward[0]}

	a := Summarize(Detect(forward, nil))
	b := Summarize(Detect(reversed, nil))
	if a != b {
		t.Errorf("detection depends on input order:\nforward:  %s\nreversed: %s", a, b)
	}
}

func TestValidateMatchReschedule(t *testing.T) {
	matches := []model.Match{
		match("m1", 1, 1, at(9, 0), "ta", "tb"),
		match("m2", 1, 2, at(9, 0), "tc", "td"),
	}

	t.Run("clean move", func(t *testing.T) {
		got := ValidateMatchReschedule(matches[0], at(10, 0), 1, matches)
		if len(got) != 0 {
			t.Errorf("expected clean preview, got: %s", Summarize(got))
		}
	})

	t.Run("move onto an occupied court", func(t *testing.T) {
		got := ValidateMatchReschedule(matches[0], at(9, 0), 2, matches)
		if kinds(got)[KindCourtDoubleBooking] != 1 {
			t.Errorf("expected a double-booking in the preview, got: %s", Summarize(got))
		}
	})

	t.Run("original set is untouched", func(t *testing.T) {
		ValidateMatchReschedule(matches[0], at(9, 0), 2, matches)
		if !matches[0].ScheduledTime.Equal(at(9, 0)) || matches[0].CourtNumber != 1 {
			t.Error("preview mutated the input match")
		}
	})
}

func TestErrorsAndWarnings(t *testing.T) {
	conflicts := []Conflict{
		{Kind: KindCourtDoubleBooking, Severity: SeverityError, Message: "e1"},
		{Kind: KindTimeConflict, Severity: SeverityWarning, Message: "w1"},
		{Kind: KindPlayerOverlap, Severity: SeverityError, Message: "e2"},
	}

	if got := Errors(conflicts); len(got) != 2 {
		t.Errorf("Errors returned %d, want 2", len(got))
	}
	if got := Warnings(conflicts); len(got) != 1 {
		t.Errorf("Warnings returned %d, want 1", len(got))
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); got != "no conflicts" {
		t.Errorf("empty summary = %q", got)
	}

	conflicts := []Conflict{
		{Severity: SeverityWarning, Message: "tight turnaround"},
		{Severity: SeverityError, Message: "court clash"},
	}
	got := Summarize(conflicts)
	if !strings.HasPrefix(got, "error: court clash") {
		t.Errorf("errors should lead the summary, got:\n%s", got)
	}
	if !strings.Contains(got, "warning: tight turnaround") {
		t.Errorf("summary missing warning line:\n%s", got)
	}
}
