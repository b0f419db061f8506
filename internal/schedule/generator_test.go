package schedule

import (
	"sort"
	"testing"
	"time"

	"github.com/jlcarver/courtplan/internal/model"
)

func testTournament(courts int, mode model.SignupMode) model.Tournament {
	return model.Tournament{
		ID:                   "t1",
		Name:                 "Test Open",
		CourtCount:           courts,
		MatchDurationMinutes: 30,
		PointLimit:           11,
		ScoringRule:          "rally",
		SignupMode:           mode,
	}
}

func generateTestSchedule(t *testing.T, n, courts int) *model.GeneratedSchedule {
	t.Helper()
	tournament := testTournament(courts, model.SignupIndividual)
	settings := DefaultSettings(tournament, at(9, 0))
	sched, err := NewGenerator(settings).Generate(tournament, testParticipants(n))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return sched
}

func TestDefaultSettings(t *testing.T) {
	tournament := testTournament(3, model.SignupIndividual)

	settings := DefaultSettings(tournament, at(9, 0))
	if settings.RestPeriodMinutes != 15 {
		t.Errorf("rest = %d, want 15 (half of 30)", settings.RestPeriodMinutes)
	}
	if settings.SessionBreakMinutes != 60 {
		t.Errorf("session break = %d, want 60", settings.SessionBreakMinutes)
	}

	// A long match raises the derived rest above the 15-minute floor.
	tournament.MatchDurationMinutes = 50
	if got := DefaultSettings(tournament, at(9, 0)).RestPeriodMinutes; got != 25 {
		t.Errorf("rest = %d, want 25", got)
	}

	// A short match hits the floor.
	tournament.MatchDurationMinutes = 20
	if got := DefaultSettings(tournament, at(9, 0)).RestPeriodMinutes; got != 15 {
		t.Errorf("rest = %d, want 15", got)
	}
}

func TestGenerateRejectsSmallField(t *testing.T) {
	tournament := testTournament(2, model.SignupIndividual)
	settings := DefaultSettings(tournament, at(9, 0))

	_, err := NewGenerator(settings).Generate(tournament, testParticipants(3))
	if err == nil {
		t.Fatal("expected error for 3 participants")
	}
}

func TestGenerateEvenField(t *testing.T) {
	sched := generateTestSchedule(t, 8, 3)

	t.Run("7 rounds of 4 matches", func(t *testing.T) {
		if len(sched.Rounds) != 7 {
			t.Errorf("got %d rounds, want 7", len(sched.Rounds))
		}
		perRound := make(map[int]int)
		for _, m := range sched.Matches {
			perRound[m.RoundNumber]++
		}
		for rn, count := range perRound {
			if count != 4 {
				t.Errorf("round %d has %d matches, want 4", rn, count)
			}
		}
	})

	t.Run("matches are well-formed", func(t *testing.T) {
		for _, m := range sched.Matches {
			if m.Team1ID == m.Team2ID {
				t.Errorf("match %s: team plays itself", m.ID)
			}
			if m.CourtNumber < 1 || m.CourtNumber > 3 {
				t.Errorf("match %s: court %d out of range", m.ID, m.CourtNumber)
			}
			if m.Status != model.MatchScheduled {
				t.Errorf("match %s: status %s, want scheduled", m.ID, m.Status)
			}
			if m.MatchNumber < 1 {
				t.Errorf("match %s: match number %d", m.ID, m.MatchNumber)
			}
		}
	})

	t.Run("no court double-booking", func(t *testing.T) {
		duration := 30 * time.Minute
		byCourt := make(map[int][]time.Time)
		for _, m := range sched.Matches {
			byCourt[m.CourtNumber] = append(byCourt[m.CourtNumber], m.ScheduledTime)
		}
		for court, starts := range byCourt {
			sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
			for i := 1; i < len(starts); i++ {
				if starts[i].Sub(starts[i-1]) < duration {
					t.Errorf("court %d: matches at %s and %s overlap",
						court, starts[i-1].Format("15:04"), starts[i].Format("15:04"))
				}
			}
		}
	})

	t.Run("rest period honored for every participant", func(t *testing.T) {
		duration := 30 * time.Minute
		rest := 15 * time.Minute

		players := make(map[string][]string) // team id -> player ids
		for _, team := range sched.Teams {
			players[team.ID] = []string{team.Player1ID, team.Player2ID}
		}
		starts := make(map[string][]time.Time) // player id -> match starts
		for _, m := range sched.Matches {
			for _, teamID := range []string{m.Team1ID, m.Team2ID} {
				for _, pid := range players[teamID] {
					starts[pid] = append(starts[pid], m.ScheduledTime)
				}
			}
		}
		for pid, ts := range starts {
			sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
			for i := 1; i < len(ts); i++ {
				gap := ts[i].Sub(ts[i-1].Add(duration))
				if gap < rest {
					t.Errorf("%s: only %s rest between %s and %s",
						pid, gap, ts[i-1].Format("15:04"), ts[i].Format("15:04"))
				}
			}
		}
	})

	t.Run("optimization metrics populated", func(t *testing.T) {
		opt := sched.Optimization
		if opt.TotalDurationMinutes <= 0 {
			t.Errorf("total duration = %d", opt.TotalDurationMinutes)
		}
		if opt.SessionsCount <= 0 {
			t.Errorf("sessions = %d", opt.SessionsCount)
		}
		if opt.CourtUtilization <= 0 || opt.CourtUtilization > 100 {
			t.Errorf("utilization = %.1f", opt.CourtUtilization)
		}
		if opt.AverageRestMinutes < 15 {
			t.Errorf("average rest = %.1f, below the configured minimum", opt.AverageRestMinutes)
		}
	})
}

func TestGenerateOddFieldRotatesByes(t *testing.T) {
	sched := generateTestSchedule(t, 5, 2)

	if len(sched.Rounds) != 5 {
		t.Fatalf("got %d rounds, want 5", len(sched.Rounds))
	}

	byes := make(map[string]int)
	for _, r := range sched.Rounds {
		if r.ByeParticipantID == nil {
			t.Errorf("round %d has no bye", r.RoundNumber)
			continue
		}
		byes[*r.ByeParticipantID]++
	}
	if len(byes) != 5 {
		t.Errorf("%d distinct byes, want 5", len(byes))
	}
}

func TestGenerateIndividualTeamsAreEphemeral(t *testing.T) {
	sched := generateTestSchedule(t, 6, 2)

	for _, team := range sched.Teams {
		if team.Permanent {
			t.Errorf("team %s marked permanent in individual mode", team.ID)
		}
	}
	// 5 rounds x 3 teams.
	if len(sched.Teams) != 15 {
		t.Errorf("got %d teams, want 15", len(sched.Teams))
	}
}

func TestGenerateFixedTeams(t *testing.T) {
	tournament := testTournament(2, model.SignupFixedTeams)
	settings := DefaultSettings(tournament, at(9, 0))

	sched, err := NewGenerator(settings).Generate(tournament, testParticipants(8))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(sched.Teams) != 4 {
		t.Fatalf("got %d teams, want 4", len(sched.Teams))
	}
	for _, team := range sched.Teams {
		if !team.Permanent {
			t.Errorf("team %s not marked permanent", team.ID)
		}
	}
	if len(sched.Rounds) != 3 {
		t.Errorf("got %d rounds, want 3", len(sched.Rounds))
	}
}
