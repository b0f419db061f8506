package schedule

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jlcarver/courtplan/internal/model"
)

// Settings controls a generation run.
type Settings struct {
	CourtCount           int
	MatchDurationMinutes int
	RestPeriodMinutes    int
	SessionBreakMinutes  int
	StartTime            time.Time
}

// DefaultSettings derives sensible schedule settings from tournament
// settings: the rest period is half a match, floored at 15 minutes, and
// session breaks default to an hour.
func DefaultSettings(t model.Tournament, start time.Time) Settings {
	rest := int(math.Round(float64(t.MatchDurationMinutes) * 0.5))
	if rest < 15 {
		rest = 15
	}
	return Settings{
		CourtCount:           t.CourtCount,
		MatchDurationMinutes: t.MatchDurationMinutes,
		RestPeriodMinutes:    rest,
		SessionBreakMinutes:  60,
		StartTime:            start,
	}
}

// Generator turns a participant list into a complete, court- and
// time-assigned schedule. Construct one per run; the trackers it builds
// internally are single-use.
type Generator struct {
	settings Settings
}

func NewGenerator(settings Settings) *Generator {
	return &Generator{settings: settings}
}

// Generate builds the full schedule for a tournament. For each round
// from the pairing rotation, each match is placed at the earliest time
// that satisfies both the next free court and every participant's rest
// window, taking the later of the two.
func (g *Generator) Generate(t model.Tournament, participants []model.Participant) (*model.GeneratedSchedule, error) {
	pairings, err := GeneratePairings(participants, t.SignupMode)
	if err != nil {
		return nil, fmt.Errorf("generating pairings: %w", err)
	}

	courts := NewCourtTracker(g.settings.CourtCount, g.settings.MatchDurationMinutes)
	rest := NewRestTracker(g.settings.RestPeriodMinutes)
	matchDuration := time.Duration(g.settings.MatchDurationMinutes) * time.Minute

	out := &model.GeneratedSchedule{}

	fixed := t.SignupMode == model.SignupFixedTeams
	var fixedTeamIDs []string
	if fixed && len(pairings) > 0 {
		for _, p := range pairings[0].Teams {
			team := model.Team{
				ID:        uuid.NewString(),
				Player1ID: p.Player1ID,
				Player2ID: p.Player2ID,
				Permanent: true,
			}
			fixedTeamIDs = append(fixedTeamIDs, team.ID)
			out.Teams = append(out.Teams, team)
		}
	}

	for _, rp := range pairings {
		round := model.Round{
			ID:          uuid.NewString(),
			RoundNumber: rp.RoundNumber,
			Status:      model.RoundPending,
		}
		if rp.ByeParticipantID != "" {
			bye := rp.ByeParticipantID
			round.ByeParticipantID = &bye
		}

		teamIDs := fixedTeamIDs
		if !fixed {
			teamIDs = make([]string, len(rp.Teams))
			for i, p := range rp.Teams {
				team := model.Team{
					ID:        uuid.NewString(),
					Player1ID: p.Player1ID,
					Player2ID: p.Player2ID,
				}
				teamIDs[i] = team.ID
				out.Teams = append(out.Teams, team)
			}
		}

		if fixed {
			if byeTeam := byeTeamIndex(rp); byeTeam >= 0 {
				id := teamIDs[byeTeam]
				round.ByeTeamID = &id
			}
		}

		for i, mu := range rp.Matchups {
			players := participantsOf(rp, mu)
			earliest := rest.EarliestMatchTime(players, g.settings.StartTime)
			court, start := courts.FindAvailableCourt(earliest)
			courts.ReserveCourt(court, start)

			end := start.Add(matchDuration)
			for _, id := range players {
				rest.RecordMatchEnd(id, end)
			}

			out.Matches = append(out.Matches, model.Match{
				ID:            uuid.NewString(),
				RoundNumber:   rp.RoundNumber,
				MatchNumber:   i + 1,
				Team1ID:       teamIDs[mu.Team1],
				Team2ID:       teamIDs[mu.Team2],
				CourtNumber:   court,
				ScheduledTime: start,
				Status:        model.MatchScheduled,
			})
		}

		out.Rounds = append(out.Rounds, round)
	}

	out.Optimization = g.optimization(out.Matches, courts)
	return out, nil
}

// byeTeamIndex returns the index of the team missing from every matchup
// in the round, or -1 when every team plays.
func byeTeamIndex(rp RoundPairings) int {
	playing := make(map[int]bool)
	for _, mu := range rp.Matchups {
		playing[mu.Team1] = true
		playing[mu.Team2] = true
	}
	for i := range rp.Teams {
		if !playing[i] {
			return i
		}
	}
	return -1
}

func (g *Generator) optimization(matches []model.Match, courts *CourtTracker) model.Optimization {
	if len(matches) == 0 {
		return model.Optimization{}
	}

	matchDuration := time.Duration(g.settings.MatchDurationMinutes) * time.Minute

	first := matches[0].ScheduledTime
	last := matches[0].ScheduledTime
	waves := make(map[time.Time]bool)
	for _, m := range matches {
		if m.ScheduledTime.Before(first) {
			first = m.ScheduledTime
		}
		if m.ScheduledTime.After(last) {
			last = m.ScheduledTime
		}
		waves[m.ScheduledTime] = true
	}
	total := int(last.Add(matchDuration).Sub(first).Minutes())

	return model.Optimization{
		TotalDurationMinutes: total,
		SessionsCount:        len(waves),
		AverageRestMinutes:   averageRest(matches, matchDuration),
		CourtUtilization:     courts.CourtUtilization(total),
	}
}

// averageRest computes the mean gap between the end of one match and
// the start of a team's next match, across all teams with more than one
// match.
func averageRest(matches []model.Match, matchDuration time.Duration) float64 {
	starts := make(map[string][]time.Time)
	for _, m := range matches {
		starts[m.Team1ID] = append(starts[m.Team1ID], m.ScheduledTime)
		starts[m.Team2ID] = append(starts[m.Team2ID], m.ScheduledTime)
	}

	var sum float64
	var gaps int
	for _, ts := range starts {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
		for i := 1; i < len(ts); i++ {
			sum += ts[i].Sub(ts[i-1].Add(matchDuration)).Minutes()
			gaps++
		}
	}
	if gaps == 0 {
		return 0
	}
	return sum / float64(gaps)
}
