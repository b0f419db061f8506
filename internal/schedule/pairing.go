package schedule

import (
	"fmt"

	"github.com/jlcarver/courtplan/internal/model"
)

// MinParticipants is the smallest field a doubles round-robin can run with.
const MinParticipants = 4

// Pairing is a teammate pair for one round.
type Pairing struct {
	Player1ID string
	Player2ID string
}

// Matchup pits two teams against each other, identified by their index
// into the round's Teams slice.
type Matchup struct {
	Team1 int
	Team2 int
}

// RoundPairings is the raw skeleton of one round before courts and
// times are assigned.
type RoundPairings struct {
	RoundNumber      int
	Teams            []Pairing
	Matchups         []Matchup
	ByeParticipantID string // empty when the participant count is even
}

// GeneratePairings produces the partner rotation for a tournament.
//
// In individual mode every unordered pair of participants is teammates
// in exactly one round: N-1 rounds for even N, N rounds with a rotating
// bye for odd N. Within a round the teams are matched cyclically, team
// i against team i+1, giving N/2 matches per round for even N.
//
// In fixed-team mode participants are paired off into permanent teams
// and the rotation is a plain round-robin over those teams.
func GeneratePairings(participants []model.Participant, mode model.SignupMode) ([]RoundPairings, error) {
	if len(participants) < MinParticipants {
		return nil, fmt.Errorf("insufficient participants: need at least %d, got %d", MinParticipants, len(participants))
	}

	if mode == model.SignupFixedTeams {
		return fixedTeamPairings(participants)
	}
	return rotatingPairings(participants), nil
}

// rotatingPairings runs the circle method over participants: seat 0 is
// fixed, the rest rotate one position per round, and opposite seats are
// teammates. An odd field gets a ghost seat; whoever draws the ghost
// takes the bye that round.
func rotatingPairings(participants []model.Participant) []RoundPairings {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}

	odd := len(ids)%2 == 1
	if odd {
		ids = append(ids, "") // ghost seat
	}
	n := len(ids)
	roundCount := n - 1 // with a ghost seat this is N rounds for odd N

	seats := make([]string, n)
	copy(seats, ids)

	var rounds []RoundPairings
	for r := 0; r < roundCount; r++ {
		rp := RoundPairings{RoundNumber: r + 1}
		for i := 0; i < n/2; i++ {
			a, b := seats[i], seats[n-1-i]
			if a == "" {
				rp.ByeParticipantID = b
				continue
			}
			if b == "" {
				rp.ByeParticipantID = a
				continue
			}
			rp.Teams = append(rp.Teams, Pairing{Player1ID: a, Player2ID: b})
		}
		rp.Matchups = cyclicMatchups(len(rp.Teams))
		rounds = append(rounds, rp)

		// Rotate everything but seat 0 one step clockwise.
		last := seats[n-1]
		copy(seats[2:], seats[1:n-1])
		seats[1] = last
	}

	return rounds
}

// fixedTeamPairings pairs participants off in registration order into
// permanent teams, then round-robins the teams against each other.
func fixedTeamPairings(participants []model.Participant) ([]RoundPairings, error) {
	if len(participants)%2 != 0 {
		return nil, fmt.Errorf("fixed-team signup requires an even participant count, got %d", len(participants))
	}

	teams := make([]Pairing, 0, len(participants)/2)
	for i := 0; i+1 < len(participants); i += 2 {
		teams = append(teams, Pairing{Player1ID: participants[i].ID, Player2ID: participants[i+1].ID})
	}

	// Circle method over team indices, ghost index -1 for odd counts.
	idx := make([]int, len(teams))
	for i := range idx {
		idx[i] = i
	}
	if len(idx)%2 == 1 {
		idx = append(idx, -1)
	}
	n := len(idx)

	var rounds []RoundPairings
	for r := 0; r < n-1; r++ {
		rp := RoundPairings{RoundNumber: r + 1, Teams: teams}
		for i := 0; i < n/2; i++ {
			t1, t2 := idx[i], idx[n-1-i]
			if t1 == -1 || t2 == -1 {
				continue // team bye; surfaced by the generator via the round's bye team
			}
			rp.Matchups = append(rp.Matchups, Matchup{Team1: t1, Team2: t2})
		}
		rounds = append(rounds, rp)

		last := idx[n-1]
		copy(idx[2:], idx[1:n-1])
		idx[1] = last
	}

	return rounds, nil
}

// cyclicMatchups matches team i against team i+1 around the circle.
// Every team appears as Team1 exactly once, so a round of k teams
// yields k matches.
func cyclicMatchups(teamCount int) []Matchup {
	if teamCount < 2 {
		return nil
	}
	matchups := make([]Matchup, 0, teamCount)
	for i := 0; i < teamCount; i++ {
		matchups = append(matchups, Matchup{Team1: i, Team2: (i + 1) % teamCount})
	}
	return matchups
}

// participantsOf returns the four player ids taking part in a matchup.
func participantsOf(rp RoundPairings, m Matchup) []string {
	t1, t2 := rp.Teams[m.Team1], rp.Teams[m.Team2]
	return []string{t1.Player1ID, t1.Player2ID, t2.Player1ID, t2.Player2ID}
}
