package model

import "time"

// SignupMode determines how teams are formed for a tournament.
type SignupMode string

const (
	// SignupIndividual rotates partners every round: each participant
	// partners with every other participant exactly once.
	SignupIndividual SignupMode = "individual"
	// SignupFixedTeams uses permanent two-player teams for the whole
	// tournament.
	SignupFixedTeams SignupMode = "fixed_teams"
)

// Tournament holds the settings a schedule is generated from. The
// scheduler consumes these settings; it does not own or mutate them.
type Tournament struct {
	ID                   string
	Name                 string
	CourtCount           int
	MatchDurationMinutes int
	PointLimit           int
	ScoringRule          string
	TimeLimited          bool
	SignupMode           SignupMode
}

// Participant is a registered player. Win/loss statistics belong to the
// standings collaborator and never appear here.
type Participant struct {
	ID   string
	Name string
}

// Team pairs two participants. Permanent is false for the per-round
// teams created in individual-signup rotations.
type Team struct {
	ID        string
	Player1ID string
	Player2ID string
	Permanent bool
}

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

// Match is a single team-vs-team game. A completed match has already
// happened and is immutable to scheduling mutations.
type Match struct {
	ID            string
	RoundNumber   int
	MatchNumber   int // ordinal within the round, starting at 1
	Team1ID       string
	Team2ID       string
	CourtNumber   int
	ScheduledTime time.Time
	Status        MatchStatus
	Result        *string
}

type RoundStatus string

const (
	RoundPending   RoundStatus = "pending"
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
)

// Round groups the matches of one rotation. With an odd participant
// count exactly one participant sits out per round.
type Round struct {
	ID               string
	RoundNumber      int
	Status           RoundStatus
	ByeTeamID        *string
	ByeParticipantID *string
}

// Optimization summarizes how well a generated schedule uses the
// available courts and time.
type Optimization struct {
	// TotalDurationMinutes is the makespan from the first scheduled
	// start to the last scheduled end.
	TotalDurationMinutes int
	// SessionsCount is the number of distinct start waves.
	SessionsCount int
	// AverageRestMinutes averages the gap each participant gets between
	// consecutive matches.
	AverageRestMinutes float64
	// CourtUtilization is the percentage of court-time consumed by
	// scheduled matches.
	CourtUtilization float64
}

// GeneratedSchedule is the output of a generation run, handed to the
// persistence collaborator by the owning application.
type GeneratedSchedule struct {
	Rounds       []Round
	Matches      []Match
	Teams        []Team
	Optimization Optimization
}
