package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jlcarver/courtplan/internal/model"
)

// Date is a wrapper around time.Time for YAML date parsing.
type Date struct {
	Time time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value.Value, err)
	}
	d.Time = t
	return nil
}

// Clock is a wrapper around a time of day ("09:00") for YAML parsing.
type Clock struct {
	Hour   int
	Minute int
}

func (c *Clock) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("15:04", value.Value)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", value.Value, err)
	}
	c.Hour, c.Minute = t.Hour(), t.Minute()
	return nil
}

type Tournament struct {
	Name                 string `yaml:"name"`
	CourtCount           int    `yaml:"court_count"`
	MatchDurationMinutes int    `yaml:"match_duration_minutes"`
	PointLimit           int    `yaml:"point_limit"`
	ScoringRule          string `yaml:"scoring_rule"`
	TimeLimited          bool   `yaml:"time_limited"`
	SignupMode           string `yaml:"signup_mode"`
}

type Schedule struct {
	Date                Date   `yaml:"date"`
	StartTime           Clock  `yaml:"start_time"`
	RestPeriodMinutes   *int   `yaml:"rest_period_minutes"`
	SessionBreakMinutes *int   `yaml:"session_break_minutes"`
	Timezone            string `yaml:"timezone"`
}

type Config struct {
	Tournament   Tournament `yaml:"tournament"`
	Schedule     Schedule   `yaml:"schedule"`
	Participants []string   `yaml:"participants"`
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) validate() error {
	if c.Tournament.Name == "" {
		return fmt.Errorf("tournament name is required")
	}
	if c.Tournament.CourtCount < 1 {
		return fmt.Errorf("court_count must be at least 1, got %d", c.Tournament.CourtCount)
	}
	if c.Tournament.MatchDurationMinutes < 1 {
		return fmt.Errorf("match_duration_minutes must be positive, got %d", c.Tournament.MatchDurationMinutes)
	}

	switch model.SignupMode(c.Tournament.SignupMode) {
	case model.SignupIndividual, model.SignupFixedTeams, "":
	default:
		return fmt.Errorf("unknown signup_mode %q (want %q or %q)",
			c.Tournament.SignupMode, model.SignupIndividual, model.SignupFixedTeams)
	}

	if len(c.Participants) < 4 {
		return fmt.Errorf("at least 4 participants are required, got %d", len(c.Participants))
	}
	seen := make(map[string]bool)
	for _, name := range c.Participants {
		if name == "" {
			return fmt.Errorf("participant names cannot be empty")
		}
		if seen[name] {
			return fmt.Errorf("participant %q is listed twice", name)
		}
		seen[name] = true
	}

	if c.Schedule.Date.Time.IsZero() {
		return fmt.Errorf("schedule date is required")
	}
	if c.Schedule.RestPeriodMinutes != nil && *c.Schedule.RestPeriodMinutes < 0 {
		return fmt.Errorf("rest_period_minutes cannot be negative")
	}
	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Schedule.Timezone, err)
		}
	}

	return nil
}

// ModelTournament builds the tournament settings entity, with a fresh id.
func (c *Config) ModelTournament() model.Tournament {
	mode := model.SignupMode(c.Tournament.SignupMode)
	if mode == "" {
		mode = model.SignupIndividual
	}
	return model.Tournament{
		ID:                   uuid.NewString(),
		Name:                 c.Tournament.Name,
		CourtCount:           c.Tournament.CourtCount,
		MatchDurationMinutes: c.Tournament.MatchDurationMinutes,
		PointLimit:           c.Tournament.PointLimit,
		ScoringRule:          c.Tournament.ScoringRule,
		TimeLimited:          c.Tournament.TimeLimited,
		SignupMode:           mode,
	}
}

// ModelParticipants builds participant entities in registration order,
// with fresh ids.
func (c *Config) ModelParticipants() []model.Participant {
	out := make([]model.Participant, 0, len(c.Participants))
	for _, name := range c.Participants {
		out = append(out, model.Participant{ID: uuid.NewString(), Name: name})
	}
	return out
}

// StartInstant combines the schedule date, start time, and timezone
// into the first allocatable instant of the day.
func (c *Config) StartInstant() time.Time {
	loc := time.Local
	if c.Schedule.Timezone != "" {
		if l, err := time.LoadLocation(c.Schedule.Timezone); err == nil {
			loc = l
		}
	}
	d := c.Schedule.Date.Time
	return time.Date(d.Year(), d.Month(), d.Day(), c.Schedule.StartTime.Hour, c.Schedule.StartTime.Minute, 0, 0, loc)
}
