// Package store is the persistence collaborator: it stores generated
// schedules by id and tournament id and exposes load/update primitives.
// The scheduling core never imports it; the owning application bridges
// the two.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jlcarver/courtplan/internal/model"

	_ "modernc.org/sqlite"
)

// Store persists tournaments, teams, rounds, and matches in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) a SQLite database at dbPath. Use ":memory:"
// for an in-memory database (useful in tests).
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// SaveGeneratedSchedule stores a tournament together with its
// participants and a freshly generated schedule in one transaction.
func (s *Store) SaveGeneratedSchedule(ctx context.Context, t model.Tournament, participants []model.Participant, sched *model.GeneratedSchedule) error {
	s.logger.Debug("sql", "op", "save_schedule", "tournament", t.ID, "matches", len(sched.Matches))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	timeLimited := 0
	if t.TimeLimited {
		timeLimited = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tournaments (id, name, court_count, match_duration_minutes, point_limit, scoring_rule, time_limited, signup_mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.CourtCount, t.MatchDurationMinutes, t.PointLimit, t.ScoringRule, timeLimited, string(t.SignupMode),
		time.Now().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert tournament: %w", err)
	}

	for _, p := range participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO participants (id, tournament_id, name) VALUES (?, ?, ?)`,
			p.ID, t.ID, p.Name,
		); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	for _, team := range sched.Teams {
		permanent := 0
		if team.Permanent {
			permanent = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO teams (id, tournament_id, player1_id, player2_id, permanent) VALUES (?, ?, ?, ?, ?)`,
			team.ID, t.ID, team.Player1ID, team.Player2ID, permanent,
		); err != nil {
			return fmt.Errorf("insert team: %w", err)
		}
	}

	for _, r := range sched.Rounds {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rounds (id, tournament_id, round_number, status, bye_participant_id, bye_team_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, t.ID, r.RoundNumber, string(r.Status), r.ByeParticipantID, r.ByeTeamID,
		); err != nil {
			return fmt.Errorf("insert round: %w", err)
		}
	}

	for _, m := range sched.Matches {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO matches (id, tournament_id, round_number, match_number, team1_id, team2_id, court_number, scheduled_at, status, result)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, t.ID, m.RoundNumber, m.MatchNumber, m.Team1ID, m.Team2ID, m.CourtNumber,
			m.ScheduledTime.Format(time.RFC3339Nano), string(m.Status), m.Result,
		); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}

	return tx.Commit()
}

// GetTournament loads tournament settings by id. Returns nil when the
// id is unknown.
func (s *Store) GetTournament(ctx context.Context, id string) (*model.Tournament, error) {
	s.logger.Debug("sql", "op", "select", "table", "tournaments", "id", id)
	return s.scanTournament(s.db.QueryRowContext(ctx,
		`SELECT id, name, court_count, match_duration_minutes, point_limit, scoring_rule, time_limited, signup_mode
		 FROM tournaments WHERE id = ?`, id))
}

// LatestTournament loads the most recently created tournament, or nil
// when the database is empty.
func (s *Store) LatestTournament(ctx context.Context) (*model.Tournament, error) {
	s.logger.Debug("sql", "op", "select", "table", "tournaments", "latest", true)
	return s.scanTournament(s.db.QueryRowContext(ctx,
		`SELECT id, name, court_count, match_duration_minutes, point_limit, scoring_rule, time_limited, signup_mode
		 FROM tournaments ORDER BY created_at DESC LIMIT 1`))
}

func (s *Store) scanTournament(row *sql.Row) (*model.Tournament, error) {
	var t model.Tournament
	var timeLimited int
	var mode string
	err := row.Scan(&t.ID, &t.Name, &t.CourtCount, &t.MatchDurationMinutes,
		&t.PointLimit, &t.ScoringRule, &timeLimited, &mode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.TimeLimited = timeLimited != 0
	t.SignupMode = model.SignupMode(mode)
	return &t, nil
}

// ListParticipants loads a tournament's participants.
func (s *Store) ListParticipants(ctx context.Context, tournamentID string) ([]model.Participant, error) {
	s.logger.Debug("sql", "op", "select", "table", "participants", "tournament", tournamentID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM participants WHERE tournament_id = ? ORDER BY rowid`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListTeams loads a tournament's teams.
func (s *Store) ListTeams(ctx context.Context, tournamentID string) ([]model.Team, error) {
	s.logger.Debug("sql", "op", "select", "table", "teams", "tournament", tournamentID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player1_id, player2_id, permanent FROM teams WHERE tournament_id = ? ORDER BY rowid`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Team
	for rows.Next() {
		var t model.Team
		var permanent int
		if err := rows.Scan(&t.ID, &t.Player1ID, &t.Player2ID, &permanent); err != nil {
			return nil, err
		}
		t.Permanent = permanent != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListRounds loads a tournament's rounds ordered by round number.
func (s *Store) ListRounds(ctx context.Context, tournamentID string) ([]model.Round, error) {
	s.logger.Debug("sql", "op", "select", "table", "rounds", "tournament", tournamentID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, round_number, status, bye_participant_id, bye_team_id
		 FROM rounds WHERE tournament_id = ? ORDER BY round_number`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Round
	for rows.Next() {
		var r model.Round
		if err := rows.Scan(&r.ID, &r.RoundNumber, &r.Status, &r.ByeParticipantID, &r.ByeTeamID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListMatches loads a tournament's matches ordered by round and match
// number.
func (s *Store) ListMatches(ctx context.Context, tournamentID string) ([]model.Match, error) {
	s.logger.Debug("sql", "op", "select", "table", "matches", "tournament", tournamentID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, round_number, match_number, team1_id, team2_id, court_number, scheduled_at, status, result
		 FROM matches WHERE tournament_id = ? ORDER BY round_number, match_number`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Match
	for rows.Next() {
		var m model.Match
		var scheduled string
		if err := rows.Scan(&m.ID, &m.RoundNumber, &m.MatchNumber, &m.Team1ID, &m.Team2ID,
			&m.CourtNumber, &scheduled, &m.Status, &m.Result); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, scheduled)
		if err != nil {
			return nil, fmt.Errorf("match %s: invalid scheduled_at %q: %w", m.ID, scheduled, err)
		}
		m.ScheduledTime = t
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMatch writes back a match's schedulable fields and status.
func (s *Store) UpdateMatch(ctx context.Context, m model.Match) error {
	s.logger.Debug("sql", "op", "update", "table", "matches", "id", m.ID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE matches SET round_number = ?, match_number = ?, court_number = ?, scheduled_at = ?, status = ?, result = ?
		 WHERE id = ?`,
		m.RoundNumber, m.MatchNumber, m.CourtNumber, m.ScheduledTime.Format(time.RFC3339Nano),
		string(m.Status), m.Result, m.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("match %s not found", m.ID)
	}
	return nil
}

// UpdateRound writes back a round's number and status.
func (s *Store) UpdateRound(ctx context.Context, r model.Round) error {
	s.logger.Debug("sql", "op", "update", "table", "rounds", "id", r.ID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET round_number = ?, status = ? WHERE id = ?`,
		r.RoundNumber, string(r.Status), r.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("round %s not found", r.ID)
	}
	return nil
}
