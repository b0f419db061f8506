package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all courtplan tables. Each statement uses
// IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		id                     TEXT PRIMARY KEY,
		name                   TEXT NOT NULL,
		court_count            INTEGER NOT NULL,
		match_duration_minutes INTEGER NOT NULL,
		point_limit            INTEGER NOT NULL DEFAULT 0,
		scoring_rule           TEXT NOT NULL DEFAULT '',
		time_limited           INTEGER NOT NULL DEFAULT 0,
		signup_mode            TEXT NOT NULL,
		created_at             TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS participants (
		id            TEXT PRIMARY KEY,
		tournament_id TEXT NOT NULL REFERENCES tournaments(id),
		name          TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS teams (
		id            TEXT PRIMARY KEY,
		tournament_id TEXT NOT NULL REFERENCES tournaments(id),
		player1_id    TEXT NOT NULL,
		player2_id    TEXT NOT NULL,
		permanent     INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS rounds (
		id                 TEXT PRIMARY KEY,
		tournament_id      TEXT NOT NULL REFERENCES tournaments(id),
		round_number       INTEGER NOT NULL,
		status             TEXT NOT NULL DEFAULT 'pending',
		bye_participant_id TEXT,
		bye_team_id        TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS matches (
		id            TEXT PRIMARY KEY,
		tournament_id TEXT NOT NULL REFERENCES tournaments(id),
		round_number  INTEGER NOT NULL,
		match_number  INTEGER NOT NULL,
		team1_id      TEXT NOT NULL,
		team2_id      TEXT NOT NULL,
		court_number  INTEGER NOT NULL,
		scheduled_at  TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'scheduled',
		result        TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_participants_tournament ON participants(tournament_id)`,
	`CREATE INDEX IF NOT EXISTS idx_teams_tournament ON teams(tournament_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rounds_tournament ON rounds(tournament_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_tournament ON matches(tournament_id)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
