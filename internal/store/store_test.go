package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jlcarver/courtplan/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(":memory:", logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func testData() (model.Tournament, []model.Participant, *model.GeneratedSchedule) {
	tournament := model.Tournament{
		ID:                   "t1",
		Name:                 "Test Open",
		CourtCount:           2,
		MatchDurationMinutes: 30,
		PointLimit:           11,
		ScoringRule:          "rally",
		SignupMode:           model.SignupIndividual,
	}
	participants := []model.Participant{
		{ID: "p1", Name: "Alice"},
		{ID: "p2", Name: "Bob"},
		{ID: "p3", Name: "Carol"},
		{ID: "p4", Name: "Dave"},
	}
	bye := "p3"
	sched := &model.GeneratedSchedule{
		Teams: []model.Team{
			{ID: "ta", Player1ID: "p1", Player2ID: "p2"},
			{ID: "tb", Player1ID: "p3", Player2ID: "p4"},
		},
		Rounds: []model.Round{
			{ID: "r1", RoundNumber: 1, Status: model.RoundPending},
			{ID: "r2", RoundNumber: 2, Status: model.RoundPending, ByeParticipantID: &bye},
		},
		Matches: []model.Match{
			{ID: "m1", RoundNumber: 1, MatchNumber: 1, Team1ID: "ta", Team2ID: "tb",
				CourtNumber: 1, ScheduledTime: time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC),
				Status: model.MatchScheduled},
			{ID: "m2", RoundNumber: 2, MatchNumber: 1, Team1ID: "tb", Team2ID: "ta",
				CourtNumber: 2, ScheduledTime: time.Date(2026, 9, 12, 9, 45, 0, 0, time.UTC),
				Status: model.MatchScheduled},
		},
	}
	return tournament, participants, sched
}

func TestSaveAndLoadSchedule(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	tournament, participants, sched := testData()

	if err := s.SaveGeneratedSchedule(ctx, tournament, participants, sched); err != nil {
		t.Fatalf("SaveGeneratedSchedule: %v", err)
	}

	t.Run("tournament", func(t *testing.T) {
		got, err := s.GetTournament(ctx, "t1")
		if err != nil {
			t.Fatalf("GetTournament: %v", err)
		}
		if got == nil {
			t.Fatal("tournament not found")
		}
		if got.Name != "Test Open" || got.CourtCount != 2 || got.SignupMode != model.SignupIndividual {
			t.Errorf("tournament = %+v", got)
		}
	})

	t.Run("participants", func(t *testing.T) {
		got, err := s.ListParticipants(ctx, "t1")
		if err != nil {
			t.Fatalf("ListParticipants: %v", err)
		}
		if len(got) != 4 || got[0].Name != "Alice" || got[3].Name != "Dave" {
			t.Errorf("participants = %+v", got)
		}
	})

	t.Run("teams", func(t *testing.T) {
		got, err := s.ListTeams(ctx, "t1")
		if err != nil {
			t.Fatalf("ListTeams: %v", err)
		}
		if len(got) != 2 || got[0].Player1ID != "p1" || got[0].Permanent {
			t.Errorf("teams = %+v", got)
		}
	})

	t.Run("rounds", func(t *testing.T) {
		got, err := s.ListRounds(ctx, "t1")
		if err != nil {
			t.Fatalf("ListRounds: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d rounds", len(got))
		}
		if got[0].ByeParticipantID != nil {
			t.Errorf("round 1 bye = %v, want none", got[0].ByeParticipantID)
		}
		if got[1].ByeParticipantID == nil || *got[1].ByeParticipantID != "p3" {
			t.Errorf("round 2 bye = %v, want p3", got[1].ByeParticipantID)
		}
	})

	t.Run("matches", func(t *testing.T) {
		got, err := s.ListMatches(ctx, "t1")
		if err != nil {
			t.Fatalf("ListMatches: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d matches", len(got))
		}
		m := got[0]
		if m.ID != "m1" || m.Team1ID != "ta" || m.CourtNumber != 1 || m.Status != model.MatchScheduled {
			t.Errorf("match = %+v", m)
		}
		if !m.ScheduledTime.Equal(time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC)) {
			t.Errorf("scheduled = %s", m.ScheduledTime)
		}
	})
}

func TestGetTournamentUnknownID(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetTournament(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetTournament: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestLatestTournament(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.LatestTournament(ctx)
	if err != nil {
		t.Fatalf("LatestTournament on empty db: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil on empty db", got)
	}

	tournament, participants, sched := testData()
	if err := s.SaveGeneratedSchedule(ctx, tournament, participants, sched); err != nil {
		t.Fatalf("SaveGeneratedSchedule: %v", err)
	}

	got, err = s.LatestTournament(ctx)
	if err != nil {
		t.Fatalf("LatestTournament: %v", err)
	}
	if got == nil || got.ID != "t1" {
		t.Errorf("latest = %+v, want t1", got)
	}
}

func TestUpdateMatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	tournament, participants, sched := testData()
	if err := s.SaveGeneratedSchedule(ctx, tournament, participants, sched); err != nil {
		t.Fatalf("SaveGeneratedSchedule: %v", err)
	}

	moved := sched.Matches[0]
	moved.CourtNumber = 2
	moved.ScheduledTime = time.Date(2026, 9, 12, 11, 0, 0, 0, time.UTC)
	moved.Status = model.MatchInProgress

	if err := s.UpdateMatch(ctx, moved); err != nil {
		t.Fatalf("UpdateMatch: %v", err)
	}

	got, err := s.ListMatches(ctx, "t1")
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if got[0].CourtNumber != 2 || got[0].Status != model.MatchInProgress {
		t.Errorf("match after update = %+v", got[0])
	}
	if !got[0].ScheduledTime.Equal(moved.ScheduledTime) {
		t.Errorf("scheduled = %s", got[0].ScheduledTime)
	}
}

func TestUpdateMatchUnknownID(t *testing.T) {
	s := openTestStore(t)

	m := model.Match{ID: "ghost", ScheduledTime: time.Now(), Status: model.MatchScheduled}
	if err := s.UpdateMatch(context.Background(), m); err == nil {
		t.Fatal("expected error for unknown match")
	}
}

func TestUpdateRound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	tournament, participants, sched := testData()
	if err := s.SaveGeneratedSchedule(ctx, tournament, participants, sched); err != nil {
		t.Fatalf("SaveGeneratedSchedule: %v", err)
	}

	r := sched.Rounds[0]
	r.RoundNumber = 2
	r.Status = model.RoundActive
	if err := s.UpdateRound(ctx, r); err != nil {
		t.Fatalf("UpdateRound: %v", err)
	}

	rounds, err := s.ListRounds(ctx, "t1")
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	var found bool
	for _, got := range rounds {
		if got.ID == "r1" {
			found = true
			if got.RoundNumber != 2 || got.Status != model.RoundActive {
				t.Errorf("round after update = %+v", got)
			}
		}
	}
	if !found {
		t.Error("round r1 missing after update")
	}
}

func TestUpdateRoundUnknownID(t *testing.T) {
	s := openTestStore(t)

	r := model.Round{ID: "ghost", RoundNumber: 1, Status: model.RoundPending}
	if err := s.UpdateRound(context.Background(), r); err == nil {
		t.Fatal("expected error for unknown round")
	}
}

func TestSaveRollsBackOnDuplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	tournament, participants, sched := testData()

	if err := s.SaveGeneratedSchedule(ctx, tournament, participants, sched); err != nil {
		t.Fatalf("first save: %v", err)
	}
	// Same ids again: the insert fails and nothing partial is left over.
	if err := s.SaveGeneratedSchedule(ctx, tournament, participants, sched); err == nil {
		t.Fatal("expected duplicate insert to fail")
	}

	got, err := s.ListMatches(ctx, "t1")
	if err != nil {
		t.Fatalf("ListMatches: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d matches after failed save, want 2", len(got))
	}
}
