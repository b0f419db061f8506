package history

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindMatchReschedule Kind = "match_reschedule"
	KindCourtReassign   Kind = "court_reassign"
	KindRoundSwap       Kind = "round_swap"
)

// MatchFields snapshots the schedulable fields of a match for undo.
type MatchFields struct {
	ScheduledTime time.Time
	CourtNumber   int
}

// RoundNumbers snapshots the two round numbers touched by a swap.
type RoundNumbers struct {
	Round1 int
	Round2 int
}

// Change is one recorded mutation. Match changes carry old/new field
// snapshots; round swaps carry old/new number pairs.
type Change struct {
	ID          string
	Kind        Kind
	Description string
	MatchID     string
	OldMatch    *MatchFields
	NewMatch    *MatchFields
	OldRounds   *RoundNumbers
	NewRounds   *RoundNumbers
	Timestamp   time.Time
}

// MaxEntries caps the log; the oldest entries beyond it are dropped.
const MaxEntries = 50

// History is an append-only, newest-first mutation log. It backs a
// single-step undo: Clear is called after one undo rather than marking
// individual entries consumed.
type History struct {
	changes []Change
}

func New() *History {
	return &History{}
}

// Add stamps the change with an id and timestamp, prepends it, and
// truncates past the cap. The stamped change is returned.
func (h *History) Add(c Change) Change {
	c.ID = uuid.NewString()
	c.Timestamp = time.Now()

	h.changes = append([]Change{c}, h.changes...)
	if len(h.changes) > MaxEntries {
		h.changes = h.changes[:MaxEntries]
	}
	return c
}

// Changes returns the log newest first. The slice is a copy.
func (h *History) Changes() []Change {
	out := make([]Change, len(h.changes))
	copy(out, h.changes)
	return out
}

func (h *History) Len() int {
	return len(h.changes)
}

// UndoableChange returns the most recent change of an undoable kind, or
// nil when the log is empty. Every recorded kind currently qualifies.
func (h *History) UndoableChange() *Change {
	for i := range h.changes {
		switch h.changes[i].Kind {
		case KindMatchReschedule, KindCourtReassign, KindRoundSwap:
			c := h.changes[i]
			return &c
		}
	}
	return nil
}

func (h *History) CanUndo() bool {
	return len(h.changes) > 0
}

// Clear empties the log. Used as "mark as undone" after a single undo,
// which is what limits undo to one step.
func (h *History) Clear() {
	h.changes = nil
}
