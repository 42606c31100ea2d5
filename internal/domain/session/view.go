package session

import (
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/strokes"
)

// View is the read model a presentation layer renders from.
type View struct {
	GameID string `json:"game_id"`
	State  State  `json:"state"`

	// Aggregate is the live state over the whole ledger.
	Aggregate model.AggregateState `json:"aggregate"`
	// Viewed is the aggregate up to and including the round under the cursor.
	Viewed      model.AggregateState `json:"viewed"`
	ViewedRound *model.RoundRecord   `json:"viewed_round,omitempty"`
	CursorIndex int                  `json:"cursor_index"`
	AtLatest    bool                 `json:"at_latest"`
	CanBack     bool                 `json:"can_move_backward"`
	CanForward  bool                 `json:"can_move_forward"`

	PendingStrokes   []model.StrokeEvent `json:"pending_strokes,omitempty"`
	Weis             model.TeamPoints    `json:"weis"`
	Paused           bool                `json:"paused"`
	ActiveMultiplier int                 `json:"active_multiplier"`
	Warning          *EditWarning        `json:"warning,omitempty"`

	Milestones map[model.Team]strokes.Milestone `json:"milestones"`
	Rounds     []model.RoundRecord              `json:"rounds"`
}

// View returns the read model of the session.
func (s *Session) View() View {
	v := View{GameID: s.id, State: s.state}
	if s.ledger == nil {
		return v
	}

	idx := s.cursor.Index()
	v.Aggregate = s.ledger.Fold()
	v.Viewed = s.ledger.FoldUpTo(idx + 1)
	if rec, ok := s.ledger.At(idx); ok {
		v.ViewedRound = &rec
	}
	v.CursorIndex = idx
	v.AtLatest = s.cursor.IsAtLatest()
	v.CanBack = s.cursor.CanMoveBackward()
	v.CanForward = s.cursor.CanMoveForward()

	v.PendingStrokes = s.pending.Events()
	v.Weis = s.weis
	v.Paused = s.paused
	v.ActiveMultiplier = s.multiplier
	if s.state == StatePendingEdit {
		v.Warning = &EditWarning{DiscardFrom: idx + 1, DiscardTo: s.ledger.Len() - 1}
	}

	v.Milestones = make(map[model.Team]strokes.Milestone, 2)
	for _, t := range model.Teams() {
		v.Milestones[t] = s.eval.Milestone(t, v.Aggregate.Scores)
	}
	v.Rounds = s.ledger.Records()
	return v
}
