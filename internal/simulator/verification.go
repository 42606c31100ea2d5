package simulator

import (
	"errors"
	"fmt"

	"github.com/okian/jasstafel/internal/domain/ledger"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/scoring"
)

// ErrMismatch reports a disagreement between the service and a local recomputation.
var ErrMismatch = errors.New("mismatch")

// verifyGame checks the reported view and snapshot against the plan.
func verifyGame(res *GameResult) error {
	v := res.View
	if len(v.Rounds) != len(res.Plan.Rounds) {
		return fmt.Errorf("%w: %d rounds recorded, %d planned", ErrMismatch, len(v.Rounds), len(res.Plan.Rounds))
	}

	for i := range v.Rounds {
		if err := verifyRecord(i, &v.Rounds[i], res.Plan.Rounds[i]); err != nil {
			return err
		}
	}

	folded := ledger.FoldPrefix(v.Rounds, len(v.Rounds))
	if err := compareAggregates("view", v.Aggregate, folded); err != nil {
		return err
	}
	if res.Synced.GameID != res.GameID {
		return fmt.Errorf("%w: synced snapshot for %q, want %q", ErrMismatch, res.Synced.GameID, res.GameID)
	}
	return compareAggregates("synced", res.Synced.Aggregate, folded)
}

// verifyRecord recomputes the split of one round from what was entered.
func verifyRecord(i int, rec *model.RoundRecord, rp RoundPlan) error {
	if rec.SequenceNumber != i {
		return fmt.Errorf("%w: round %d carries sequence %d", ErrMismatch, i, rec.SequenceNumber)
	}
	if string(rec.CallingTeam) != rp.CallingTeam || string(rec.Trump.TrumpID) != rp.TrumpID {
		return fmt.Errorf("%w: round %d is %s/%s, entered %s/%s", ErrMismatch, i,
			rec.CallingTeam, rec.Trump.TrumpID, rp.CallingTeam, rp.TrumpID)
	}

	want, err := scoring.ComputeSplit(model.RoundDeclaration{
		CallingTeam:    rec.CallingTeam,
		Trump:          rec.Trump,
		DeclaredPoints: rp.DeclaredPoints,
		IsCleanSweep:   rp.IsCleanSweep,
		Counter:        rp.Counter,
	})
	if err != nil {
		return fmt.Errorf("round %d: %w", i, err)
	}
	if rec.TeamPoints != want.TeamPoints || rec.OpponentPoints != want.OpponentPoints {
		return fmt.Errorf("%w: round %d scored %d:%d, want %d:%d", ErrMismatch, i,
			rec.TeamPoints, rec.OpponentPoints, want.TeamPoints, want.OpponentPoints)
	}
	return nil
}

func compareAggregates(what string, got, want model.AggregateState) error {
	if got.Rounds != want.Rounds {
		return fmt.Errorf("%w: %s covers %d rounds, want %d", ErrMismatch, what, got.Rounds, want.Rounds)
	}
	if got.Scores != want.Scores {
		return fmt.Errorf("%w: %s scores %+v, want %+v", ErrMismatch, what, got.Scores, want.Scores)
	}
	for _, t := range model.Teams() {
		for _, k := range model.StrokeKinds() {
			if g, w := got.StrokeTally.For(t)[k], want.StrokeTally.For(t)[k]; g != w {
				return fmt.Errorf("%w: %s %s %s marks %d, want %d", ErrMismatch, what, t, k, g, w)
			}
		}
	}
	return nil
}
