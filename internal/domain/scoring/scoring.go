// Package scoring turns a round declaration into the point split between the
// calling team and its opponents.
package scoring

import (
	"fmt"

	"github.com/okian/jasstafel/internal/domain/model"
)

// Point constants of a round.
const (
	// MaxPoints is the value of all tricks of one round.
	MaxPoints = 157
	// CleanSweepBonus is added when one team takes every trick.
	CleanSweepBonus = 100
	// CleanSweepPoints is the effective declared value of a clean sweep.
	CleanSweepPoints = MaxPoints + CleanSweepBonus
)

// Split is the result of scoring one declaration.
type Split struct {
	TeamPoints     int `json:"team_points"`
	OpponentPoints int `json:"opponent_points"`
}

// For returns the points credited to team given the calling team.
func (s Split) For(team, calling model.Team) int {
	if team == calling {
		return s.TeamPoints
	}
	return s.OpponentPoints
}

// Validate checks a declaration without scoring it.
func Validate(decl model.RoundDeclaration) error {
	switch {
	case !decl.CallingTeam.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidDeclaration, model.ErrUnknownTeam)
	case !decl.Trump.TrumpID.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidDeclaration, model.ErrUnknownTrump)
	case decl.Trump.Multiplier <= 0:
		return fmt.Errorf("%w: trump %s is disabled", ErrInvalidDeclaration, decl.Trump.TrumpID)
	case decl.DeclaredPoints < 0 || decl.DeclaredPoints > MaxPoints:
		return fmt.Errorf("%w: declared points %d outside [0, %d]", ErrInvalidDeclaration, decl.DeclaredPoints, MaxPoints)
	case decl.IsCleanSweep && decl.DeclaredPoints != 0:
		return fmt.Errorf("%w: clean sweep must declare 0 points, got %d", ErrInvalidDeclaration, decl.DeclaredPoints)
	case decl.Counter && !decl.IsCleanSweep:
		return fmt.Errorf("%w: counter flag requires a clean sweep", ErrInvalidDeclaration)
	}
	return nil
}

// ComputeSplit scores decl with the multiplier carried by its trump.
//
// A clean sweep scores 257 per multiplier step for the calling team and
// nothing for the opponents. A shutout (zero declared) hands the opponents
// the full 157. Every other value conserves 157 per multiplier step.
func ComputeSplit(decl model.RoundDeclaration) (Split, error) {
	if err := Validate(decl); err != nil {
		return Split{}, err
	}
	m := decl.Trump.Multiplier

	switch {
	case decl.IsCleanSweep:
		return Split{TeamPoints: CleanSweepPoints * m, OpponentPoints: 0}, nil
	case decl.DeclaredPoints == 0:
		return Split{TeamPoints: 0, OpponentPoints: MaxPoints * m}, nil
	default:
		return Split{
			TeamPoints:     decl.DeclaredPoints * m,
			OpponentPoints: max(MaxPoints-decl.DeclaredPoints, 0) * m,
		}, nil
	}
}
