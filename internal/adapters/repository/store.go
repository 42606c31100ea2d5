// Package repository persists the latest snapshot of every game.
package repository

import (
	"context"

	"github.com/okian/jasstafel/internal/domain/model"
)

// Store keeps one snapshot per game, newest version wins.
type Store interface {
	// Save stores snap unless a snapshot with the same or a newer version is
	// already held for the game. Returns true if snap was written.
	Save(ctx context.Context, snap model.Snapshot) (bool, error)

	// Latest returns the stored snapshot of a game.
	// Returns ErrNotFound if the game is unknown.
	Latest(ctx context.Context, gameID string) (model.Snapshot, error)

	// Delete removes a game. Deleting an unknown game is not an error.
	Delete(ctx context.Context, gameID string) error

	// Count returns the number of games held.
	Count(ctx context.Context) int

	Close() error
}
