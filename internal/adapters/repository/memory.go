package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/pkg/metrics"
)

// MemoryStore is the in-process Store used by default and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]model.Snapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]model.Snapshot)}
}

// Save stores snap if it is newer than what is held.
func (s *MemoryStore) Save(ctx context.Context, snap model.Snapshot) (bool, error) { //nolint:gocritic // hugeParam: snapshots are values
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.TrimSpace(snap.GameID) == "" {
		return false, ErrInvalidGameID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.games[snap.GameID]; ok && cur.Version >= snap.Version {
		return false, nil
	}
	snap.Rounds = cloneRounds(snap.Rounds)
	if snap.Latest != nil {
		latest := snap.Latest.Clone()
		snap.Latest = &latest
	}
	s.games[snap.GameID] = snap
	metrics.UpdateStoredGames(len(s.games))
	return true, nil
}

// Latest returns the stored snapshot of gameID.
func (s *MemoryStore) Latest(ctx context.Context, gameID string) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.games[gameID]
	if !ok {
		return model.Snapshot{}, ErrNotFound
	}
	snap.Rounds = cloneRounds(snap.Rounds)
	if snap.Latest != nil {
		latest := snap.Latest.Clone()
		snap.Latest = &latest
	}
	return snap, nil
}

// Delete removes gameID.
func (s *MemoryStore) Delete(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	metrics.UpdateStoredGames(len(s.games))
	return nil
}

// Count returns the number of games held.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func cloneRounds(in []model.RoundRecord) []model.RoundRecord {
	if in == nil {
		return nil
	}
	out := make([]model.RoundRecord, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
