// Package service hosts the running games and implements the dependencies
// required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/jasstafel/internal/adapters/mq/queue"
	workerpool "github.com/okian/jasstafel/internal/adapters/mq/worker"
	"github.com/okian/jasstafel/internal/adapters/repository"
	"github.com/okian/jasstafel/internal/domain/dedupe"
	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/history"
	"github.com/okian/jasstafel/internal/domain/ledger"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/scoring"
	"github.com/okian/jasstafel/internal/domain/session"
	"github.com/okian/jasstafel/internal/domain/strokes"
	"github.com/okian/jasstafel/pkg/logger"
	"github.com/okian/jasstafel/pkg/metrics"
)

// storeTimeout bounds a single snapshot write by the sync workers.
const storeTimeout = 5 * time.Second

type game struct {
	mu     sync.Mutex
	s      *session.Session
	closed bool
}

// Service keeps one session per game id and feeds every published snapshot
// into the sync queue.
type Service struct {
	mu    sync.RWMutex
	games map[string]*game

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	maxGames    int
	defaults    gameconfig.Overrides

	// reserved counts games being created but not yet registered.
	reserved int

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		games:       make(map[string]*game),
		workerCount: runtime.NumCPU(),
		queueSize:   4096,
		dedupeSize:  50_000,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the sync pipeline. It is a no-op when already started.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting jasstafel service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store,
		workerpool.WithLogger(s.logger.Named("sync")),
		workerpool.WithStoreTimeout(storeTimeout))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "jasstafel service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the sync queue and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping jasstafel service...", logger.Int("games", len(s.games)))

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	s.started = false
	s.logger.Info(ctx, "jasstafel service stopped")
	return errors.Join(errs...)
}

// StartGame creates a game with the default rules merged with r.
func (s *Service) StartGame(ctx context.Context, r gameconfig.Overrides) (session.View, error) {
	if err := s.reserveSlot(); err != nil {
		return session.View{}, err
	}
	registered := false
	defer func() {
		if !registered {
			s.releaseSlot()
		}
	}()

	cfg, err := s.resolve(r)
	if err != nil {
		return session.View{}, err
	}
	id := uuid.NewString()
	sess := session.New(id,
		session.WithLogger(s.logger.Named("session")),
		session.WithPublisher(session.PublisherFunc(s.publish)),
	)
	if err := sess.StartGame(ctx, cfg); err != nil {
		return session.View{}, err
	}

	s.mu.Lock()
	s.reserved--
	s.games[id] = &game{s: sess}
	s.mu.Unlock()
	registered = true
	metrics.RecordGameStarted()
	return sess.View(), nil
}

// reserveSlot counts a game that is being created against max_games so
// concurrent starts cannot exceed the limit.
func (s *Service) reserveSlot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if s.maxGames > 0 && len(s.games)+s.reserved >= s.maxGames {
		return fmt.Errorf("%w: limit %d", ErrTooManyGames, s.maxGames)
	}
	s.reserved++
	return nil
}

func (s *Service) releaseSlot() {
	s.mu.Lock()
	s.reserved--
	s.mu.Unlock()
}

// View returns the read model of a game.
func (s *Service) View(ctx context.Context, id string) (session.View, error) {
	var v session.View
	err := s.withGame(id, func(sess *session.Session) error {
		v = sess.View()
		return nil
	})
	return v, err
}

// FinalizeRound submits a round. A non-empty requestID makes the call
// idempotent per game; a replay reports duplicate and changes nothing.
// The request id is checked under the game lock, so a replay racing the
// first submission waits for its outcome.
func (s *Service) FinalizeRound(ctx context.Context, id, requestID string, e session.Entry) (session.Outcome, bool, error) {
	var (
		out session.Outcome
		dup bool
	)
	err := s.withGame(id, func(sess *session.Session) error {
		key := ""
		if requestID != "" {
			key = id + "/" + requestID
			if s.deduper.SeenAndRecord(ctx, key) {
				dup = true
				out = session.Outcome{Aggregate: sess.View().Aggregate}
				return nil
			}
		}
		var err error
		out, err = sess.FinalizeRound(ctx, e)
		if err != nil && key != "" {
			s.deduper.Unrecord(ctx, key)
		}
		return err
	})
	if err != nil {
		s.observe(err)
		return session.Outcome{}, false, err
	}
	if dup {
		metrics.RecordDuplicateRequest()
		s.logger.Debug(ctx, "duplicate round submission",
			logger.String("game_id", id), logger.String("request_id", requestID))
		return out, true, nil
	}

	if out.Warning != nil {
		metrics.RecordEdit("requested")
	} else {
		metrics.RecordRoundFinalized(marksByKind(out.Record))
	}
	return out, false, nil
}

// ConfirmEdit applies the staged edit of a game.
func (s *Service) ConfirmEdit(ctx context.Context, id string) (session.Outcome, error) {
	var out session.Outcome
	err := s.withGame(id, func(sess *session.Session) error {
		var err error
		out, err = sess.ConfirmEdit(ctx)
		return err
	})
	if err != nil {
		s.observe(err)
		return session.Outcome{}, err
	}
	metrics.RecordEdit("confirmed")
	metrics.RecordRoundsDiscarded(out.Discarded)
	metrics.RecordRoundFinalized(marksByKind(out.Record))
	return out, nil
}

// CancelEdit drops the staged edit of a game.
func (s *Service) CancelEdit(ctx context.Context, id string) (session.View, error) {
	v, err := s.mutate(id, func(sess *session.Session) error { return sess.CancelEdit(ctx) })
	if err == nil {
		metrics.RecordEdit("cancelled")
	}
	return v, err
}

// Navigate moves the review cursor of a game one step.
func (s *Service) Navigate(ctx context.Context, id string, dir history.Direction) (session.View, error) {
	return s.mutate(id, func(sess *session.Session) error { return sess.Navigate(ctx, dir) })
}

// JumpToLatest returns a game to the live state.
func (s *Service) JumpToLatest(ctx context.Context, id string) (session.View, error) {
	return s.mutate(id, func(sess *session.Session) error { return sess.JumpToLatest(ctx) })
}

// DeclareStroke toggles a Berg or Sieg for team and reports whether it is now pending.
func (s *Service) DeclareStroke(ctx context.Context, id string, kind model.StrokeKind, team model.Team) (bool, session.View, error) {
	var active bool
	v, err := s.mutate(id, func(sess *session.Session) error {
		var err error
		switch kind {
		case model.StrokeBerg:
			active, err = sess.DeclareBerg(ctx, team)
		case model.StrokeSieg:
			active, err = sess.DeclareSieg(ctx, team)
		default:
			err = fmt.Errorf("%w: %s", strokes.ErrNotDeclarable, kind)
		}
		return err
	})
	return active, v, err
}

// AddWeis adjusts the weis of the live round.
func (s *Service) AddWeis(ctx context.Context, id string, team model.Team, points int) (session.View, error) {
	return s.mutate(id, func(sess *session.Session) error {
		_, err := sess.AddWeisPoints(ctx, team, points)
		return err
	})
}

// SetPaused pauses or resumes the live round.
func (s *Service) SetPaused(ctx context.Context, id string, paused bool) (session.View, error) {
	return s.mutate(id, func(sess *session.Session) error {
		if paused {
			return sess.Pause(ctx)
		}
		return sess.Resume(ctx)
	})
}

// ReplaceLedger installs records received from another device.
func (s *Service) ReplaceLedger(ctx context.Context, id string, records []model.RoundRecord) (session.View, error) {
	return s.mutate(id, func(sess *session.Session) error {
		_, err := sess.ReplaceLedger(ctx, records)
		return err
	})
}

// Milestone returns how far team is from its next milestone.
func (s *Service) Milestone(ctx context.Context, id string, team model.Team) (strokes.Milestone, error) {
	var m strokes.Milestone
	err := s.withGame(id, func(sess *session.Session) error {
		var err error
		m, err = sess.RemainingToMilestone(team)
		return err
	})
	return m, err
}

// EndGame finishes a game, keeping its stored snapshot.
func (s *Service) EndGame(ctx context.Context, id string) (model.Snapshot, error) {
	return s.close(ctx, id, session.StateEnded)
}

// AbortGame discards a game; the sync workers delete its stored snapshot.
func (s *Service) AbortGame(ctx context.Context, id string) (model.Snapshot, error) {
	return s.close(ctx, id, session.StateAborted)
}

// Synced returns the latest snapshot the sync workers persisted for a game.
func (s *Service) Synced(ctx context.Context, id string) (model.Snapshot, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return model.Snapshot{}, ErrNotStarted
	}
	return store.Latest(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxGames":    s.maxGames,
		"activeGames": len(s.games),
	}

	if s.started {
		stored := s.store.Count(ctx)
		stats["queueLength"] = s.queue.Len(ctx)
		stats["storedGames"] = stored
		stats["snapshotsSynced"] = s.pool.Processed()
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateStoredGames(stored)
	}
	return stats
}

func (s *Service) close(ctx context.Context, id string, marker session.State) (model.Snapshot, error) {
	s.mu.Lock()
	g, ok := s.games[id]
	if ok {
		delete(s.games, id)
	}
	s.mu.Unlock()
	if !ok {
		return model.Snapshot{}, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	var snap model.Snapshot
	if marker == session.StateAborted {
		snap = g.s.AbortGame(ctx)
	} else {
		snap = g.s.EndGame(ctx)
	}
	metrics.RecordGameClosed(string(marker))
	return snap, nil
}

func (s *Service) withGame(id string, fn func(*session.Session) error) error {
	s.mu.RLock()
	g, ok := s.games[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return fn(g.s)
}

// mutate runs fn and returns the view it produced.
func (s *Service) mutate(id string, fn func(*session.Session) error) (session.View, error) {
	var v session.View
	err := s.withGame(id, func(sess *session.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		v = sess.View()
		return nil
	})
	if err != nil {
		s.observe(err)
	}
	return v, err
}

func (s *Service) publish(ctx context.Context, snap model.Snapshot) { //nolint:gocritic // hugeParam: snapshots are values
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()

	// The request may finish before the workers pick the snapshot up.
	if !q.Enqueue(context.WithoutCancel(ctx), snap) {
		s.logger.Warn(ctx, "sync queue rejected snapshot",
			logger.String("game_id", snap.GameID),
			logger.Any("version", snap.Version))
	}
}

func (s *Service) resolve(r gameconfig.Overrides) (gameconfig.GameConfig, error) {
	return gameconfig.New(append(s.defaults.Options(), r.Options()...)...)
}

func (s *Service) observe(err error) {
	switch {
	case errors.Is(err, scoring.ErrInvalidDeclaration):
		metrics.RecordInvalidDeclaration()
	case errors.Is(err, strokes.ErrStrokeConflict):
		metrics.RecordStrokeConflict()
	case errors.Is(err, ledger.ErrSequence):
		metrics.RecordErrorByComponent("ledger", "sequence")
	}
}

func marksByKind(rec *model.RoundRecord) map[string]int {
	out := make(map[string]int)
	if rec == nil {
		return out
	}
	for _, ev := range rec.StrokesAwarded {
		out[string(ev.Kind)] += ev.Marks
	}
	return out
}
