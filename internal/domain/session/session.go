// Package session orchestrates one game: it owns the ledger, the review cursor
// and the round being built, and enforces the play/review/edit state machine.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/history"
	"github.com/okian/jasstafel/internal/domain/ledger"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/scoring"
	"github.com/okian/jasstafel/internal/domain/strokes"
	"github.com/okian/jasstafel/pkg/logger"
)

// State of a session.
type State string

// Session states.
const (
	StateIdle        State = "idle"
	StateLive        State = "live"
	StateReviewing   State = "reviewing"
	StatePendingEdit State = "pending_edit_confirmation"

	// Terminal markers carried by the last snapshot of a game.
	StateEnded   State = "ended"
	StateAborted State = "aborted"
)

// Publisher receives a snapshot after every successful mutation.
// Implementations must not block.
type Publisher interface {
	Publish(ctx context.Context, snap model.Snapshot)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, snap model.Snapshot)

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, snap model.Snapshot) { f(ctx, snap) }

// Entry is what a player submits to close a round. The multiplier is resolved
// from the game configuration.
type Entry struct {
	CallingTeam    model.Team    `json:"calling_team"`
	TrumpID        model.TrumpID `json:"trump_id"`
	DeclaredPoints int           `json:"declared_points"`
	IsCleanSweep   bool          `json:"is_clean_sweep"`
	Counter        bool          `json:"counter,omitempty"`
}

// EditWarning names the rounds a pending edit would discard.
type EditWarning struct {
	DiscardFrom int    `json:"discard_from"`
	DiscardTo   int    `json:"discard_to"`
	Message     string `json:"message"`
}

// Outcome is the result of FinalizeRound or ConfirmEdit. Exactly one of
// Record and Warning is set.
type Outcome struct {
	Record    *model.RoundRecord   `json:"record,omitempty"`
	Aggregate model.AggregateState `json:"aggregate"`
	Warning   *EditWarning         `json:"warning,omitempty"`
	Discarded int                  `json:"discarded"`
	Dropped   []model.StrokeEvent  `json:"dropped_strokes,omitempty"`
}

// Session is a single game. It is not safe for concurrent use; callers
// serialize access per game.
type Session struct {
	id  string
	log logger.Logger
	pub Publisher
	now func() time.Time

	state   State
	cfg     gameconfig.GameConfig
	eval    *strokes.Evaluator
	ledger  *ledger.Ledger
	cursor  *history.Cursor
	pending *strokes.Pending
	weis    model.TeamPoints
	paused  bool

	// wasPaused sticks until the round is closed.
	wasPaused  bool
	multiplier int
	staged     *model.RoundDeclaration
	version    uint64
}

// New creates an idle session identified by id.
func New(id string, opts ...Option) *Session {
	s := &Session{
		id:    id,
		log:   logger.Nop(),
		pub:   PublisherFunc(func(context.Context, model.Snapshot) {}),
		now:   time.Now,
		state: StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the game identity.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Config returns the resolved configuration of the running game.
func (s *Session) Config() gameconfig.GameConfig { return s.cfg }

// ActiveMultiplier is the multiplier the round-entry surface starts from.
func (s *Session) ActiveMultiplier() int { return s.multiplier }

// StartGame begins a game with an empty ledger.
func (s *Session) StartGame(ctx context.Context, cfg gameconfig.GameConfig) error {
	if s.state != StateIdle {
		return fmt.Errorf("%w: start in state %s", ErrInvalidState, s.state)
	}
	s.cfg = cfg
	s.eval = strokes.NewEvaluator(cfg)
	s.ledger = ledger.New()
	s.cursor = history.New(s.ledger)
	s.resetRound()
	s.staged = nil
	s.state = StateLive

	s.log.Info(ctx, "game started", logger.String("game_id", s.id))
	s.publish(ctx, s.state)
	return nil
}

// FinalizeRound closes the round described by e. While reviewing it only
// stages the round and returns a warning; the ledger changes on ConfirmEdit.
func (s *Session) FinalizeRound(ctx context.Context, e Entry) (Outcome, error) {
	if s.state != StateLive && s.state != StateReviewing {
		return Outcome{}, fmt.Errorf("%w: finalize in state %s", ErrInvalidState, s.state)
	}
	decl, err := s.declaration(e)
	if err != nil {
		return Outcome{}, err
	}

	if s.state == StateReviewing && !s.cursor.IsAtLatest() {
		k := s.cursor.Index()
		w := &EditWarning{
			DiscardFrom: k + 1,
			DiscardTo:   s.ledger.Len() - 1,
			Message:     fmt.Sprintf("editing here discards rounds %d to %d", k+1, s.ledger.Len()-1),
		}
		s.staged = &decl
		s.state = StatePendingEdit
		s.log.Info(ctx, "edit awaiting confirmation",
			logger.String("game_id", s.id),
			logger.Int("from", w.DiscardFrom),
			logger.Int("to", w.DiscardTo))
		return Outcome{Aggregate: s.ledger.Fold(), Warning: w}, nil
	}

	rec := s.buildRecord(decl, s.ledger.Len(), s.ledger.Fold(), s.pending)
	if err := s.ledger.Append(rec); err != nil {
		s.log.Error(ctx, "append failed", logger.String("game_id", s.id), logger.Error(err))
		return Outcome{}, err
	}
	return s.closeRound(ctx, rec, 0, nil), nil
}

// ConfirmEdit applies the staged round at the review position, discarding
// every round after it.
func (s *Session) ConfirmEdit(ctx context.Context) (Outcome, error) {
	if s.state != StatePendingEdit || s.staged == nil {
		return Outcome{}, ErrNoPendingEdit
	}
	k := s.cursor.Index()
	prefix := s.ledger.FoldUpTo(k + 1)
	dropped := s.eval.Revalidate(s.pending, prefix)
	for _, ev := range dropped {
		s.log.Warn(ctx, "pending stroke dropped by edit",
			logger.String("game_id", s.id),
			logger.String("team", string(ev.Team)),
			logger.String("kind", string(ev.Kind)))
	}

	rec := s.buildRecord(*s.staged, k+1, prefix, s.pending)
	discarded, err := s.ledger.TruncateAndAppend(k, rec)
	if err != nil {
		s.log.Error(ctx, "truncate failed", logger.String("game_id", s.id), logger.Error(err))
		return Outcome{}, err
	}
	s.staged = nil
	s.log.Info(ctx, "edit confirmed",
		logger.String("game_id", s.id),
		logger.Int("sequence", rec.SequenceNumber),
		logger.Int("discarded", discarded))
	return s.closeRound(ctx, rec, discarded, dropped), nil
}

// CancelEdit drops the staged round and returns to the live state.
func (s *Session) CancelEdit(ctx context.Context) error {
	if s.state != StatePendingEdit {
		return ErrNoPendingEdit
	}
	s.staged = nil
	s.cursor.JumpToLatest()
	s.state = StateLive
	s.publish(ctx, s.state)
	return nil
}

// Navigate moves the review cursor one step. Moves past either end are no-ops.
func (s *Session) Navigate(ctx context.Context, dir history.Direction) error {
	if s.state != StateLive && s.state != StateReviewing {
		return fmt.Errorf("%w: navigate in state %s", ErrInvalidState, s.state)
	}
	s.cursor.Move(dir)
	s.syncReviewState()
	s.publish(ctx, s.state)
	return nil
}

// JumpToLatest returns the cursor to the live state.
func (s *Session) JumpToLatest(ctx context.Context) error {
	if s.state != StateLive && s.state != StateReviewing {
		return fmt.Errorf("%w: jump in state %s", ErrInvalidState, s.state)
	}
	s.cursor.JumpToLatest()
	s.state = StateLive
	s.publish(ctx, s.state)
	return nil
}

// DeclareBerg toggles a Berg for team on the round being built.
func (s *Session) DeclareBerg(ctx context.Context, team model.Team) (bool, error) {
	return s.declare(ctx, model.StrokeBerg, team)
}

// DeclareSieg toggles a Sieg for team on the round being built.
func (s *Session) DeclareSieg(ctx context.Context, team model.Team) (bool, error) {
	return s.declare(ctx, model.StrokeSieg, team)
}

func (s *Session) declare(ctx context.Context, kind model.StrokeKind, team model.Team) (bool, error) {
	if s.state != StateLive {
		return false, fmt.Errorf("%w: declare %s in state %s", ErrInvalidState, kind, s.state)
	}
	active, err := s.eval.Toggle(s.pending, kind, team, s.ledger.Fold())
	if err != nil {
		return false, err
	}
	s.log.Debug(ctx, "stroke toggled",
		logger.String("game_id", s.id),
		logger.String("team", string(team)),
		logger.String("kind", string(kind)),
		logger.Any("active", active))
	s.publish(ctx, s.state)
	return active, nil
}

// AddWeisPoints adjusts the weis of the live round. Negative values correct
// an earlier entry; the running weis of a team never drops below zero.
func (s *Session) AddWeisPoints(ctx context.Context, team model.Team, points int) (model.TeamPoints, error) {
	if s.state != StateLive {
		return model.TeamPoints{}, fmt.Errorf("%w: weis in state %s", ErrInvalidState, s.state)
	}
	if !team.Valid() {
		return model.TeamPoints{}, model.ErrUnknownTeam
	}
	if s.weis.Get(team)+points < 0 {
		return model.TeamPoints{}, fmt.Errorf("%w: weis for %s would drop to %d", ErrInvalidWeis, team, s.weis.Get(team)+points)
	}
	s.weis.Add(team, points)
	s.publish(ctx, s.state)
	return s.weis, nil
}

// Pause flags the live round as paused.
func (s *Session) Pause(ctx context.Context) error {
	return s.setPaused(ctx, true)
}

// Resume clears the pause flag. A round paused once is still recorded as paused.
func (s *Session) Resume(ctx context.Context) error {
	return s.setPaused(ctx, false)
}

func (s *Session) setPaused(ctx context.Context, paused bool) error {
	if s.state != StateLive {
		return fmt.Errorf("%w: pause in state %s", ErrInvalidState, s.state)
	}
	s.paused = paused
	if paused {
		s.wasPaused = true
	}
	s.publish(ctx, s.state)
	return nil
}

// ReplaceLedger installs a record array received from the synchronization
// collaborator, refolds and returns to the live state. Any staged edit is
// dropped.
func (s *Session) ReplaceLedger(ctx context.Context, records []model.RoundRecord) (model.AggregateState, error) {
	if s.state == StateIdle {
		return model.AggregateState{}, fmt.Errorf("%w: replace in state %s", ErrInvalidState, s.state)
	}
	if err := s.ledger.Replace(records); err != nil {
		return model.AggregateState{}, err
	}
	agg := s.ledger.Fold()
	s.eval.Revalidate(s.pending, agg)
	s.staged = nil
	s.cursor.JumpToLatest()
	s.state = StateLive
	s.log.Info(ctx, "ledger replaced", logger.String("game_id", s.id), logger.Int("rounds", agg.Rounds))
	s.publish(ctx, s.state)
	return agg, nil
}

// EndGame finishes the game and returns its final snapshot.
func (s *Session) EndGame(ctx context.Context) model.Snapshot {
	return s.finish(ctx, StateEnded)
}

// AbortGame discards the game and returns its last snapshot.
func (s *Session) AbortGame(ctx context.Context) model.Snapshot {
	return s.finish(ctx, StateAborted)
}

func (s *Session) finish(ctx context.Context, marker State) model.Snapshot {
	snap := s.publish(ctx, marker)
	s.log.Info(ctx, "game closed", logger.String("game_id", s.id), logger.String("as", string(marker)))
	s.ledger = nil
	s.cursor = nil
	s.pending = nil
	s.staged = nil
	s.state = StateIdle
	return snap
}

// RemainingToMilestone returns the next milestone of team on the live scores.
func (s *Session) RemainingToMilestone(team model.Team) (strokes.Milestone, error) {
	if s.state == StateIdle {
		return strokes.Milestone{}, fmt.Errorf("%w: no game running", ErrInvalidState)
	}
	if !team.Valid() {
		return strokes.Milestone{}, model.ErrUnknownTeam
	}
	return s.eval.Milestone(team, s.ledger.Fold().Scores), nil
}

// Snapshot returns the current outbound snapshot without publishing it.
func (s *Session) Snapshot() model.Snapshot {
	return s.snapshot(s.state)
}

func (s *Session) declaration(e Entry) (model.RoundDeclaration, error) {
	if !e.TrumpID.Valid() {
		return model.RoundDeclaration{}, fmt.Errorf("%w: %w", scoring.ErrInvalidDeclaration, model.ErrUnknownTrump)
	}
	decl := model.RoundDeclaration{
		CallingTeam:    e.CallingTeam,
		Trump:          s.cfg.Trump(e.TrumpID),
		DeclaredPoints: e.DeclaredPoints,
		IsCleanSweep:   e.IsCleanSweep,
		Counter:        e.Counter,
	}
	if err := scoring.Validate(decl); err != nil {
		return model.RoundDeclaration{}, err
	}
	return decl, nil
}

func (s *Session) buildRecord(decl model.RoundDeclaration, seq int, before model.AggregateState, pending *strokes.Pending) model.RoundRecord {
	// decl was validated on entry, so the split cannot fail here.
	split, _ := scoring.ComputeSplit(decl)
	events := s.eval.Derive(strokes.RoundInput{
		Declaration: decl,
		Split:       split,
		Weis:        s.weis,
		Before:      before,
		Pending:     pending,
	})
	return model.RoundRecord{
		SequenceNumber: seq,
		Trump:          decl.Trump,
		CallingTeam:    decl.CallingTeam,
		TeamPoints:     split.TeamPoints,
		OpponentPoints: split.OpponentPoints,
		StrokesAwarded: events,
		WeisPoints:     s.weis,
		WasPaused:      s.wasPaused,
		Timestamp:      s.now().UTC(),
	}
}

func (s *Session) closeRound(ctx context.Context, rec model.RoundRecord, discarded int, dropped []model.StrokeEvent) Outcome {
	agg := s.ledger.Fold()
	s.cursor.JumpToLatest()
	s.resetRound()
	s.state = StateLive
	s.log.Debug(ctx, "round finalized",
		logger.String("game_id", s.id),
		logger.Int("sequence", rec.SequenceNumber),
		logger.Int("top", agg.Scores.Top),
		logger.Int("bottom", agg.Scores.Bottom))
	s.publish(ctx, s.state)
	return Outcome{Record: &rec, Aggregate: agg, Discarded: discarded, Dropped: dropped}
}

func (s *Session) resetRound() {
	if s.pending == nil {
		s.pending = strokes.NewPending()
	} else {
		s.pending.Clear()
	}
	s.weis = model.TeamPoints{}
	s.paused = false
	s.wasPaused = false
	s.multiplier = s.cfg.HighestMultiplier()
}

func (s *Session) syncReviewState() {
	if s.cursor.IsAtLatest() {
		s.state = StateLive
		return
	}
	s.state = StateReviewing
}

func (s *Session) snapshot(state State) model.Snapshot {
	snap := model.Snapshot{
		GameID:  s.id,
		Version: s.version,
		State:   string(state),
		Cursor:  history.Latest,
		TS:      s.now().UTC(),
	}
	if s.ledger == nil {
		return snap
	}
	snap.Aggregate = s.ledger.Fold()
	snap.Cursor = s.cursor.Position()
	snap.Rounds = s.ledger.Records()
	if latest, ok := s.ledger.Latest(); ok {
		snap.Latest = &latest
	}
	return snap
}

func (s *Session) publish(ctx context.Context, state State) model.Snapshot {
	s.version++
	snap := s.snapshot(state)
	s.pub.Publish(ctx, snap)
	return snap
}
