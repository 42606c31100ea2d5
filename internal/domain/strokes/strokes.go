// Package strokes derives stroke awards ("Striche") from cumulative scores,
// configured thresholds and explicit declarations.
package strokes

import (
	"fmt"
	"sort"

	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/scoring"
)

// Fixed mark values. Schneider and Kontermatsch come from StrokeSettings.
const (
	BergMarks   = 1
	SiegMarks   = 2
	MatschMarks = 1
)

// Milestone is the next target of a team as shown on the board.
type Milestone struct {
	Title     model.StrokeKind `json:"title"`
	Remaining int              `json:"remaining"`
}

// Evaluator applies the stroke rules of one game configuration.
type Evaluator struct {
	cfg gameconfig.GameConfig
}

// NewEvaluator creates an evaluator bound to cfg.
func NewEvaluator(cfg gameconfig.GameConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Milestone returns the next milestone of team and the points still missing.
// It is a read-only view and never awards anything.
func (e *Evaluator) Milestone(team model.Team, scores model.TeamPoints) Milestone {
	s := e.cfg.Score()
	own := scores.Get(team)
	opp := scores.Get(team.Opponent())

	sieg := Milestone{Title: model.StrokeSieg, Remaining: remaining(s.Sieg, own)}
	if !s.BergEnabled || own >= s.Berg {
		return sieg
	}
	if opp >= s.Berg {
		if !s.SchneiderEnabled || own >= s.Schneider {
			return sieg
		}
		return Milestone{Title: model.StrokeSchneider, Remaining: remaining(s.Schneider, own)}
	}
	return Milestone{Title: model.StrokeBerg, Remaining: remaining(s.Berg, own)}
}

func remaining(threshold, own int) int {
	return max(threshold-own, 0)
}

// Pending is the net set of explicit awards declared for the round being built.
type Pending struct {
	awards map[model.Team]map[model.StrokeKind]bool
}

// NewPending returns an empty pending set.
func NewPending() *Pending {
	return &Pending{awards: map[model.Team]map[model.StrokeKind]bool{
		model.TeamTop:    {},
		model.TeamBottom: {},
	}}
}

// Has reports whether team has kind pending.
func (p *Pending) Has(team model.Team, kind model.StrokeKind) bool {
	return p.awards[team][kind]
}

// Clear drops every pending award.
func (p *Pending) Clear() {
	for _, t := range model.Teams() {
		p.awards[t] = map[model.StrokeKind]bool{}
	}
}

// Events lists pending awards in a stable order.
func (p *Pending) Events() []model.StrokeEvent {
	var out []model.StrokeEvent
	for _, t := range model.Teams() {
		for _, k := range []model.StrokeKind{model.StrokeBerg, model.StrokeSieg} {
			if p.awards[t][k] {
				out = append(out, model.StrokeEvent{Team: t, Kind: k, Marks: explicitMarks(k)})
			}
		}
	}
	return out
}

func explicitMarks(kind model.StrokeKind) int {
	if kind == model.StrokeSieg {
		return SiegMarks
	}
	return BergMarks
}

// Toggle flips an explicit Berg or Sieg for team on top of the awards already
// folded into agg. It returns whether the award is active afterwards. The
// pending set is untouched when an error is returned.
func (e *Evaluator) Toggle(p *Pending, kind model.StrokeKind, team model.Team, agg model.AggregateState) (bool, error) {
	if !team.Valid() {
		return false, model.ErrUnknownTeam
	}
	if kind != model.StrokeBerg && kind != model.StrokeSieg {
		return false, fmt.Errorf("%w: %s cannot be declared explicitly", ErrNotDeclarable, kind)
	}
	if kind == model.StrokeBerg && !e.cfg.Score().BergEnabled {
		return false, fmt.Errorf("%w: berg", ErrStrokeDisabled)
	}

	if p.Has(team, kind) {
		delete(p.awards[team], kind)
		if kind == model.StrokeBerg && !e.bergPresent(p, agg) {
			// a sieg can only stand on a berg
			for _, t := range model.Teams() {
				delete(p.awards[t], model.StrokeSieg)
			}
		}
		return false, nil
	}

	opp := team.Opponent()
	switch {
	case agg.Holds(team, kind):
		return false, fmt.Errorf("%w: %s already awarded to %s", ErrStrokeConflict, kind, team)
	case agg.Holds(opp, kind) || p.Has(opp, kind):
		return false, fmt.Errorf("%w: %s is held by %s", ErrStrokeConflict, kind, opp)
	case kind == model.StrokeSieg && e.cfg.Score().BergEnabled && !e.bergPresent(p, agg):
		return false, ErrBergRequired
	}

	p.awards[team][kind] = true
	return true, nil
}

// Revalidate drops pending awards that are no longer allowed against agg,
// for instance after the ledger was truncated. It returns the dropped events.
func (e *Evaluator) Revalidate(p *Pending, agg model.AggregateState) []model.StrokeEvent {
	var dropped []model.StrokeEvent
	for _, ev := range p.Events() {
		if agg.Holds(ev.Team, ev.Kind) || agg.Holds(ev.Team.Opponent(), ev.Kind) {
			delete(p.awards[ev.Team], ev.Kind)
			dropped = append(dropped, ev)
		}
	}
	if e.cfg.Score().BergEnabled && !e.bergPresent(p, agg) {
		for _, t := range model.Teams() {
			if p.Has(t, model.StrokeSieg) {
				delete(p.awards[t], model.StrokeSieg)
				dropped = append(dropped, model.StrokeEvent{Team: t, Kind: model.StrokeSieg, Marks: SiegMarks})
			}
		}
	}
	return dropped
}

func (e *Evaluator) bergPresent(p *Pending, agg model.AggregateState) bool {
	for _, t := range model.Teams() {
		if p.Has(t, model.StrokeBerg) || agg.Holds(t, model.StrokeBerg) {
			return true
		}
	}
	return false
}

// RoundInput is everything Derive needs about the round being finalized.
type RoundInput struct {
	Declaration model.RoundDeclaration
	Split       scoring.Split
	Weis        model.TeamPoints
	Before      model.AggregateState
	Pending     *Pending
}

// Derive returns the net stroke events of a round: the pending explicit
// awards, the automatic Schneider that accompanies a Sieg, and the Matsch or
// Kontermatsch of a clean sweep.
func (e *Evaluator) Derive(in RoundInput) []model.StrokeEvent {
	var events []model.StrokeEvent
	if in.Pending != nil {
		events = in.Pending.Events()
	}

	after := in.Before.Scores
	calling := in.Declaration.CallingTeam
	for _, t := range model.Teams() {
		after.Add(t, in.Split.For(t, calling)+in.Weis.Get(t))
	}

	s := e.cfg.Score()
	for _, ev := range events {
		if ev.Kind != model.StrokeSieg || !s.SchneiderEnabled {
			continue
		}
		if after.Get(ev.Team.Opponent()) < s.Schneider && !in.Before.Holds(ev.Team, model.StrokeSchneider) {
			events = append(events, model.StrokeEvent{
				Team:  ev.Team,
				Kind:  model.StrokeSchneider,
				Marks: e.cfg.Stroke().Schneider,
			})
		}
	}

	if in.Declaration.IsCleanSweep {
		if in.Declaration.Counter && e.cfg.KontermatschEnabled() {
			events = append(events, model.StrokeEvent{
				Team:  calling,
				Kind:  model.StrokeKontermatsch,
				Marks: e.cfg.Stroke().Kontermatsch,
			})
		} else {
			events = append(events, model.StrokeEvent{Team: calling, Kind: model.StrokeMatsch, Marks: MatschMarks})
		}
	}

	sortEvents(events)
	return events
}

func sortEvents(events []model.StrokeEvent) {
	rank := map[model.StrokeKind]int{}
	for i, k := range model.StrokeKinds() {
		rank[k] = i
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Team != events[j].Team {
			return events[i].Team == model.TeamTop
		}
		return rank[events[i].Kind] < rank[events[j].Kind]
	})
}
