package model

import "time"

// TrumpDeclaration names the trump of a round and the multiplier it scores with.
// A zero multiplier means the trump is disabled for this game.
type TrumpDeclaration struct {
	TrumpID    TrumpID `json:"trump_id"`
	Multiplier int     `json:"multiplier"`
}

// RoundDeclaration is what a player enters when a round ends.
type RoundDeclaration struct {
	CallingTeam    Team             `json:"calling_team"`
	Trump          TrumpDeclaration `json:"trump"`
	DeclaredPoints int              `json:"declared_points"`
	IsCleanSweep   bool             `json:"is_clean_sweep"`
	// Counter marks a sweep made by the team that did not choose trump.
	Counter bool `json:"counter,omitempty"`
}

// StrokeEvent is one award written on the board for a team.
type StrokeEvent struct {
	Team  Team       `json:"team"`
	Kind  StrokeKind `json:"kind"`
	Marks int        `json:"marks"`
}

// TeamPoints holds a value per team.
type TeamPoints struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// Get returns the value for team.
func (p TeamPoints) Get(team Team) int {
	if team == TeamTop {
		return p.Top
	}
	return p.Bottom
}

// Add increments the value for team.
func (p *TeamPoints) Add(team Team, v int) {
	if team == TeamTop {
		p.Top += v
		return
	}
	p.Bottom += v
}

// RoundRecord is a finalized round. It is never modified after being appended.
type RoundRecord struct {
	SequenceNumber int              `json:"sequence_number"`
	Trump          TrumpDeclaration `json:"trump"`
	CallingTeam    Team             `json:"calling_team"`
	TeamPoints     int              `json:"team_points"`
	OpponentPoints int              `json:"opponent_points"`
	StrokesAwarded []StrokeEvent    `json:"strokes_awarded"`
	WeisPoints     TeamPoints       `json:"weis_points"`
	WasPaused      bool             `json:"was_paused"`
	Timestamp      time.Time        `json:"timestamp"`
}

// PointsFor returns the trick points the round credits to team, weis excluded.
func (r *RoundRecord) PointsFor(team Team) int {
	if team == r.CallingTeam {
		return r.TeamPoints
	}
	return r.OpponentPoints
}

// Clone returns a deep copy so callers cannot reach into ledger storage.
func (r *RoundRecord) Clone() RoundRecord {
	out := *r
	if r.StrokesAwarded != nil {
		out.StrokesAwarded = make([]StrokeEvent, len(r.StrokesAwarded))
		copy(out.StrokesAwarded, r.StrokesAwarded)
	}
	return out
}

// Tally counts marks per stroke kind for one team.
type Tally map[StrokeKind]int

// Total sums every mark in the tally.
func (t Tally) Total() int {
	sum := 0
	for _, n := range t {
		sum += n
	}
	return sum
}

// StrokeTally holds the tally of both teams.
type StrokeTally struct {
	Top    Tally `json:"top"`
	Bottom Tally `json:"bottom"`
}

// NewStrokeTally returns a tally with every kind present at zero.
func NewStrokeTally() StrokeTally {
	st := StrokeTally{Top: Tally{}, Bottom: Tally{}}
	for _, k := range StrokeKinds() {
		st.Top[k] = 0
		st.Bottom[k] = 0
	}
	return st
}

// For returns the tally of team.
func (s StrokeTally) For(team Team) Tally {
	if team == TeamTop {
		return s.Top
	}
	return s.Bottom
}

// AggregateState is derived from the ledger by folding; it is never stored on its own.
type AggregateState struct {
	Scores      TeamPoints  `json:"scores"`
	StrokeTally StrokeTally `json:"stroke_tally"`
	Rounds      int         `json:"rounds"`
}

// Holds reports whether team has been awarded kind at least once.
func (a AggregateState) Holds(team Team, kind StrokeKind) bool {
	return a.StrokeTally.For(team)[kind] > 0
}
