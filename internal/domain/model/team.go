// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Team identifies one of the two partnerships seated opposite each other.
type Team string

// The two teams at the table.
const (
	TeamTop    Team = "top"
	TeamBottom Team = "bottom"
)

// Teams returns both teams in display order.
func Teams() []Team { return []Team{TeamTop, TeamBottom} }

// Valid reports whether t is one of the two known teams.
func (t Team) Valid() bool { return t == TeamTop || t == TeamBottom }

// Opponent returns the team sitting across the table.
func (t Team) Opponent() Team {
	if t == TeamTop {
		return TeamBottom
	}
	return TeamTop
}

// ParseTeam validates a team identifier received at the boundary.
func ParseTeam(s string) (Team, error) {
	t := Team(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTeam, s)
	}
	return t, nil
}

// TrumpID is the closed set of trump suits and special modes.
type TrumpID string

// Known trumps.
const (
	TrumpMisere   TrumpID = "misere"
	TrumpEicheln  TrumpID = "eicheln"
	TrumpRosen    TrumpID = "rosen"
	TrumpSchellen TrumpID = "schellen"
	TrumpSchilten TrumpID = "schilten"
	TrumpObe      TrumpID = "obe"
	TrumpUne      TrumpID = "une"
	TrumpDreimal  TrumpID = "dreimal"
	TrumpQuer     TrumpID = "quer"
	TrumpSlalom   TrumpID = "slalom"
)

var trumpIDs = []TrumpID{
	TrumpMisere, TrumpEicheln, TrumpRosen, TrumpSchellen, TrumpSchilten,
	TrumpObe, TrumpUne, TrumpDreimal, TrumpQuer, TrumpSlalom,
}

// TrumpIDs returns every known trump in table order.
func TrumpIDs() []TrumpID {
	out := make([]TrumpID, len(trumpIDs))
	copy(out, trumpIDs)
	return out
}

// Valid reports whether id belongs to the catalogue.
func (id TrumpID) Valid() bool {
	for _, known := range trumpIDs {
		if id == known {
			return true
		}
	}
	return false
}

// ParseTrumpID validates a trump identifier. "misère" is accepted as an alias.
func ParseTrumpID(s string) (TrumpID, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "misère" {
		norm = string(TrumpMisere)
	}
	id := TrumpID(norm)
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTrump, s)
	}
	return id, nil
}

// StrokeKind enumerates the chalk-mark awards ("Striche").
type StrokeKind string

// Stroke kinds.
const (
	StrokeSieg         StrokeKind = "sieg"
	StrokeBerg         StrokeKind = "berg"
	StrokeSchneider    StrokeKind = "schneider"
	StrokeMatsch       StrokeKind = "matsch"
	StrokeKontermatsch StrokeKind = "kontermatsch"
)

// StrokeKinds returns every stroke kind in tally order.
func StrokeKinds() []StrokeKind {
	return []StrokeKind{StrokeBerg, StrokeSieg, StrokeSchneider, StrokeMatsch, StrokeKontermatsch}
}

// Repeatable reports whether a team may earn the kind more than once per game.
func (k StrokeKind) Repeatable() bool {
	return k == StrokeMatsch || k == StrokeKontermatsch
}

// ParseStrokeKind validates a stroke identifier.
func ParseStrokeKind(s string) (StrokeKind, error) {
	k := StrokeKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range StrokeKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStroke, s)
}
