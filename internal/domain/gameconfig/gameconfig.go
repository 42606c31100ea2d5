// Package gameconfig resolves the score, trump and stroke settings of one game
// into a single immutable value handed to the session at start.
package gameconfig

import (
	"fmt"
	"sort"

	"github.com/okian/jasstafel/internal/domain/model"
)

// Default thresholds and conventions.
const (
	DefaultSieg      = 2500
	DefaultBerg      = 1250
	DefaultSchneider = 1250

	DefaultSchneiderMarks    = 2
	DefaultKontermatschMarks = 2

	maxStrokeMarks = 2
)

// ScoreSettings holds the point thresholds. Sieg is always enabled.
type ScoreSettings struct {
	Sieg             int  `json:"sieg"`
	Berg             int  `json:"berg"`
	Schneider        int  `json:"schneider"`
	BergEnabled      bool `json:"berg_enabled"`
	SchneiderEnabled bool `json:"schneider_enabled"`
}

// FarbeSettings maps each trump to its multiplier; zero disables the trump.
type FarbeSettings struct {
	Multipliers map[model.TrumpID]int `json:"multipliers"`
}

// StrokeSettings holds how many marks Schneider and Kontermatsch are worth.
// A Kontermatsch value of zero disables the variant.
type StrokeSettings struct {
	Schneider    int `json:"schneider"`
	Kontermatsch int `json:"kontermatsch"`
}

// GameConfig is the resolved, read-only configuration of a game.
type GameConfig struct {
	score  ScoreSettings
	farbe  map[model.TrumpID]int
	stroke StrokeSettings
}

// Option applies a configuration option while building a GameConfig.
type Option func(*GameConfig)

// WithScoreSettings replaces every score setting; see WithScorePatch for a
// partial change.
func WithScoreSettings(s ScoreSettings) Option {
	return func(c *GameConfig) {
		c.score = s
	}
}

// WithFarbeSettings overrides trump multipliers. Trumps missing from the map
// keep their default multiplier.
func WithFarbeSettings(f FarbeSettings) Option {
	return func(c *GameConfig) {
		for id, m := range f.Multipliers {
			c.farbe[id] = m
		}
	}
}

// WithStrokeSettings overrides the stroke-count convention.
func WithStrokeSettings(s StrokeSettings) Option {
	return func(c *GameConfig) {
		c.stroke = s
	}
}

// DefaultScoreSettings returns the stock thresholds.
func DefaultScoreSettings() ScoreSettings {
	return ScoreSettings{
		Sieg:             DefaultSieg,
		Berg:             DefaultBerg,
		Schneider:        DefaultSchneider,
		BergEnabled:      true,
		SchneiderEnabled: true,
	}
}

// DefaultFarbeSettings returns the stock multiplier table.
func DefaultFarbeSettings() FarbeSettings {
	return FarbeSettings{Multipliers: map[model.TrumpID]int{
		model.TrumpMisere:   1,
		model.TrumpEicheln:  1,
		model.TrumpRosen:    2,
		model.TrumpSchellen: 3,
		model.TrumpSchilten: 4,
		model.TrumpObe:      5,
		model.TrumpUne:      6,
		model.TrumpDreimal:  0,
		model.TrumpQuer:     0,
		model.TrumpSlalom:   0,
	}}
}

// DefaultStrokeSettings returns the stock stroke convention.
func DefaultStrokeSettings() StrokeSettings {
	return StrokeSettings{Schneider: DefaultSchneiderMarks, Kontermatsch: DefaultKontermatschMarks}
}

// Default returns the configuration used when no collaborator overrides anything.
func Default() GameConfig {
	cfg, _ := New()
	return cfg
}

// New builds and validates a GameConfig.
func New(opts ...Option) (GameConfig, error) {
	c := GameConfig{
		score:  DefaultScoreSettings(),
		farbe:  make(map[model.TrumpID]int),
		stroke: DefaultStrokeSettings(),
	}
	for id, m := range DefaultFarbeSettings().Multipliers {
		c.farbe[id] = m
	}

	for _, opt := range opts {
		opt(&c)
	}

	if err := c.validate(); err != nil {
		return GameConfig{}, err
	}
	return c, nil
}

func (c *GameConfig) validate() error {
	switch {
	case c.score.Sieg <= 0:
		return fmt.Errorf("%w: sieg threshold must be positive", ErrInvalidSettings)
	case c.score.BergEnabled && (c.score.Berg <= 0 || c.score.Berg >= c.score.Sieg):
		return fmt.Errorf("%w: berg threshold must be within (0, sieg)", ErrInvalidSettings)
	case c.score.SchneiderEnabled && (c.score.Schneider <= 0 || c.score.Schneider >= c.score.Sieg):
		return fmt.Errorf("%w: schneider threshold must be within (0, sieg)", ErrInvalidSettings)
	case c.stroke.Schneider < 1 || c.stroke.Schneider > maxStrokeMarks:
		return fmt.Errorf("%w: schneider marks must be 1 or 2", ErrInvalidSettings)
	case c.stroke.Kontermatsch < 0 || c.stroke.Kontermatsch > maxStrokeMarks:
		return fmt.Errorf("%w: kontermatsch marks must be 0, 1 or 2", ErrInvalidSettings)
	}

	enabled := 0
	for id, m := range c.farbe {
		if !id.Valid() {
			return fmt.Errorf("%w: %q", model.ErrUnknownTrump, id)
		}
		if m < 0 {
			return fmt.Errorf("%w: negative multiplier for %s", ErrInvalidSettings, id)
		}
		if m > 0 {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("%w: at least one trump must be enabled", ErrInvalidSettings)
	}
	return nil
}

// Score returns the point thresholds.
func (c GameConfig) Score() ScoreSettings { return c.score }

// Stroke returns the stroke-count convention.
func (c GameConfig) Stroke() StrokeSettings { return c.stroke }

// Farbe returns a copy of the multiplier table.
func (c GameConfig) Farbe() FarbeSettings {
	out := make(map[model.TrumpID]int, len(c.farbe))
	for id, m := range c.farbe {
		out[id] = m
	}
	return FarbeSettings{Multipliers: out}
}

// KontermatschEnabled reports whether counter sweeps score as Kontermatsch.
func (c GameConfig) KontermatschEnabled() bool { return c.stroke.Kontermatsch > 0 }

// Trump resolves the declaration for id. The multiplier is zero when the
// trump is disabled; callers reject that before scoring.
func (c GameConfig) Trump(id model.TrumpID) model.TrumpDeclaration {
	return model.TrumpDeclaration{TrumpID: id, Multiplier: c.farbe[id]}
}

// EnabledTrumps lists trumps with a positive multiplier, lowest first.
func (c GameConfig) EnabledTrumps() []model.TrumpID {
	var out []model.TrumpID
	for _, id := range model.TrumpIDs() {
		if c.farbe[id] > 0 {
			out = append(out, id)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return c.farbe[out[i]] < c.farbe[out[j]] })
	return out
}

// HighestMultiplier is the multiplier the round-entry surface snaps back to
// after a round is closed. Multipliers of one or less do not count; the
// fallback is 1.
func (c GameConfig) HighestMultiplier() int {
	highest := 1
	for _, m := range c.farbe {
		if m > 1 && m > highest {
			highest = m
		}
	}
	return highest
}

// ScorePatch changes single score settings. Nil fields keep the value they
// are applied over.
type ScorePatch struct {
	Sieg             *int  `json:"sieg,omitempty"`
	Berg             *int  `json:"berg,omitempty"`
	Schneider        *int  `json:"schneider,omitempty"`
	BergEnabled      *bool `json:"berg_enabled,omitempty"`
	SchneiderEnabled *bool `json:"schneider_enabled,omitempty"`
}

// Patch returns a patch that sets every field of s.
func (s ScoreSettings) Patch() ScorePatch {
	return ScorePatch{
		Sieg:             &s.Sieg,
		Berg:             &s.Berg,
		Schneider:        &s.Schneider,
		BergEnabled:      &s.BergEnabled,
		SchneiderEnabled: &s.SchneiderEnabled,
	}
}

// StrokePatch changes single stroke settings.
type StrokePatch struct {
	Schneider    *int `json:"schneider,omitempty"`
	Kontermatsch *int `json:"kontermatsch,omitempty"`
}

// Patch returns a patch that sets every field of s.
func (s StrokeSettings) Patch() StrokePatch {
	return StrokePatch{Schneider: &s.Schneider, Kontermatsch: &s.Kontermatsch}
}

// WithScorePatch overrides the score settings named by p.
func WithScorePatch(p ScorePatch) Option {
	return func(c *GameConfig) {
		setIf(&c.score.Sieg, p.Sieg)
		setIf(&c.score.Berg, p.Berg)
		setIf(&c.score.Schneider, p.Schneider)
		setIf(&c.score.BergEnabled, p.BergEnabled)
		setIf(&c.score.SchneiderEnabled, p.SchneiderEnabled)
	}
}

// WithStrokePatch overrides the stroke settings named by p.
func WithStrokePatch(p StrokePatch) Option {
	return func(c *GameConfig) {
		setIf(&c.stroke.Schneider, p.Schneider)
		setIf(&c.stroke.Kontermatsch, p.Kontermatsch)
	}
}

func setIf[T any](dst, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Overrides replaces parts of a configuration. Nil parts are left alone;
// score and stroke settings merge per field and trump multipliers merge per
// trump.
type Overrides struct {
	Score  *ScorePatch    `json:"score,omitempty"`
	Farbe  *FarbeSettings `json:"farbe,omitempty"`
	Stroke *StrokePatch   `json:"stroke,omitempty"`
}

// Options converts o into build options.
func (o Overrides) Options() []Option {
	var opts []Option
	if o.Score != nil {
		opts = append(opts, WithScorePatch(*o.Score))
	}
	if o.Farbe != nil {
		opts = append(opts, WithFarbeSettings(*o.Farbe))
	}
	if o.Stroke != nil {
		opts = append(opts, WithStrokePatch(*o.Stroke))
	}
	return opts
}
