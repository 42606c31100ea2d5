// Package config defines service configuration and resolves the game rules
// handed to every new session.
//
// Conventions:
//   - New(ctx) returns defaults; Load(ctx) layers a YAML file and env vars on top.
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"

	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the snapshot sync queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of sync workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the request-id cache.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxGames caps concurrently running games; 0 means no cap.
	MaxGames int `koanf:"max_games"`

	// StoreDriver selects the snapshot store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`
	// StorePath is the SQLite file when StoreDriver is sqlite.
	StorePath string `koanf:"store_path"`

	// Default game rules for games started without overrides.
	ScoreSieg          int            `koanf:"score_sieg"`
	ScoreBerg          int            `koanf:"score_berg"`
	ScoreSchneider     int            `koanf:"score_schneider"`
	BergEnabled        bool           `koanf:"berg_enabled"`
	SchneiderEnabled   bool           `koanf:"schneider_enabled"`
	StrokeSchneider    int            `koanf:"stroke_schneider"`
	StrokeKontermatsch int            `koanf:"stroke_kontermatsch"`
	TrumpMultipliers   map[string]int `koanf:"trump_multipliers"`
}

// New creates a Config holding the defaults.
func New(_ context.Context) *Config {
	score := gameconfig.DefaultScoreSettings()
	stroke := gameconfig.DefaultStrokeSettings()
	trumps := make(map[string]int)
	for id, m := range gameconfig.DefaultFarbeSettings().Multipliers {
		trumps[string(id)] = m
	}

	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		QueueSize:          4096,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         50_000,
		MaxGames:           0,
		StoreDriver:        "memory",
		StorePath:          "jasstafel.db",
		ScoreSieg:          score.Sieg,
		ScoreBerg:          score.Berg,
		ScoreSchneider:     score.Schneider,
		BergEnabled:        score.BergEnabled,
		SchneiderEnabled:   score.SchneiderEnabled,
		StrokeSchneider:    stroke.Schneider,
		StrokeKontermatsch: stroke.Kontermatsch,
		TrumpMultipliers:   trumps,
	}
}

// Rules returns the settings the configured defaults stand for.
func (c *Config) Rules() (gameconfig.ScoreSettings, gameconfig.FarbeSettings, gameconfig.StrokeSettings, error) {
	farbe := gameconfig.FarbeSettings{Multipliers: make(map[model.TrumpID]int, len(c.TrumpMultipliers))}
	for raw, m := range c.TrumpMultipliers {
		id, err := model.ParseTrumpID(raw)
		if err != nil {
			return gameconfig.ScoreSettings{}, gameconfig.FarbeSettings{}, gameconfig.StrokeSettings{},
				fmt.Errorf("%w: trump_multipliers: %w", ErrInvalidConfig, err)
		}
		farbe.Multipliers[id] = m
	}
	score := gameconfig.ScoreSettings{
		Sieg:             c.ScoreSieg,
		Berg:             c.ScoreBerg,
		Schneider:        c.ScoreSchneider,
		BergEnabled:      c.BergEnabled,
		SchneiderEnabled: c.SchneiderEnabled,
	}
	stroke := gameconfig.StrokeSettings{Schneider: c.StrokeSchneider, Kontermatsch: c.StrokeKontermatsch}
	return score, farbe, stroke, nil
}

// GameConfig resolves the configured defaults into one immutable game configuration.
func (c *Config) GameConfig() (gameconfig.GameConfig, error) {
	score, farbe, stroke, err := c.Rules()
	if err != nil {
		return gameconfig.GameConfig{}, err
	}
	gc, err := gameconfig.New(
		gameconfig.WithScoreSettings(score),
		gameconfig.WithFarbeSettings(farbe),
		gameconfig.WithStrokeSettings(stroke),
	)
	if err != nil {
		return gameconfig.GameConfig{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return gc, nil
}
