// Package simulator plays random Jass games against a running jasstafel
// service and verifies the aggregates it reports.
package simulator

import (
	"time"

	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/session"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL string        // Base URL of the service
	Games   int           // Number of games to play
	Rounds  int           // Rounds per game
	Workers int           // Number of games played concurrently
	Timeout time.Duration // HTTP request timeout
	// ReplayEvery resends every n-th round with its request id to exercise
	// idempotency. Zero disables replays.
	ReplayEvery int
	// KeepGames leaves finished games open instead of ending them.
	KeepGames bool
	LogFile   string // Log file for simulation output
	Verbose   bool   // Enable verbose logging
}

// RoundPlan is one round as a player would enter it.
type RoundPlan struct {
	RequestID      string `json:"request_id"`
	CallingTeam    string `json:"calling_team"`
	TrumpID        string `json:"trump_id"`
	DeclaredPoints int    `json:"declared_points"`
	IsCleanSweep   bool   `json:"is_clean_sweep"`
	Counter        bool   `json:"counter"`
}

// GamePlan is the scripted sequence of rounds for one game.
type GamePlan struct {
	Index  int
	Rounds []RoundPlan
}

// roundReply mirrors the body returned by POST /games/{id}/rounds.
type roundReply struct {
	Status    string          `json:"status"`
	Duplicate bool            `json:"duplicate"`
	Outcome   session.Outcome `json:"outcome"`
}

// GameResult is what the simulator learned about one game.
type GameResult struct {
	GameID     string
	Plan       GamePlan
	View       session.View
	Synced     model.Snapshot
	Duplicates int
	Err        error
}

// Stats holds simulation statistics.
type Stats struct {
	GamesPlanned     int
	GamesPlayed      int
	GamesVerified    int
	GamesFailed      int
	RoundsSubmitted  int
	RoundsDuplicate  int
	SnapshotsChecked int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
