package simulator

import "time"

// Runner configuration constants.
const (
	DefaultGames       = 20
	DefaultRounds      = 12
	DefaultReplayEvery = 4
	SyncWait           = 5 * time.Second
	syncPollInterval   = 50 * time.Millisecond
	percentage         = 100
)
