package model

import "time"

// Snapshot is what the core hands to the synchronization collaborator after
// every successful mutation. Version increases monotonically per game.
type Snapshot struct {
	GameID    string         `json:"game_id"`
	Version   uint64         `json:"version"`
	State     string         `json:"state"`
	Aggregate AggregateState `json:"aggregate"`
	Latest    *RoundRecord   `json:"latest,omitempty"`
	Cursor    int            `json:"cursor"`
	Rounds    []RoundRecord  `json:"rounds,omitempty"`
	TS        time.Time      `json:"ts"`
}
