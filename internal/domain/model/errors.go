package model

import "errors"

// Sentinel kinds for identifiers rejected at ingestion.
var (
	ErrUnknownTeam   = errors.New("unknown team")
	ErrUnknownTrump  = errors.New("unknown trump")
	ErrUnknownStroke = errors.New("unknown stroke kind")
)
