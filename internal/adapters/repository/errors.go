package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("game not found")
	ErrInvalidGameID = errors.New("invalid game id")
	ErrUnknownDriver = errors.New("unknown store driver")
)
