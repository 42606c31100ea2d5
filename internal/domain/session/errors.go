package session

import "errors"

// Sentinel kinds for session workflow errors.
var (
	ErrInvalidState  = errors.New("operation not allowed in current state")
	ErrNoPendingEdit = errors.New("no edit awaiting confirmation")
	ErrInvalidWeis   = errors.New("invalid weis points")
)
