package strokes

import "errors"

// Sentinel kinds for stroke declarations.
var (
	ErrStrokeConflict = errors.New("stroke conflict")
	ErrBergRequired   = errors.New("sieg requires a berg on the board")
	ErrStrokeDisabled = errors.New("stroke disabled by settings")
	ErrNotDeclarable  = errors.New("stroke cannot be declared")
)
