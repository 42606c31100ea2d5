package history

import "errors"

// ErrUnknownDirection is returned for directions other than backward/forward.
var ErrUnknownDirection = errors.New("unknown direction")
