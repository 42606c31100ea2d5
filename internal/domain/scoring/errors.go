package scoring

import "errors"

// ErrInvalidDeclaration is returned for malformed or out-of-range input.
var ErrInvalidDeclaration = errors.New("invalid declaration")
