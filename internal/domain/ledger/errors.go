package ledger

import "errors"

// ErrSequence signals a broken sequence invariant. Valid callers never see it.
var ErrSequence = errors.New("ledger sequence violation")
