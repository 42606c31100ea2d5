package service

import (
	"errors"
	"fmt"

	"github.com/okian/jasstafel/internal/adapters/repository"
)

// Sentinel kinds for registry errors.
var (
	// ErrGameNotFound matches repository.ErrNotFound as well.
	ErrGameNotFound = fmt.Errorf("running %w", repository.ErrNotFound)
	ErrTooManyGames = errors.New("too many running games")
	ErrNotStarted   = errors.New("service not started")
)
