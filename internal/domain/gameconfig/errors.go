package gameconfig

import "errors"

// ErrInvalidSettings is returned when a setting combination cannot describe a game.
var ErrInvalidSettings = errors.New("invalid game settings")
