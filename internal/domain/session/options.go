package session

import (
	"time"

	"github.com/okian/jasstafel/pkg/logger"
)

// Option applies a configuration option to a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithPublisher sets the receiver of outbound snapshots.
func WithPublisher(p Publisher) Option {
	return func(s *Session) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithClock overrides the time source used for round timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}
