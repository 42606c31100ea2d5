package service

import (
	"github.com/okian/jasstafel/internal/adapters/repository"
	"github.com/okian/jasstafel/internal/domain/gameconfig"
	"github.com/okian/jasstafel/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of sync workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the sync queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the request-id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxGames caps the number of running games. Zero means no cap.
func WithMaxGames(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxGames = n
		}
	}
}

// WithStore sets the snapshot store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDefaultRules sets the rules games start with when the caller does not
// override them.
func WithDefaultRules(score gameconfig.ScoreSettings, farbe gameconfig.FarbeSettings, stroke gameconfig.StrokeSettings) Option {
	return func(s *Service) {
		sp, kp := score.Patch(), stroke.Patch()
		s.defaults = gameconfig.Overrides{Score: &sp, Farbe: &farbe, Stroke: &kp}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
