package worker

import (
	"time"

	"github.com/okian/jasstafel/pkg/logger"
)

// Option configures an InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName names the worker in its log lines.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the logger the worker derives its named logger from.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithStoreTimeout bounds every Save and Delete call. Zero leaves calls
// bounded only by the run context.
func WithStoreTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.storeTimeout = d
		}
	}
}
