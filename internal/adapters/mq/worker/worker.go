// Package worker drains the sync queue and persists game snapshots.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/pkg/logger"
	"github.com/okian/jasstafel/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second

	// StateAborted is the snapshot state that tells the workers to drop a game.
	StateAborted = "aborted"
)

// Persister is the storage side of the sync collaborator.
type Persister interface {
	Save(ctx context.Context, snap model.Snapshot) (bool, error)
	Delete(ctx context.Context, gameID string) error
}

// Queue defines how workers receive snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Snapshot
}

// Worker persists snapshots read from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	persister Persister
	name      string
	processed *atomic.Int64

	storeTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(queue Queue, persister Persister, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		persister: persister,
		name:      "worker",
		processed: &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	in := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case snap, ok := <-in:
			if !ok {
				return
			}
			if err := w.process(ctx, snap); err != nil {
				w.logger.Error(ctx, "error persisting snapshot", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the current snapshot.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many snapshots this worker handled.
func (w *InMemoryWorker) Processed() int64 {
	return w.processed.Load()
}

func (w *InMemoryWorker) process(ctx context.Context, snap model.Snapshot) error { //nolint:gocritic // hugeParam: snapshots are values
	start := time.Now()
	defer func() {
		metrics.RecordSyncLatency(float64(time.Since(start).Microseconds()) / 1000)
		w.processed.Add(1)
	}()

	if w.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.storeTimeout)
		defer cancel()
	}

	if snap.State == StateAborted {
		if err := w.persister.Delete(ctx, snap.GameID); err != nil {
			metrics.RecordSyncError()
			metrics.RecordErrorByComponent("worker", "delete_error")
			return fmt.Errorf("delete game %s: %w", snap.GameID, err)
		}
		w.logger.Debug(ctx, "game dropped", logger.String("game_id", snap.GameID))
		return nil
	}

	written, err := w.persister.Save(ctx, snap)
	if err != nil {
		metrics.RecordSyncError()
		metrics.RecordErrorByComponent("worker", "save_error")
		return fmt.Errorf("save game %s v%d: %w", snap.GameID, snap.Version, err)
	}
	if written {
		metrics.RecordSnapshotPersisted()
	} else {
		w.logger.Debug(ctx, "stale snapshot skipped",
			logger.String("game_id", snap.GameID),
			logger.Any("version", snap.Version))
	}
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. A count below one picks a size from the CPU count.
func NewPool(workerCount int, queue Queue, persister Persister, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	probe := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(probe)
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  probe.logger.Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(queue, persister, wopts...)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the snapshots handled across all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Shutdown closes the queue, lets the workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
