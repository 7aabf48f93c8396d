// Package worker forwards mirrored submissions to the hosted backend.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/wastewise/internal/adapters/mq/queue"
	"github.com/okian/wastewise/internal/adapters/repository"
	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/pkg/logger"
	"github.com/okian/wastewise/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	defaultJobTimeout   = 15 * time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Forwarder delivers a submission to another backend. key is stable for
// a job so the backend can drop repeated deliveries.
type Forwarder interface {
	SubmitWithKey(ctx context.Context, key string, sub model.Submission) (model.WasteLogEntry, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.MirrorJob
}

type mirrorWorker struct {
	pool   *Pool
	logger logger.Logger
}

func (w *mirrorWorker) run(ctx context.Context) {
	defer w.pool.wg.Done()

	jobs := w.pool.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.pool.stop:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			w.forward(ctx, j)
		}
	}
}

func (w *mirrorWorker) forward(ctx context.Context, j queue.MirrorJob) { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	jobCtx, cancel := context.WithTimeout(ctx, w.pool.jobTimeout)
	defer cancel()

	remote, err := w.pool.forwarder.SubmitWithKey(jobCtx, j.ID.String(), j.Submission)
	if errors.Is(err, repository.ErrDuplicate) {
		w.pool.forwarded.Add(1)
		metrics.RecordMirrorForwarded()
		w.logger.Debug(ctx, "submission already mirrored",
			logger.String("jobID", j.ID.String()),
			logger.Int64("logID", j.Entry.LogID),
		)
		return
	}
	if err != nil {
		w.pool.failed.Add(1)
		metrics.RecordMirrorFailure()
		metrics.RecordErrorByComponent("mirror", "forward_failed")
		w.logger.Warn(ctx, "mirror forward failed",
			logger.String("jobID", j.ID.String()),
			logger.Int64("logID", j.Entry.LogID),
			logger.Error(err),
		)
		return
	}
	w.pool.forwarded.Add(1)
	metrics.RecordMirrorForwarded()
	w.logger.Debug(ctx, "mirrored submission",
		logger.String("jobID", j.ID.String()),
		logger.Int64("logID", j.Entry.LogID),
		logger.Int64("remoteLogID", remote.LogID),
	)
}

// Pool runs a fixed number of mirror workers over one queue.
type Pool struct {
	queue      Queue
	forwarder  Forwarder
	workers    []*mirrorWorker
	jobTimeout time.Duration
	logger     logger.Logger

	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once

	forwarded atomic.Int64
	failed    atomic.Int64
}

// NewPool creates a pool of workerCount workers. Values below 1 use the default.
func NewPool(workerCount int, q Queue, f Forwarder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		queue:      q,
		forwarder:  f,
		jobTimeout: defaultJobTimeout,
		logger:     logger.Nop(),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.workers = make([]*mirrorWorker, workerCount)
	for i := range p.workers {
		p.workers[i] = &mirrorWorker{pool: p, logger: p.logger.Named("mirror-worker-" + strconv.Itoa(i))}
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	p.wg.Add(len(p.workers))
	for _, w := range p.workers {
		go w.run(ctx)
	}
}

// Stop signals workers to exit without draining and waits for them.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

// Shutdown closes the queue, lets workers drain what is buffered and waits
// until they exit or ctx expires. On expiry the remaining jobs are dropped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	select {
	case <-done:
		return nil
	case <-shutdownCtx.Done():
		p.stopOnce.Do(func() { close(p.stop) })
		p.logger.Warn(ctx, "mirror pool shutdown timed out")
		return fmt.Errorf("mirror pool shutdown: %w", shutdownCtx.Err())
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Forwarded returns how many jobs the backend accepted.
func (p *Pool) Forwarded() int64 { return p.forwarded.Load() }

// Failed returns how many jobs could not be delivered.
func (p *Pool) Failed() int64 { return p.failed.Load() }
