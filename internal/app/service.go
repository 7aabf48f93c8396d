// Package service wires storage, the aggregate store, the repository and the
// backend mirror into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/wastewise/internal/adapters/mq/queue"
	"github.com/okian/wastewise/internal/adapters/mq/worker"
	"github.com/okian/wastewise/internal/adapters/repository"
	"github.com/okian/wastewise/internal/adapters/storage"
	"github.com/okian/wastewise/internal/aggregate"
	"github.com/okian/wastewise/internal/domain/dedupe"
	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/pkg/logger"
	"github.com/okian/wastewise/pkg/metrics"
)

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	kv      storage.KV
	ownsKV  bool
	store   *aggregate.Store
	repo    repository.Repository
	deduper dedupe.Deduper
	mirrorQ queue.Queue
	mirror  *worker.Pool

	// Configuration
	storageBackend string
	sqlitePath     string
	repoKind       string
	backendURL     string
	backendTimeout time.Duration
	backendRetries int
	mirrorURL      string
	queueSize      int
	workerCount    int
	dedupeSize     int
	storeOpts      []aggregate.Option

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStorage selects the KV backend; path is only used by sqlite.
func WithStorage(backend, path string) Option {
	return func(s *Service) {
		s.storageBackend = backend
		s.sqlitePath = path
	}
}

// WithKV injects an already opened KV. The caller keeps ownership: Stop
// leaves it open and a later Start reuses it.
func WithKV(kv storage.KV) Option {
	return func(s *Service) {
		s.kv = kv
	}
}

// WithRepository selects local or remote. url is the hosted backend for remote.
func WithRepository(kind, url string) Option {
	return func(s *Service) {
		s.repoKind = kind
		s.backendURL = url
	}
}

// WithBackendClient tunes the HTTP client used for the remote repository and the mirror.
func WithBackendClient(timeout time.Duration, retryMax int) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.backendTimeout = timeout
		}
		if retryMax >= 0 {
			s.backendRetries = retryMax
		}
	}
}

// WithMirror forwards every accepted local submission to url.
func WithMirror(url string) Option {
	return func(s *Service) {
		s.mirrorURL = url
	}
}

// WithWorkerCount sets the number of mirror workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the mirror queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the idempotency key cache. 0 disables eviction.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithStoreOptions passes options through to the aggregate store.
func WithStoreOptions(opts ...aggregate.Option) Option {
	return func(s *Service) {
		s.storeOpts = append(s.storeOpts, opts...)
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

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storageBackend: storage.BackendMemory,
		repoKind:       repository.KindLocal,
		backendTimeout: 10 * time.Second,
		backendRetries: 3,
		queueSize:      1024,
		workerCount:    2,
		dedupeSize:     10_000,
		logger:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens storage, loads the views and starts the mirror workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting wastewise service...",
		logger.String("repository", s.repoKind),
		logger.String("storage", s.storageBackend),
	)

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxKeys(s.dedupeSize))

	var err error
	switch s.repoKind {
	case repository.KindRemote:
		s.repo, err = repository.New(repository.KindRemote, nil, s.remoteOptions(s.backendURL)...)
		if err != nil {
			return fmt.Errorf("remote repository: %w", err)
		}
	default:
		if err := s.startLocal(ctx); err != nil {
			s.closeKV(ctx)
			return err
		}
	}

	s.started = true
	s.logger.Info(ctx, "wastewise service started",
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("mirror", s.mirror != nil),
	)
	return nil
}

func (s *Service) startLocal(ctx context.Context) error {
	if s.kv == nil {
		kv, err := storage.Open(ctx, s.storageBackend, s.sqlitePath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		s.kv = kv
		s.ownsKV = true
	}

	opts := append([]aggregate.Option{aggregate.WithLogger(s.logger.Named("aggregate"))}, s.storeOpts...)
	s.store = aggregate.New(s.kv, opts...)
	if err := s.store.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize views: %w", err)
	}

	repo, err := repository.New(repository.KindLocal, s.store)
	if err != nil {
		return err
	}
	s.repo = repo

	if s.mirrorURL == "" {
		return nil
	}
	remote, err := repository.NewRemote(s.remoteOptions(s.mirrorURL)...)
	if err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	s.mirrorQ = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.mirror = worker.NewPool(s.workerCount, s.mirrorQ, remote,
		worker.WithLogger(s.logger.Named("mirror")),
		worker.WithJobTimeout(s.backendTimeout*time.Duration(s.backendRetries+1)),
	)
	s.mirror.Start(context.WithoutCancel(ctx))
	return nil
}

func (s *Service) remoteOptions(url string) []repository.RemoteOption {
	return []repository.RemoteOption{
		repository.WithBaseURL(url),
		repository.WithTimeout(s.backendTimeout),
		repository.WithRetryMax(s.backendRetries),
	}
}

// Stop drains the mirror queue and closes storage.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping wastewise service...")

	var errs []error
	if s.mirror != nil {
		if err := s.mirror.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		s.logger.Info(ctx, "mirror drained",
			logger.Int64("forwarded", s.mirror.Forwarded()),
			logger.Int64("failed", s.mirror.Failed()),
		)
	}
	if err := s.closeKV(ctx); err != nil {
		errs = append(errs, err)
	}

	s.started = false
	s.logger.Info(ctx, "wastewise service stopped")
	return errors.Join(errs...)
}

func (s *Service) closeKV(ctx context.Context) error {
	if s.kv == nil || !s.ownsKV {
		return nil
	}
	err := s.kv.Close()
	if err != nil {
		s.logger.Error(ctx, "error closing storage", logger.Error(err))
	}
	s.kv = nil
	s.ownsKV = false
	return err
}

func (s *Service) activeRepo() (repository.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.repo, nil
}

// SeenAndRecord reports whether an idempotency key was already used and
// records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	if s.deduper == nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, key)
	if seen {
		metrics.RecordDuplicateSubmission()
	}
	return seen
}

// Unrecord forgets key so a failed submission may be retried.
func (s *Service) Unrecord(ctx context.Context, key string) {
	if s.deduper != nil {
		s.deduper.Unrecord(ctx, key)
	}
}

// Size returns the current number of recorded idempotency keys.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func (s *Service) Leaderboard(ctx context.Context) ([]model.LeaderboardRow, error) {
	repo, err := s.activeRepo()
	if err != nil {
		return nil, err
	}
	return repo.Leaderboard(ctx)
}

func (s *Service) Metrics(ctx context.Context) (model.MetricsSnapshot, error) {
	repo, err := s.activeRepo()
	if err != nil {
		return model.MetricsSnapshot{}, err
	}
	return repo.Metrics(ctx)
}

func (s *Service) WasteChart(ctx context.Context, tf model.Timeframe) ([]model.ChartBucket, error) {
	repo, err := s.activeRepo()
	if err != nil {
		return nil, err
	}
	return repo.WasteChart(ctx, tf)
}

func (s *Service) WasteTypes(ctx context.Context) ([]model.WasteTypeShare, error) {
	repo, err := s.activeRepo()
	if err != nil {
		return nil, err
	}
	return repo.WasteTypes(ctx)
}

func (s *Service) RecentEntries(ctx context.Context) ([]model.WasteLogEntry, error) {
	repo, err := s.activeRepo()
	if err != nil {
		return nil, err
	}
	return repo.RecentEntries(ctx)
}

// Submit records sub through the repository. Entries that reached the local
// views are also queued for the mirror, even when persisting them failed.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (model.WasteLogEntry, error) {
	repo, err := s.activeRepo()
	if err != nil {
		return model.WasteLogEntry{}, err
	}
	entry, err := repo.Submit(ctx, sub)
	if err != nil && !(errors.Is(err, aggregate.ErrStorage) && entry.LogID != 0) {
		return entry, err
	}
	s.enqueueMirror(ctx, sub, entry)
	return entry, err
}

func (s *Service) enqueueMirror(ctx context.Context, sub model.Submission, entry model.WasteLogEntry) { //nolint:gocritic // hugeParam: copied into the job anyway
	if s.mirrorQ == nil {
		return
	}
	job := queue.NewMirrorJob(sub, entry)
	if !s.mirrorQ.Enqueue(context.WithoutCancel(ctx), job) {
		metrics.RecordErrorByComponent("mirror", "queue_full")
		s.logger.Warn(ctx, "mirror queue full, submission not forwarded",
			logger.Int64("logID", entry.LogID),
			logger.String("jobID", job.ID.String()),
		)
	}
}

// Reset restores the seed views. Only the local repository supports it.
func (s *Service) Reset(ctx context.Context) error {
	repo, err := s.activeRepo()
	if err != nil {
		return err
	}
	r, ok := repo.(repository.Resetter)
	if !ok {
		return repository.ErrResetUnsupported
	}
	if err := r.Reset(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "views reset")
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":    s.started,
		"repository": s.repoKind,
		"dedupeKeys": s.Size(),
	}
	if !s.started {
		return stats
	}

	if s.store != nil {
		st := s.store.Stats()
		stats["storage"] = s.storageBackend
		stats["wasteLogs"] = st.WasteLogs
		stats["businesses"] = st.Businesses
		stats["totalWaste"] = st.TotalWaste
		stats["lastLogID"] = st.LastLogID
	}
	if s.mirror != nil {
		queueLen := s.mirrorQ.Len(context.Background())
		stats["mirrorQueueLength"] = queueLen
		stats["mirrorWorkers"] = s.mirror.Size()
		stats["mirrorForwarded"] = s.mirror.Forwarded()
		stats["mirrorFailed"] = s.mirror.Failed()
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}
