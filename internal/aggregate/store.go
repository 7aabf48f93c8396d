// Package aggregate maintains the five denormalized waste views
// (leaderboard, waste logs, metrics, waste chart, waste types) and keeps them
// consistent on every appended waste log entry.
package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/okian/wastewise/internal/adapters/storage"
	"github.com/okian/wastewise/internal/domain/bucket"
	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/internal/domain/ranking"
	"github.com/okian/wastewise/internal/domain/seed"
	"github.com/okian/wastewise/pkg/logger"
	"github.com/okian/wastewise/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Stats summarizes the store for monitoring.
type Stats struct {
	WasteLogs   int     `json:"wasteLogs"`
	Businesses  int     `json:"businesses"`
	TotalWaste  float64 `json:"totalWaste"`
	LastLogID   int64   `json:"lastLogID"`
	Initialized bool    `json:"initialized"`
}

// Store owns the views and their persisted copies.
//
// In-process callers are serialized by an RWMutex: Append and Reset take the
// write lock, readers the read lock, so no caller observes a partial update.
// Processes sharing one KV are not coordinated. Each Append writes its full
// view blobs, and the last writer wins.
type Store struct {
	kv     storage.KV
	logger logger.Logger

	now              func() time.Time
	loc              *time.Location
	employees        model.EmployeeCounts
	defaultEmployees int
	keys             keys
	seed             func() model.Snapshot

	mu     sync.RWMutex
	views  model.Snapshot
	loaded bool
}

// New creates a store over kv. Call Initialize before serving reads.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:               kv,
		logger:           logger.Nop(),
		now:              time.Now,
		loc:              time.Local,
		employees:        seed.EmployeeCounts(),
		defaultEmployees: model.DefaultEmployeeCount,
		keys:             newKeys(DefaultNamespace),
		seed:             seed.Snapshot,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize seeds every absent view and loads all five into memory.
// Existing views are never overwritten, so repeated calls are harmless.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Store) initLocked(ctx context.Context) error {
	raw := make(map[string][]byte, len(s.keys.all()))
	var missing []string
	for _, k := range s.keys.all() {
		v, err := s.kv.Get(ctx, k)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			missing = append(missing, k)
		case err != nil:
			metrics.RecordStorageError("get")
			return &StorageError{Op: "get", Key: k, Err: err}
		default:
			raw[k] = v
		}
	}

	if len(missing) > 0 {
		seeded, err := s.encode(s.seed())
		if err != nil {
			return err
		}
		batch := make(map[string][]byte, len(missing))
		for _, k := range missing {
			batch[k] = seeded[k]
			raw[k] = seeded[k]
		}
		if err := s.kv.Set(ctx, batch); err != nil {
			metrics.RecordStorageError("set")
			return &StorageError{Op: "set", Key: strings.Join(missing, ","), Err: err}
		}
		s.logger.Info(ctx, "seeded views", logger.Int("count", len(missing)))
	}

	views, err := s.decode(raw)
	if err != nil {
		return err
	}
	s.views = views
	s.loaded = true
	s.updateGauges()
	return nil
}

// Append validates sub, records it as a new entry and folds it into every
// view. Validation failures leave the store untouched. When persistence
// fails the entry is returned together with a *StorageError: the in-memory
// views already hold the new state and the persisted copy is stale until the
// next successful write.
func (s *Store) Append(ctx context.Context, sub model.Submission) (model.WasteLogEntry, error) {
	start := time.Now()
	if err := validate(&sub); err != nil {
		metrics.RecordValidationError()
		return model.WasteLogEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.initLocked(ctx); err != nil {
			return model.WasteLogEntry{}, err
		}
	}

	now := s.now().In(s.loc)
	next := cloneSnapshot(s.views)

	entry := model.WasteLogEntry{
		LogID:      nextLogID(next.WasteLogs),
		CreatedAt:  now,
		UserID:     sub.UserID,
		BusinessID: sub.BusinessID,
		WasteType:  sub.WasteType,
		Weight:     sub.Weight,
		Location:   sub.Location,
		Username:   sub.Username,
	}.Clone()
	next.WasteLogs = append([]model.WasteLogEntry{entry}, next.WasteLogs...)

	next.Metrics.Apply(sub.Weight, now.Format(dateLayout))

	changed := []string{s.keys.wasteLogs, s.keys.metrics, s.keys.wasteTypes}
	if s.applyChart(ctx, &next.WasteChart, now, sub.Weight) {
		changed = append(changed, s.keys.wasteChart)
	}

	next.WasteTypes, _ = model.AddWasteType(next.WasteTypes, sub.WasteType, sub.Weight)

	if s.applyLeaderboard(ctx, next.Leaderboard, sub.BusinessID, sub.Weight) {
		ranking.Rerank(next.Leaderboard)
		metrics.RecordLeaderboardRerank()
		changed = append(changed, s.keys.leaderboard)
	}

	s.views = next
	metrics.RecordWasteLogAppended(sub.Weight)
	s.updateGauges()

	s.logger.Debug(ctx, "waste log appended",
		logger.Int64("logID", entry.LogID),
		logger.Int64("businessID", entry.BusinessID),
		logger.String("wasteType", entry.WasteType),
		logger.Float64("weight", entry.Weight),
	)

	err := s.persist(ctx, changed)
	metrics.RecordAppendLatency(float64(time.Since(start).Microseconds()) / 1000)
	return entry.Clone(), err
}

// applyChart increments one bucket per series. It reports whether any
// bucket matched.
func (s *Store) applyChart(ctx context.Context, chart *model.WasteChart, now time.Time, w float64) bool {
	matched := false
	for _, tf := range model.Timeframes {
		label, err := bucket.Label(tf, now)
		if err != nil {
			continue
		}
		series, ok := bucket.Increment(chart.Series(tf), label, w)
		if !ok {
			// Series label sets are fixed at seed time; out-of-range
			// labels are dropped.
			metrics.RecordBucketMiss(string(tf))
			s.logger.Debug(ctx, "no chart bucket for label",
				logger.String("series", string(tf)),
				logger.String("label", label),
			)
			continue
		}
		chart.SetSeries(tf, series)
		matched = true
	}
	return matched
}

// applyLeaderboard adds w to the row of businessID. It reports false, and
// changes nothing, when the business has no row.
func (s *Store) applyLeaderboard(ctx context.Context, rows []model.LeaderboardRow, businessID int64, w float64) bool {
	for i := range rows {
		if rows[i].BusinessID != businessID {
			continue
		}
		rows[i].AddWaste(w, s.employees.Lookup(businessID, s.defaultEmployees))
		return true
	}
	metrics.RecordUnknownBusiness()
	s.logger.Debug(ctx, "business not on leaderboard", logger.Int64("businessID", businessID))
	return false
}

// Reset clears all persisted views in one call and seeds them again. The
// write lock is held throughout, so readers never see a half-reset store.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Clear(ctx, s.keys.all()...); err != nil {
		metrics.RecordStorageError("clear")
		return &StorageError{Op: "clear", Err: err}
	}
	s.loaded = false
	s.views = model.Snapshot{}
	if err := s.initLocked(ctx); err != nil {
		return err
	}
	metrics.RecordStoreReset()
	s.logger.Info(ctx, "store reset")
	return nil
}

// Leaderboard returns the rows ordered by rank.
func (s *Store) Leaderboard() []model.LeaderboardRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneRows(s.views.Leaderboard)
}

// Row returns the leaderboard row of businessID.
func (s *Store) Row(businessID int64) (model.LeaderboardRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.views.Leaderboard {
		if r.BusinessID == businessID {
			return r, true
		}
	}
	return model.LeaderboardRow{}, false
}

// WasteLogs returns every entry, newest first.
func (s *Store) WasteLogs() []model.WasteLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneEntries(s.views.WasteLogs)
}

// Metrics returns the dashboard snapshot.
func (s *Store) Metrics() model.MetricsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.views.Metrics
}

// WasteChart returns the buckets of one series.
func (s *Store) WasteChart(tf model.Timeframe) ([]model.ChartBucket, error) {
	if _, err := model.ParseTimeframe(string(tf)); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	chart := s.views.WasteChart.Clone()
	return chart.Series(tf), nil
}

// WasteTypes returns the waste type shares.
func (s *Store) WasteTypes() []model.WasteTypeShare {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneShares(s.views.WasteTypes)
}

// Snapshot returns all five views read under one lock.
func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSnapshot(s.views)
}

// Stats returns counters for /stats.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		WasteLogs:   len(s.views.WasteLogs),
		Businesses:  len(s.views.Leaderboard),
		TotalWaste:  s.views.Metrics.TotalWaste,
		LastLogID:   nextLogID(s.views.WasteLogs) - 1,
		Initialized: s.loaded,
	}
}

func (s *Store) updateGauges() {
	metrics.UpdateLeaderboardSize(len(s.views.Leaderboard))
	metrics.UpdateWasteLogCount(len(s.views.WasteLogs))
	metrics.UpdateTotals(s.views.Metrics.TotalWaste, s.views.Metrics.CO2Emissions)
}

func validate(sub *model.Submission) error {
	w := sub.Weight
	switch {
	case math.IsNaN(w):
		return &ValidationError{Field: "weight", Reason: "not a number"}
	case math.IsInf(w, 0):
		return &ValidationError{Field: "weight", Reason: "must be finite"}
	case w < 0:
		return &ValidationError{Field: "weight", Reason: "must not be negative"}
	}
	sub.WasteType = strings.TrimSpace(sub.WasteType)
	if sub.WasteType == "" {
		sub.WasteType = model.DefaultWasteType
	}
	return nil
}

func nextLogID(logs []model.WasteLogEntry) int64 {
	var highest int64
	for _, l := range logs {
		if l.LogID > highest {
			highest = l.LogID
		}
	}
	return highest + 1
}

func cloneSnapshot(v model.Snapshot) model.Snapshot {
	return model.Snapshot{
		Leaderboard: model.CloneRows(v.Leaderboard),
		WasteLogs:   model.CloneEntries(v.WasteLogs),
		Metrics:     v.Metrics,
		WasteChart:  v.WasteChart.Clone(),
		WasteTypes:  model.CloneShares(v.WasteTypes),
	}
}

func (s *Store) encode(v model.Snapshot) (map[string][]byte, error) {
	parts := map[string]any{
		s.keys.leaderboard: v.Leaderboard,
		s.keys.wasteLogs:   v.WasteLogs,
		s.keys.metrics:     v.Metrics,
		s.keys.wasteChart:  v.WasteChart,
		s.keys.wasteTypes:  v.WasteTypes,
	}
	out := make(map[string][]byte, len(parts))
	for k, p := range parts {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, &StorageError{Op: "encode", Key: k, Err: err}
		}
		out[k] = b
	}
	return out, nil
}

func (s *Store) decode(raw map[string][]byte) (model.Snapshot, error) {
	var v model.Snapshot
	targets := map[string]any{
		s.keys.leaderboard: &v.Leaderboard,
		s.keys.wasteLogs:   &v.WasteLogs,
		s.keys.metrics:     &v.Metrics,
		s.keys.wasteChart:  &v.WasteChart,
		s.keys.wasteTypes:  &v.WasteTypes,
	}
	for k, t := range targets {
		if err := json.Unmarshal(raw[k], t); err != nil {
			metrics.RecordStorageError("decode")
			return model.Snapshot{}, &StorageError{Op: "decode", Key: k, Err: err}
		}
	}
	return v, nil
}

// persist writes the named views in one batch.
func (s *Store) persist(ctx context.Context, changed []string) error {
	all, err := s.encode(s.views)
	if err != nil {
		return err
	}
	batch := make(map[string][]byte, len(changed))
	for _, k := range changed {
		batch[k] = all[k]
	}
	if err := s.kv.Set(ctx, batch); err != nil {
		metrics.RecordStorageError("set")
		metrics.RecordErrorByComponent("aggregate", "storage")
		s.logger.Error(ctx, "persisting views failed", logger.Error(err))
		return &StorageError{Op: "set", Key: strings.Join(changed, ","), Err: err}
	}
	return nil
}
