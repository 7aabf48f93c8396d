package repository

import (
	"context"

	"github.com/okian/wastewise/internal/aggregate"
	"github.com/okian/wastewise/internal/domain/model"
)

// Local serves the views straight from the aggregate store.
type Local struct {
	store *aggregate.Store
}

// NewLocal wraps store.
func NewLocal(store *aggregate.Store) *Local {
	return &Local{store: store}
}

func (l *Local) Leaderboard(context.Context) ([]model.LeaderboardRow, error) {
	return l.store.Leaderboard(), nil
}

func (l *Local) Metrics(context.Context) (model.MetricsSnapshot, error) {
	return l.store.Metrics(), nil
}

func (l *Local) WasteChart(_ context.Context, tf model.Timeframe) ([]model.ChartBucket, error) {
	return l.store.WasteChart(tf)
}

func (l *Local) WasteTypes(context.Context) ([]model.WasteTypeShare, error) {
	return l.store.WasteTypes(), nil
}

func (l *Local) RecentEntries(context.Context) ([]model.WasteLogEntry, error) {
	return l.store.WasteLogs(), nil
}

func (l *Local) Submit(ctx context.Context, sub model.Submission) (model.WasteLogEntry, error) {
	return l.store.Append(ctx, sub)
}

// Reset restores the seed data.
func (l *Local) Reset(ctx context.Context) error {
	return l.store.Reset(ctx)
}

// Stats exposes the store counters.
func (l *Local) Stats() aggregate.Stats {
	return l.store.Stats()
}
