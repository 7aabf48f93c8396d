// Package repository is the data-access boundary of the dashboard views.
// Local serves them from the aggregate store, Remote from the hosted
// backend; the choice is made once at construction.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/wastewise/internal/aggregate"
	"github.com/okian/wastewise/internal/domain/model"
)

// Kinds accepted by New.
const (
	KindLocal  = "local"
	KindRemote = "remote"
)

// Repository exposes the logical endpoints the dashboard consumes.
type Repository interface {
	// Leaderboard returns rows ordered by rank ascending.
	Leaderboard(ctx context.Context) ([]model.LeaderboardRow, error)
	Metrics(ctx context.Context) (model.MetricsSnapshot, error)
	WasteChart(ctx context.Context, tf model.Timeframe) ([]model.ChartBucket, error)
	WasteTypes(ctx context.Context) ([]model.WasteTypeShare, error)
	// RecentEntries returns waste log entries newest first.
	RecentEntries(ctx context.Context) ([]model.WasteLogEntry, error)
	// Submit records a new entry and returns it with its assigned id.
	Submit(ctx context.Context, sub model.Submission) (model.WasteLogEntry, error)
}

// Resetter is implemented by repositories able to restore the seed data.
type Resetter interface {
	Reset(ctx context.Context) error
}

// New selects the implementation named by kind. store is required for
// local, opts configure remote.
func New(kind string, store *aggregate.Store, opts ...RemoteOption) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindLocal:
		if store == nil {
			return nil, fmt.Errorf("%w: local repository needs a store", ErrUnknownKind)
		}
		return NewLocal(store), nil
	case KindRemote:
		return NewRemote(opts...)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
