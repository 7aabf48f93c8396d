package simulate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/internal/domain/ranking"
)

// ErrVerification is returned when the views are inconsistent with what was submitted.
var ErrVerification = errors.New("verification failed")

// snapshot is what the simulator reads before and after submitting.
type snapshot struct {
	rows    []model.LeaderboardRow
	metrics model.MetricsSnapshot
	shares  []model.WasteTypeShare
	logs    int
}

func takeSnapshot(ctx context.Context, c *client) (snapshot, error) {
	var s snapshot
	var err error
	if s.rows, err = c.Leaderboard(ctx); err != nil {
		return s, fmt.Errorf("leaderboard: %w", err)
	}
	if s.metrics, err = c.Metrics(ctx); err != nil {
		return s, fmt.Errorf("metrics: %w", err)
	}
	if s.shares, err = c.WasteTypes(ctx); err != nil {
		return s, fmt.Errorf("waste types: %w", err)
	}
	entries, err := c.RecentEntries(ctx)
	if err != nil {
		return s, fmt.Errorf("history: %w", err)
	}
	s.logs = len(entries)
	return s, nil
}

// ledger is the weight the simulator had accepted, per business and overall.
type ledger struct {
	created    int
	total      float64
	byBusiness map[int64]float64
}

func (l *ledger) add(s *model.Submission) {
	l.created++
	l.total += s.Weight
	l.byBusiness[s.BusinessID] += s.Weight
}

// verify checks the rank invariant on after and that every accepted
// kilogram shows up exactly once in each additive view. It assumes no
// other writer touched the service during the run.
func verify(before, after snapshot, l *ledger) error {
	var errs []error
	if err := ranking.Validate(after.rows); err != nil {
		errs = append(errs, err)
	}

	tol := 1e-6 * math.Max(1, float64(l.created))
	near := func(got, want float64) bool { return math.Abs(got-want) <= tol }

	if d := after.logs - before.logs; d != l.created {
		errs = append(errs, fmt.Errorf("waste logs grew by %d, want %d", d, l.created))
	}
	if d := after.metrics.TotalWaste - before.metrics.TotalWaste; !near(d, l.total) {
		errs = append(errs, fmt.Errorf("total waste grew by %.4f, want %.4f", d, l.total))
	}
	if d := sumShares(after.shares) - sumShares(before.shares); !near(d, l.total) {
		errs = append(errs, fmt.Errorf("waste types grew by %.4f, want %.4f", d, l.total))
	}

	prev := make(map[int64]float64, len(before.rows))
	for _, r := range before.rows {
		prev[r.BusinessID] = r.SeasonalWaste
	}
	for _, r := range after.rows {
		if d := r.SeasonalWaste - prev[r.BusinessID]; !near(d, l.byBusiness[r.BusinessID]) {
			errs = append(errs, fmt.Errorf("business %d grew by %.4f, want %.4f", r.BusinessID, d, l.byBusiness[r.BusinessID]))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	return nil
}

func sumShares(shares []model.WasteTypeShare) float64 {
	var s float64
	for _, sh := range shares {
		s += sh.Value
	}
	return s
}
