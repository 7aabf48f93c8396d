package aggregate

import (
	"time"

	"github.com/okian/wastewise/internal/domain/model"
	"github.com/okian/wastewise/pkg/logger"
)

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now. Append stamps entries and picks chart
// buckets with it.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone bucket labels and dates are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithEmployeeCounts replaces the head count table.
func WithEmployeeCounts(c model.EmployeeCounts) Option {
	return func(s *Store) {
		if c != nil {
			s.employees = c.Clone()
		}
	}
}

// WithDefaultEmployeeCount sets the divisor for businesses missing from the table.
func WithDefaultEmployeeCount(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.defaultEmployees = n
		}
	}
}

// WithNamespace sets the key prefix of the persisted views.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.keys = newKeys(ns)
		}
	}
}

// WithSeed replaces the baseline dataset written by Initialize.
func WithSeed(fn func() model.Snapshot) Option {
	return func(s *Store) {
		if fn != nil {
			s.seed = fn
		}
	}
}
