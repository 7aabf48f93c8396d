package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/wastewise/pkg/logger"
)

const (
	filePermission  = 0o600
	progressEvery   = time.Second
	defaultWorkers  = 4
	defaultTimeout  = 10 * time.Second
	workerChanRatio = 2
)

// ErrNoBusinesses is returned when the leaderboard is empty.
var ErrNoBusinesses = errors.New("leaderboard has no businesses to submit for")

// Run submits cfg.Submissions generated entries and verifies the views
// afterwards. Stats are returned even when verification fails.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("simulate")
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting wastewise simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("submissions", cfg.Submissions),
		logger.Int("workers", cfg.Workers),
		logger.Float64("rate", cfg.Rate),
	)

	c, err := newClient(cfg)
	if err != nil {
		return stats, err
	}
	if err := c.health(ctx); err != nil {
		return stats, err
	}

	before, err := takeSnapshot(ctx, c)
	if err != nil {
		return stats, fmt.Errorf("snapshot before: %w", err)
	}
	if len(before.rows) == 0 {
		return stats, ErrNoBusinesses
	}
	businesses := make([]int64, len(before.rows))
	for i, r := range before.rows {
		businesses[i] = r.BusinessID
	}

	subs := NewGenerator(cfg.Seed, businesses).Batch(cfg.Submissions)
	stats.Generated = len(subs)

	l := submitAll(ctx, log, c, cfg, subs, stats)

	after, err := takeSnapshot(ctx, c)
	if err != nil {
		return stats, fmt.Errorf("snapshot after: %w", err)
	}

	if cfg.OutputFile != "" {
		if err := saveSubmissions(cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if err := verify(before, after, l); err != nil {
		return stats, err
	}
	log.Info(ctx, "views verified",
		logger.Int("businesses", len(after.rows)),
		logger.Float64("acceptedKg", l.total),
	)
	return stats, nil
}

// submitAll fans subs out to cfg.Workers goroutines sharing one rate limiter.
func submitAll(ctx context.Context, log logger.Logger, c *client, cfg *Config, subs []Submission, stats *Stats) *ledger {
	limit := rate.Inf
	burst := cfg.Workers
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	limiter := rate.NewLimiter(limit, burst)

	var (
		mu         sync.Mutex
		l          = &ledger{byBusiness: make(map[int64]float64)}
		lastReport = time.Now()
	)
	record := func(s *Submission, o Outcome, replay bool) {
		mu.Lock()
		defer mu.Unlock()
		stats.Submitted++
		switch o {
		case OutcomeCreated:
			stats.Created++
			stats.Accepted += s.Weight
			l.add(&s.Submission)
		case OutcomeDuplicate:
			stats.Duplicates++
		default:
			stats.Failed++
		}
		if replay {
			stats.Replays++
		}
		if cfg.Verbose && time.Since(lastReport) >= progressEvery {
			lastReport = time.Now()
			log.Info(ctx, "progress",
				logger.Int("submitted", stats.Submitted),
				logger.Int("created", stats.Created),
				logger.Int("duplicates", stats.Duplicates),
				logger.Int("failed", stats.Failed),
			)
		}
	}

	send := func(s *Submission, replay bool) {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		o, err := c.submit(ctx, s)
		if err != nil && cfg.Verbose {
			log.Warn(ctx, "submission failed", logger.String("key", s.Key), logger.Error(err))
		}
		record(s, settle(o, replay), replay)
	}

	jobs := make(chan int, cfg.Workers*workerChanRatio)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				send(&subs[i], false)
				if cfg.ReplayEvery > 0 && (i+1)%cfg.ReplayEvery == 0 {
					send(&subs[i], true)
				}
			}
		}()
	}

feed:
	for i := range subs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return l
}

// settle maps a duplicate on a first send to created: the key was only
// ever used by this call, so an earlier attempt of it was applied and its
// response lost.
func settle(o Outcome, replay bool) Outcome {
	if o == OutcomeDuplicate && !replay {
		return OutcomeCreated
	}
	return o
}

func saveSubmissions(path string, subs []Submission) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, filePermission)
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("replays", stats.Replays),
		logger.Int("failed", stats.Failed),
		logger.Float64("acceptedKg", stats.Accepted),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("perSecond", perSecond),
	)
}
