package simulate

import (
	"time"

	"github.com/okian/wastewise/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Submissions int           // Number of submissions to generate
	Workers     int           // Number of concurrent submitters
	Rate        float64       // Submissions per second across all workers; 0 is unlimited
	Timeout     time.Duration // HTTP request timeout
	RetryMax    int           // Retries per request
	Seed        uint64        // Generator seed; 0 picks a random one
	ReplayEvery int           // Resend every Nth submission with its key; 0 disables
	OutputFile  string        // Optional JSON dump of the generated submissions
	Verbose     bool
}

// Submission is one generated request with its idempotency key.
type Submission struct {
	Key string `json:"idempotencyKey"`
	model.Submission
}

// Outcome of one submit call.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeCreated
	OutcomeDuplicate
)

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Created    int
	Duplicates int
	Replays    int
	Failed     int
	Accepted   float64 // total weight of created submissions
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
