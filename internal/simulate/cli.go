package simulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/wastewise/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to stdout and to logFile. An empty
// logFile gets a timestamped name.
func SetupLogging(logFile, format string) (io.Closer, error) {
	if logFile == "" {
		logFile = "simulate_" + time.Now().Format("20060102_150405") + ".log"
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file), format); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`WasteWise Submission Simulator
==============================

Submits generated waste logs to a running service and checks that the
leaderboard ranks and the additive views agree with what was accepted.
Run it against a service nobody else is writing to.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -submissions int
        Number of submissions to generate (default 500)
  -workers int
        Number of concurrent submitters (default 4)
  -rate float
        Submissions per second across all workers, 0 is unlimited (default 50)
  -timeout duration
        HTTP request timeout (default 10s)
  -retries int
        Retries per request (default 2)
  -seed uint
        Generator seed, 0 picks a random one
  -replay-every int
        Resend every Nth submission with the same key (default 10)
  -output string
        Optional JSON file for the generated submissions
  -log string
        Log file (default: simulate_TIMESTAMP.log)
  -log-format string
        Log format, text or json (default "text")
  -verbose
        Log progress and failed submissions
  -help
        Show this help message

Examples:
  go run ./cmd/simulate -submissions 2000 -workers 8 -rate 0
  go run ./cmd/simulate -seed 42 -output submissions.json
`)
}
