package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/wastewise/internal/simulate"
	"github.com/okian/wastewise/pkg/logger"
)

const (
	defaultSubmissions = 500
	defaultWorkers     = 4
	defaultRate        = 50
	defaultTimeout     = 10 * time.Second
	defaultRetries     = 2
	defaultReplayEvery = 10
	runTimeout         = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL of the service")
		submissions = flag.Int("submissions", defaultSubmissions, "Number of submissions to generate")
		workers     = flag.Int("workers", defaultWorkers, "Number of concurrent submitters")
		rps         = flag.Float64("rate", defaultRate, "Submissions per second, 0 is unlimited")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		retries     = flag.Int("retries", defaultRetries, "Retries per request")
		seed        = flag.Uint64("seed", 0, "Generator seed, 0 picks a random one")
		replayEvery = flag.Int("replay-every", defaultReplayEvery, "Resend every Nth submission with the same key")
		outputFile  = flag.String("output", "", "Optional JSON file for the generated submissions")
		logFile     = flag.String("log", "", "Log file (default: simulate_TIMESTAMP.log)")
		logFormat   = flag.String("log-format", "text", "Log format: text or json")
		verbose     = flag.Bool("verbose", false, "Log progress and failed submissions")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	closer, err := simulate.SetupLogging(*logFile, *logFormat)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:     *baseURL,
		Submissions: *submissions,
		Workers:     *workers,
		Rate:        *rps,
		Timeout:     *timeout,
		RetryMax:    *retries,
		Seed:        *seed,
		ReplayEvery: *replayEvery,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}
	if _, err := simulate.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}
