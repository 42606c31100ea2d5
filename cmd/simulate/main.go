package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/jasstafel/internal/simulator"
)

// Default configuration constants.
const (
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		games   = flag.Int("games", simulator.DefaultGames, "Number of games to play")
		rounds  = flag.Int("rounds", simulator.DefaultRounds, "Rounds per game")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of games played concurrently")
		replay  = flag.Int("replay", simulator.DefaultReplayEvery, "Resend every n-th round to check idempotency (0 disables)")
		keep    = flag.Bool("keep", false, "Leave games open instead of ending them")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for simulator output (default: simulate_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulator.ShowHelp()
		return 0
	}

	// Setup logging
	closer, err := simulator.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closer.Close() }()

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	cfg := &simulator.Config{
		BaseURL:     *baseURL,
		Games:       *games,
		Rounds:      *rounds,
		Workers:     *workers,
		Timeout:     *timeout,
		ReplayEvery: *replay,
		KeepGames:   *keep,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if _, err := simulator.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
