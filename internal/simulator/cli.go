package simulator

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/jasstafel/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to stdout and to logFile. If logFile is
// empty, a timestamped filename is generated. The returned closer releases
// the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "simulate_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Jasstafel Game Simulator
========================

Plays random Jass games against a running jasstafel service and checks every
reported score against a local recomputation of the round ledger.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -games int
        Number of games to play (default 20)
  -rounds int
        Rounds per game (default 12)
  -workers int
        Number of games played concurrently (default CPU cores)
  -replay int
        Resend every n-th round to check idempotency, 0 disables (default 4)
  -keep
        Leave games open instead of ending them
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for simulator output (default: simulate_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run ./cmd/simulate

  # Many short games against another port
  go run ./cmd/simulate -games 500 -rounds 4 -workers 32 -url http://localhost:8080
`)
}
