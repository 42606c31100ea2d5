package simulator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/session"
	"github.com/okian/jasstafel/pkg/logger"
)

// ErrVerification is returned when at least one game failed verification.
var ErrVerification = errors.New("verification failed")

// Run executes a complete simulation and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting jasstafel simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("games", cfg.Games),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Int("replayEvery", cfg.ReplayEvery),
		logger.Any("verbose", cfg.Verbose))

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Script the games
	plans, err := generatePlans(ctx, cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("plan generation failed: %w", err)
	}

	// Step 3: Play them concurrently
	results := playGames(ctx, cfg, client, plans)

	// Step 4: Verify every game
	failed := 0
	for i := range results {
		res := &results[i]
		stats.RoundsDuplicate += res.Duplicates
		if res.Err == nil {
			stats.GamesPlayed++
			stats.RoundsSubmitted += len(res.Plan.Rounds)
			res.Err = verifyGame(res)
		}
		if res.Synced.GameID != "" {
			stats.SnapshotsChecked++
		}
		if res.Err != nil {
			failed++
			log.Error(ctx, "game failed",
				logger.Int("game", res.Plan.Index),
				logger.String("game_id", res.GameID),
				logger.Error(res.Err))
			continue
		}
		stats.GamesVerified++
		if cfg.Verbose {
			log.Info(ctx, "game verified",
				logger.String("game_id", res.GameID),
				logger.Int("top", res.View.Aggregate.Scores.Top),
				logger.Int("bottom", res.View.Aggregate.Scores.Bottom))
		}
	}
	stats.GamesFailed = failed

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d games", ErrVerification, failed, len(results))
	}
	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")
	if _, err := client.Do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// playGames runs plans on cfg.Workers goroutines. Results keep plan order.
func playGames(ctx context.Context, cfg *Config, client *HTTPClient, plans []GamePlan) []GameResult {
	results := make([]GameResult, len(plans))
	workers := max(min(cfg.Workers, len(plans)), 1)

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = playGame(ctx, cfg, client, plans[i])
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range plans {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	for i := range results {
		if results[i].Plan.Rounds == nil {
			results[i] = GameResult{Plan: plans[i], Err: fmt.Errorf("not played: %w", context.Cause(ctx))}
		}
	}
	return results
}

// playGame creates a game, submits every planned round and reads back the
// final view and the persisted snapshot.
func playGame(ctx context.Context, cfg *Config, client *HTTPClient, plan GamePlan) GameResult {
	res := GameResult{Plan: plan}

	var created session.View
	if _, err := client.Do(ctx, http.MethodPost, "/games", nil, &created, http.StatusCreated); err != nil {
		res.Err = fmt.Errorf("create game: %w", err)
		return res
	}
	res.GameID = created.GameID
	base := "/games/" + res.GameID

	for i, rp := range plan.Rounds {
		var reply roundReply
		if _, err := client.Do(ctx, http.MethodPost, base+"/rounds", rp, &reply, http.StatusCreated); err != nil {
			res.Err = fmt.Errorf("round %d: %w", i, err)
			return res
		}
		if cfg.ReplayEvery > 0 && (i+1)%cfg.ReplayEvery == 0 {
			if _, err := client.Do(ctx, http.MethodPost, base+"/rounds", rp, &reply, http.StatusOK); err != nil {
				res.Err = fmt.Errorf("replay round %d: %w", i, err)
				return res
			}
			if !reply.Duplicate {
				res.Err = fmt.Errorf("replay round %d: not reported as duplicate", i)
				return res
			}
			res.Duplicates++
		}
	}

	if _, err := client.Do(ctx, http.MethodGet, base, nil, &res.View, http.StatusOK); err != nil {
		res.Err = fmt.Errorf("view game: %w", err)
		return res
	}
	if !cfg.KeepGames {
		if _, err := client.Do(ctx, http.MethodPost, base+"/end", nil, nil, http.StatusOK); err != nil {
			res.Err = fmt.Errorf("end game: %w", err)
			return res
		}
	}

	res.Synced, res.Err = awaitSynced(ctx, client, base, res.View.Aggregate.Rounds, !cfg.KeepGames)
	return res
}

// awaitSynced polls the persisted snapshot until it covers rounds.
func awaitSynced(ctx context.Context, client *HTTPClient, base string, rounds int, ended bool) (snap model.Snapshot, err error) {
	deadline := time.Now().Add(SyncWait)
	for {
		snap = model.Snapshot{}
		_, err = client.Do(ctx, http.MethodGet, base+"/synced", nil, &snap, http.StatusOK, http.StatusNotFound)
		if err != nil {
			return snap, fmt.Errorf("synced snapshot: %w", err)
		}
		if snap.Aggregate.Rounds == rounds && (!ended || snap.State == string(session.StateEnded)) {
			return snap, nil
		}
		if time.Now().After(deadline) {
			return snap, fmt.Errorf("synced snapshot still at %d rounds after %s", snap.Aggregate.Rounds, SyncWait)
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-time.After(syncPollInterval):
		}
	}
}

// displayFinalStats logs the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var verifiedRate, roundsPerSecond float64
	if stats.GamesPlanned > 0 {
		verifiedRate = float64(stats.GamesVerified) / float64(stats.GamesPlanned) * percentage
	}
	if stats.Duration > 0 {
		roundsPerSecond = float64(stats.RoundsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("gamesPlanned", stats.GamesPlanned),
		logger.Int("gamesPlayed", stats.GamesPlayed),
		logger.Int("gamesVerified", stats.GamesVerified),
		logger.Int("gamesFailed", stats.GamesFailed),
		logger.Int("roundsSubmitted", stats.RoundsSubmitted),
		logger.Int("roundsDuplicate", stats.RoundsDuplicate),
		logger.Int("snapshotsChecked", stats.SnapshotsChecked),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("verifiedRate", verifiedRate),
		logger.Float64("roundsPerSecond", roundsPerSecond))
}
