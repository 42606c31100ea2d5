package simulator

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/internal/domain/scoring"
	"github.com/okian/jasstafel/pkg/logger"
)

// Constants for round generation. Odds are one in n.
const (
	sweepOdds   = 12
	shutoutOdds = 20
	counterOdds = 3
)

// playableTrumps are enabled by the stock multiplier table.
var playableTrumps = []model.TrumpID{
	model.TrumpMisere, model.TrumpEicheln, model.TrumpRosen,
	model.TrumpSchellen, model.TrumpSchilten, model.TrumpObe, model.TrumpUne,
}

// randInt returns a uniform value in [0, n) using crypto/rand.
func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// generatePlans scripts cfg.Games games of cfg.Rounds rounds each.
func generatePlans(ctx context.Context, cfg *Config, stats *Stats) ([]GamePlan, error) {
	logger.Get().Info(ctx, "generating game plans",
		logger.Int("games", cfg.Games),
		logger.Int("rounds", cfg.Rounds))

	plans := make([]GamePlan, cfg.Games)
	for i := range plans {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during plan generation: %w", err)
		}
		plans[i] = GamePlan{Index: i, Rounds: make([]RoundPlan, cfg.Rounds)}
		for r := range plans[i].Rounds {
			plans[i].Rounds[r] = generateRound()
		}
	}

	stats.GamesPlanned = len(plans)
	return plans, nil
}

// generateRound draws a valid round declaration.
func generateRound() RoundPlan {
	team := model.Teams()[randInt(2)]
	rp := RoundPlan{
		RequestID:   uuid.NewString(),
		CallingTeam: string(team),
		TrumpID:     string(playableTrumps[randInt(len(playableTrumps))]),
	}

	switch {
	case randInt(sweepOdds) == 0:
		rp.IsCleanSweep = true
		rp.DeclaredPoints = 0
		rp.Counter = randInt(counterOdds) == 0
	case randInt(shutoutOdds) == 0:
		rp.DeclaredPoints = 0
	default:
		rp.DeclaredPoints = 1 + randInt(scoring.MaxPoints-1)
	}
	return rp
}
