package vcfr_test

import (
	"context"
	"testing"

	"github.com/lox/cfrsolver/evaluate"
	"github.com/lox/cfrsolver/subgame"
	"github.com/lox/cfrsolver/vcfr"
)

// riverToyConfig is a small river subgame (board Ks Th 7s 4d 2s, pot 1000,
// stacks 9500, bet sizes {0.5, 1.0}, all-in included), scaled down to a
// handful of combos per player so the test runs in milliseconds instead of
// minutes.
func riverToyConfig() subgame.Config {
	return subgame.Config{
		Board:        [5]string{"Ks", "Th", "7s", "4d", "2s"},
		Pot:          1000,
		Stack:        9500,
		BetSizes:     []float64{0.5, 1.0},
		IncludeAllIn: true,
		MaxRaises:    2,
		Players: [2]subgame.PlayerRange{
			{
				Hands:   []string{"AhAd", "KhKd", "QhQd", "9h9d", "5h5d"},
				Weights: []float64{1, 1, 1, 1, 1},
			},
			{
				Hands:   []string{"JhJd", "Th9h", "8h8d", "6h6d", "3h3d"},
				Weights: []float64{1, 1, 1, 1, 1},
			},
		},
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// TestVectorTrainerCFRPlusExploitabilityNonIncreasing checks that
// exploitability as a fraction of pot, sampled at a handful of
// checkpoints, does not meaningfully increase as CFR+ keeps training.
func TestVectorTrainerCFRPlusExploitabilityNonIncreasing(t *testing.T) {
	river, err := subgame.Build(riverToyConfig())
	if err != nil {
		t.Fatalf("subgame.Build: %v", err)
	}

	const finalIteration = 500
	checkpoints := map[int]bool{25: true, 50: true, 125: true, 250: true, finalIteration: true}

	cfg := vcfr.Config{
		Iterations:    finalIteration,
		UsePlus:       true,
		Alternating:   true,
		ProgressEvery: 1,
	}
	trainer, err := vcfr.NewTrainer(river, cfg)
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}

	var series []float64
	reported := make(map[int]bool, len(checkpoints))
	progress := func(p vcfr.Progress) {
		if !checkpoints[p.Iteration] || reported[p.Iteration] {
			return
		}
		reported[p.Iteration] = true
		exp, err := evaluate.ExploitabilityVector(river, trainer.AverageStrategyProfile())
		if err != nil {
			t.Fatalf("ExploitabilityVector at %d: %v", p.Iteration, err)
		}
		series = append(series, exp/river.GameConstant())
	}
	if err := trainer.Run(context.Background(), progress); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(series) != len(checkpoints) {
		t.Fatalf("expected %d checkpoint samples, got %d", len(checkpoints), len(series))
	}
	for i := 1; i < len(series); i++ {
		if series[i] > series[i-1]*1.01 {
			t.Fatalf("exploitability fraction rose beyond 1%% jitter: %v -> %v", series[i-1], series[i])
		}
	}
}

func TestVectorTrainerAverageStrategyProfileRowsSumToOne(t *testing.T) {
	river, err := subgame.Build(riverToyConfig())
	if err != nil {
		t.Fatalf("subgame.Build: %v", err)
	}
	cfg := vcfr.DefaultConfig(100)
	trainer, err := vcfr.NewTrainer(river, cfg)
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for key, matrix := range trainer.AverageStrategyProfile() {
		for h, row := range matrix {
			sum := 0.0
			for _, p := range row {
				if p < 0 {
					t.Fatalf("%s hand %d: negative probability in row %v", key, h, row)
				}
				sum += p
			}
			if abs(sum-1.0) > 1e-9 {
				t.Fatalf("%s hand %d: row does not sum to 1: %v (sum %v)", key, h, row, sum)
			}
		}
	}
}
