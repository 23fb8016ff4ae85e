package vcfr_test

import (
	"context"
	"testing"

	"github.com/lox/cfrsolver/evaluate"
	"github.com/lox/cfrsolver/subgame"
	"github.com/lox/cfrsolver/vcfr"
)

// TestMCCFRTrainerRiverLowExploitability runs external-sampling MCCFR on a
// river subgame: after enough sampled iterations exploitability should
// fall to a small fraction of the pot.
func TestMCCFRTrainerRiverLowExploitability(t *testing.T) {
	river, err := subgame.Build(riverToyConfig())
	if err != nil {
		t.Fatalf("subgame.Build: %v", err)
	}

	cfg := vcfr.Config{
		Iterations:  4000,
		Seed:        7,
		UsePlus:     true,
		Alternating: true,
	}
	trainer, err := vcfr.NewMCCFRTrainer(river, cfg)
	if err != nil {
		t.Fatalf("NewMCCFRTrainer: %v", err)
	}
	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	exp, err := evaluate.ExploitabilityVector(river, trainer.AverageStrategyProfile())
	if err != nil {
		t.Fatalf("ExploitabilityVector: %v", err)
	}
	if frac := exp / river.GameConstant(); frac > 0.2 {
		t.Fatalf("expected exploitability under 20%% of pot after 4000 MCCFR iterations, got %v (%.1f%% of pot)", exp, 100*frac)
	}
}

// TestMCCFRTrainerAverageStrategyProfileFillsUnvisitedHandsUniform checks
// that hand rows never sampled at a visited history still come back as a
// valid (uniform) distribution rather than all-zero.
func TestMCCFRTrainerAverageStrategyProfileFillsUnvisitedHandsUniform(t *testing.T) {
	river, err := subgame.Build(riverToyConfig())
	if err != nil {
		t.Fatalf("subgame.Build: %v", err)
	}
	cfg := vcfr.Config{Iterations: 50, Seed: 3}
	trainer, err := vcfr.NewMCCFRTrainer(river, cfg)
	if err != nil {
		t.Fatalf("NewMCCFRTrainer: %v", err)
	}
	if err := trainer.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for key, matrix := range trainer.AverageStrategyProfile() {
		for h, row := range matrix {
			sum := 0.0
			for _, p := range row {
				if p < 0 {
					t.Fatalf("%s hand %d: negative probability %v", key, h, row)
				}
				sum += p
			}
			if abs(sum-1.0) > 1e-9 {
				t.Fatalf("%s hand %d: row does not sum to 1: %v (sum %v)", key, h, row, sum)
			}
		}
	}
}
