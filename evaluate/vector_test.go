package evaluate

import (
	"math"
	"testing"

	"github.com/lox/cfrsolver/profile"
	"github.com/lox/cfrsolver/subgame"
)

func tinyRiverConfig() subgame.Config {
	return subgame.Config{
		Board:     [5]string{"Ks", "Th", "7s", "4d", "2s"},
		Pot:       100,
		Stack:     500,
		BetSizes:  []float64{1.0},
		MaxRaises: 1,
		Players: [2]subgame.PlayerRange{
			{Hands: []string{"AhAd", "2h2d"}, Weights: []float64{1, 1}},
			{Hands: []string{"QhQd", "JhJd"}, Weights: []float64{1, 1}},
		},
	}
}

func TestBestResponseVectorShapeAndNormalization(t *testing.T) {
	river, err := subgame.Build(tinyRiverConfig())
	if err != nil {
		t.Fatalf("subgame.Build: %v", err)
	}

	prof := profile.Vector{}
	for p := 0; p < 2; p++ {
		values, policy, err := BestResponseVector(river, prof, p)
		if err != nil {
			t.Fatalf("BestResponseVector(player %d): %v", p, err)
		}
		wantHands := len(river.Config().Ranges[p])
		if len(values) != wantHands {
			t.Fatalf("player %d: got %d values, want %d", p, len(values), wantHands)
		}
		for key, rows := range policy {
			for h, row := range rows {
				sum := 0.0
				for _, w := range row {
					sum += w
				}
				if sum != 1.0 {
					t.Fatalf("policy %q hand %d is not one-hot: %v", key, h, row)
				}
			}
		}
	}
}

func TestExploitabilityVectorFiniteAndNonNegative(t *testing.T) {
	river, err := subgame.Build(tinyRiverConfig())
	if err != nil {
		t.Fatalf("subgame.Build: %v", err)
	}
	exp, err := ExploitabilityVector(river, profile.Vector{})
	if err != nil {
		t.Fatalf("ExploitabilityVector: %v", err)
	}
	if math.IsNaN(exp) || math.IsInf(exp, 0) {
		t.Fatalf("expected finite exploitability for the uniform-random profile, got %v", exp)
	}
	if exp < 0 {
		t.Fatalf("expected non-negative exploitability for the uniform-random profile, got %v", exp)
	}
}
