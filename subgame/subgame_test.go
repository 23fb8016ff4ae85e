package subgame

import "testing"

func validConfig() Config {
	return Config{
		Board:    [5]string{"Ks", "Th", "7s", "4d", "2s"},
		Pot:      1000,
		Stack:    9500,
		BetSizes: []float64{0.5, 1.0},
		MaxRaises: 3,
		Players: [2]PlayerRange{
			{Hands: []string{"AhAd", "KhKd", "2h2d"}, Weights: []float64{1, 1, 1}},
			{Hands: []string{"QhQd", "JhJd", "KsKd"}, Weights: []float64{1, 1, 1}},
		},
	}
}

func TestBuildValidConfig(t *testing.T) {
	cfg := validConfig()
	r, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rcfg := r.Config()

	// KsKd overlaps the board's Ks and must be dropped.
	if len(rcfg.Ranges[1]) != 2 {
		t.Fatalf("expected 2 surviving hands in player 1's range, got %d", len(rcfg.Ranges[1]))
	}

	for p, rng := range rcfg.Ranges {
		total := 0.0
		for _, h := range rng {
			total += h.Weight
		}
		if total < 0.999 || total > 1.001 {
			t.Fatalf("player %d range weights do not sum to 1: %v", p, total)
		}
	}
}

func TestBuildRejectsEmptyRange(t *testing.T) {
	cfg := validConfig()
	cfg.Players[0] = PlayerRange{Hands: []string{"KsQs"}, Weights: []float64{1}} // overlaps board's Ks
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for range emptied by board overlap")
	}
}

func TestBuildRejectsDuplicateBoardCard(t *testing.T) {
	cfg := validConfig()
	cfg.Board[1] = "Ks"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for duplicate board card")
	}
}

func TestBuildRejectsNonPositivePot(t *testing.T) {
	cfg := validConfig()
	cfg.Pot = 0
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for non-positive pot")
	}
}

func TestBuildRejectsMismatchedWeights(t *testing.T) {
	cfg := validConfig()
	cfg.Players[0].Weights = []float64{1, 1}
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error for mismatched hands/weights length")
	}
}
