// Package subgame deterministically constructs a game.River betting tree
// from a flat, JSON-friendly configuration: board, pot, stacks, bet/raise
// sizings, and per-player hand ranges with weights. Construction is pure
// and validated; a malformed configuration returns an error rather than a
// game that panics partway through a traversal.
package subgame

import (
	"fmt"

	"github.com/lox/cfrsolver/cards"
	"github.com/lox/cfrsolver/game"
)

// PlayerRange is one player's configured hole-card range: parallel lists of
// 4-character hand tokens ("AhKd") and non-negative weights.
type PlayerRange struct {
	Hands   []string  `json:"hands"`
	Weights []float64 `json:"weights"`
}

// Config is the external, JSON-decodable description of a river-only
// subgame, the same shape the GUI range editor and solver driver emit.
type Config struct {
	Board  [5]string `json:"board"`
	Pot    int       `json:"pot"`
	Stack  int       `json:"stack"`
	Stacks [2]int    `json:"stacks,omitempty"` // overrides Stack per player when set

	BetSizes []float64 `json:"bet_sizes"`

	OOPFirstBets   []float64 `json:"oop_first_bets,omitempty"`
	IPFirstBets    []float64 `json:"ip_first_bets,omitempty"`
	OOPFirstRaises []float64 `json:"oop_first_raises,omitempty"`
	IPFirstRaises  []float64 `json:"ip_first_raises,omitempty"`
	OOPNextRaises  []float64 `json:"oop_next_raises,omitempty"`
	IPNextRaises   []float64 `json:"ip_next_raises,omitempty"`

	IncludeAllIn bool `json:"include_all_in"`
	MaxRaises    int  `json:"max_raises"`

	Players [2]PlayerRange `json:"players"`
}

// Build validates cfg and constructs the *game.River it describes.
// Hole cards overlapping the board are dropped; remaining range weights
// are renormalized to sum to 1 per player.
func Build(cfg Config) (*game.River, error) {
	board, err := parseBoard(cfg.Board)
	if err != nil {
		return nil, err
	}
	if cfg.Pot <= 0 {
		return nil, fmt.Errorf("subgame: pot must be > 0, got %d", cfg.Pot)
	}
	stacks, err := resolveStacks(cfg)
	if err != nil {
		return nil, err
	}
	if len(cfg.BetSizes) == 0 {
		return nil, fmt.Errorf("subgame: at least one bet size is required")
	}
	for i, f := range cfg.BetSizes {
		if f <= 0 {
			return nil, fmt.Errorf("subgame: bet_sizes[%d] must be > 0, got %v", i, f)
		}
	}
	if cfg.MaxRaises < 0 {
		return nil, fmt.Errorf("subgame: max_raises cannot be negative")
	}

	var ranges [2][]game.RangeHand
	for p := 0; p < 2; p++ {
		r, err := buildRange(cfg.Players[p], board)
		if err != nil {
			return nil, fmt.Errorf("subgame: player %d range: %w", p, err)
		}
		ranges[p] = r
	}

	rcfg := game.RiverConfig{
		Board:        board,
		Pot:          cfg.Pot,
		Stacks:       stacks,
		BetSizes:     cfg.BetSizes,
		FirstBets:    [2][]float64{cfg.OOPFirstBets, cfg.IPFirstBets},
		FirstRaises:  [2][]float64{cfg.OOPFirstRaises, cfg.IPFirstRaises},
		NextRaises:   [2][]float64{cfg.OOPNextRaises, cfg.IPNextRaises},
		IncludeAllIn: cfg.IncludeAllIn,
		MaxRaises:    cfg.MaxRaises,
		Ranges:       ranges,
	}
	return game.NewRiver(rcfg), nil
}

func resolveStacks(cfg Config) ([2]int, error) {
	stacks := cfg.Stacks
	if stacks == [2]int{} {
		if cfg.Stack <= 0 {
			return [2]int{}, fmt.Errorf("subgame: stack must be > 0, got %d", cfg.Stack)
		}
		stacks = [2]int{cfg.Stack, cfg.Stack}
	}
	for i, s := range stacks {
		if s <= 0 {
			return [2]int{}, fmt.Errorf("subgame: stacks[%d] must be > 0, got %d", i, s)
		}
	}
	return stacks, nil
}

func parseBoard(tokens [5]string) (cards.Hand, error) {
	var board cards.Hand
	seen := make(map[cards.Card]bool, 5)
	for i, tok := range tokens {
		if tok == "" {
			return 0, fmt.Errorf("subgame: board must have exactly 5 cards, slot %d is empty", i)
		}
		c, err := cards.ParseCard(tok)
		if err != nil {
			return 0, fmt.Errorf("subgame: board[%d]: %w", i, err)
		}
		if seen[c] {
			return 0, fmt.Errorf("subgame: board has duplicate card %s", c)
		}
		seen[c] = true
		board = board.Add(c)
	}
	return board, nil
}

func buildRange(cfg PlayerRange, board cards.Hand) ([]game.RangeHand, error) {
	if len(cfg.Hands) == 0 {
		return nil, fmt.Errorf("empty range")
	}
	if len(cfg.Hands) != len(cfg.Weights) {
		return nil, fmt.Errorf("hands and weights length mismatch (%d vs %d)", len(cfg.Hands), len(cfg.Weights))
	}

	total := 0.0
	out := make([]game.RangeHand, 0, len(cfg.Hands))
	for i, tok := range cfg.Hands {
		w := cfg.Weights[i]
		if w < 0 {
			return nil, fmt.Errorf("hand %q has negative weight %v", tok, w)
		}
		if w == 0 {
			continue
		}
		c1, c2, err := cards.ParseHoleCards(tok)
		if err != nil {
			return nil, fmt.Errorf("hand[%d]: %w", i, err)
		}
		hole := cards.NewHand(c1, c2)
		if hole.Overlaps(board) {
			continue // blocked by the board
		}
		strength := cards.EvaluateSeven(hole | board)
		out = append(out, game.RangeHand{C1: c1, C2: c2, Weight: w, Strength: strength})
		total += w
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("range is empty after dropping board-blocked hands")
	}
	if total <= 0 {
		return nil, fmt.Errorf("range weights sum to %v, must be > 0", total)
	}
	for i := range out {
		out[i].Weight /= total
	}
	return out, nil
}
