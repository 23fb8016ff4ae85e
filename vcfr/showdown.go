// Package vcfr implements vector-form CFR and external-sampling MCCFR over
// game.River: trainers that operate on an entire weighted hand range per
// node instead of one hole-card deal at a time, plus the showdown kernel
// that makes range-vs-range evaluation fast enough to be practical.
package vcfr

import (
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lox/cfrsolver/cards"
	"github.com/lox/cfrsolver/game"
)

// HandEquity is one hero hand's aggregate result against an opponent's
// weighted range: how much of the opponent's probability mass is beaten,
// tied, and lost to, with card-blocked combos excluded.
type HandEquity struct {
	WinWeight  float64
	TieWeight  float64
	LoseWeight float64
}

// strengthIndex supports weight-below/equal/above-a-strength queries in
// O(log n) after an O(n log n) sort, over a fixed set of (strength,
// weight) pairs.
type strengthIndex struct {
	strengths []cards.Strength
	prefix    []float64 // len(strengths)+1; prefix[i] = total weight of strengths[:i]
}

func buildStrengthIndex(hands []game.RangeHand) strengthIndex {
	sorted := append([]game.RangeHand(nil), hands...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Strength < sorted[j].Strength })

	idx := strengthIndex{
		strengths: make([]cards.Strength, len(sorted)),
		prefix:    make([]float64, len(sorted)+1),
	}
	for i, h := range sorted {
		idx.strengths[i] = h.Strength
		idx.prefix[i+1] = idx.prefix[i] + h.Weight
	}
	return idx
}

func (idx strengthIndex) total() float64 {
	return idx.prefix[len(idx.prefix)-1]
}

func (idx strengthIndex) weightBelow(s cards.Strength) float64 {
	i := sort.Search(len(idx.strengths), func(i int) bool { return idx.strengths[i] >= s })
	return idx.prefix[i]
}

func (idx strengthIndex) weightAtMost(s cards.Strength) float64 {
	i := sort.Search(len(idx.strengths), func(i int) bool { return idx.strengths[i] > s })
	return idx.prefix[i]
}

func (idx strengthIndex) weightEqual(s cards.Strength) float64 {
	return idx.weightAtMost(s) - idx.weightBelow(s)
}

func (idx strengthIndex) weightAbove(s cards.Strength) float64 {
	return idx.total() - idx.weightAtMost(s)
}

type comboEntry struct {
	strength cards.Strength
	weight   float64
}

// Showdown precomputes an opponent range for fast range-vs-hand equity
// queries: a global strength index, a per-card strength index over only
// the combos blocked by that card, and an exact-combo map to correct for
// combos counted twice when a hero hand blocks via both of its cards.
type Showdown struct {
	global  strengthIndex
	perCard map[cards.Card]strengthIndex
	combos  map[uint16]comboEntry
}

func comboKey(c1, c2 cards.Card) uint16 {
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	return uint16(c1)*52 + uint16(c2)
}

// BuildShowdown indexes an opponent range once; the result is reused for
// every hero hand's equity query and across iterations as long as the
// range and board don't change.
func BuildShowdown(oppRange []game.RangeHand) *Showdown {
	s := &Showdown{
		global:  buildStrengthIndex(oppRange),
		perCard: make(map[cards.Card]strengthIndex),
		combos:  make(map[uint16]comboEntry),
	}

	byCard := make(map[cards.Card][]game.RangeHand)
	for _, h := range oppRange {
		byCard[h.C1] = append(byCard[h.C1], h)
		byCard[h.C2] = append(byCard[h.C2], h)
		s.combos[comboKey(h.C1, h.C2)] = comboEntry{strength: h.Strength, weight: h.Weight}
	}
	for c, hands := range byCard {
		s.perCard[c] = buildStrengthIndex(hands)
	}
	return s
}

// Equity returns hero's weighted win/tie/lose mass against the indexed
// opponent range, with combos that share a card with hero excluded.
func (s *Showdown) Equity(hero game.RangeHand) HandEquity {
	below := s.global.weightBelow(hero.Strength)
	equal := s.global.weightEqual(hero.Strength)
	above := s.global.weightAbove(hero.Strength)

	for _, c := range [2]cards.Card{hero.C1, hero.C2} {
		if idx, ok := s.perCard[c]; ok {
			below -= idx.weightBelow(hero.Strength)
			equal -= idx.weightEqual(hero.Strength)
			above -= idx.weightAbove(hero.Strength)
		}
	}

	// The exact combo {hero.C1, hero.C2}, if present in the opponent's
	// range, was subtracted twice above (once per blocking card); add it
	// back once.
	if combo, ok := s.combos[comboKey(hero.C1, hero.C2)]; ok {
		switch {
		case combo.strength < hero.Strength:
			below += combo.weight
		case combo.strength > hero.Strength:
			above += combo.weight
		default:
			equal += combo.weight
		}
	}

	return HandEquity{WinWeight: below, TieWeight: equal, LoseWeight: above}
}

// UnblockedMass returns the opponent range's total weight excluding combos
// that share a card with a hero hand holding (c1, c2) — the denominator a
// fold-terminal payoff must be scaled by so it stays consistent with the
// blocked-aware showdown branch for the same hero hand.
func (s *Showdown) UnblockedMass(c1, c2 cards.Card) float64 {
	total := s.global.total()
	if idx, ok := s.perCard[c1]; ok {
		total -= idx.total()
	}
	if idx, ok := s.perCard[c2]; ok {
		total -= idx.total()
	}
	// The exact combo {c1, c2}, if present in the opponent's range, was
	// subtracted twice above (once per blocking card); add it back once.
	if combo, ok := s.combos[comboKey(c1, c2)]; ok {
		total += combo.weight
	}
	return total
}

// EquityAll computes Equity for every hand in heroRange, fanned out across
// GOMAXPROCS workers using a plain chunked worker-pool pattern.
func (s *Showdown) EquityAll(heroRange []game.RangeHand) ([]HandEquity, error) {
	out := make([]HandEquity, len(heroRange))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(heroRange) {
		workers = len(heroRange)
	}
	if workers <= 1 {
		for i, h := range heroRange {
			out[i] = s.Equity(h)
		}
		return out, nil
	}

	chunk := (len(heroRange) + workers - 1) / workers
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if lo >= len(heroRange) {
			break
		}
		if hi > len(heroRange) {
			hi = len(heroRange)
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				out[i] = s.Equity(heroRange[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
