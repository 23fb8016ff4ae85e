package vcfr

import (
	"context"
	"math/rand"
	"strconv"

	"github.com/lox/cfrsolver/cards"
	"github.com/lox/cfrsolver/game"
	"github.com/lox/cfrsolver/profile"
	"github.com/lox/cfrsolver/regret"
)

// MCCFRTrainer runs external-sampling Monte-Carlo CFR over game.River: one
// concrete hole-card deal is sampled per iteration instead of enumerating
// every hand pair, and information sets are keyed per hand
// ("p{player}:{hand}|{history}") rather than shared across a range row the
// way vcfr.Trainer's vector infosets are.
type MCCFRTrainer struct {
	river   *game.River
	cfg     Config
	table   *regret.Table
	rng     *rand.Rand
	rngSeed int64

	tokenIndex [2]map[string]int
	iteration  int
}

// NewMCCFRTrainer builds an external-sampling trainer over the river's
// configured ranges.
func NewMCCFRTrainer(river *game.River, cfg Config) (*MCCFRTrainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	t := &MCCFRTrainer{
		river:   river,
		cfg:     cfg,
		table:   regret.NewTable(),
		rng:     rand.New(rand.NewSource(seed)),
		rngSeed: seed,
	}
	rcfg := river.Config()
	for p := 0; p < 2; p++ {
		t.tokenIndex[p] = make(map[string]int, len(rcfg.Ranges[p]))
		for i, h := range rcfg.Ranges[p] {
			t.tokenIndex[p][h.Token()] = i
		}
	}
	return t, nil
}

func (t *MCCFRTrainer) Iteration() int       { return t.iteration }
func (t *MCCFRTrainer) Table() *regret.Table { return t.table }

// Run executes iterations, each of which samples one hole-card deal and
// runs two target-player traversals against it.
func (t *MCCFRTrainer) Run(ctx context.Context, progress func(Progress)) error {
	for i := t.iteration; i < t.cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		t.runIteration()
		t.iteration++

		if progress != nil && t.cfg.ProgressEvery > 0 && t.iteration%t.cfg.ProgressEvery == 0 {
			progress(Progress{Iteration: t.iteration, TableSize: t.table.Size()})
		}
	}
	if progress != nil {
		progress(Progress{Iteration: t.iteration, TableSize: t.table.Size()})
	}
	return nil
}

func (t *MCCFRTrainer) runIteration() {
	rcfg := t.river.Config()
	h0, h1 := t.sampleDeal(rcfg.Ranges[0], rcfg.Ranges[1])
	for target := 0; target < 2; target++ {
		t.traverse(nil, target, h0, h1, 1.0)
	}
}

// sampleDeal draws one hand per player: player 0's hand weighted by its
// base range weight times the opponent's unblocked range mass (not plain
// range weight — an unweighted draw would over-sample hero hands that
// block a large share of the opponent's range and bias early iterations),
// then player 1's hand from the subset of its range unblocked by the
// sampled player-0 hand.
func (t *MCCFRTrainer) sampleDeal(range0, range1 []game.RangeHand) (int, int) {
	weights0 := make([]float64, len(range0))
	total0 := 0.0
	for i, h := range range0 {
		mass := 0.0
		for _, o := range range1 {
			if !h.Cards().Overlaps(o.Cards()) {
				mass += o.Weight
			}
		}
		weights0[i] = h.Weight * mass
		total0 += weights0[i]
	}
	idx0 := sampleIndex(t.rng, weights0, total0)

	h0 := range0[idx0]
	weights1 := make([]float64, len(range1))
	total1 := 0.0
	for i, o := range range1 {
		if h0.Cards().Overlaps(o.Cards()) {
			continue
		}
		weights1[i] = o.Weight
		total1 += weights1[i]
	}
	idx1 := sampleIndex(t.rng, weights1, total1)
	return idx0, idx1
}

func sampleIndex(rng *rand.Rand, weights []float64, total float64) int {
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	x := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if x < cum {
			return i
		}
	}
	return len(weights) - 1
}

// traverse recurses over the sampled deal: at target's own decisions every
// action is enumerated and that infoset's regret/strategy-sum updated; at
// the opponent's decisions a single action is sampled from its current
// strategy and traversal descends without enumerating alternatives.
func (t *MCCFRTrainer) traverse(actions []game.Action, target, h0, h1 int, reach float64) float64 {
	r := t.river
	if r.IsTerminal(actions) {
		return t.terminalUtility(actions, target, h0, h1)
	}

	acting := int(r.ActingPlayer(actions))
	legal := r.LegalActions(actions)
	hand := t.handFor(acting, h0, h1)
	key := mccfrKey(acting, hand, actions)
	entry := t.table.Get(key, len(legal))
	if t.cfg.UseDCFR {
		entry.ApplyDCFRDecay(t.iteration+1, t.cfg.dcfrParams())
	}
	strategy := entry.Strategy()

	if acting == target {
		actionUtils := make([]float64, len(legal))
		nodeUtil := 0.0
		for i, a := range legal {
			next := append(append([]game.Action(nil), actions...), a)
			actionUtils[i] = t.traverse(next, target, h0, h1, reach*strategy[i])
			nodeUtil += strategy[i] * actionUtils[i]
		}
		delta := make([]float64, len(legal))
		for i := range legal {
			delta[i] = actionUtils[i] - nodeUtil
		}
		entry.AddRegret(delta, t.cfg.UsePlus)

		weight := reach
		if t.cfg.LinearWeighting && !t.cfg.UseDCFR {
			weight *= float64(t.iteration + 1)
		}
		entry.AddStrategy(weight, strategy)
		return nodeUtil
	}

	idx := sampleIndex(t.rng, strategy, 1.0)
	next := append(append([]game.Action(nil), actions...), legal[idx])
	return t.traverse(next, target, h0, h1, reach)
}

func (t *MCCFRTrainer) handFor(player, h0, h1 int) game.RangeHand {
	rcfg := t.river.Config()
	if player == 0 {
		return rcfg.Ranges[0][h0]
	}
	return rcfg.Ranges[1][h1]
}

func mccfrKey(player int, hand game.RangeHand, actions []game.Action) string {
	return "p" + strconv.Itoa(player) + ":" + hand.Token() + "|" + game.HistoryToken(actions)
}

// terminalUtility computes target's utility at a terminal history for the
// concrete sampled deal, the same showdown/fold logic as the scalar river
// game's TerminalUtility but operating on range indices directly rather
// than a game.State.
func (t *MCCFRTrainer) terminalUtility(actions []game.Action, target, h0, h1 int) float64 {
	r := t.river
	rcfg := r.Config()
	contrib := r.Contributions(actions)
	totalPot := r.TotalPot(actions)

	winner := r.FoldWinner(actions)
	if winner < 0 {
		hand0 := rcfg.Ranges[0][h0]
		hand1 := rcfg.Ranges[1][h1]
		s0 := cards.EvaluateSeven(hand0.Cards() | rcfg.Board)
		s1 := cards.EvaluateSeven(hand1.Cards() | rcfg.Board)
		switch {
		case s0 > s1:
			winner = 0
		case s1 > s0:
			winner = 1
		default:
			winner = -1
		}
	}

	var u [2]float64
	switch winner {
	case 0:
		u = [2]float64{float64(totalPot - contrib[0]), float64(-contrib[1])}
	case 1:
		u = [2]float64{float64(-contrib[0]), float64(totalPot - contrib[1])}
	default:
		half := float64(totalPot) / 2
		u = [2]float64{half - float64(contrib[0]), half - float64(contrib[1])}
	}
	return u[target]
}

// AverageStrategyProfile reassembles the per-hand scalar entries into the
// same profile.Vector shape vcfr.Trainer produces (one matrix row per
// range hand, keyed "{player}|{history}"), filling hand rows that were
// never sampled with a uniform distribution.
func (t *MCCFRTrainer) AverageStrategyProfile() profile.Vector {
	rcfg := t.river.Config()

	type group struct {
		player     int
		numActions int
		rows       map[int][]float64
	}
	groups := make(map[string]*group)

	for key, entry := range t.table.Entries() {
		player, hand, history, ok := t.parseKey(key)
		if !ok {
			continue
		}
		gkey := strconv.Itoa(player) + "|" + history
		g, ok := groups[gkey]
		if !ok {
			g = &group{player: player, rows: make(map[int][]float64)}
			groups[gkey] = g
		}
		avg := entry.AverageStrategy()
		g.numActions = len(avg)
		g.rows[hand] = avg
	}

	out := make(profile.Vector, len(groups))
	for gkey, g := range groups {
		numHands := len(rcfg.Ranges[g.player])
		uniform := make([]float64, g.numActions)
		if g.numActions > 0 {
			v := 1.0 / float64(g.numActions)
			for i := range uniform {
				uniform[i] = v
			}
		}
		matrix := make([][]float64, numHands)
		for h := 0; h < numHands; h++ {
			if row, ok := g.rows[h]; ok {
				matrix[h] = row
			} else {
				matrix[h] = append([]float64(nil), uniform...)
			}
		}
		out[gkey] = matrix
	}
	return out
}

// parseKey splits a "p{player}:{hand_token}|{history}" entry key back into
// its player index, hand index (resolved via tokenIndex), and history.
func (t *MCCFRTrainer) parseKey(key string) (player, hand int, history string, ok bool) {
	if len(key) < 2 || key[0] != 'p' {
		return 0, 0, "", false
	}
	player = int(key[1] - '0')
	if player != 0 && player != 1 {
		return 0, 0, "", false
	}
	rest := key[2:]
	if len(rest) < 1 || rest[0] != ':' {
		return 0, 0, "", false
	}
	rest = rest[1:]
	if len(rest) < 4 {
		return 0, 0, "", false
	}
	token := rest[:4]
	rest = rest[4:]
	if len(rest) < 1 || rest[0] != '|' {
		return 0, 0, "", false
	}
	history = rest[1:]
	idx, found := t.tokenIndex[player][token]
	if !found {
		return 0, 0, "", false
	}
	return player, idx, history, true
}
