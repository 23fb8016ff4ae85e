package vcfr

import (
	"context"

	"github.com/lox/cfrsolver/game"
	"github.com/lox/cfrsolver/profile"
	"github.com/lox/cfrsolver/regret"
)

// Trainer runs vector-form CFR over a river betting tree: one VectorEntry
// per history, shared across every hand in the acting player's range,
// instead of one scalar Entry per (hand, history) pair.
type Trainer struct {
	river     *game.River
	cfg       Config
	table     *regret.VectorTable
	heroRange [2][]game.RangeHand
	iteration int
}

// NewTrainer builds a vector trainer over the river's configured ranges.
func NewTrainer(river *game.River, cfg Config) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rcfg := river.Config()
	return &Trainer{
		river:     river,
		cfg:       cfg,
		table:     regret.NewVectorTable(),
		heroRange: rcfg.Ranges,
	}, nil
}

func (t *Trainer) Iteration() int          { return t.iteration }
func (t *Trainer) Table() *regret.VectorTable { return t.table }

// Run drives the configured number of iterations, reporting progress and
// writing checkpoints on the configured cadence.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	for i := t.iteration; i < t.cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		t.runIteration(i + 1)
		t.iteration = i + 1

		if t.cfg.CheckpointEvery > 0 && t.iteration%t.cfg.CheckpointEvery == 0 {
			if err := t.SaveCheckpoint(t.cfg.CheckpointPath); err != nil {
				return err
			}
		}
		if progress != nil && t.cfg.ProgressEvery > 0 && t.iteration%t.cfg.ProgressEvery == 0 {
			progress(Progress{Iteration: t.iteration, TableSize: t.table.Size()})
		}
	}
	if t.cfg.CheckpointEvery > 0 {
		if err := t.SaveCheckpoint(t.cfg.CheckpointPath); err != nil {
			return err
		}
	}
	if progress != nil {
		progress(Progress{Iteration: t.iteration, TableSize: t.table.Size()})
	}
	return nil
}

func baseReach(hands []game.RangeHand) []float64 {
	out := make([]float64, len(hands))
	for i, h := range hands {
		out[i] = h.Weight
	}
	return out
}

func (t *Trainer) runIteration(iteration int) {
	reach0 := baseReach(t.heroRange[0])
	reach1 := baseReach(t.heroRange[1])

	if !t.cfg.Alternating {
		pending := make(map[string][][]float64)
		t.traverse(nil, [2][]float64{reach0, reach1}, 0, iteration, pending)
		t.traverse(nil, [2][]float64{reach0, reach1}, 1, iteration, pending)
		t.flush(pending)
		return
	}
	for player := 0; player < 2; player++ {
		pending := make(map[string][][]float64)
		t.traverse(nil, [2][]float64{reach0, reach1}, player, iteration, pending)
		t.flush(pending)
	}
}

func (t *Trainer) flush(pending map[string][][]float64) {
	entries := t.table.Entries()
	for key, delta := range pending {
		entry, ok := entries[key]
		if !ok {
			continue
		}
		entry.AddRegret(delta, t.cfg.UsePlus)
	}
}

func addDelta(pending map[string][][]float64, key string, delta [][]float64) {
	existing, ok := pending[key]
	if !ok {
		pending[key] = delta
		return
	}
	for h, row := range delta {
		for a, d := range row {
			existing[h][a] += d
		}
	}
}

// traverse walks the betting tree for one (reach0, reach1) pair of range
// vectors, returning updatePlayer's per-hero-hand utility vector. Every
// hero hand shares the same action set at a history, so the strategy and
// regret update happen once per history (via a VectorEntry), not once per
// hand.
func (t *Trainer) traverse(actions []game.Action, reach [2][]float64, updatePlayer int, iteration int, pending map[string][][]float64) []float64 {
	r := t.river

	if r.IsTerminal(actions) {
		return t.terminalUtility(actions, reach, updatePlayer)
	}

	acting := int(r.ActingPlayer(actions))
	legal := r.LegalActions(actions)
	heroHands := t.heroRange[acting]

	key := historyKeyFor(acting, actions)
	entry := t.table.Get(key, len(heroHands), len(legal))
	if t.cfg.UseDCFR {
		entry.ApplyDCFRDecay(iteration, t.cfg.dcfrParams())
	}
	strategy := entry.Strategy()

	numHands := len(t.heroRange[updatePlayer])
	nodeUtil := make([]float64, numHands)
	actionUtils := make([][]float64, len(legal))

	for i, a := range legal {
		nextActions := append(append([]game.Action(nil), actions...), a)
		scaled := make([]float64, len(reach[acting]))
		for h := range scaled {
			scaled[h] = reach[acting][h] * strategy[h][i]
		}
		nextReach := reach
		nextReach[acting] = scaled
		actionUtils[i] = t.traverse(nextActions, nextReach, updatePlayer, iteration, pending)
	}

	if acting != updatePlayer {
		// Opponent node: the parent's utility vector is the plain sum of
		// child utility vectors. Each child's reach vector already carries
		// the opponent's per-hand strategy weight for that branch, so
		// summing (not averaging) over disjoint worlds is correct.
		for _, au := range actionUtils {
			for h := range nodeUtil {
				nodeUtil[h] += au[h]
			}
		}
		return nodeUtil
	}

	// Acting player is the update player: nodeUtil is the strategy-weighted
	// average over actions, one entry per hero hand.
	for i := range legal {
		for h := range nodeUtil {
			nodeUtil[h] += strategy[h][i] * actionUtils[i][h]
		}
	}

	delta := make([][]float64, numHands)
	for h := 0; h < numHands; h++ {
		delta[h] = make([]float64, len(legal))
		for i := range legal {
			delta[h][i] = actionUtils[i][h] - nodeUtil[h]
		}
	}
	addDelta(pending, key, delta)

	weight := reach[acting]
	if t.cfg.LinearWeighting && !t.cfg.UseDCFR {
		scaled := make([]float64, len(weight))
		for h := range scaled {
			scaled[h] = weight[h] * float64(iteration)
		}
		weight = scaled
	}
	entry.AddStrategy(weight, strategy)

	return nodeUtil
}

// terminalUtility returns updatePlayer's per-hand utility vector at a
// terminal history: on a fold, the fold payoff scaled by each hero hand's
// blocked-aware share of the opponent's reach; on a showdown, a showdown
// kernel query reweighted by the opponent's current reach. Both branches
// share the same indexed opponent range so a hero hand's fold and
// showdown values stay blocking-consistent with each other.
func (t *Trainer) terminalUtility(actions []game.Action, reach [2][]float64, updatePlayer int) []float64 {
	r := t.river
	contrib := r.Contributions(actions)
	totalPot := r.TotalPot(actions)
	opp := 1 - updatePlayer

	heroHands := t.heroRange[updatePlayer]
	out := make([]float64, len(heroHands))

	oppRange := reweightRange(t.heroRange[opp], reach[opp])
	idx := BuildShowdown(oppRange)

	if winner := r.FoldWinner(actions); winner >= 0 {
		var payoff float64
		if winner == updatePlayer {
			payoff = float64(totalPot - contrib[updatePlayer])
		} else {
			payoff = float64(-contrib[updatePlayer])
		}
		for h, hand := range heroHands {
			oppMass := idx.UnblockedMass(hand.C1, hand.C2)
			out[h] = payoff * oppMass
		}
		return out
	}

	winPayoff := float64(totalPot - contrib[updatePlayer])
	losePayoff := float64(-contrib[updatePlayer])
	half := float64(totalPot) / 2
	tiePayoff := half - float64(contrib[updatePlayer])

	for h, hand := range heroHands {
		eq := idx.Equity(game.RangeHand{C1: hand.C1, C2: hand.C2, Weight: 1, Strength: hand.Strength})
		out[h] = eq.WinWeight*winPayoff + eq.TieWeight*tiePayoff + eq.LoseWeight*losePayoff
	}
	return out
}

// reweightRange returns a copy of hands with each Weight replaced by the
// corresponding current reach probability, so terminal showdown sums are
// already reach-weighted and need no further multiply by reachOther.
func reweightRange(hands []game.RangeHand, reach []float64) []game.RangeHand {
	out := make([]game.RangeHand, len(hands))
	for i, h := range hands {
		out[i] = h
		out[i].Weight = reach[i]
	}
	return out
}

func historyKeyFor(player int, actions []game.Action) string {
	key := game.HistoryToken(actions)
	if player == 0 {
		return "0|" + key
	}
	return "1|" + key
}

// AverageStrategyProfile snapshots every visited history's average
// strategy matrix into a profile.Vector.
func (t *Trainer) AverageStrategyProfile() profile.Vector {
	out := make(profile.Vector)
	for key, entry := range t.table.Entries() {
		out[key] = entry.AverageStrategy()
	}
	return out
}
