// Package cfr implements the scalar (per-deal) CFR family: vanilla CFR,
// CFR+, linear-weighted CFR, discounted CFR, and alternating updates, in
// any combination, over a game.Game.
package cfr

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/lox/cfrsolver/game"
	"github.com/lox/cfrsolver/profile"
	"github.com/lox/cfrsolver/regret"
)

// Trainer orchestrates CFR iterations over a single game instance. One
// Trainer owns exactly one regret.Table and one game.Game.
type Trainer struct {
	cfg       Config
	game      game.Game
	table     *regret.Table
	iteration atomic.Int64
	rng       *rand.Rand
	rngSeed   int64
}

// NewTrainer constructs a trainer for g using the given configuration.
func NewTrainer(g game.Game, cfg Config) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	return &Trainer{
		cfg:     cfg,
		game:    g,
		table:   regret.NewTable(),
		rng:     rand.New(rand.NewSource(seed)),
		rngSeed: seed,
	}, nil
}

// Run executes iterations, invoking progress at the configured cadence and
// writing checkpoints if configured. It returns early if ctx is canceled.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	batch := t.cfg.ProgressEvery

	for i := int(t.iteration.Load()); i < t.cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		t.runIteration(i + 1)
		elapsed := time.Since(start)
		iter := int(t.iteration.Add(1))

		if t.cfg.CheckpointEvery > 0 && iter%t.cfg.CheckpointEvery == 0 {
			if err := t.SaveCheckpoint(t.cfg.CheckpointPath); err != nil {
				return err
			}
		}
		if progress != nil && batch > 0 && iter%batch == 0 {
			progress(Progress{Iteration: iter, TableSize: t.table.Size(), Elapsed: elapsed})
		}
	}

	if progress != nil {
		progress(Progress{Iteration: int(t.iteration.Load()), TableSize: t.table.Size()})
	}
	if t.cfg.CheckpointEvery > 0 {
		if err := t.SaveCheckpoint(t.cfg.CheckpointPath); err != nil {
			return err
		}
	}
	return nil
}

// Iteration reports how many iterations have completed.
func (t *Trainer) Iteration() int { return int(t.iteration.Load()) }

// Table exposes the underlying regret table, mainly for inspection in tests.
func (t *Trainer) Table() *regret.Table { return t.table }

func (t *Trainer) runIteration(iteration int) {
	root := t.game.InitialState()

	if !t.cfg.Alternating {
		pending := make(map[string][]float64)
		t.traverse(root, 0, 1, 1, iteration, pending)
		t.traverse(root, 1, 1, 1, iteration, pending)
		t.flush(pending)
		return
	}

	for player := 0; player < 2; player++ {
		pending := make(map[string][]float64)
		t.traverse(root, player, 1, 1, iteration, pending)
		t.flush(pending)
	}
}

func (t *Trainer) flush(pending map[string][]float64) {
	for key, delta := range pending {
		entry := t.table.Get(key, len(delta))
		entry.AddRegret(delta, t.cfg.UsePlus)
	}
}

// traverse recurses over the game tree, updating updatePlayer's regrets
// and strategy sum. reachUpdate is the probability updatePlayer plays to
// reach state; reachOther is the probability everyone else (including
// chance) plays to reach it.
func (t *Trainer) traverse(state game.State, updatePlayer int, reachUpdate, reachOther float64, iteration int, pending map[string][]float64) float64 {
	if state.IsTerminal() {
		return state.TerminalUtility(updatePlayer)
	}

	if state.CurrentPlayer() == game.Chance {
		util := 0.0
		for _, outcome := range state.ChanceOutcomes() {
			util += outcome.Prob * t.traverse(outcome.State, updatePlayer, reachUpdate, reachOther*outcome.Prob, iteration, pending)
		}
		return util
	}

	player := int(state.CurrentPlayer())
	actions := state.LegalActions()
	key := state.InfoSetKey(player)
	entry := t.table.Get(key, len(actions))
	if t.cfg.UseDCFR {
		entry.ApplyDCFRDecay(iteration, t.cfg.dcfrParams())
	}
	strategy := entry.Strategy()

	actionUtils := make([]float64, len(actions))
	nodeUtil := 0.0
	for i, a := range actions {
		next := state.Next(a)
		if player == updatePlayer {
			actionUtils[i] = t.traverse(next, updatePlayer, reachUpdate*strategy[i], reachOther, iteration, pending)
		} else {
			actionUtils[i] = t.traverse(next, updatePlayer, reachUpdate, reachOther*strategy[i], iteration, pending)
		}
		nodeUtil += strategy[i] * actionUtils[i]
	}

	if player != updatePlayer {
		return nodeUtil
	}

	delta := make([]float64, len(actions))
	for i := range actions {
		delta[i] = (actionUtils[i] - nodeUtil) * reachOther
	}
	if cur, ok := pending[key]; ok {
		for i, d := range delta {
			cur[i] += d
		}
	} else {
		pending[key] = delta
	}

	weight := reachUpdate
	if t.cfg.LinearWeighting && !t.cfg.UseDCFR {
		weight *= float64(iteration)
	}
	entry.AddStrategy(weight, strategy)

	return nodeUtil
}

// AverageStrategyProfile snapshots the average strategy for every visited
// information set.
func (t *Trainer) AverageStrategyProfile() profile.Scalar {
	entries := t.table.Entries()
	out := make(profile.Scalar, len(entries))
	for key, entry := range entries {
		out[key] = entry.AverageStrategy()
	}
	return out
}
