package fictplay

import (
	"context"
	"time"

	"github.com/lox/cfrsolver/evaluate"
	"github.com/lox/cfrsolver/game"
	"github.com/lox/cfrsolver/profile"
)

// Trainer runs fictitious play over a scalar (per-deal) game.Game. One
// Trainer owns exactly one game instance and one accumulated strategy sum,
// mirroring cfr.Trainer's one-table-per-instance contract.
type Trainer struct {
	game game.Game
	cfg  Config

	sum        profile.Scalar    // joint, both players' infosets share one map
	lastPolicy [2]profile.Scalar // each player's most recent best-response policy
	lastWeight float64
	iteration  int
}

// NewTrainer constructs a fictitious-play trainer over g.
func NewTrainer(g game.Game, cfg Config) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Trainer{
		game: g,
		cfg:  cfg,
		sum:  make(profile.Scalar),
	}, nil
}

func (t *Trainer) Iteration() int { return t.iteration }

// Run executes iterations, reporting progress at the configured cadence.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	for i := t.iteration; i < t.cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		start := time.Now()
		t.runIteration()
		t.iteration++

		if progress != nil && t.cfg.ProgressEvery > 0 && t.iteration%t.cfg.ProgressEvery == 0 {
			progress(Progress{Iteration: t.iteration, Elapsed: time.Since(start)})
		}
	}
	if progress != nil {
		progress(Progress{Iteration: t.iteration})
	}
	return nil
}

func (t *Trainer) runIteration() {
	weight := 1.0
	if t.cfg.LinearWeighting {
		weight = float64(t.iteration + 1)
	}

	if !t.cfg.Alternating {
		avg := t.averageProfile()
		for p := 0; p < 2; p++ {
			eff := avg
			if t.cfg.Optimistic && t.iteration > 0 {
				eff = t.foldLastIterate(avg, 1-p)
			}
			_, policy := evaluate.BestResponseScalar(t.game, eff, p)
			t.addToSum(policy, weight)
			t.lastPolicy[p] = policy
		}
		t.lastWeight = weight
		return
	}

	for p := 0; p < 2; p++ {
		avg := t.averageProfile()
		if t.cfg.Optimistic && t.iteration > 0 {
			avg = t.foldLastIterate(avg, 1-p)
		}
		_, policy := evaluate.BestResponseScalar(t.game, avg, p)
		t.addToSum(policy, weight)
		t.lastPolicy[p] = policy
	}
	t.lastWeight = weight
}

// averageProfile normalizes the accumulated strategy sum into a strategy
// profile, one row per visited infoset.
func (t *Trainer) averageProfile() profile.Scalar {
	out := make(profile.Scalar, len(t.sum))
	for key, row := range t.sum {
		out[key] = normalizeRow(row)
	}
	return out
}

// foldLastIterate folds opponent's last-assigned-weight best response into
// a copy of avg before this iteration's best-response step (the
// "optimistic" variant). Per the resolved open question, the weight used
// is the literal last-assigned weight (t.lastWeight), not a recomputed
// look-ahead weight for the step about to happen.
func (t *Trainer) foldLastIterate(avg profile.Scalar, opponent int) profile.Scalar {
	eff := make(map[string][]float64, len(t.sum))
	for key, row := range t.sum {
		eff[key] = append([]float64(nil), row...)
	}
	for key, row := range t.lastPolicy[opponent] {
		existing, ok := eff[key]
		if !ok {
			existing = make([]float64, len(row))
			eff[key] = existing
		}
		for i := range row {
			existing[i] += t.lastWeight * row[i]
		}
	}
	out := make(profile.Scalar, len(eff))
	for key, row := range eff {
		out[key] = normalizeRow(row)
	}
	return out
}

func (t *Trainer) addToSum(policy profile.Scalar, weight float64) {
	for key, row := range policy {
		existing, ok := t.sum[key]
		if !ok {
			existing = make([]float64, len(row))
			t.sum[key] = existing
		}
		for i, p := range row {
			existing[i] += weight * p
		}
	}
}

func normalizeRow(row []float64) []float64 {
	total := 0.0
	for _, v := range row {
		total += v
	}
	out := make([]float64, len(row))
	if total <= 0 {
		v := 1.0 / float64(len(row))
		for i := range out {
			out[i] = v
		}
		return out
	}
	for i, v := range row {
		out[i] = v / total
	}
	return out
}

// AverageStrategyProfile returns the accumulated average strategy, the
// profile reported for convergence/exploitability checks.
func (t *Trainer) AverageStrategyProfile() profile.Scalar {
	return t.averageProfile()
}
