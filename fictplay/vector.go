package fictplay

import (
	"context"
	"time"

	"github.com/lox/cfrsolver/evaluate"
	"github.com/lox/cfrsolver/game"
	"github.com/lox/cfrsolver/profile"
)

// VectorTrainer runs fictitious play over a game.River using the vector
// (range) best-response form: each history's strategy sum is a matrix,
// one row per hero hand, accumulated the same way vcfr.Trainer accumulates
// its average strategy.
type VectorTrainer struct {
	river *game.River
	cfg   Config

	sum        profile.Vector
	lastPolicy [2]profile.Vector
	lastWeight float64
	iteration  int
}

// NewVectorTrainer constructs a fictitious-play trainer over river.
func NewVectorTrainer(river *game.River, cfg Config) (*VectorTrainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &VectorTrainer{
		river: river,
		cfg:   cfg,
		sum:   make(profile.Vector),
	}, nil
}

func (t *VectorTrainer) Iteration() int { return t.iteration }

// Run executes iterations, reporting progress at the configured cadence.
func (t *VectorTrainer) Run(ctx context.Context, progress func(Progress)) error {
	for i := t.iteration; i < t.cfg.Iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		start := time.Now()
		if err := t.runIteration(); err != nil {
			return err
		}
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

func (t *VectorTrainer) runIteration() error {
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
			_, policy, err := evaluate.BestResponseVector(t.river, eff, p)
			if err != nil {
				return err
			}
			t.addToSum(policy, weight)
			t.lastPolicy[p] = policy
		}
		t.lastWeight = weight
		return nil
	}

	for p := 0; p < 2; p++ {
		avg := t.averageProfile()
		if t.cfg.Optimistic && t.iteration > 0 {
			avg = t.foldLastIterate(avg, 1-p)
		}
		_, policy, err := evaluate.BestResponseVector(t.river, avg, p)
		if err != nil {
			return err
		}
		t.addToSum(policy, weight)
		t.lastPolicy[p] = policy
	}
	t.lastWeight = weight
	return nil
}

func (t *VectorTrainer) averageProfile() profile.Vector {
	out := make(profile.Vector, len(t.sum))
	for key, matrix := range t.sum {
		rows := make([][]float64, len(matrix))
		for h, row := range matrix {
			rows[h] = normalizeRow(row)
		}
		out[key] = rows
	}
	return out
}

func (t *VectorTrainer) foldLastIterate(avg profile.Vector, opponent int) profile.Vector {
	eff := make(map[string][][]float64, len(t.sum))
	for key, matrix := range t.sum {
		rows := make([][]float64, len(matrix))
		for h, row := range matrix {
			rows[h] = append([]float64(nil), row...)
		}
		eff[key] = rows
	}
	for key, matrix := range t.lastPolicy[opponent] {
		existing, ok := eff[key]
		if !ok {
			existing = make([][]float64, len(matrix))
			for h, row := range matrix {
				existing[h] = make([]float64, len(row))
			}
			eff[key] = existing
		}
		for h, row := range matrix {
			for i, p := range row {
				existing[h][i] += t.lastWeight * p
			}
		}
	}
	out := make(profile.Vector, len(eff))
	for key, matrix := range eff {
		rows := make([][]float64, len(matrix))
		for h, row := range matrix {
			rows[h] = normalizeRow(row)
		}
		out[key] = rows
	}
	return out
}

func (t *VectorTrainer) addToSum(policy profile.Vector, weight float64) {
	for key, matrix := range policy {
		existing, ok := t.sum[key]
		if !ok {
			existing = make([][]float64, len(matrix))
			for h, row := range matrix {
				existing[h] = make([]float64, len(row))
			}
			t.sum[key] = existing
		}
		for h, row := range matrix {
			for i, p := range row {
				existing[h][i] += weight * p
			}
		}
	}
}

// AverageStrategyProfile returns the accumulated average strategy.
func (t *VectorTrainer) AverageStrategyProfile() profile.Vector {
	return t.averageProfile()
}
