package cfr

import (
	"errors"
	"time"

	"github.com/lox/cfrsolver/regret"
)

// Config selects which CFR variant a Trainer runs and how it checkpoints
// and reports progress. Any combination of UsePlus/LinearWeighting/
// Alternating/UseDCFR is valid; UseDCFR always wins over LinearWeighting
// when both are set.
type Config struct {
	Iterations      int
	Seed            int64
	UsePlus         bool
	LinearWeighting bool
	Alternating     bool
	UseDCFR         bool
	DCFRAlpha       float64
	DCFRBeta        float64
	DCFRGamma       float64
	ProgressEvery   int
	CheckpointEvery int
	CheckpointPath  string
}

// Validate ensures the configuration is well-formed before training begins.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return errors.New("iterations must be > 0")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval cannot be negative")
	}
	if c.CheckpointEvery < 0 {
		return errors.New("checkpoint interval cannot be negative")
	}
	if c.CheckpointEvery > 0 && c.CheckpointPath == "" {
		return errors.New("checkpoint path required when checkpoint interval is set")
	}
	if c.UseDCFR {
		if c.DCFRAlpha < 0 || c.DCFRBeta < 0 || c.DCFRGamma < 0 {
			return errors.New("DCFR exponents cannot be negative")
		}
	}
	return nil
}

func (c Config) dcfrParams() regret.DCFRParams {
	if c.DCFRAlpha == 0 && c.DCFRBeta == 0 && c.DCFRGamma == 0 {
		return regret.DefaultDCFRParams()
	}
	return regret.DCFRParams{Alpha: c.DCFRAlpha, Beta: c.DCFRBeta, Gamma: c.DCFRGamma}
}

// DefaultConfig returns discounted CFR with alternating updates, a
// reasonable default for new subgames.
func DefaultConfig(iterations int) Config {
	return Config{
		Iterations:      iterations,
		Seed:            1,
		UsePlus:         false,
		Alternating:     true,
		UseDCFR:         true,
		DCFRAlpha:       1.5,
		DCFRGamma:       2.0,
		ProgressEvery:   0,
		CheckpointEvery: 0,
	}
}

// Progress is reported to a Trainer.Run callback at ProgressEvery cadence.
type Progress struct {
	Iteration int
	TableSize int
	Elapsed   time.Duration
}
