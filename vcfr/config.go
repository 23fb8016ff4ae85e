package vcfr

import (
	"errors"

	"github.com/lox/cfrsolver/regret"
)

// Config mirrors cfr.Config's variant selection, for the vector and
// external-sampling trainers.
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

// DefaultConfig returns discounted CFR with alternating updates.
func DefaultConfig(iterations int) Config {
	return Config{
		Iterations:  iterations,
		Seed:        1,
		Alternating: true,
		UseDCFR:     true,
		DCFRAlpha:   1.5,
		DCFRGamma:   2.0,
	}
}

// Progress is reported to a trainer's Run callback.
type Progress struct {
	Iteration int
	TableSize int
}
