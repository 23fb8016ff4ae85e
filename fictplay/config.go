// Package fictplay implements fictitious play: an alternative learner to
// the regret-matching family in cfr/vcfr that iterates best response
// against the opponent's average strategy instead of minimizing regret.
package fictplay

import (
	"errors"
	"time"
)

// Config selects fictitious play's variant knobs. LinearWeighting adds
// each iteration's best response to the strategy sum with weight t
// instead of 1 (linear fictitious play, converging faster in practice).
// Optimistic folds the opponent's last-assigned best response back into
// their average before this iteration's best-response step, the same
// "optimistic" trick used in optimistic mirror descent. Alternating
// updates both players in turn within each iteration, player 1 responding
// to an average that already includes player 0's new best response;
// non-alternating updates both against the same pre-iteration average.
type Config struct {
	Iterations      int
	LinearWeighting bool
	Optimistic      bool
	Alternating     bool
	ProgressEvery   int
}

// Validate ensures the configuration is well-formed before training begins.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return errors.New("iterations must be > 0")
	}
	if c.ProgressEvery < 0 {
		return errors.New("progress interval cannot be negative")
	}
	return nil
}

// DefaultConfig returns alternating, non-optimistic fictitious play with
// linear weighting, a reasonable default for new subgames.
func DefaultConfig(iterations int) Config {
	return Config{
		Iterations:      iterations,
		LinearWeighting: true,
		Alternating:     true,
	}
}

// Progress is reported to a Trainer.Run callback at ProgressEvery cadence.
type Progress struct {
	Iteration int
	Elapsed   time.Duration
}
