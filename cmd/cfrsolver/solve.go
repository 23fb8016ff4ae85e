package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lox/cfrsolver/evaluate"
	"github.com/lox/cfrsolver/game"
	"github.com/lox/cfrsolver/profile"
	"github.com/lox/cfrsolver/subgame"
	"github.com/lox/cfrsolver/vcfr"
)

// riverTrainer is the shape both vcfr.Trainer and vcfr.MCCFRTrainer
// satisfy; the CLI only needs to run one and read back its average
// strategy, so it is agnostic to which concrete algorithm is in play.
type riverTrainer interface {
	Run(ctx context.Context, progress func(vcfr.Progress)) error
	AverageStrategyProfile() profile.Vector
	Iteration() int
}

func run(ctx context.Context) error {
	raw, err := os.ReadFile(cli.Config)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var scfg subgame.Config
	if err := json.Unmarshal(raw, &scfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	river, err := subgame.Build(scfg)
	if err != nil {
		return fmt.Errorf("build subgame: %w", err)
	}

	checkpoints, err := parseCheckpoints(cli.Checkpoints, cli.Iterations)
	if err != nil {
		return fmt.Errorf("parse checkpoints: %w", err)
	}
	checkpointSet := make(map[int]bool, len(checkpoints))
	for _, c := range checkpoints {
		checkpointSet[c] = true
	}

	reportEvery := cli.ProgressEvery
	if len(checkpoints) > 0 || cli.TargetExp > 0 {
		reportEvery = 1
	}

	trainer, err := newTrainer(river, cli.Algo, cli.Iterations, cli.Seed, reportEvery)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var expChips []float64
	reported := make(map[int]bool, len(checkpoints))
	record := func(iteration int) {
		if reported[iteration] {
			return
		}
		reported[iteration] = true
		exp, err := evaluate.ExploitabilityVector(river, trainer.AverageStrategyProfile())
		if err != nil {
			log.Error().Err(err).Int("iteration", iteration).Msg("exploitability computation failed")
			return
		}
		expChips = append(expChips, exp)
		if cli.TargetExp > 0 && exp <= cli.TargetExp {
			log.Info().Int("iteration", iteration).Float64("exploitability", exp).Msg("target exploitability reached")
			cancel()
		}
	}

	// When a target is set, also probe exploitability between explicit
	// checkpoints so the run can stop early instead of discovering the
	// target was crossed long ago.
	targetEvery := 0
	if cli.TargetExp > 0 {
		targetEvery = cli.Iterations / 20
		if targetEvery < 1 {
			targetEvery = 1
		}
	}

	progress := func(p vcfr.Progress) {
		if cli.ProgressEvery > 0 && p.Iteration%cli.ProgressEvery == 0 {
			log.Info().Int("iteration", p.Iteration).Int("infosets", p.TableSize).Msg("progress")
		}
		if checkpointSet[p.Iteration] || (targetEvery > 0 && p.Iteration%targetEvery == 0) {
			record(p.Iteration)
		}
	}

	if err := trainer.Run(runCtx, progress); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("train: %w", err)
	}
	record(trainer.Iteration())

	printExploitability(cli.Algo, expChips, river.GameConstant())

	if cli.DumpStrategy != "" {
		dump, err := profile.NewRiverDump(river, cli.Algo, trainer.Iteration(), trainer.AverageStrategyProfile())
		if err != nil {
			return fmt.Errorf("assemble strategy dump: %w", err)
		}
		if err := dump.Save(cli.DumpStrategy); err != nil {
			return fmt.Errorf("save strategy: %w", err)
		}
		log.Info().Str("path", cli.DumpStrategy).Msg("strategy saved")
	}
	return nil
}

// newTrainer maps one of the five algorithm names the CLI exposes onto a
// vcfr.Config (cfr, cfr+, lcfr, dcfr all share vcfr.Trainer's full
// enumeration) or vcfr.MCCFRTrainer's external sampling (mccfr).
func newTrainer(river *game.River, algo string, iterations int, seed int64, progressEvery int) (riverTrainer, error) {
	base := vcfr.Config{
		Iterations:    iterations,
		Seed:          seed,
		Alternating:   true,
		ProgressEvery: progressEvery,
	}
	switch algo {
	case "cfr":
		return vcfr.NewTrainer(river, base)
	case "cfr+":
		cfg := base
		cfg.UsePlus = true
		cfg.LinearWeighting = true
		return vcfr.NewTrainer(river, cfg)
	case "lcfr":
		cfg := base
		cfg.LinearWeighting = true
		return vcfr.NewTrainer(river, cfg)
	case "dcfr":
		cfg := vcfr.DefaultConfig(iterations)
		cfg.Seed = seed
		cfg.ProgressEvery = progressEvery
		return vcfr.NewTrainer(river, cfg)
	case "mccfr":
		cfg := vcfr.DefaultConfig(iterations)
		cfg.Seed = seed
		cfg.ProgressEvery = progressEvery
		return vcfr.NewMCCFRTrainer(river, cfg)
	default:
		return nil, fmt.Errorf("unknown algorithm %q", algo)
	}
}

// parseCheckpoints parses a comma-separated list of iteration counts,
// always including the final iteration so a run with no explicit
// checkpoints still reports once at completion.
func parseCheckpoints(spec string, iterations int) ([]int, error) {
	out := map[int]bool{iterations: true}
	spec = strings.TrimSpace(spec)
	if spec != "" {
		for _, tok := range strings.Split(spec, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			n, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("invalid checkpoint %q: %w", tok, err)
			}
			if n <= 0 || n > iterations {
				return nil, fmt.Errorf("checkpoint %d is out of range [1, %d]", n, iterations)
			}
			out[n] = true
		}
	}
	sorted := make([]int, 0, len(out))
	for n := range out {
		sorted = append(sorted, n)
	}
	sort.Ints(sorted)
	return sorted, nil
}

// printExploitability writes the checkpoint exploitability series to
// standard output in the format external drivers parse, separate from the
// human-facing zerolog output on stderr.
func printExploitability(algo string, expChips []float64, pot float64) {
	chips := make([]string, len(expChips))
	pct := make([]string, len(expChips))
	for i, v := range expChips {
		chips[i] = strconv.FormatFloat(v, 'f', 4, 64)
		pctVal := 0.0
		if pot > 0 {
			pctVal = 100 * v / pot
		}
		pct[i] = strconv.FormatFloat(pctVal, 'f', 2, 64)
	}
	fmt.Printf("%s: Exploitability (chips): %s | Exploitability (%% of pot): %s\n",
		algo, strings.Join(chips, " "), strings.Join(pct, " "))
}
