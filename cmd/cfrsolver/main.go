// Command cfrsolver is a thin demonstration driver over the cfr/vcfr
// trainers and the evaluate package: it loads a subgame configuration,
// runs the requested algorithm, and reports exploitability at the
// configured checkpoints. No solving logic lives here; it is purely
// flag-parsing, JSON loading, and wiring.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var cli struct {
	Debug bool `help:"enable debug logging"`

	Config        string  `help:"path to subgame configuration JSON" required:""`
	Algo          string  `help:"algorithm" enum:"cfr,cfr+,lcfr,dcfr,mccfr" default:"dcfr"`
	Iterations    int     `help:"number of iterations" default:"10000"`
	DumpStrategy  string  `help:"path to write the resulting strategy profile"`
	Checkpoints   string  `help:"comma-separated iteration counts to report exploitability at"`
	TargetExp     float64 `help:"stop early once exploitability (in chips) falls at or below this (0 disables)"`
	ProgressEvery int     `help:"log progress every N iterations (0 disables)"`
	Seed          int64   `help:"random seed for sampling-based algorithms" default:"1"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("cfrsolver"),
		kong.Description("river subgame CFR solver"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	if err := run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("solve failed")
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}
