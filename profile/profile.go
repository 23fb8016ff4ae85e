// Package profile holds the JSON-serializable strategy representations
// produced by the trainers, and the dump file format used to persist them
// independent of any particular trainer's internal state.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lox/cfrsolver/game"
)

// Scalar is a per-information-set average strategy: one probability
// vector per visited info-set key.
type Scalar map[string][]float64

// Vector is a per-information-set average strategy in matrix form: one
// probability row per hero hand sharing the history.
type Vector map[string][][]float64

const dumpFileVersion = 1

// HistoryStrategy is one decision point in a strategy dump: the ordered
// action tokens and, per hero hand row, the probability of each action.
type HistoryStrategy struct {
	Actions  []string    `json:"actions"`
	Strategy [][]float64 `json:"strategy"`
}

// PlayerDump is one player's half of a range-game strategy dump: their
// configured range and their strategy at every decision point they act at.
type PlayerDump struct {
	Hands   []string                   `json:"hands"`
	Weights []float64                  `json:"weights"`
	Profile map[string]HistoryStrategy `json:"profile"`
}

// Dump is the on-disk strategy file format: a trainer's average strategy
// plus enough metadata to sanity-check it on load. Scalar games dump a
// flat per-infoset strategy; range games dump per-player range and
// per-history matrices.
type Dump struct {
	Version     int            `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`
	Iterations  int            `json:"iterations"`
	Algorithm   string         `json:"algorithm"`
	Scalar      Scalar         `json:"scalar,omitempty"`
	Players     *[2]PlayerDump `json:"players,omitempty"`
}

// Save writes the dump to path as indented JSON.
func (d *Dump) Save(path string) error {
	if d == nil {
		return errors.New("nil profile dump")
	}
	if path == "" {
		return errors.New("destination path is required")
	}
	d.Version = dumpFileVersion

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Load reads a strategy dump from path.
func Load(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var d Dump
	if err := json.NewDecoder(f).Decode(&d); err != nil {
		return nil, err
	}
	if d.Version != dumpFileVersion {
		return nil, errors.New("unsupported profile dump version")
	}
	return &d, nil
}

// NewScalarDump wraps a scalar profile for persistence.
func NewScalarDump(algorithm string, iterations int, strat Scalar) *Dump {
	return &Dump{
		Version:     dumpFileVersion,
		GeneratedAt: time.Now().UTC(),
		Iterations:  iterations,
		Algorithm:   algorithm,
		Scalar:      strat,
	}
}

// NewRiverDump assembles the per-player dump for a vector profile over a
// river subgame. Vector profile keys carry a "{player}|" prefix over the
// history token; the dump regroups them under each player with the action
// tokens reconstructed from the betting tree.
func NewRiverDump(river *game.River, algorithm string, iterations int, strat Vector) (*Dump, error) {
	rcfg := river.Config()
	var players [2]PlayerDump
	for p := 0; p < 2; p++ {
		hands := make([]string, len(rcfg.Ranges[p]))
		weights := make([]float64, len(rcfg.Ranges[p]))
		for i, h := range rcfg.Ranges[p] {
			hands[i] = h.Token()
			weights[i] = h.Weight
		}
		players[p] = PlayerDump{
			Hands:   hands,
			Weights: weights,
			Profile: make(map[string]HistoryStrategy),
		}
	}

	for key, matrix := range strat {
		sep := strings.IndexByte(key, '|')
		if sep != 1 || (key[0] != '0' && key[0] != '1') {
			return nil, fmt.Errorf("profile: malformed vector profile key %q", key)
		}
		player := int(key[0] - '0')
		history := key[sep+1:]
		actions, err := replayHistory(river, history)
		if err != nil {
			return nil, fmt.Errorf("profile: key %q: %w", key, err)
		}
		legal := river.LegalActions(actions)
		tokens := make([]string, len(legal))
		for i, a := range legal {
			tokens[i] = a.Token()
		}
		players[player].Profile[history] = HistoryStrategy{Actions: tokens, Strategy: matrix}
	}

	return &Dump{
		Version:     dumpFileVersion,
		GeneratedAt: time.Now().UTC(),
		Iterations:  iterations,
		Algorithm:   algorithm,
		Players:     &players,
	}, nil
}

// replayHistory parses a comma-joined history token back into the action
// sequence it encodes.
func replayHistory(river *game.River, history string) ([]game.Action, error) {
	if history == "" {
		return nil, nil
	}
	parts := strings.Split(history, ",")
	actions := make([]game.Action, 0, len(parts))
	for _, tok := range parts {
		a, ok := game.ParseAmountToken(tok)
		if !ok {
			return nil, fmt.Errorf("bad action token %q", tok)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
