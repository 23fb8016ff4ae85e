package vcfr

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lox/cfrsolver/game"
	"github.com/lox/cfrsolver/regret"
)

const checkpointFileVersion = 1

type checkpointSnapshot struct {
	Version   int                              `json:"version"`
	Iteration int                              `json:"iteration"`
	Config    Config                           `json:"config"`
	Entries   map[string]regret.VectorSnapshot `json:"entries"`
}

// SaveCheckpoint writes a snapshot of the trainer's state to path, via a
// temp file followed by an atomic rename, the same scheme cfr.Trainer uses.
func (t *Trainer) SaveCheckpoint(path string) error {
	snap := checkpointSnapshot{
		Version:   checkpointFileVersion,
		Iteration: t.iteration,
		Config:    t.cfg,
		Entries:   t.table.SnapshotAll(),
	}
	return writeCheckpoint(path, snap)
}

func writeCheckpoint(path string, snap checkpointSnapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close checkpoint temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("persist checkpoint: %w", err)
	}
	return nil
}

// LoadTrainerFromCheckpoint restores a vector trainer from a checkpoint
// file, wiring it back to the supplied river instance.
func LoadTrainerFromCheckpoint(path string, river *game.River) (*Trainer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap checkpointSnapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, err
	}
	if snap.Version != checkpointFileVersion {
		return nil, errors.New("unsupported checkpoint version")
	}
	if err := snap.Config.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint config invalid: %w", err)
	}

	trainer, err := NewTrainer(river, snap.Config)
	if err != nil {
		return nil, err
	}
	trainer.iteration = snap.Iteration
	trainer.table.LoadSnapshot(snap.Entries)
	return trainer, nil
}
