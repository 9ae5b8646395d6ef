package persistence

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/0xwonj/dungeon/engine"
)

// Checkpoint is a full-state snapshot written alongside the action log so
// a crash recovery or a watcher joining mid-session does not need to
// replay from tick zero.
type Checkpoint struct {
	Tick      uint64
	LogOffset int // byte offset in the action log this checkpoint corresponds to
	State     engine.GameState
}

// checkpointRecord is the on-disk envelope: a fixed header followed by a
// JSON-encoded GameState. JSON (not the canonical binary encoding) is
// used here deliberately — checkpoints are host-local recovery aids, never
// hashed or compared across nodes, so there is no determinism requirement
// forcing the canonical encoder's byte-exact discipline onto them.
type checkpointRecord struct {
	Tick      uint64           `json:"tick"`
	LogOffset int              `json:"log_offset"`
	State     engine.GameState `json:"state"`
}

// WriteCheckpoint overwrites path with cp, encoded as length-prefixed JSON
// so a reader can validate it read a complete record.
func WriteCheckpoint(path string, cp Checkpoint) error {
	rec := checkpointRecord{Tick: cp.Tick, LogOffset: cp.LogOffset, State: cp.State}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("persistence: marshal checkpoint: %w", err)
	}
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(body)))

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("persistence: create checkpoint temp file: %w", err)
	}
	if _, err := f.Write(lenBuf[:]); err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("persistence: fsync checkpoint: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic rename: readers never observe a partially-written checkpoint.
	return os.Rename(tmp, path)
}

// ReadCheckpoint loads the checkpoint at path.
func ReadCheckpoint(path string) (Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("persistence: read checkpoint %q: %w", path, err)
	}
	if len(data) < 8 {
		return Checkpoint{}, fmt.Errorf("persistence: truncated checkpoint %q", path)
	}
	n := binary.LittleEndian.Uint64(data[:8])
	if uint64(len(data)-8) < n {
		return Checkpoint{}, fmt.Errorf("persistence: checkpoint %q shorter than declared length", path)
	}
	var rec checkpointRecord
	if err := json.Unmarshal(data[8:8+n], &rec); err != nil {
		return Checkpoint{}, fmt.Errorf("persistence: unmarshal checkpoint %q: %w", path, err)
	}
	return Checkpoint{Tick: rec.Tick, LogOffset: rec.LogOffset, State: rec.State}, nil
}
