// Package persistence durably records every applied StateDelta to an
// append-only action log, writes periodic checkpoints, and tracks which
// batches the proving pipeline has consumed. Grounded on storage/db.go's
// Batch/DB seam and storage/statedb.go's Commit flush discipline,
// generalized from a KV-store write buffer to a framed byte-stream log:
// the game's durability unit is "one applied action," not "one account
// balance," so an append-only log fits the access pattern (always append,
// always read forward) better than a KV store.
package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"sync"

	"github.com/0xwonj/dungeon/engine"
)

// recordMagic marks the start of a length-prefixed, CRC32-framed record:
// [4]byte magic, [8]byte length, payload, [4]byte crc32(payload).
var recordMagic = [4]byte{'D', 'L', 'O', 'G'}

// Writer appends framed StateDelta records to an action log file. Every
// Write flushes and every checkpoint-interval Write additionally fsyncs,
// matching storage.StateDB.Commit's "flush the write buffer, then the
// caller decides durability granularity" split, but pushed down to the
// record level since each Write call here is one already-applied,
// already-irreversible game action rather than a batched multi-key commit.
type Writer struct {
	mu               sync.Mutex
	f                *os.File
	bw               *bufio.Writer
	checkpointEvery  int
	writesSinceFsync int
}

// NewWriter opens (creating if necessary) the action log at path for
// appending. checkpointEvery is the number of Write calls between fsync
// calls; 1 means fsync every record.
func NewWriter(path string, checkpointEvery int) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("persistence: open action log %q: %w", path, err)
	}
	if checkpointEvery < 1 {
		checkpointEvery = 1
	}
	return &Writer{f: f, bw: bufio.NewWriter(f), checkpointEvery: checkpointEvery}, nil
}

// Write appends delta's canonical action encoding as one framed record.
// Implements runtime.DeltaSink.
func (w *Writer) Write(delta engine.StateDelta) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	payload := encodeDeltaRecord(delta)
	if err := w.writeFrame(payload); err != nil {
		return err
	}
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("persistence: flush action log: %w", err)
	}

	w.writesSinceFsync++
	if w.writesSinceFsync >= w.checkpointEvery {
		if err := w.f.Sync(); err != nil {
			return fmt.Errorf("persistence: fsync action log: %w", err)
		}
		w.writesSinceFsync = 0
	}
	return nil
}

func (w *Writer) writeFrame(payload []byte) error {
	if _, err := w.bw.Write(recordMagic[:]); err != nil {
		return err
	}
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	if _, err := w.bw.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.bw.Write(payload); err != nil {
		return err
	}
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc32.ChecksumIEEE(payload))
	_, err := w.bw.Write(crcBuf[:])
	return err
}

// Offset returns the current length of the action log in bytes, suitable
// for recording in a Checkpoint so a Reader can later Seek past every
// record the checkpoint's state already reflects.
func (w *Writer) Offset() (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.bw.Flush(); err != nil {
		return 0, fmt.Errorf("persistence: flush action log: %w", err)
	}
	info, err := w.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("persistence: stat action log: %w", err)
	}
	return info.Size(), nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// Record is one decoded action-log entry.
type Record struct {
	Tick       uint64
	Actor      engine.EntityID
	ActionType engine.ActionType
	Raw        []byte // the canonical action encoding, as logged
}

func encodeDeltaRecord(delta engine.StateDelta) []byte {
	enc := engine.CanonicalAction(delta.Action)
	var buf []byte
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], delta.TickAfter)
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint64(tmp[:], uint64(delta.NonceActor))
	buf = append(buf, tmp[:]...)
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(enc)))
	buf = append(buf, tmp[:]...)
	buf = append(buf, enc...)
	return buf
}

func decodeDeltaRecord(payload []byte) (Record, error) {
	if len(payload) < 24 {
		return Record{}, fmt.Errorf("persistence: truncated record (%d bytes)", len(payload))
	}
	tick := binary.LittleEndian.Uint64(payload[0:8])
	actor := engine.EntityID(binary.LittleEndian.Uint64(payload[8:16]))
	n := binary.LittleEndian.Uint64(payload[16:24])
	if uint64(len(payload)-24) < n {
		return Record{}, fmt.Errorf("persistence: record payload shorter than declared length")
	}
	raw := payload[24 : 24+n]
	actionType, err := decodeCanonicalActionType(raw)
	if err != nil {
		return Record{}, err
	}
	return Record{Tick: tick, Actor: actor, ActionType: actionType, Raw: raw}, nil
}

// decodeCanonicalActionType reads the type tag engine.CanonicalAction always
// writes first (a length-prefixed string), without decoding the rest of the
// variant-specific payload that follows it.
func decodeCanonicalActionType(raw []byte) (engine.ActionType, error) {
	if len(raw) < 8 {
		return "", fmt.Errorf("persistence: action encoding too short for a type tag")
	}
	n := binary.LittleEndian.Uint64(raw[0:8])
	if uint64(len(raw)-8) < n {
		return "", fmt.Errorf("persistence: action encoding shorter than declared type tag length")
	}
	return engine.ActionType(raw[8 : 8+n]), nil
}
