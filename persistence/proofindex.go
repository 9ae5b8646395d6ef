package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// BatchStatus tracks one proof batch's lifecycle for prover resume.
type BatchStatus string

const (
	BatchPending BatchStatus = "pending"
	BatchProving BatchStatus = "proving"
	BatchProved  BatchStatus = "proved"
	BatchFailed  BatchStatus = "failed"
)

// BatchEntry is one row of the proof index: the action-log byte range a
// batch covers and its current status.
type BatchEntry struct {
	BatchID    uint64
	StartTick  uint64
	EndTick    uint64
	LogStart   int
	LogEnd     int
	Status     BatchStatus
	ArtifactID string // set once BatchProved
}

// ProofIndex is the durable record of which action-log ranges have been
// batched for proving and how far each has progressed, so a restarted
// prover resumes instead of re-proving from scratch.
type ProofIndex struct {
	mu      sync.Mutex
	path    string
	entries []BatchEntry
}

// OpenProofIndex loads the proof index at path, or starts an empty one if
// the file does not yet exist.
func OpenProofIndex(path string) (*ProofIndex, error) {
	idx := &ProofIndex{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, fmt.Errorf("persistence: read proof index %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &idx.entries); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal proof index %q: %w", path, err)
	}
	return idx, nil
}

// Append records a new pending batch and persists the index.
func (p *ProofIndex) Append(entry BatchEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry.Status = BatchPending
	p.entries = append(p.entries, entry)
	return p.flush()
}

// SetStatus transitions batchID to status (and, for BatchProved, records
// artifactID) and persists the index.
func (p *ProofIndex) SetStatus(batchID uint64, status BatchStatus, artifactID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.entries {
		if p.entries[i].BatchID == batchID {
			p.entries[i].Status = status
			if status == BatchProved {
				p.entries[i].ArtifactID = artifactID
			}
			return p.flush()
		}
	}
	return fmt.Errorf("persistence: unknown batch id %d", batchID)
}

// Count returns the total number of batch entries recorded, proved or
// not — used to allocate the next sequential BatchID on a fresh run.
func (p *ProofIndex) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Pending returns every batch not yet in BatchProved state, in ascending
// BatchID order — the resume work list for a restarted prover.
func (p *ProofIndex) Pending() []BatchEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []BatchEntry
	for _, e := range p.entries {
		if e.Status != BatchProved {
			out = append(out, e)
		}
	}
	return out
}

func (p *ProofIndex) flush() error {
	data, err := json.MarshalIndent(p.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal proof index: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("persistence: write proof index: %w", err)
	}
	return os.Rename(tmp, p.path)
}
