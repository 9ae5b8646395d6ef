package proof

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/engine/actions"
	"github.com/0xwonj/dungeon/oracle"
	"github.com/0xwonj/dungeon/persistence"
)

// Batch is one contiguous run of already-applied actions the Prover turns
// into a proof: the state immediately before the first action and the
// actions themselves in application order (the tick range is recorded in
// the proof index entry, not here). The
// orchestrator assembles Batch directly from runtime.Simulation's in-memory
// history rather than re-parsing its own action log — the log's canonical
// action encoding (persistence.Writer) is write-only for audit and replay,
// not a format Reduce's inputs round-trip through, so re-deriving a Batch
// from bytes already in hand would only add a decoder with no benefit.
type Batch struct {
	ID        uint64
	PrevState engine.GameState
	Actions   []engine.Action
}

// StateInconsistency is returned when the host's independent re-derivation
// of a journal field disagrees with what the guest committed — the
// guest/host non-determinism bug class this pipeline exists to catch
// before a proof is ever published.
type StateInconsistency struct {
	Field string
}

func (e *StateInconsistency) Error() string {
	return fmt.Sprintf("proof: journal field %q disagrees with host re-derivation", e.Field)
}

// Prover drives batches from the proof index through RunGuest and a
// Backend, verifying every journal field host-side before recording a
// batch as proved. Grounded on consensus.PoA's "build, then validate what
// was built before accepting it" shape, generalized from block production
// to proof production.
type Prover struct {
	snap           oracle.Snapshot
	seedCommitment [32]byte
	backend        Backend
	index          *persistence.ProofIndex
	metrics        *Metrics
}

// NewProver constructs a Prover bound to one session's oracle content and
// seed commitment.
func NewProver(snap oracle.Snapshot, seedCommitment [32]byte, backend Backend, index *persistence.ProofIndex, metrics *Metrics) *Prover {
	return &Prover{snap: snap, seedCommitment: seedCommitment, backend: backend, index: index, metrics: metrics}
}

// ProveBatch runs batch through the guest routine, builds its journal,
// invokes the backend, re-derives every field host-side, and — only if
// every field matches — records the batch as proved in the index. A field
// mismatch (*StateInconsistency) or backend error is returned to the caller;
// this is non-fatal to the runtime, since the batch's actions were already
// accepted and recorded before proving was ever attempted.
func (p *Prover) ProveBatch(batch Batch) (Receipt, Journal, error) {
	start := time.Now()

	journalBytes, err := RunGuest(p.snap, p.seedCommitment, batch.PrevState, batch.Actions)
	if err != nil {
		p.recordFailed(batch.ID)
		return Receipt{}, Journal{}, fmt.Errorf("proof: run guest for batch %d: %w", batch.ID, err)
	}
	journal, err := ParseJournal(journalBytes[:])
	if err != nil {
		p.recordFailed(batch.ID)
		return Receipt{}, Journal{}, err
	}

	if err := p.verifyJournal(batch, journal); err != nil {
		p.recordFailed(batch.ID)
		return Receipt{}, Journal{}, err
	}

	digest := Digest(journal)
	receipt, err := p.backend.Prove(digest)
	if err != nil {
		p.recordFailed(batch.ID)
		return Receipt{}, Journal{}, fmt.Errorf("proof: backend prove batch %d: %w", batch.ID, err)
	}

	if ok, err := p.backend.Verify(receipt, digest); err != nil || !ok {
		p.recordFailed(batch.ID)
		return Receipt{}, Journal{}, fmt.Errorf("proof: backend self-check failed for batch %d", batch.ID)
	}

	artifactID := fmt.Sprintf("batch-%d", batch.ID)
	if err := p.index.SetStatus(batch.ID, persistence.BatchProved, artifactID); err != nil {
		return Receipt{}, Journal{}, fmt.Errorf("proof: record batch %d proved: %w", batch.ID, err)
	}

	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordProved(len(batch.Actions), elapsed.Milliseconds())
	}
	log.Info().Uint64("batch_id", batch.ID).Int("actions", len(batch.Actions)).Dur("elapsed", elapsed).Msg("proof batch proved")

	return receipt, journal, nil
}

// verifyJournal re-derives every journal field from batch's inputs and the
// host's own copy of engine.Reduce, comparing byte-for-byte against what
// the guest committed.
func (p *Prover) verifyJournal(batch Batch, journal Journal) error {
	wantOracleRoot := oracle.OracleRoot(p.snap)
	if wantOracleRoot != journal.OracleRoot {
		return &StateInconsistency{Field: "oracle_root"}
	}
	if p.seedCommitment != journal.SeedCommitment {
		return &StateInconsistency{Field: "seed_commitment"}
	}
	wantPrevRoot := engine.StateRoot(batch.PrevState)
	if wantPrevRoot != journal.PrevStateRoot {
		return &StateInconsistency{Field: "prev_state_root"}
	}
	wantActionsRoot := engine.ActionsRoot(batch.Actions)
	if wantActionsRoot != journal.ActionsRoot {
		return &StateInconsistency{Field: "actions_root"}
	}

	ruleset, err := actions.DefaultRuleset()
	if err != nil {
		return fmt.Errorf("proof: build ruleset for re-derivation: %w", err)
	}
	hooks := actions.DefaultHooks()
	bundle := NewGuestOracles(p.snap).Bundle()

	state := batch.PrevState
	for i, action := range batch.Actions {
		next, _, err := engine.Reduce(state, bundle, ruleset, hooks, action)
		if err != nil {
			return fmt.Errorf("proof: host re-derivation rejected action %d: %w", i, err)
		}
		state = next
	}
	if wantStateRoot := engine.StateRoot(state); wantStateRoot != journal.NewStateRoot {
		return &StateInconsistency{Field: "new_state_root"}
	}

	return nil
}

func (p *Prover) recordFailed(batchID uint64) {
	if p.metrics != nil {
		p.metrics.RecordFailed()
	}
	if err := p.index.SetStatus(batchID, persistence.BatchFailed, ""); err != nil {
		log.Error().Err(err).Uint64("batch_id", batchID).Msg("failed to record proof batch failure")
	}
}
