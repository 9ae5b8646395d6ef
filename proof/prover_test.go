package proof

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/oracle"
	"github.com/0xwonj/dungeon/persistence"
)

func newProverFixture(t *testing.T) (Batch, oracle.Snapshot, [32]byte) {
	t.Helper()
	set, err := oracle.Load("../oracle/testdata")
	require.NoError(t, err)
	snap := oracle.ToSnapshot(set)

	state := engine.NewGameState(3, 3)
	for y := int32(0); y < 3; y++ {
		for x := int32(0); x < 3; x++ {
			state.World.Grid[y][x] = engine.Tile{Terrain: engine.TerrainFloor, Walkable: true}
		}
	}
	player := &engine.Actor{
		ID: 1, Pos: engine.Pos{X: 0, Y: 0}, Alive: true,
		Stats:     engine.CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1},
		Resources: engine.Resources{HP: 50, MP: 20, Lucidity: 10},
		Cooldowns: make(map[string]int32),
		Inventory: engine.NewInventory(),
	}
	state.Entities.Actors[1] = player
	state.World.Occupancy[player.Pos] = player.ID

	acts := []engine.Action{
		engine.NewMoveAction(1, 1, engine.South),
		engine.NewMoveAction(1, 2, engine.East),
		engine.NewWaitAction(1, 3),
	}

	return Batch{ID: 1, PrevState: state, Actions: acts}, snap, engine.SeedCommitment([]byte("test-seed"))
}

func newProofIndex(t *testing.T, batch Batch) *persistence.ProofIndex {
	t.Helper()
	idx, err := persistence.OpenProofIndex(filepath.Join(t.TempDir(), "proof-index.json"))
	require.NoError(t, err)
	require.NoError(t, idx.Append(persistence.BatchEntry{BatchID: batch.ID}))
	return idx
}

// Scenario C: a well-formed three-action batch proves successfully and is
// recorded as proved in the index.
func TestProveBatch_SucceedsAndRecordsProved(t *testing.T) {
	batch, snap, seedCommitment := newProverFixture(t)
	idx := newProofIndex(t, batch)

	p := NewProver(snap, seedCommitment, StubBackend{}, idx, nil)
	receipt, journal, err := p.ProveBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, "stub", receipt.Backend)

	ok, err := StubBackend{}.Verify(receipt, Digest(journal))
	require.NoError(t, err)
	assert.True(t, ok)

	pending := idx.Pending()
	assert.Empty(t, pending, "the proved batch must no longer be pending")
}

// Scenario D: if the guest's committed new_state_root disagrees with the
// host's independent re-derivation, ProveBatch must refuse to accept the
// proof rather than record it as proved.
func TestProveBatch_DetectsStateRootMismatch(t *testing.T) {
	batch, snap, seedCommitment := newProverFixture(t)
	idx := newProofIndex(t, batch)

	journalBytes, err := RunGuest(snap, seedCommitment, batch.PrevState, batch.Actions)
	require.NoError(t, err)
	journal, err := ParseJournal(journalBytes[:])
	require.NoError(t, err)

	// Corrupt the committed root as if the guest had diverged from the host.
	journal.NewStateRoot[0] ^= 0xFF
	corrupted := BuildJournal(journal)

	p := NewProver(snap, seedCommitment, StubBackend{}, idx, nil)
	reparsed, err := ParseJournal(corrupted[:])
	require.NoError(t, err)

	err = p.verifyJournal(batch, reparsed)
	require.Error(t, err)
	var mismatch *StateInconsistency
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "new_state_root", mismatch.Field)
}

// Empty action list: prev_state_root must equal new_state_root and
// new_nonce must equal old_nonce, and the proof must still verify. The
// batch's PrevState already carries a non-zero nonce for actor 1 (from an
// earlier, unrelated batch) so the fallback in lastActorNonce is actually
// exercised rather than trivially returning zero.
func TestRunGuest_EmptyBatchPreservesNonceAndRoots(t *testing.T) {
	batch, snap, seedCommitment := newProverFixture(t)
	batch.PrevState.Turn.Nonces[1] = 7
	batch.Actions = nil

	journalBytes, err := RunGuest(snap, seedCommitment, batch.PrevState, batch.Actions)
	require.NoError(t, err)
	journal, err := ParseJournal(journalBytes[:])
	require.NoError(t, err)

	assert.Equal(t, journal.PrevStateRoot, journal.NewStateRoot)
	assert.Equal(t, uint64(7), journal.NewNonce)

	idx := newProofIndex(t, batch)
	p := NewProver(snap, seedCommitment, StubBackend{}, idx, nil)
	receipt, provedJournal, err := p.ProveBatch(batch)
	require.NoError(t, err)

	ok, err := StubBackend{}.Verify(receipt, Digest(provedJournal))
	require.NoError(t, err)
	assert.True(t, ok)
}

// System action types (authored only by hooks, never submitted directly)
// have no registered top-level handler; a batch trying to apply one
// directly must be rejected rather than silently accepted.
func TestRunGuest_RejectsDirectSystemAction(t *testing.T) {
	batch, snap, seedCommitment := newProverFixture(t)
	batch.Actions = []engine.Action{engine.NewActionCostAction(1, 10)}

	_, err := RunGuest(snap, seedCommitment, batch.PrevState, batch.Actions)
	require.Error(t, err)
}
