package proof

import (
	"fmt"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/engine/actions"
	"github.com/0xwonj/dungeon/oracle"
)

// RunGuest is the pure guest routine: given the oracle content bundle, the
// seed commitment, the previous state and the batch of actions since the
// last proof, it replays every action through engine.Reduce — the exact
// same function the host orchestrator calls — and returns the 168-byte
// public-outputs journal. No clock reads, no randomness, no I/O: this is
// literally what cmd/guest/main.go compiles into a zkVM target, and what
// proof.Prover calls host-side to pre-check a batch before ever invoking a
// Backend.
func RunGuest(snap oracle.Snapshot, seedCommitment [32]byte, prevState engine.GameState, acts []engine.Action) ([JournalSize]byte, error) {
	ruleset, err := actions.DefaultRuleset()
	if err != nil {
		return [JournalSize]byte{}, fmt.Errorf("proof: build ruleset: %w", err)
	}
	hooks := actions.DefaultHooks()
	bundle := NewGuestOracles(snap).Bundle()

	prevRoot := engine.StateRoot(prevState)

	state := prevState
	for i, action := range acts {
		next, _, err := engine.Reduce(state, bundle, ruleset, hooks, action)
		if err != nil {
			return [JournalSize]byte{}, fmt.Errorf("proof: action %d rejected: %w", i, err)
		}
		state = next
	}

	lastNonce := lastActorNonce(acts, prevState, state)

	journal := Journal{
		OracleRoot:     oracle.OracleRoot(snap),
		SeedCommitment: seedCommitment,
		PrevStateRoot:  prevRoot,
		ActionsRoot:    engine.ActionsRoot(acts),
		NewStateRoot:   engine.StateRoot(state),
		NewNonce:       lastNonce,
	}
	return BuildJournal(journal), nil
}

// lastActorNonce returns the nonce of the last player-authored action in
// the batch, the value a Session tracks to reject stale or replayed
// batches. A batch with no player-authored action — including the empty
// batch covering zero actions, and a batch consisting solely of
// system/hook-driven actions (Actor() == engine.SystemActorID throughout)
// — leaves every actor's nonce untouched, so per spec.md §8 ("Empty
// action list: ... new_nonce == old_nonce") it falls back to the highest
// per-actor nonce already recorded in prevState rather than erroring.
func lastActorNonce(acts []engine.Action, prevState, state engine.GameState) uint64 {
	for i := len(acts) - 1; i >= 0; i-- {
		if acts[i].Actor() != engine.SystemActorID {
			return state.Turn.LastNonce(acts[i].Actor())
		}
	}
	return highestNonce(prevState)
}

// highestNonce returns the largest per-actor nonce recorded in state, or 0
// if no actor has acted yet.
func highestNonce(state engine.GameState) uint64 {
	var max uint64
	for _, n := range state.Turn.Nonces {
		if n > max {
			max = n
		}
	}
	return max
}
