// Command guest is the zkVM guest program: it replays a batch of actions
// through the exact same engine.Reduce path the host orchestrator runs,
// and commits the resulting public-outputs journal. Everything it does is
// pure — no clock, no randomness, no filesystem — which is what lets the
// host re-derive and byte-compare every journal field before trusting a
// proof built from this binary.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/ProjectZKM/Ziren/crates/go-runtime/zkvm_runtime"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/network"
	"github.com/0xwonj/dungeon/oracle"
	"github.com/0xwonj/dungeon/proof"
)

func main() {
	// The four guest inputs, read in the fixed order the host writes them
	// in: oracle content snapshot, seed commitment, previous state, and
	// the action batch to replay. Each is a length-prefixed byte vector;
	// GameState and the action batch use the same JSON encodings
	// persistence/checkpoint.go and network/wire.go already use for
	// round-tripping these types, since the guest has to reconstruct live
	// engine values from them rather than just hash opaque bytes.
	snapBytes := zkvm_runtime.ReadVec()
	seedBytes := zkvm_runtime.ReadVec()
	stateBytes := zkvm_runtime.ReadVec()
	actionsBytes := zkvm_runtime.ReadVec()

	snap, err := oracle.DecodeSnapshot(snapBytes)
	if err != nil {
		panic(fmt.Sprintf("guest: decode oracle snapshot: %v", err))
	}

	var seedCommitment [32]byte
	if len(seedBytes) != len(seedCommitment) {
		panic(fmt.Sprintf("guest: seed commitment must be %d bytes, got %d", len(seedCommitment), len(seedBytes)))
	}
	copy(seedCommitment[:], seedBytes)

	var prevState engine.GameState
	if err := json.Unmarshal(stateBytes, &prevState); err != nil {
		panic(fmt.Sprintf("guest: decode previous state: %v", err))
	}

	actions, err := network.UnmarshalActionBatch(actionsBytes)
	if err != nil {
		panic(fmt.Sprintf("guest: decode action batch: %v", err))
	}

	journal, err := proof.RunGuest(snap, seedCommitment, prevState, actions)
	if err != nil {
		panic(fmt.Sprintf("guest: run: %v", err))
	}

	zkvm_runtime.Commit(journal[:])
}
