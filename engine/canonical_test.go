package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStateRoot_DeterministicAcrossMapIterationOrder confirms the root is
// stable however the same logical state was assembled — specifically, it
// must not depend on the insertion order of the Actors map, which Go itself
// does not guarantee a stable iteration order for.
func TestStateRoot_DeterministicAcrossMapIterationOrder(t *testing.T) {
	build := func(order []EntityID) GameState {
		s := NewGameState(2, 2)
		for _, id := range order {
			s.Entities.Actors[id] = &Actor{
				ID:        id,
				Stats:     CoreStats{STR: int32(id), Level: 1},
				Resources: Resources{HP: 10, MP: 10},
				Cooldowns: make(map[string]int32),
				Inventory: NewInventory(),
				Alive:     true,
			}
		}
		return s
	}

	a := build([]EntityID{1, 2, 3})
	b := build([]EntityID{3, 1, 2})

	assert.Equal(t, StateRoot(a), StateRoot(b))
}

// TestStateRoot_DiffersOnAnyFieldChange is a coarse sensitivity check: two
// states differing in exactly one actor's HP must not collide.
func TestStateRoot_DiffersOnAnyFieldChange(t *testing.T) {
	base := NewGameState(2, 2)
	base.Entities.Actors[1] = &Actor{
		ID: 1, Stats: CoreStats{Level: 1}, Resources: Resources{HP: 10},
		Cooldowns: make(map[string]int32), Inventory: NewInventory(), Alive: true,
	}

	changed := base.Clone()
	changed.Entities.Actors[1].Resources.HP = 9

	assert.NotEqual(t, StateRoot(base), StateRoot(changed))
}

// TestActionsRoot_OrderSensitive confirms the actions root is sensitive to
// the sequence actions were applied in, since action order is part of what a
// proof attests to.
func TestActionsRoot_OrderSensitive(t *testing.T) {
	a := NewMoveAction(1, 1, North)
	b := NewMoveAction(1, 2, South)

	forward := ActionsRoot([]Action{a, b})
	reversed := ActionsRoot([]Action{b, a})

	assert.NotEqual(t, forward, reversed)
}

// TestSeedCommitment_Deterministic confirms hashing the same seed bytes
// twice yields the same commitment.
func TestSeedCommitment_Deterministic(t *testing.T) {
	seed := []byte("fixed-session-seed")
	assert.Equal(t, SeedCommitment(seed), SeedCommitment(seed))
}
