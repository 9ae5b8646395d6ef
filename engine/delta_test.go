package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDeltaTestState builds a small two-actor state used to exercise
// ComputeDelta/ApplyDelta without going through a full Ruleset.
func newDeltaTestState() GameState {
	state := NewGameState(3, 3)
	for y := int32(0); y < 3; y++ {
		for x := int32(0); x < 3; x++ {
			state.World.Grid[y][x] = Tile{Terrain: TerrainFloor, Walkable: true}
		}
	}
	a := &Actor{
		ID:        1,
		Pos:       Pos{X: 0, Y: 0},
		Stats:     CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1},
		Resources: Resources{HP: 50, MP: 20, Lucidity: 10},
		Cooldowns: make(map[string]int32),
		Inventory: NewInventory(),
		Alive:     true,
	}
	state.Entities.Actors[1] = a
	state.World.Occupancy[a.Pos] = a.ID
	return state
}

// TestApplyDelta_ReproducesPostState exercises the round-trip law: replaying
// a StateDelta onto the pre-transition state reproduces the post-transition
// state exactly, field for field.
func TestApplyDelta_ReproducesPostState(t *testing.T) {
	before := newDeltaTestState()
	after := before.Clone()

	moved := after.Entities.Actors[1]
	delete(after.World.Occupancy, moved.Pos)
	moved.Pos = Pos{X: 0, Y: 1}
	after.World.Occupancy[moved.Pos] = moved.ID
	after.Turn.Tick = 90
	after.Turn.NextReady[1] = 90
	after.Turn.Nonces[1] = 1
	after.Turn.ActiveEntity = 1

	action := NewMoveAction(1, 1, South)
	delta := ComputeDelta(before, after, action)

	rebuilt := ApplyDelta(before, delta)

	assert.Equal(t, after.Turn, rebuilt.Turn)
	assert.Equal(t, after.World.Occupancy, rebuilt.World.Occupancy)
	require.Contains(t, rebuilt.Entities.Actors, EntityID(1))
	assert.Equal(t, *after.Entities.Actors[1], *rebuilt.Entities.Actors[1])
	assert.Equal(t, StateRoot(after), StateRoot(rebuilt), "canonical root must match after replaying the delta")
}

// TestApplyDelta_HandlesEntityRemoval confirms a death (entity removed from
// occupancy, Alive flipped) round-trips through ComputeDelta/ApplyDelta.
func TestApplyDelta_HandlesEntityRemoval(t *testing.T) {
	before := newDeltaTestState()
	victim := &Actor{
		ID:        2,
		Pos:       Pos{X: 1, Y: 0},
		Stats:     CoreStats{STR: 1, DEX: 1, CON: 1, INT: 1, WIL: 1, EGO: 1, Level: 1},
		Resources: Resources{HP: 10, MP: 10, Lucidity: 10},
		Cooldowns: make(map[string]int32),
		Inventory: NewInventory(),
		Alive:     true,
	}
	before.Entities.Actors[2] = victim
	before.World.Occupancy[victim.Pos] = victim.ID

	after := before.Clone()
	dead := after.Entities.Actors[2]
	dead.Alive = false
	dead.Resources.HP = 0
	delete(after.World.Occupancy, dead.Pos)

	action := NewSetDeathAction(2)
	delta := ComputeDelta(before, after, action)
	rebuilt := ApplyDelta(before, delta)

	got := rebuilt.Entities.Actors[2]
	assert.False(t, got.Alive)
	_, occupied := rebuilt.World.Occupancy[Pos{X: 1, Y: 0}]
	assert.False(t, occupied)
	assert.Equal(t, StateRoot(after), StateRoot(rebuilt))
}
