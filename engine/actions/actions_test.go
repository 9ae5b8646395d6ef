package actions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/engine/actions"
	"github.com/0xwonj/dungeon/oracle"
)

const testdataDir = "../../oracle/testdata"

func newTestState(t *testing.T) engine.GameState {
	t.Helper()
	state := engine.NewGameState(3, 3)
	for y := int32(0); y < 3; y++ {
		for x := int32(0); x < 3; x++ {
			state.World.Grid[y][x] = engine.Tile{Terrain: engine.TerrainFloor, Walkable: true}
		}
	}
	// A wall at (1,0) blocks the tile directly east of the player's spawn.
	state.World.Grid[0][1] = engine.Tile{Terrain: engine.TerrainWall, Walkable: false}
	return state
}

func newActor(id engine.EntityID, pos engine.Pos, stats engine.CoreStats, hp, mp int32) *engine.Actor {
	return &engine.Actor{
		ID:        id,
		Pos:       pos,
		Stats:     stats,
		Resources: engine.Resources{HP: hp, MP: mp, Lucidity: 10},
		Cooldowns: make(map[string]int32),
		Inventory: engine.NewInventory(),
		Alive:     true,
	}
}

func newHarness(t *testing.T) (*engine.Ruleset, engine.RootHooks, engine.Oracles) {
	t.Helper()
	set, err := oracle.Load(testdataDir)
	require.NoError(t, err)

	ruleset, err := actions.DefaultRuleset()
	require.NoError(t, err)

	return ruleset, actions.DefaultHooks(), set.Bundle()
}

// Scenario A: moving into a wall tile is rejected and leaves state
// untouched.
func TestMove_IntoWallIsRejected(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)

	player := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1}, 50, 20)
	state.Entities.Actors[1] = player
	state.World.Occupancy[player.Pos] = player.ID

	move := engine.NewMoveAction(1, 1, engine.East)
	_, _, err := engine.Reduce(state, oracles, ruleset, hooks, move)

	require.Error(t, err)
	var rej *engine.ActionRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, engine.RejectTileBlocked, rej.RejectKind())
	assert.Equal(t, engine.Pos{X: 0, Y: 0}, player.Pos, "player must not have moved")
}

// Scenario A (continued): a move onto an open floor tile succeeds, updates
// occupancy, and schedules the mover's next-ready tick.
func TestMove_OntoFloorSucceeds(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)

	player := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1}, 50, 20)
	state.Entities.Actors[1] = player
	state.World.Occupancy[player.Pos] = player.ID

	move := engine.NewMoveAction(1, 1, engine.South)
	next, delta, err := engine.Reduce(state, oracles, ruleset, hooks, move)
	require.NoError(t, err)

	moved := next.Entities.Actors[1]
	assert.Equal(t, engine.Pos{X: 0, Y: 1}, moved.Pos)
	assert.Equal(t, engine.EntityID(1), next.World.Occupancy[engine.Pos{X: 0, Y: 1}])
	_, stillThere := next.World.Occupancy[engine.Pos{X: 0, Y: 0}]
	assert.False(t, stillThere, "old tile must be vacated")

	assert.Greater(t, next.Turn.NextReady[1], state.Turn.Tick)
	assert.Empty(t, delta.CutoffHooks)
}

// Scenario B: a basic attack that reduces the target to zero HP kills it
// and frees its occupied tile, chained through the Damage and DeathCheck
// hooks without the attack action itself being rejected.
func TestAttack_LethalBlowKillsTarget(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)

	attacker := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 50, DEX: 5, CON: 5, INT: 1, WIL: 1, EGO: 1, Level: 5}, 50, 20)
	victim := newActor(2, engine.Pos{X: 0, Y: 1}, engine.CoreStats{STR: 1, DEX: 1, CON: 0, INT: 1, WIL: 1, EGO: 1, Level: 0}, 5, 5)
	state.Entities.Actors[1] = attacker
	state.Entities.Actors[2] = victim
	state.World.Occupancy[attacker.Pos] = attacker.ID
	state.World.Occupancy[victim.Pos] = victim.ID

	atk := engine.NewAttackAction(1, 1, 2, "")
	next, delta, err := engine.Reduce(state, oracles, ruleset, hooks, atk)
	require.NoError(t, err)

	dead := next.Entities.Actors[2]
	assert.False(t, dead.Alive)
	assert.Equal(t, int32(0), dead.Resources.HP)
	_, occupied := next.World.Occupancy[engine.Pos{X: 0, Y: 1}]
	assert.False(t, occupied, "dead actor's tile must be freed")

	var sawActorPatch bool
	for _, p := range delta.EntityPatches {
		if p.Kind == "actor" && p.ID == 2 {
			sawActorPatch = true
		}
	}
	assert.True(t, sawActorPatch, "delta must record the victim's patch")
}

// An attack against a target outside reach is rejected before any state
// mutation happens.
func TestAttack_OutOfRangeIsRejected(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)

	attacker := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 10, DEX: 5, CON: 5, INT: 1, WIL: 1, EGO: 1, Level: 1}, 50, 20)
	victim := newActor(2, engine.Pos{X: 2, Y: 2}, engine.CoreStats{STR: 1, DEX: 1, CON: 1, INT: 1, WIL: 1, EGO: 1, Level: 1}, 50, 20)
	state.Entities.Actors[1] = attacker
	state.Entities.Actors[2] = victim

	atk := engine.NewAttackAction(1, 1, 2, "")
	_, _, err := engine.Reduce(state, oracles, ruleset, hooks, atk)
	require.Error(t, err)
	var rej *engine.ActionRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, engine.RejectOutOfRange, rej.RejectKind())
}

// A stale or repeated nonce is rejected regardless of whether the action
// would otherwise be legal.
func TestAction_NonceMustStrictlyAdvance(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)
	state.Turn.Nonces[1] = 4

	player := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1}, 50, 20)
	state.Entities.Actors[1] = player
	state.World.Occupancy[player.Pos] = player.ID

	wait := engine.NewWaitAction(1, 4)
	_, _, err := engine.Reduce(state, oracles, ruleset, hooks, wait)
	require.Error(t, err)
	var rej *engine.ActionRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, engine.RejectNonceMismatch, rej.RejectKind())
}

// A nonce that jumps ahead of last_nonce+1 is rejected too: accepting it
// would silently skip the intervening nonces forever.
func TestAction_NonceMustNotSkipAhead(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)
	state.Turn.Nonces[1] = 4

	player := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1}, 50, 20)
	state.Entities.Actors[1] = player
	state.World.Occupancy[player.Pos] = player.ID

	wait := engine.NewWaitAction(1, 9)
	_, _, err := engine.Reduce(state, oracles, ruleset, hooks, wait)
	require.Error(t, err)
	var rej *engine.ActionRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, engine.RejectNonceMismatch, rej.RejectKind())
}

// Using an item on cooldown is rejected.
func TestUseItem_CooldownActiveIsRejected(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)

	player := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1}, 50, 20)
	player.Inventory.Add("potion_lucid", 1)
	player.Cooldowns["potion_lucid"] = 12
	state.Entities.Actors[1] = player
	state.World.Occupancy[player.Pos] = player.ID

	use := engine.NewUseItemAction(1, 1, "potion_lucid", 0)
	_, _, err := engine.Reduce(state, oracles, ruleset, hooks, use)
	require.Error(t, err)
	var rej *engine.ActionRejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, engine.RejectCooldownActive, rej.RejectKind())
}

// Using a healing item clamps to the derived resource maximum rather than
// overshooting it.
func TestUseItem_HealClampsToResourceMax(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)

	player := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 5, DEX: 5, CON: 1, INT: 1, WIL: 1, EGO: 1, Level: 1}, 30, 20)
	player.Inventory.Add("potion_minor", 1)
	state.Entities.Actors[1] = player
	state.World.Occupancy[player.Pos] = player.ID

	snap := engine.ComputeSnapshot(*player, nil, engine.DefaultConditions())

	use := engine.NewUseItemAction(1, 1, "potion_minor", 0)
	next, _, err := engine.Reduce(state, oracles, ruleset, hooks, use)
	require.NoError(t, err)

	healed := next.Entities.Actors[1]
	assert.Equal(t, snap.ResourceMax.HP, healed.Resources.HP, "heal must clamp to the derived maximum, not overshoot it")
	assert.False(t, healed.Inventory.Has("potion_minor", 1), "consumable must be used up")
}

// UseItem on a non-consumable item with a non-empty equip slot equips it
// into the actor's inventory, and the equipped item's flat modifier is
// picked up by a subsequent action's stat snapshot.
func TestUseItem_EquipsItemAndModifierApplies(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)

	attacker := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1}, 50, 20)
	victim := newActor(2, engine.Pos{X: 0, Y: 1}, engine.CoreStats{STR: 1, DEX: 1, CON: 5, INT: 5, WIL: 1, EGO: 1, Level: 5}, 50, 20)
	attacker.Inventory.Add("blade_iron", 1)
	state.Entities.Actors[1] = attacker
	state.Entities.Actors[2] = victim
	state.World.Occupancy[attacker.Pos] = attacker.ID
	state.World.Occupancy[victim.Pos] = victim.ID

	use := engine.NewUseItemAction(1, 1, "blade_iron", 0)
	equipped, _, err := engine.Reduce(state, oracles, ruleset, hooks, use)
	require.NoError(t, err)

	wielder := equipped.Entities.Actors[1]
	assert.Equal(t, "weapon", wielder.Inventory.Stacks["blade_iron"].Slot)
	assert.Equal(t, "blade_iron", wielder.Inventory.Equipped("weapon"))
	assert.True(t, wielder.Inventory.Has("blade_iron", 1), "equipping must not consume the item")

	atk := engine.NewAttackAction(1, 2, 2, "")
	after, _, err := engine.Reduce(equipped, oracles, ruleset, hooks, atk)
	require.NoError(t, err)

	// base attack STR*4 = 20, +6 flat from the equipped blade, minus
	// victim's defense CON*3 = 15.
	hurt := after.Entities.Actors[2]
	assert.Equal(t, int32(50-(20+6-15)), hurt.Resources.HP)
}

// Waiting always succeeds for a living actor and schedules its next turn.
func TestWait_AlwaysSucceeds(t *testing.T) {
	ruleset, hooks, oracles := newHarness(t)
	state := newTestState(t)

	player := newActor(1, engine.Pos{X: 0, Y: 0}, engine.CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1}, 50, 20)
	state.Entities.Actors[1] = player
	state.World.Occupancy[player.Pos] = player.ID

	wait := engine.NewWaitAction(1, 1)
	next, _, err := engine.Reduce(state, oracles, ruleset, hooks, wait)
	require.NoError(t, err)
	assert.Greater(t, next.Turn.NextReady[1], state.Turn.Tick)
}
