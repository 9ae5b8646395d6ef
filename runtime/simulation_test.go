package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/engine/actions"
	"github.com/0xwonj/dungeon/oracle"
)

// newSimulationHarness builds a Simulation over a small live-fixture state
// but deliberately never starts Run: its default branch busy-loops calling
// advance() for whichever actor is next-ready, which would race
// unpredictably against a test driving the worker through direct calls.
// Tests instead drive handleCommand/advance synchronously, which exercises
// the exact same logic without that race.
func newSimulationHarness(t *testing.T) *Simulation {
	t.Helper()

	set, err := oracle.Load("../oracle/testdata")
	require.NoError(t, err)
	oracles := set.Bundle()

	ruleset, err := actions.DefaultRuleset()
	require.NoError(t, err)
	hooks := actions.DefaultHooks()

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

	return NewSimulation(state, oracles, ruleset, hooks, NewBus(), nil, 1)
}

func TestSimulation_SubmitActionAppliesAndAdvancesState(t *testing.T) {
	sim := newSimulationHarness(t)

	reply := make(chan CommandResult, 1)
	sim.handleCommand(Command{Kind: CmdSubmitAction, Action: engine.NewMoveAction(1, 1, engine.South), Reply: reply})
	res := <-reply
	require.NoError(t, res.Err)
	assert.Equal(t, engine.EntityID(1), res.Delta.NonceActor)
	assert.Equal(t, engine.Pos{X: 0, Y: 1}, res.State.Entities.Actors[1].Pos)
	assert.Equal(t, engine.Pos{X: 0, Y: 1}, sim.state.Entities.Actors[1].Pos)
}

func TestSimulation_SubmitActionRejectionLeavesStateUntouched(t *testing.T) {
	sim := newSimulationHarness(t)
	before := sim.state.Clone()

	reply := make(chan CommandResult, 1)
	sim.handleCommand(Command{Kind: CmdSubmitAction, Action: engine.NewMoveAction(1, 1, engine.West), Reply: reply})
	res := <-reply
	require.Error(t, res.Err, "moving off the grid must be rejected")

	assert.Equal(t, before.Entities.Actors[1].Pos, sim.state.Entities.Actors[1].Pos)
	assert.Equal(t, before.Turn.Tick, sim.state.Turn.Tick)
}

func TestSimulation_AdvanceAsksRegisteredProviderAndCommits(t *testing.T) {
	sim := newSimulationHarness(t)
	sim.providers[1] = WaitProvider{}

	sim.advance(context.Background())

	assert.Equal(t, uint64(1), sim.state.Turn.LastNonce(1))
	assert.Len(t, sim.History(), 1)
	assert.Equal(t, engine.ActionWait, sim.History()[0].Type())
}

func TestSimulation_AdvanceFallsBackToWaitProviderWhenNoneRegistered(t *testing.T) {
	sim := newSimulationHarness(t)

	sim.advance(context.Background())

	assert.Equal(t, uint64(1), sim.state.Turn.LastNonce(1))
}

func TestSimulation_RequestCheckpointPublishesEvent(t *testing.T) {
	sim := newSimulationHarness(t)
	ch := sim.bus.Subscribe(TopicCheckpoint, 1)

	reply := make(chan CommandResult, 1)
	sim.handleCommand(Command{Kind: CmdRequestCheckpoint, Reply: reply})
	<-reply

	select {
	case ev := <-ch:
		_, ok := ev.Payload.(engine.GameState)
		assert.True(t, ok, "checkpoint event payload should carry the GameState")
	default:
		t.Fatal("expected a checkpoint event to be published")
	}
}

func TestSimulation_PrepareNextTurnRebuildsActiveSet(t *testing.T) {
	sim := newSimulationHarness(t)

	reply := make(chan CommandResult, 1)
	sim.handleCommand(Command{Kind: CmdPrepareNextTurn, Reply: reply})
	res := <-reply

	assert.True(t, res.Active)
	assert.Equal(t, engine.EntityID(1), sim.state.Turn.ActiveEntity)
	assert.Contains(t, sim.activeSet, engine.EntityID(1))
}

func TestSimulation_HistoryRecordsAppliedActionsInOrder(t *testing.T) {
	sim := newSimulationHarness(t)

	reply := make(chan CommandResult, 1)
	sim.handleCommand(Command{Kind: CmdSubmitAction, Action: engine.NewWaitAction(1, 1), Reply: reply})
	require.NoError(t, (<-reply).Err)

	sim.handleCommand(Command{Kind: CmdSubmitAction, Action: engine.NewMoveAction(1, 2, engine.South), Reply: reply})
	require.NoError(t, (<-reply).Err)

	history := sim.History()
	require.Len(t, history, 2)
	assert.Equal(t, engine.ActionWait, history[0].Type())
	assert.Equal(t, engine.ActionMove, history[1].Type())
}
