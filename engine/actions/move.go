package actions

import (
	"fmt"

	"github.com/0xwonj/dungeon/engine"
)

// MoveHandler implements a single-tile cardinal or intercardinal step.
type MoveHandler struct{}

// Type implements engine.ActionHandler.
func (MoveHandler) Type() engine.ActionType { return engine.ActionMove }

// PreValidate rejects moves onto out-of-bounds, unwalkable or occupied
// tiles without touching state.
func (MoveHandler) PreValidate(state engine.GameState, oracles engine.Oracles, action engine.Action) error {
	mv := action.(*engine.MoveAction)
	actor, ok := state.Entities.Actors[mv.Actor()]
	if !ok || !actor.Alive {
		return engine.NewRejection(engine.RejectInvalidActor, "actor %d is not a living actor", mv.Actor())
	}

	dest := addPos(actor.Pos, mv.Direction.Delta())
	if !state.World.InBounds(dest) {
		return engine.NewRejection(engine.RejectOutOfRange, "destination %v out of bounds", dest)
	}
	tile := state.World.TileAt(dest)
	if !tile.Walkable {
		return engine.NewRejection(engine.RejectTileBlocked, "tile %v terrain %d is not walkable", dest, tile.Terrain)
	}
	if occupant, occupied := state.World.Occupancy[dest]; occupied && occupant != mv.Actor() {
		return engine.NewRejection(engine.RejectTileBlocked, "tile %v already occupied by actor %d", dest, occupant)
	}
	return nil
}

// Apply moves the actor, updates the occupancy index, and queues the
// ActionCost and Activation system hooks.
func (MoveHandler) Apply(state *engine.GameState, oracles engine.Oracles, action engine.Action, hooks *engine.HookQueue) error {
	mv := action.(*engine.MoveAction)
	actor := state.Entities.Actors[mv.Actor()]

	dest := addPos(actor.Pos, mv.Direction.Delta())
	tile := state.World.TileAt(dest)

	delete(state.World.Occupancy, actor.Pos)
	actor.Pos = dest
	state.World.Occupancy[dest] = actor.ID

	snap := engine.ComputeSnapshot(*actor, itemModifiers(actor, oracles), engine.DefaultConditions())
	cost := snap.ActionCost
	if oracles.Map != nil {
		cost += oracles.Map.MovementCost(tile)
	}

	hooks.Enqueue(ActionCostHook, engine.NewActionCostAction(actor.ID, cost))
	hooks.Enqueue(ActivationHook, engine.NewActivationAction(actor.ID))
	return nil
}

// PostValidate checks the actor now stands exactly where occupancy says.
func (MoveHandler) PostValidate(state engine.GameState, action engine.Action) error {
	mv := action.(*engine.MoveAction)
	actor := state.Entities.Actors[mv.Actor()]
	if state.World.Occupancy[actor.Pos] != actor.ID {
		return fmt.Errorf("actor %d occupancy not updated after move", actor.ID)
	}
	return nil
}
