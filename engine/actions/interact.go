package actions

import "github.com/0xwonj/dungeon/engine"

// InteractHandler toggles a world prop (door, switch) Target is adjacent
// to or standing on.
type InteractHandler struct{}

// Type implements engine.ActionHandler.
func (InteractHandler) Type() engine.ActionType { return engine.ActionInteract }

// PreValidate checks the actor is alive, the prop exists, and the actor is
// within one tile of it.
func (InteractHandler) PreValidate(state engine.GameState, oracles engine.Oracles, action engine.Action) error {
	in := action.(*engine.InteractAction)
	actor, ok := state.Entities.Actors[in.Actor()]
	if !ok || !actor.Alive {
		return engine.NewRejection(engine.RejectInvalidActor, "actor %d is not a living actor", in.Actor())
	}
	prop, ok := state.Entities.Props[in.Target]
	if !ok {
		return engine.NewRejection(engine.RejectInvalidActor, "prop %d does not exist", in.Target)
	}
	if chebyshev(actor.Pos, prop.Pos) > 1 {
		return engine.NewRejection(engine.RejectOutOfRange, "prop %d out of interaction range", in.Target)
	}
	return nil
}

// Apply flips the prop's Active flag and queues ActionCost.
func (InteractHandler) Apply(state *engine.GameState, oracles engine.Oracles, action engine.Action, hooks *engine.HookQueue) error {
	in := action.(*engine.InteractAction)
	actor := state.Entities.Actors[in.Actor()]
	prop := state.Entities.Props[in.Target]
	prop.Active = !prop.Active

	snap := engine.ComputeSnapshot(*actor, itemModifiers(actor, oracles), engine.DefaultConditions())
	hooks.Enqueue(ActionCostHook, engine.NewActionCostAction(actor.ID, snap.ActionCost))
	return nil
}

// PostValidate is a no-op: toggling Active cannot violate any global
// invariant.
func (InteractHandler) PostValidate(state engine.GameState, action engine.Action) error {
	return nil
}
