package actions

import "github.com/0xwonj/dungeon/engine"

// WaitHandler passes the actor's turn at its base action cost.
type WaitHandler struct{}

// Type implements engine.ActionHandler.
func (WaitHandler) Type() engine.ActionType { return engine.ActionWait }

// PreValidate only checks the actor is alive.
func (WaitHandler) PreValidate(state engine.GameState, oracles engine.Oracles, action engine.Action) error {
	w := action.(*engine.WaitAction)
	actor, ok := state.Entities.Actors[w.Actor()]
	if !ok || !actor.Alive {
		return engine.NewRejection(engine.RejectInvalidActor, "actor %d is not a living actor", w.Actor())
	}
	return nil
}

// Apply queues the ActionCost and StatusTick hooks; waiting still costs
// time and still advances the actor's own status-effect durations.
func (WaitHandler) Apply(state *engine.GameState, oracles engine.Oracles, action engine.Action, hooks *engine.HookQueue) error {
	w := action.(*engine.WaitAction)
	actor := state.Entities.Actors[w.Actor()]

	snap := engine.ComputeSnapshot(*actor, itemModifiers(actor, oracles), engine.DefaultConditions())
	hooks.Enqueue(ActionCostHook, engine.NewActionCostAction(actor.ID, snap.ActionCost))
	hooks.Enqueue(StatusTickHook, engine.NewStatusTickAction(actor.ID))
	return nil
}

// PostValidate is a no-op.
func (WaitHandler) PostValidate(state engine.GameState, action engine.Action) error {
	return nil
}
