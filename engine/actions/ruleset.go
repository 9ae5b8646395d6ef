package actions

import "github.com/0xwonj/dungeon/engine"

// DefaultRuleset builds the engine.Ruleset covering every player-facing
// action type. Construction happens once at startup and the result is
// passed explicitly to every engine.Reduce call — host and guest alike.
func DefaultRuleset() (*engine.Ruleset, error) {
	return engine.NewRuleset(
		MoveHandler{},
		AttackHandler{},
		UseItemHandler{},
		InteractHandler{},
		WaitHandler{},
	)
}

// DefaultHooks builds the RootHooks table. Every handler in this package
// enqueues its own cross-cutting follow-ups (ActionCost, Activation,
// StatusTick) explicitly from Apply, since which follow-ups apply is a
// domain decision specific to each action type; the root-hook table
// itself stays empty and exists so a future action type that needs an
// externally-imposed hook (one the handler doesn't know about) has a place
// to declare it without touching the handler.
func DefaultHooks() engine.RootHooks {
	return engine.RootHooks{
		engine.ActionMove:     {},
		engine.ActionAttack:   {},
		engine.ActionUseItem:  {},
		engine.ActionInteract: {},
		engine.ActionWait:     {},
	}
}
