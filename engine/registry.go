package engine

import "fmt"

// ActionHandler implements the three-phase contract for one ActionType:
// pre_validate rejects without touching state, apply mutates the cloned
// state and may enqueue follow-up hooks, post_validate checks invariants
// that must hold by construction.
type ActionHandler interface {
	Type() ActionType
	PreValidate(state GameState, oracles Oracles, action Action) error
	Apply(state *GameState, oracles Oracles, action Action, hooks *HookQueue) error
	PostValidate(state GameState, action Action) error
}

// Ruleset is the fixed table mapping ActionType to its handler. Unlike a
// global, self-registering handler registry, a Ruleset is built once
// at startup by NewRuleset and passed explicitly everywhere it is needed —
// no package-level mutable state, no import-order dependency, and the same
// construction path runs identically on host and inside the proving guest.
type Ruleset struct {
	handlers map[ActionType]ActionHandler
}

// NewRuleset builds a Ruleset from an explicit handler list. Duplicate
// ActionTypes are a construction-time error: rulesets are assembled once,
// at startup, never mutated afterward.
func NewRuleset(handlers ...ActionHandler) (*Ruleset, error) {
	r := &Ruleset{handlers: make(map[ActionType]ActionHandler, len(handlers))}
	for _, h := range handlers {
		t := h.Type()
		if _, exists := r.handlers[t]; exists {
			return nil, fmt.Errorf("engine: duplicate handler registered for action type %q", t)
		}
		r.handlers[t] = h
	}
	return r, nil
}

// Handler returns the handler registered for t, or false if none is.
func (r *Ruleset) Handler(t ActionType) (ActionHandler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}
