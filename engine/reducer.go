package engine

import "errors"

// RootHooks maps an ActionType to the root hooks that fire once the
// handler's Apply phase succeeds, ordered by Hook.Priority. Built once at
// startup alongside the Ruleset, passed explicitly into Reduce.
type RootHooks map[ActionType][]Hook

// Reduce is the engine's single entry point: given a state, the read-only
// oracle bundle and one action, it returns the next state and the delta
// describing the transition, or an *ActionRejection if the action is
// invalid. A rejection never mutates state — Reduce clones state.Clone()
// before handing anything to Apply, diffs against the untouched original,
// and only ever returns the clone to the caller on success.
//
// This is the pure function reused byte-for-byte by the proving guest:
// no clock reads, no randomness, no I/O.
func Reduce(state GameState, oracles Oracles, ruleset *Ruleset, hooks RootHooks, action Action) (GameState, StateDelta, error) {
	handler, ok := ruleset.Handler(action.Type())
	if !ok {
		return GameState{}, StateDelta{}, NewRejection(RejectRuleViolation, "no handler registered for action type %q", action.Type())
	}

	if err := validateNonce(state, action); err != nil {
		return GameState{}, StateDelta{}, err
	}

	if err := handler.PreValidate(state, oracles, action); err != nil {
		return GameState{}, StateDelta{}, asRejection(err)
	}

	working := state.Clone()

	queue := newHookQueue(hooks[action.Type()], action)
	if err := handler.Apply(&working, oracles, action, queue); err != nil {
		return GameState{}, StateDelta{}, asRejection(err)
	}

	var abortedHook string
	if err := queue.run(&working, oracles); err != nil {
		var critical *criticalHookError
		if errors.As(err, &critical) {
			return GameState{}, StateDelta{}, HookAborted(critical.name, critical.err)
		}
		var important *importantHookError
		if !errors.As(err, &important) {
			return GameState{}, StateDelta{}, asRejection(err)
		}
		// Important hook failures only abandon the remaining chain: the
		// triggering action's own Apply effects stand, so execution falls
		// through to advanceNonce/PostValidate/ComputeDelta on working.
		abortedHook = important.name
	}

	advanceNonce(&working, action)

	if err := handler.PostValidate(working, action); err != nil {
		return GameState{}, StateDelta{}, &PostValidateFailure{Invariant: string(action.Type()), Err: err}
	}
	if err := checkGlobalInvariants(working); err != nil {
		return GameState{}, StateDelta{}, err
	}

	delta := ComputeDelta(state, working, action)
	delta.CutoffHooks = queue.CutoffHooks
	delta.AbortedHook = abortedHook
	return working, delta, nil
}

// validateNonce enforces that the action nonce equals last_nonce(actor)+1
// exactly, except for system actions which are authored by hooks and carry
// their own sequence the reducer does not gate on (hooks are trusted
// callers, not players). Anything other than the immediate successor —
// including a forward jump — would silently skip nonces and is rejected.
func validateNonce(state GameState, action Action) error {
	if action.Actor() == SystemActorID {
		return nil
	}
	last := state.Turn.LastNonce(action.Actor())
	if action.Nonce() != last+1 {
		return NewRejection(RejectNonceMismatch, "actor %d nonce %d must equal last-applied %d + 1", action.Actor(), action.Nonce(), last)
	}
	return nil
}

func advanceNonce(state *GameState, action Action) {
	if action.Actor() == SystemActorID {
		return
	}
	if state.Turn.Nonces == nil {
		state.Turn.Nonces = make(map[EntityID]uint64)
	}
	state.Turn.Nonces[action.Actor()] = action.Nonce()
}

// asRejection normalizes a handler error into *ActionRejection so callers
// always see the typed taxonomy, even if a handler returned a plain error.
func asRejection(err error) error {
	var rej *ActionRejection
	if errors.As(err, &rej) {
		return rej
	}
	return NewRejection(RejectRuleViolation, "%v", err)
}
