package engine

import "fmt"

// Criticality grades how a hook failure propagates.
type Criticality uint8

const (
	// Critical hook failures abort the entire triggering action: the
	// in-flight state clone is discarded and an ActionRejection(HookAborted)
	// is returned instead, as if pre_validate had failed.
	Critical Criticality = iota
	// Important hook failures abort only the hook chain from this point
	// on; the triggering action's own effects stand.
	Important
	// Optional hook failures are ignored (the engine does no logging); the
	// chain continues to the next queued hook.
	Optional
)

// HookFunc mutates the in-progress state in response to a triggering
// action or a previously run hook. It may enqueue further hooks onto the
// same HookQueue it is given (chaining), never recursing directly.
type HookFunc func(state *GameState, oracles Oracles, trigger Action, hooks *HookQueue) error

// Hook pairs a HookFunc with its identity and failure grading.
type Hook struct {
	Name        string
	Priority    int // lower runs first among hooks queued at the same depth
	Criticality Criticality
	Run         HookFunc
}

// queuedHook is one entry in the work queue: the hook plus the action that
// triggered it and the depth it was enqueued at.
type queuedHook struct {
	hook    Hook
	trigger Action
	depth   int
}

// maxHookDepth bounds hook chaining. A hook that enqueues another hook
// which enqueues another, 50 levels deep, is almost certainly a cycle —
// the queue stops draining rather than looping forever, but (per the
// spec's hook-chain-termination behavior) this is not itself a failure of
// the triggering action: whatever the chain already applied stands, and
// the overflow is merely dropped.
const maxHookDepth = 50

// HookQueue is the explicit work queue a reducer pass runs: root hooks
// registered against an ActionType are seeded at depth 0 ordered by
// Priority; each hook may enqueue further hooks (chaining) at depth+1.
// This is a queue processed iteratively, never a recursive call stack, so
// depth is tracked and bounded explicitly.
type HookQueue struct {
	pending []queuedHook
	depth   int

	// CutoffHooks names any hook dropped for exceeding maxHookDepth. The
	// engine itself never logs (it must stay I/O-free to run unmodified
	// inside the proving guest); a non-empty slice here is the signal a
	// caller such as runtime/ uses to emit its own warning log.
	CutoffHooks []string
}

// newHookQueue seeds a queue with root hooks for trigger, already sorted
// by Priority.
func newHookQueue(roots []Hook, trigger Action) *HookQueue {
	q := &HookQueue{}
	sorted := append([]Hook(nil), roots...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].Priority > sorted[j].Priority; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	for _, h := range sorted {
		q.pending = append(q.pending, queuedHook{hook: h, trigger: trigger, depth: 0})
	}
	return q
}

// Enqueue schedules hook to run against trigger, chained from whatever
// hook is currently executing. Called from inside a HookFunc.
func (q *HookQueue) Enqueue(hook Hook, trigger Action) {
	q.pending = append(q.pending, queuedHook{hook: hook, trigger: trigger, depth: q.depth + 1})
}

// run drains the queue, returning a non-nil error when a Critical or an
// Important hook fails. Callers distinguish the two by the returned
// error's type: *criticalHookError means the whole triggering action must
// be discarded; *importantHookError means only the remaining chain was
// abandoned and whatever already applied — including the triggering
// action's own Apply — stands. Hooks queued past maxHookDepth are dropped
// (recorded in CutoffHooks) rather than treated as a failure: the
// triggering action, and everything the chain applied up to the cutoff,
// still succeeds.
func (q *HookQueue) run(state *GameState, oracles Oracles) error {
	for len(q.pending) > 0 {
		next := q.pending[0]
		q.pending = q.pending[1:]

		if next.depth > maxHookDepth {
			q.CutoffHooks = append(q.CutoffHooks, next.hook.Name)
			continue
		}

		q.depth = next.depth
		err := next.hook.Run(state, oracles, next.trigger, q)
		if err == nil {
			continue
		}

		switch next.hook.Criticality {
		case Critical:
			return &criticalHookError{name: next.hook.Name, err: err}
		case Important:
			return &importantHookError{name: next.hook.Name, err: err}
		case Optional:
			continue
		}
	}
	return nil
}

type criticalHookError struct {
	name string
	err  error
}

func (e *criticalHookError) Error() string {
	return fmt.Sprintf("critical hook %q failed: %v", e.name, e.err)
}

func (e *criticalHookError) Unwrap() error { return e.err }

// importantHookError signals that an Important-criticality hook failed:
// the chain it was part of was abandoned, but the triggering action's own
// effects are not rolled back. Reduce special-cases this type to keep
// processing working rather than discarding it via asRejection.
type importantHookError struct {
	name string
	err  error
}

func (e *importantHookError) Error() string {
	return fmt.Sprintf("important hook %q failed, chain aborted: %v", e.name, e.err)
}

func (e *importantHookError) Unwrap() error { return e.err }
