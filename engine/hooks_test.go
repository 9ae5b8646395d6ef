package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfChainingHook returns a Hook that re-enqueues an identical hook every
// time it runs, so a single root enqueue produces a chain as deep as the
// queue allows.
func selfChainingHook(invocations *[]int) Hook {
	var h Hook
	h = Hook{
		Name:        "self_chain",
		Priority:    0,
		Criticality: Optional,
		Run: func(state *GameState, oracles Oracles, trigger Action, hooks *HookQueue) error {
			*invocations = append(*invocations, hooks.depth)
			hooks.Enqueue(h, trigger)
			return nil
		},
	}
	return h
}

func TestHookQueue_CutoffDoesNotFailTheRun(t *testing.T) {
	var invocations []int
	trigger := NewWaitAction(1, 1)

	q := newHookQueue([]Hook{selfChainingHook(&invocations)}, trigger)
	state := NewGameState(1, 1)

	err := q.run(&state, Oracles{})
	require.NoError(t, err, "hook-depth cutoff must not fail the run")

	// depth 0 through maxHookDepth (inclusive) all run: 51 invocations.
	assert.Len(t, invocations, maxHookDepth+1)
	assert.Equal(t, []string{"self_chain"}, q.CutoffHooks)
}

func TestHookQueue_ImportantFailureAbortsChainOnly(t *testing.T) {
	ran := false
	hooks := []Hook{
		{
			Name:        "fails",
			Priority:    0,
			Criticality: Important,
			Run: func(state *GameState, oracles Oracles, trigger Action, hooks *HookQueue) error {
				return assertErr{}
			},
		},
		{
			Name:        "never_runs",
			Priority:    1,
			Criticality: Optional,
			Run: func(state *GameState, oracles Oracles, trigger Action, hooks *HookQueue) error {
				ran = true
				return nil
			},
		},
	}
	trigger := NewWaitAction(1, 1)
	q := newHookQueue(hooks, trigger)
	state := NewGameState(1, 1)

	err := q.run(&state, Oracles{})
	require.Error(t, err)
	assert.False(t, ran, "important hook failure must abort remaining queued hooks")
}

func TestHookQueue_CriticalFailureReportsName(t *testing.T) {
	hooks := []Hook{
		{
			Name:        "critical_one",
			Priority:    0,
			Criticality: Critical,
			Run: func(state *GameState, oracles Oracles, trigger Action, hooks *HookQueue) error {
				return assertErr{}
			},
		},
	}
	trigger := NewWaitAction(1, 1)
	q := newHookQueue(hooks, trigger)
	state := NewGameState(1, 1)

	err := q.run(&state, Oracles{})
	require.Error(t, err)
	var critical *criticalHookError
	require.ErrorAs(t, err, &critical)
	assert.Equal(t, "critical_one", critical.name)
}

type assertErr struct{}

func (assertErr) Error() string { return "forced failure" }

// noopWaitHandler is a minimal ActionHandler for ActionWait that never
// rejects and never mutates state, used to exercise Reduce's hook-chain
// handling in isolation from the real engine/actions handlers.
type noopWaitHandler struct{}

func (noopWaitHandler) Type() ActionType { return ActionWait }
func (noopWaitHandler) PreValidate(GameState, Oracles, Action) error { return nil }
func (noopWaitHandler) Apply(*GameState, Oracles, Action, *HookQueue) error { return nil }
func (noopWaitHandler) PostValidate(GameState, Action) error { return nil }

// TestReduce_ImportantHookFailureDoesNotRejectAction exercises the
// Important-criticality path through the full Reduce entry point (not just
// HookQueue.run in isolation): a failing Important hook must abandon only
// the remaining chain, never the triggering action's own effects.
func TestReduce_ImportantHookFailureDoesNotRejectAction(t *testing.T) {
	ruleset, err := NewRuleset(noopWaitHandler{})
	require.NoError(t, err)

	neverRuns := false
	hooks := RootHooks{
		ActionWait: {
			{
				Name:        "important_fails",
				Priority:    0,
				Criticality: Important,
				Run: func(state *GameState, oracles Oracles, trigger Action, hooks *HookQueue) error {
					return assertErr{}
				},
			},
			{
				Name:        "never_runs",
				Priority:    1,
				Criticality: Optional,
				Run: func(state *GameState, oracles Oracles, trigger Action, hooks *HookQueue) error {
					neverRuns = true
					return nil
				},
			},
		},
	}

	player := &Actor{
		ID:        1,
		Pos:       Pos{X: 0, Y: 0},
		Stats:     CoreStats{STR: 5, DEX: 5, CON: 5, INT: 5, WIL: 5, EGO: 5, Level: 1},
		Resources: Resources{HP: 10, MP: 10, Lucidity: 10},
		Cooldowns: make(map[string]int32),
		Inventory: NewInventory(),
		Alive:     true,
	}
	state := NewGameState(1, 1)
	state.Entities.Actors[1] = player
	state.World.Occupancy[player.Pos] = player.ID

	wait := NewWaitAction(1, 1)
	next, delta, err := Reduce(state, Oracles{}, ruleset, hooks, wait)
	require.NoError(t, err, "an Important hook failure must not turn into an ActionRejection")
	assert.False(t, neverRuns, "the remaining chain must still be abandoned")
	assert.Equal(t, "important_fails", delta.AbortedHook)
	assert.Equal(t, uint64(1), next.Turn.LastNonce(1), "the triggering action's nonce advance must stand")
}
