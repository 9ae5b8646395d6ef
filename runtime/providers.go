package runtime

import (
	"context"

	"github.com/0xwonj/dungeon/engine"
)

// ActionProvider supplies the next action for one entity when it becomes
// active. Implementations may block (human input) or return immediately
// (AI, replay); the simulation worker always calls them with a context it
// can cancel at shutdown.
type ActionProvider interface {
	NextAction(ctx context.Context, state engine.GameState, actor engine.EntityID) (engine.Action, error)
}

// WaitProvider always issues a Wait action. Useful for idle NPCs and as a
// fallback when no richer provider is registered for an actor.
type WaitProvider struct{}

// NextAction implements ActionProvider.
func (WaitProvider) NextAction(ctx context.Context, state engine.GameState, actor engine.EntityID) (engine.Action, error) {
	nonce := state.Turn.LastNonce(actor) + 1
	return engine.NewWaitAction(actor, nonce), nil
}

// ReplayProvider feeds actions from a fixed, pre-recorded sequence, one
// per call per actor, in order. Used to deterministically re-derive a
// past session for verification or for the proving guest.
type ReplayProvider struct {
	queued map[engine.EntityID][]engine.Action
}

// NewReplayProvider returns a ReplayProvider seeded with the given
// per-actor action sequences.
func NewReplayProvider(queued map[engine.EntityID][]engine.Action) *ReplayProvider {
	return &ReplayProvider{queued: queued}
}

// NextAction implements ActionProvider. Once an actor's queue is
// exhausted it returns a Wait action for that actor, as WaitProvider does.
func (p *ReplayProvider) NextAction(ctx context.Context, state engine.GameState, actor engine.EntityID) (engine.Action, error) {
	q := p.queued[actor]
	if len(q) == 0 {
		return WaitProvider{}.NextAction(ctx, state, actor)
	}
	next := q[0]
	p.queued[actor] = q[1:]
	return next, nil
}

// ChannelProvider bridges an external actor (human client, remote AI
// service) into the simulation: NextAction blocks on a channel until an
// action arrives or ctx is cancelled.
type ChannelProvider struct {
	actions chan engine.Action
}

// NewChannelProvider returns a ChannelProvider reading from actions.
func NewChannelProvider(actions chan engine.Action) *ChannelProvider {
	return &ChannelProvider{actions: actions}
}

// NextAction implements ActionProvider.
func (p *ChannelProvider) NextAction(ctx context.Context, state engine.GameState, actor engine.EntityID) (engine.Action, error) {
	select {
	case a := <-p.actions:
		return a, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// UtilityAIProvider picks an action by scoring a small fixed set of
// candidate intents (attack nearest living hostile in range, else step
// toward it, else wait) and returning the highest-scoring one. It has no
// look-ahead and no learned weights; it exists to exercise the engine's
// NPC-authored-action path deterministically.
type UtilityAIProvider struct {
	HostileOf func(actor engine.EntityID) []engine.EntityID
}

// NextAction implements ActionProvider.
func (p *UtilityAIProvider) NextAction(ctx context.Context, state engine.GameState, actor engine.EntityID) (engine.Action, error) {
	self, ok := state.Entities.Actors[actor]
	nonce := state.Turn.LastNonce(actor) + 1
	if !ok || p.HostileOf == nil {
		return engine.NewWaitAction(actor, nonce), nil
	}

	var nearest engine.EntityID
	var nearestDist int32 = -1
	for _, id := range p.HostileOf(actor) {
		target, exists := state.Entities.Actors[id]
		if !exists || !target.Alive {
			continue
		}
		d := chebyshev(self.Pos, target.Pos)
		if nearestDist < 0 || d < nearestDist {
			nearest, nearestDist = id, d
		}
	}
	if nearestDist < 0 {
		return engine.NewWaitAction(actor, nonce), nil
	}
	if nearestDist <= 1 {
		return engine.NewAttackAction(actor, nonce, nearest, ""), nil
	}

	target := state.Entities.Actors[nearest]
	dir := stepToward(self.Pos, target.Pos)
	return engine.NewMoveAction(actor, nonce, dir), nil
}

func stepToward(from, to engine.Pos) engine.Direction {
	dx, dy := to.X-from.X, to.Y-from.Y
	switch {
	case dx > 0 && dy > 0:
		return engine.SouthEast
	case dx > 0 && dy < 0:
		return engine.NorthEast
	case dx < 0 && dy > 0:
		return engine.SouthWest
	case dx < 0 && dy < 0:
		return engine.NorthWest
	case dx > 0:
		return engine.East
	case dx < 0:
		return engine.West
	case dy > 0:
		return engine.South
	default:
		return engine.North
	}
}
