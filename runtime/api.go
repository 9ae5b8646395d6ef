package runtime

import (
	"context"
	"time"

	"github.com/0xwonj/dungeon/engine"
)

// requestTimeout bounds how long a synchronous API call waits for the
// worker to service its request before giving up.
const requestTimeout = 5 * time.Second

// SubmitAction sends action to the simulation worker and blocks for the
// result. This is the in-process entry point the RPC layer and cmd/dungeond
// wrap with their own transport.
func (s *Simulation) SubmitAction(ctx context.Context, action engine.Action) (engine.GameState, engine.StateDelta, error) {
	reply := make(chan CommandResult, 1)
	if err := s.Submit(Command{Kind: CmdSubmitAction, Action: action, Reply: reply}); err != nil {
		return engine.GameState{}, engine.StateDelta{}, err
	}
	select {
	case res := <-reply:
		return res.State, res.Delta, res.Err
	case <-ctx.Done():
		return engine.GameState{}, engine.StateDelta{}, ctx.Err()
	case <-time.After(requestTimeout):
		return engine.GameState{}, engine.StateDelta{}, ErrQueueFull{}
	}
}

// QuerySnapshot returns the current GameState as seen by the worker.
func (s *Simulation) QuerySnapshot(ctx context.Context) (engine.GameState, error) {
	reply := make(chan CommandResult, 1)
	if err := s.Submit(Command{Kind: CmdQuerySnapshot, Reply: reply}); err != nil {
		return engine.GameState{}, err
	}
	select {
	case res := <-reply:
		return res.State, res.Err
	case <-ctx.Done():
		return engine.GameState{}, ctx.Err()
	case <-time.After(requestTimeout):
		return engine.GameState{}, ErrQueueFull{}
	}
}

// RequestCheckpoint asks the worker to publish a TopicCheckpoint event
// carrying the current state, for cmd/dungeond's checkpointer to pick up.
func (s *Simulation) RequestCheckpoint(ctx context.Context) error {
	reply := make(chan CommandResult, 1)
	if err := s.Submit(Command{Kind: CmdRequestCheckpoint, Reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(requestTimeout):
		return ErrQueueFull{}
	}
}

// PrepareNextTurn advances the clock to the next-ready actor's scheduled
// tick and rebuilds the active-entity set around the player. It returns the
// new tick and whether any actor was alive to schedule; active is false
// once every actor is dead and the clock is left untouched.
func (s *Simulation) PrepareNextTurn(ctx context.Context) (uint64, bool, error) {
	reply := make(chan CommandResult, 1)
	if err := s.Submit(Command{Kind: CmdPrepareNextTurn, Reply: reply}); err != nil {
		return 0, false, err
	}
	select {
	case res := <-reply:
		return res.Tick, res.Active, res.Err
	case <-ctx.Done():
		return 0, false, ctx.Err()
	case <-time.After(requestTimeout):
		return 0, false, ErrQueueFull{}
	}
}

// RegisterProvider binds provider as actor's ActionProvider.
func (s *Simulation) RegisterProvider(ctx context.Context, actor engine.EntityID, provider ActionProvider) error {
	reply := make(chan CommandResult, 1)
	if err := s.Submit(Command{Kind: CmdRegisterProvider, Actor: actor, Provider: provider, Reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(requestTimeout):
		return ErrQueueFull{}
	}
}
