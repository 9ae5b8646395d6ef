package runtime

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/0xwonj/dungeon/engine"
)

// DeltaSink receives every committed StateDelta, in order. persistence.Writer
// satisfies this; tests and the proving guest's replay path can supply a
// stub.
type DeltaSink interface {
	Write(engine.StateDelta) error
}

// commandQueueCapacity bounds the simulation worker's inbound channel.
// Once full, Submit returns ErrQueueFull instead of blocking the caller.
const commandQueueCapacity = 1024

// Simulation is the single owner of GameState. It runs as one goroutine
// reading from a command channel; every other goroutine in the process
// talks to it only through Submit/Query/Checkpoint, never by touching
// GameState directly. This generalizes a consensus driver that is the
// sole owner of a blockchain and its state and drives the chain forward
// from a ticker+select loop; here the driving event is "the next actor
// becomes ready" rather than a fixed block interval.
type Simulation struct {
	state   engine.GameState
	oracles engine.Oracles
	ruleset *engine.Ruleset
	hooks   engine.RootHooks

	playerID         engine.EntityID
	activationRadius int32
	activeSet        []engine.EntityID

	providers map[engine.EntityID]ActionProvider
	fallback  ActionProvider

	bus     *Bus
	sink    DeltaSink

	historyMu sync.RWMutex
	history   []engine.Action

	commands chan Command
}

// NewSimulation constructs a Simulation over the given initial state,
// scheduling turns around player (the entity whose position centers the
// activation radius). sink may be nil (no persistence, e.g. in unit tests).
func NewSimulation(state engine.GameState, oracles engine.Oracles, ruleset *engine.Ruleset, hooks engine.RootHooks, bus *Bus, sink DeltaSink, player engine.EntityID) *Simulation {
	radius := int32(0)
	if oracles.Config != nil {
		radius = oracles.Config.Config().ActivationRadius
	}
	return &Simulation{
		state:            state,
		oracles:          oracles,
		ruleset:          ruleset,
		hooks:            hooks,
		playerID:         player,
		activationRadius: radius,
		providers:        make(map[engine.EntityID]ActionProvider),
		fallback:         WaitProvider{},
		bus:              bus,
		sink:             sink,
		commands:         make(chan Command, commandQueueCapacity),
	}
}

// Submit enqueues cmd for the worker goroutine. Returns ErrQueueFull
// immediately if the command channel is saturated rather than blocking.
func (s *Simulation) Submit(cmd Command) error {
	select {
	case s.commands <- cmd:
		return nil
	default:
		return ErrQueueFull{}
	}
}

// Run drives the simulation until ctx is cancelled. Each iteration either
// services one pending Command or, if none is waiting, advances the
// lowest next-ready actor by asking its registered ActionProvider for an
// action and reducing it. The worker suspends only on this select — it
// never blocks mid-transition.
func (s *Simulation) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.commands:
			s.handleCommand(cmd)
		default:
			s.advance(ctx)
		}
	}
}

func (s *Simulation) handleCommand(cmd Command) {
	switch cmd.Kind {
	case CmdSubmitAction:
		state, delta, err := engine.Reduce(s.state, s.oracles, s.ruleset, s.hooks, cmd.Action)
		if err == nil {
			s.commit(state, delta)
		} else if s.bus != nil {
			s.bus.Publish(Event{Topic: TopicActionFailed, Tick: s.state.Turn.Tick, Payload: err})
		}
		if cmd.Reply != nil {
			cmd.Reply <- CommandResult{State: s.state, Delta: delta, Err: err}
		}
	case CmdQuerySnapshot:
		if cmd.Reply != nil {
			cmd.Reply <- CommandResult{State: s.state}
		}
	case CmdRequestCheckpoint:
		if s.bus != nil {
			s.bus.Publish(Event{Topic: TopicCheckpoint, Tick: s.state.Turn.Tick, Payload: s.state})
		}
		if cmd.Reply != nil {
			cmd.Reply <- CommandResult{State: s.state}
		}
	case CmdRegisterProvider:
		s.providers[cmd.Actor] = cmd.Provider
		if cmd.Reply != nil {
			cmd.Reply <- CommandResult{}
		}
	case CmdPrepareNextTurn:
		tick, active := s.prepareNextTurn()
		if cmd.Reply != nil {
			cmd.Reply <- CommandResult{State: s.state, Tick: tick, Active: active}
		}
	}
}

// prepareNextTurn advances the clock to the next-ready actor's scheduled
// tick, rebuilds the active-entity set around the player within the
// configured activation radius, and publishes TopicTurnAdvanced. Returns
// (0, false) if no actor is alive to schedule, leaving the clock untouched.
func (s *Simulation) prepareNextTurn() (uint64, bool) {
	actor, ok := NextActive(s.state)
	if !ok {
		return s.state.Turn.Tick, false
	}

	tick := s.state.Turn.ReadyAt(actor)
	if tick > s.state.Turn.Tick {
		s.state.Turn.Tick = tick
	}
	s.state.Turn.ActiveEntity = actor

	var origin engine.Pos
	if player, ok := s.state.Entities.Actors[s.playerID]; ok {
		origin = player.Pos
	}
	s.activeSet = ActiveSet(s.state, origin, s.activationRadius)

	if s.bus != nil {
		s.bus.Publish(Event{Topic: TopicTurnAdvanced, Tick: s.state.Turn.Tick, Payload: s.activeSet})
	}
	return s.state.Turn.Tick, true
}

// advance asks the currently-ready actor's provider for its next action
// and reduces it. If no actor is alive, it idles by yielding back to Run.
func (s *Simulation) advance(ctx context.Context) {
	actor, ok := NextActive(s.state)
	if !ok {
		return
	}
	s.state.Turn.ActiveEntity = actor

	provider := s.providers[actor]
	if provider == nil {
		provider = s.fallback
	}
	action, err := provider.NextAction(ctx, s.state, actor)
	if err != nil {
		log.Error().Err(err).Uint64("actor", uint64(actor)).Msg("action provider failed")
		return
	}

	state, delta, err := engine.Reduce(s.state, s.oracles, s.ruleset, s.hooks, action)
	if err != nil {
		log.Warn().Err(err).Uint64("actor", uint64(actor)).Msg("action rejected")
		if s.bus != nil {
			s.bus.Publish(Event{Topic: TopicActionFailed, Tick: s.state.Turn.Tick, Payload: err})
		}
		return
	}
	s.commit(state, delta)
}

// commit installs state as the simulation's current state, persists the
// delta (if a sink is configured) and publishes bus notifications. A
// persistence failure is fatal to the simulation worker: an action whose
// delta cannot be durably recorded must not be allowed to silently
// advance in-memory state, or a crash afterward would lose it forever.
func (s *Simulation) commit(state engine.GameState, delta engine.StateDelta) {
	if s.sink != nil {
		if err := s.sink.Write(delta); err != nil {
			log.Fatal().Err(err).Msg("persistence write failed, aborting simulation worker")
		}
	}
	if len(delta.CutoffHooks) > 0 {
		log.Warn().Strs("hooks", delta.CutoffHooks).Uint64("tick", state.Turn.Tick).Msg("hook chain exceeded max depth; remaining hooks dropped")
	}
	s.state = state
	s.historyMu.Lock()
	s.history = append(s.history, delta.Action)
	s.historyMu.Unlock()

	if s.bus != nil {
		s.bus.Publish(Event{Topic: TopicActionApplied, Tick: state.Turn.Tick, Payload: delta})
		for _, p := range delta.EntityPatches {
			if p.Kind == "actor" && p.Op == engine.PatchModified {
				if a, ok := p.After.(*engine.Actor); ok && !a.Alive {
					s.bus.Publish(Event{Topic: TopicActorDied, Tick: state.Turn.Tick, Payload: a.ID})
				}
			}
		}
	}
}

// History returns the full ordered action log applied so far. Used to
// build a batch's actions_root for the proving pipeline. Safe to call
// concurrently with the simulation worker, unlike the other fields of
// Simulation, since the proving goroutine that calls this runs alongside
// the worker rather than through its command channel.
func (s *Simulation) History() []engine.Action {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	return append([]engine.Action(nil), s.history...)
}

// Snapshot returns a defensive copy of the current state. Safe to call
// from any goroutine via Submit(CmdQuerySnapshot); this direct accessor
// is only for single-threaded callers that construct a Simulation and
// drive it synchronously, and nothing in the module calls it at present.
func (s *Simulation) Snapshot() engine.GameState {
	return s.state.Clone()
}
