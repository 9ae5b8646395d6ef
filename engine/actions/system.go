package actions

import "github.com/0xwonj/dungeon/engine"

// ActionCostHook schedules Target's next-ready tick from the
// ActionCostAction it is enqueued with. Every player-action handler's Apply
// enqueues it.
var ActionCostHook = engine.Hook{
	Name:        "action_cost",
	Priority:    0,
	Criticality: engine.Critical,
	Run:         runActionCost,
}

// ActivationHook recomputes the active-entity set around the actor who
// just moved or acted.
var ActivationHook = engine.Hook{
	Name:        "activation",
	Priority:    10,
	Criticality: engine.Important,
	Run:         runActivation,
}

// DamageHook applies a flat or derived amount of damage to Target and, if
// it drops to zero HP, chains the DeathCheck hook.
var DamageHook = engine.Hook{
	Name:        "damage",
	Priority:    0,
	Criticality: engine.Critical,
	Run:         runDamage,
}

// DeathCheckHook marks an actor dead once its HP reaches zero.
var DeathCheckHook = engine.Hook{
	Name:        "death_check",
	Priority:    5,
	Criticality: engine.Important,
	Run:         runDeathCheck,
}

// StatusTickHook advances the status-effect durations of the
// StatusTickAction's Target only, dropping effects that reach zero.
var StatusTickHook = engine.Hook{
	Name:        "status_tick",
	Priority:    20,
	Criticality: engine.Optional,
	Run:         runStatusTick,
}

func runActionCost(state *engine.GameState, oracles engine.Oracles, trigger engine.Action, hooks *engine.HookQueue) error {
	ac, ok := trigger.(*engine.ActionCostAction)
	if !ok {
		return nil
	}
	if state.Turn.NextReady == nil {
		state.Turn.NextReady = make(map[engine.EntityID]uint64)
	}
	state.Turn.NextReady[ac.Target] = state.Turn.Tick + uint64(ac.Ticks)
	return nil
}

func runActivation(state *engine.GameState, oracles engine.Oracles, trigger engine.Action, hooks *engine.HookQueue) error {
	act, ok := trigger.(*engine.ActivationAction)
	if !ok || oracles.Config == nil {
		return nil
	}
	center, exists := state.Entities.Actors[act.Target]
	if !exists {
		return nil
	}
	radius := oracles.Config.Config().ActivationRadius
	for _, id := range state.Entities.SortedActorIDs() {
		a := state.Entities.Actors[id]
		if !a.Alive {
			continue
		}
		if chebyshev(a.Pos, center.Pos) <= radius {
			state.Turn.ActiveEntity = id
			break
		}
	}
	return nil
}

// runDamage recomputes the attack/defense snapshot from the trigger action
// and oracles rather than accepting a precomputed amount, so the damage
// pass stays replayable from the action alone.
func runDamage(state *engine.GameState, oracles engine.Oracles, trigger engine.Action, hooks *engine.HookQueue) error {
	atk, ok := trigger.(*engine.AttackAction)
	if !ok {
		return nil
	}
	attacker, ok := state.Entities.Actors[atk.Actor()]
	if !ok {
		return nil
	}
	target, ok := state.Entities.Actors[atk.Target]
	if !ok || !target.Alive {
		return nil
	}

	snap := engine.ComputeSnapshot(*attacker, itemModifiers(attacker, oracles), engine.DefaultConditions())
	defSnap := engine.ComputeSnapshot(*target, itemModifiers(target, oracles), engine.DefaultConditions())

	base := snap.Attack
	if oracles.Tables != nil && atk.Ability != "" {
		if profile, exists := oracles.Tables.AttackProfile(atk.Ability); exists {
			base = profile.BaseDamage
		}
	}
	dmg := base - defSnap.Defense
	if dmg < 0 {
		dmg = 0
	}

	target.Resources.HP -= dmg
	if target.Resources.HP <= 0 {
		target.Resources.HP = 0
		hooks.Enqueue(DeathCheckHook, engine.NewSetDeathAction(target.ID))
	}
	return nil
}

func runDeathCheck(state *engine.GameState, oracles engine.Oracles, trigger engine.Action, hooks *engine.HookQueue) error {
	sd, ok := trigger.(*engine.SetDeathAction)
	if !ok {
		return nil
	}
	target, exists := state.Entities.Actors[sd.Target]
	if !exists || !target.Alive {
		return nil
	}
	target.Alive = false
	delete(state.World.Occupancy, target.Pos)
	return nil
}

func runStatusTick(state *engine.GameState, oracles engine.Oracles, trigger engine.Action, hooks *engine.HookQueue) error {
	st, ok := trigger.(*engine.StatusTickAction)
	if !ok {
		return nil
	}
	actor, exists := state.Entities.Actors[st.Target]
	if !exists {
		return nil
	}
	kept := actor.Statuses[:0]
	for _, s := range actor.Statuses {
		s.Remaining--
		if s.Remaining > 0 {
			kept = append(kept, s)
		}
	}
	actor.Statuses = kept
	return nil
}
