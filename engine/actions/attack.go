package actions

import "github.com/0xwonj/dungeon/engine"

// AttackHandler implements a melee or ability strike against Target.
type AttackHandler struct{}

// Type implements engine.ActionHandler.
func (AttackHandler) Type() engine.ActionType { return engine.ActionAttack }

// PreValidate checks the attacker is alive, the target exists and is
// alive, the target is within range, and the ability (if any) is off
// cooldown.
func (AttackHandler) PreValidate(state engine.GameState, oracles engine.Oracles, action engine.Action) error {
	atk := action.(*engine.AttackAction)
	attacker, ok := state.Entities.Actors[atk.Actor()]
	if !ok || !attacker.Alive {
		return engine.NewRejection(engine.RejectInvalidActor, "actor %d is not a living actor", atk.Actor())
	}
	target, ok := state.Entities.Actors[atk.Target]
	if !ok || !target.Alive {
		return engine.NewRejection(engine.RejectInvalidActor, "target %d is not a living actor", atk.Target)
	}

	reach := int32(1)
	if atk.Ability != "" {
		if oracles.Tables == nil {
			return engine.NewRejection(engine.RejectRuleViolation, "no tables oracle configured for ability %q", atk.Ability)
		}
		profile, exists := oracles.Tables.AttackProfile(atk.Ability)
		if !exists {
			return engine.NewRejection(engine.RejectRuleViolation, "unknown attack profile %q", atk.Ability)
		}
		reach = profile.Range
		if remaining := attacker.Cooldowns[atk.Ability]; remaining > 0 {
			return engine.NewRejection(engine.RejectCooldownActive, "ability %q on cooldown for %d more ticks", atk.Ability, remaining)
		}
	}
	if chebyshev(attacker.Pos, target.Pos) > reach {
		return engine.NewRejection(engine.RejectOutOfRange, "target %d at range %d exceeds reach %d", atk.Target, chebyshev(attacker.Pos, target.Pos), reach)
	}
	return nil
}

// Apply sets the ability on cooldown (if any) and queues the Damage and
// ActionCost hooks.
func (AttackHandler) Apply(state *engine.GameState, oracles engine.Oracles, action engine.Action, hooks *engine.HookQueue) error {
	atk := action.(*engine.AttackAction)
	attacker := state.Entities.Actors[atk.Actor()]

	if atk.Ability != "" && oracles.Tables != nil {
		if profile, exists := oracles.Tables.AttackProfile(atk.Ability); exists {
			if attacker.Cooldowns == nil {
				attacker.Cooldowns = make(map[string]int32)
			}
			attacker.Cooldowns[atk.Ability] = profile.Cooldown
		}
	}

	snap := engine.ComputeSnapshot(*attacker, itemModifiers(attacker, oracles), engine.DefaultConditions())
	hooks.Enqueue(DamageHook, atk)
	hooks.Enqueue(ActionCostHook, engine.NewActionCostAction(attacker.ID, snap.ActionCost))
	return nil
}

// PostValidate checks the attacker is still in a consistent state (alive
// actors always carry a non-nil cooldown map once any ability fires).
func (AttackHandler) PostValidate(state engine.GameState, action engine.Action) error {
	atk := action.(*engine.AttackAction)
	if atk.Ability == "" {
		return nil
	}
	if attacker, ok := state.Entities.Actors[atk.Actor()]; ok && attacker.Alive && attacker.Cooldowns == nil {
		return engine.NewRejection(engine.RejectRuleViolation, "attacker %d used ability %q but has no cooldown map", atk.Actor(), atk.Ability)
	}
	return nil
}
