package actions

import "github.com/0xwonj/dungeon/engine"

// UseItemHandler consumes or activates an inventory item, applying its
// OnUseEffect and queuing the ActionCost hook.
type UseItemHandler struct{}

// Type implements engine.ActionHandler.
func (UseItemHandler) Type() engine.ActionType { return engine.ActionUseItem }

// PreValidate checks the actor is alive, holds the item, the item template
// exists and is off cooldown, and that Target (0 meaning the actor itself)
// names an existing actor.
func (UseItemHandler) PreValidate(state engine.GameState, oracles engine.Oracles, action engine.Action) error {
	use := action.(*engine.UseItemAction)
	actor, ok := state.Entities.Actors[use.Actor()]
	if !ok || !actor.Alive {
		return engine.NewRejection(engine.RejectInvalidActor, "actor %d is not a living actor", use.Actor())
	}
	if !actor.Inventory.Has(use.TemplateID, 1) {
		return engine.NewRejection(engine.RejectInsufficientResource, "actor %d does not hold item %q", actor.ID, use.TemplateID)
	}
	if oracles.Items == nil {
		return engine.NewRejection(engine.RejectRuleViolation, "no item oracle configured")
	}
	tpl, exists := oracles.Items.ItemTemplate(use.TemplateID)
	if !exists {
		return engine.NewRejection(engine.RejectRuleViolation, "unknown item template %q", use.TemplateID)
	}
	if remaining := actor.Cooldowns[use.TemplateID]; remaining > 0 {
		return engine.NewRejection(engine.RejectCooldownActive, "item %q on cooldown for %d more ticks", use.TemplateID, remaining)
	}
	target := use.Target
	if target == 0 {
		target = actor.ID
	}
	if _, exists := state.Entities.Actors[target]; !exists {
		return engine.NewRejection(engine.RejectInvalidActor, "use-item target %d does not exist", target)
	}
	_ = tpl
	return nil
}

// Apply removes one unit of the item (if consumable), applies its effect
// to the resolved target, starts its cooldown, and queues ActionCost.
func (UseItemHandler) Apply(state *engine.GameState, oracles engine.Oracles, action engine.Action, hooks *engine.HookQueue) error {
	use := action.(*engine.UseItemAction)
	actor := state.Entities.Actors[use.Actor()]
	tpl, _ := oracles.Items.ItemTemplate(use.TemplateID)

	target := use.Target
	if target == 0 {
		target = actor.ID
	}
	targetActor := state.Entities.Actors[target]

	if tpl.Consumable {
		actor.Inventory.Remove(use.TemplateID, 1)
	}
	if tpl.EquipSlot != "" {
		equipItem(actor, use.TemplateID, tpl.EquipSlot)
	}
	if tpl.Cooldown > 0 {
		if actor.Cooldowns == nil {
			actor.Cooldowns = make(map[string]int32)
		}
		actor.Cooldowns[use.TemplateID] = tpl.Cooldown
	}

	applyOnUseEffect(targetActor, tpl.OnUseEffect)
	targetSnap := engine.ComputeSnapshot(*targetActor, itemModifiers(targetActor, oracles), engine.DefaultConditions())
	if targetActor.Resources.HP > targetSnap.ResourceMax.HP {
		targetActor.Resources.HP = targetSnap.ResourceMax.HP
	}
	if targetActor.Resources.MP > targetSnap.ResourceMax.MP {
		targetActor.Resources.MP = targetSnap.ResourceMax.MP
	}

	snap := engine.ComputeSnapshot(*actor, itemModifiers(actor, oracles), engine.DefaultConditions())
	hooks.Enqueue(ActionCostHook, engine.NewActionCostAction(actor.ID, snap.ActionCost))
	return nil
}

// PostValidate is a no-op: all invariants UseItem could violate are
// covered by the global resource-bounds check.
func (UseItemHandler) PostValidate(state engine.GameState, action engine.Action) error {
	return nil
}

// applyOnUseEffect interprets the small fixed vocabulary of effect tags
// content authors attach to item templates.
func applyOnUseEffect(target *engine.Actor, effect string) {
	switch effect {
	case "heal_small":
		target.Resources.HP += 20
	case "heal_full":
		target.Resources.HP += 9999
	case "restore_mp":
		target.Resources.MP += 20
	case "restore_lucidity":
		target.Resources.Lucidity += 1
	}
}
