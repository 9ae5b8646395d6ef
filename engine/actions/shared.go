package actions

import "github.com/0xwonj/dungeon/engine"

// itemModifiers collects the Modifier entries contributed by actor's
// equipped item stacks, looked up through the ItemOracle. Unequipped
// stacks (Slot == "") contribute nothing.
func itemModifiers(actor *engine.Actor, oracles engine.Oracles) []engine.Modifier {
	if oracles.Items == nil {
		return nil
	}
	var mods []engine.Modifier
	for _, id := range actor.Inventory.SortedTemplateIDs() {
		stack := actor.Inventory.Stacks[id]
		if stack.Slot == "" {
			continue
		}
		tpl, ok := oracles.Items.ItemTemplate(stack.TemplateID)
		if !ok {
			continue
		}
		mods = append(mods, tpl.Modifiers...)
	}
	return mods
}

// equipItem moves slot's occupant to templateID, unequipping whatever
// stack previously held that slot so a slot never holds two occupants at
// once. Equipping something the actor is already wearing is a no-op.
func equipItem(actor *engine.Actor, templateID, slot string) {
	if current := actor.Inventory.Equipped(slot); current != "" && current != templateID {
		actor.Inventory.Equip(current, "")
	}
	actor.Inventory.Equip(templateID, slot)
}

func addPos(p, d engine.Pos) engine.Pos {
	return engine.Pos{X: p.X + d.X, Y: p.Y + d.Y}
}

func chebyshev(a, b engine.Pos) int32 {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}
