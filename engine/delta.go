package engine

// PatchOp tags what happened to one field or entity.
type PatchOp uint8

const (
	PatchAdded PatchOp = iota
	PatchRemoved
	PatchModified
)

// EntityPatch describes how one entity changed between the pre- and
// post-apply snapshots.
type EntityPatch struct {
	ID     EntityID
	Kind   string // "actor" | "item" | "prop"
	Op     PatchOp
	Before any
	After  any
}

// WorldPatch describes a tile-overlay or occupancy change.
type WorldPatch struct {
	Pos        Pos
	OccupiedBy EntityID // 0 if the tile became unoccupied
	Overlay    *Overlay // non-nil if an overlay changed at Pos
}

// ReadyPatch records one actor's next-ready-tick change.
type ReadyPatch struct {
	Actor  EntityID
	Before uint64
	After  uint64
}

// StateDelta is the compact description of one transition: the action
// applied, the turn-clock/nonce change, and per-entity / world patches.
// This is the sole input accepted by persistence for the action log and by
// event consumers — never the full before/after state.
type StateDelta struct {
	Action        Action
	TickBefore    uint64
	TickAfter     uint64
	NonceActor    EntityID
	NonceBefore   uint64
	NonceAfter    uint64
	ActiveBefore  EntityID
	ActiveAfter   EntityID
	ReadyPatches  []ReadyPatch
	EntityPatches []EntityPatch
	WorldPatches  []WorldPatch

	// CutoffHooks names any hook dropped because its chain exceeded
	// maxHookDepth. Empty on every ordinary transition; a caller that
	// wants to log a hook-chain-depth cutoff reads this field rather than
	// the engine logging it directly.
	CutoffHooks []string

	// AbortedHook names the Important-criticality hook whose failure cut
	// the chain short, if any. The triggering action's own effects still
	// stand — only the remaining chain was abandoned — and a caller that
	// wants to log the failure reads this field rather than the engine
	// logging it directly.
	AbortedHook string
}

// ComputeDelta diffs before and after field-wise in stable entity-id order
// and returns the StateDelta for action. Comparison never ranges over Go
// maps directly.
func ComputeDelta(before, after GameState, action Action) StateDelta {
	d := StateDelta{
		Action:     action,
		TickBefore: before.Turn.Tick,
		TickAfter:  after.Turn.Tick,
		NonceActor: action.Actor(),
	}
	d.NonceBefore = before.Turn.LastNonce(action.Actor())
	d.NonceAfter = after.Turn.LastNonce(action.Actor())
	d.ActiveBefore = before.Turn.ActiveEntity
	d.ActiveAfter = after.Turn.ActiveEntity
	d.ReadyPatches = diffReady(before.Turn, after.Turn)

	ids := unionSortedActorIDs(before.Entities, after.Entities)
	for _, id := range ids {
		b, hasBefore := before.Entities.Actors[id]
		a, hasAfter := after.Entities.Actors[id]
		switch {
		case !hasBefore && hasAfter:
			d.EntityPatches = append(d.EntityPatches, EntityPatch{ID: id, Kind: "actor", Op: PatchAdded, After: a})
		case hasBefore && !hasAfter:
			d.EntityPatches = append(d.EntityPatches, EntityPatch{ID: id, Kind: "actor", Op: PatchRemoved, Before: b})
		case hasBefore && hasAfter && !actorsEqual(b, a):
			d.EntityPatches = append(d.EntityPatches, EntityPatch{ID: id, Kind: "actor", Op: PatchModified, Before: b, After: a})
		}
	}

	itemIDs := unionSortedItemIDs(before.Entities, after.Entities)
	for _, id := range itemIDs {
		b, hasBefore := before.Entities.Items[id]
		a, hasAfter := after.Entities.Items[id]
		switch {
		case !hasBefore && hasAfter:
			d.EntityPatches = append(d.EntityPatches, EntityPatch{ID: id, Kind: "item", Op: PatchAdded, After: a})
		case hasBefore && !hasAfter:
			d.EntityPatches = append(d.EntityPatches, EntityPatch{ID: id, Kind: "item", Op: PatchRemoved, Before: b})
		case hasBefore && hasAfter && !itemsEqual(b, a):
			d.EntityPatches = append(d.EntityPatches, EntityPatch{ID: id, Kind: "item", Op: PatchModified, Before: b, After: a})
		}
	}

	propIDs := unionSortedPropIDs(before.Entities, after.Entities)
	for _, id := range propIDs {
		b, hasBefore := before.Entities.Props[id]
		a, hasAfter := after.Entities.Props[id]
		switch {
		case !hasBefore && hasAfter:
			d.EntityPatches = append(d.EntityPatches, EntityPatch{ID: id, Kind: "prop", Op: PatchAdded, After: a})
		case hasBefore && !hasAfter:
			d.EntityPatches = append(d.EntityPatches, EntityPatch{ID: id, Kind: "prop", Op: PatchRemoved, Before: b})
		case hasBefore && hasAfter && *b != *a:
			d.EntityPatches = append(d.EntityPatches, EntityPatch{ID: id, Kind: "prop", Op: PatchModified, Before: b, After: a})
		}
	}

	d.WorldPatches = diffWorld(before.World, after.World)
	return d
}

// diffReady returns the actors whose NextReady tick changed, in ascending
// actor-id order.
func diffReady(before, after TurnState) []ReadyPatch {
	seen := make(map[EntityID]struct{}, len(before.NextReady)+len(after.NextReady))
	for id := range before.NextReady {
		seen[id] = struct{}{}
	}
	for id := range after.NextReady {
		seen[id] = struct{}{}
	}
	ids := make([]EntityID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	var patches []ReadyPatch
	for _, id := range ids {
		b := before.NextReady[id]
		a := after.NextReady[id]
		if b != a {
			patches = append(patches, ReadyPatch{Actor: id, Before: b, After: a})
		}
	}
	return patches
}

// ApplyDelta reconstructs the post-transition state by replaying delta's
// recorded patches onto before, rather than re-running Reduce. It exists so
// a delta is provably a complete description of what changed, not merely a
// log line; engine/delta_test.go exercises that property. No other package
// calls it: persistence.Reader only decodes log records, and the replay
// command re-runs Reduce. before must be the exact pre-transition state the
// delta was computed from; ApplyDelta does not validate that.
func ApplyDelta(before GameState, delta StateDelta) GameState {
	after := before.Clone()

	after.Turn.Tick = delta.TickAfter
	after.Turn.ActiveEntity = delta.ActiveAfter
	if delta.NonceActor != SystemActorID {
		if after.Turn.Nonces == nil {
			after.Turn.Nonces = make(map[EntityID]uint64)
		}
		after.Turn.Nonces[delta.NonceActor] = delta.NonceAfter
	}
	for _, rp := range delta.ReadyPatches {
		if after.Turn.NextReady == nil {
			after.Turn.NextReady = make(map[EntityID]uint64)
		}
		after.Turn.NextReady[rp.Actor] = rp.After
	}

	for _, p := range delta.EntityPatches {
		applyEntityPatch(&after, p)
	}
	for _, wp := range delta.WorldPatches {
		applyWorldPatch(&after, wp)
	}
	return after
}

func applyEntityPatch(state *GameState, p EntityPatch) {
	switch p.Kind {
	case "actor":
		if p.Op == PatchRemoved {
			delete(state.Entities.Actors, p.ID)
			return
		}
		if a, ok := p.After.(*Actor); ok {
			state.Entities.Actors[p.ID] = a.Clone()
		}
	case "item":
		if p.Op == PatchRemoved {
			delete(state.Entities.Items, p.ID)
			return
		}
		if it, ok := p.After.(*Item); ok {
			state.Entities.Items[p.ID] = it.Clone()
		}
	case "prop":
		if p.Op == PatchRemoved {
			delete(state.Entities.Props, p.ID)
			return
		}
		if pr, ok := p.After.(*Prop); ok {
			state.Entities.Props[p.ID] = pr.Clone()
		}
	}
}

func applyWorldPatch(state *GameState, wp WorldPatch) {
	if wp.Overlay != nil {
		o := *wp.Overlay
		replaced := false
		for i := range state.World.Overlays {
			if state.World.Overlays[i].Pos == o.Pos {
				state.World.Overlays[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			state.World.Overlays = append(state.World.Overlays, o)
		}
		return
	}
	if state.World.Occupancy == nil {
		state.World.Occupancy = make(map[Pos]EntityID)
	}
	if wp.OccupiedBy == 0 {
		delete(state.World.Occupancy, wp.Pos)
	} else {
		state.World.Occupancy[wp.Pos] = wp.OccupiedBy
	}
}

func unionSortedActorIDs(before, after EntitiesState) []EntityID {
	return unionIDs(before.Actors, after.Actors)
}
func unionSortedItemIDs(before, after EntitiesState) []EntityID {
	return unionIDs(before.Items, after.Items)
}
func unionSortedPropIDs(before, after EntitiesState) []EntityID {
	return unionIDs(before.Props, after.Props)
}

func unionIDs[T any](before, after map[EntityID]T) []EntityID {
	seen := make(map[EntityID]struct{}, len(before)+len(after))
	for id := range before {
		seen[id] = struct{}{}
	}
	for id := range after {
		seen[id] = struct{}{}
	}
	ids := make([]EntityID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	// insertion sort keeps this dependency-free and is fine for per-turn
	// entity counts (tens to low hundreds).
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

func actorsEqual(a, b *Actor) bool {
	if a.Pos != b.Pos || a.Stats != b.Stats || a.Resources != b.Resources || a.Alive != b.Alive || a.TemplateID != b.TemplateID {
		return false
	}
	if len(a.Statuses) != len(b.Statuses) {
		return false
	}
	for i := range a.Statuses {
		if a.Statuses[i] != b.Statuses[i] {
			return false
		}
	}
	if len(a.Cooldowns) != len(b.Cooldowns) {
		return false
	}
	for k, v := range a.Cooldowns {
		if b.Cooldowns[k] != v {
			return false
		}
	}
	if len(a.Inventory.Stacks) != len(b.Inventory.Stacks) {
		return false
	}
	for k, v := range a.Inventory.Stacks {
		if b.Inventory.Stacks[k] != v {
			return false
		}
	}
	return true
}

func itemsEqual(a, b *Item) bool {
	if a.TemplateID != b.TemplateID || a.Owner != b.Owner || a.Pos != b.Pos {
		return false
	}
	if len(a.Properties) != len(b.Properties) {
		return false
	}
	for k, v := range a.Properties {
		if b.Properties[k] != v {
			return false
		}
	}
	return true
}

func diffWorld(before, after WorldState) []WorldPatch {
	var patches []WorldPatch

	seen := make(map[Pos]struct{}, len(before.Occupancy)+len(after.Occupancy))
	for p := range before.Occupancy {
		seen[p] = struct{}{}
	}
	for p := range after.Occupancy {
		seen[p] = struct{}{}
	}
	positions := make([]Pos, 0, len(seen))
	for p := range seen {
		positions = append(positions, p)
	}
	sortPositions(positions)
	for _, p := range positions {
		b, hasBefore := before.Occupancy[p]
		a, hasAfter := after.Occupancy[p]
		if hasBefore != hasAfter || b != a {
			patches = append(patches, WorldPatch{Pos: p, OccupiedBy: a})
		}
	}

	n := len(before.Overlays)
	if len(after.Overlays) < n {
		n = len(after.Overlays)
	}
	for i := 0; i < n; i++ {
		if before.Overlays[i] != after.Overlays[i] {
			o := after.Overlays[i]
			patches = append(patches, WorldPatch{Pos: o.Pos, Overlay: &o})
		}
	}
	for i := n; i < len(after.Overlays); i++ {
		o := after.Overlays[i]
		patches = append(patches, WorldPatch{Pos: o.Pos, Overlay: &o})
	}
	return patches
}

func sortPositions(ps []Pos) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && less(ps[j], ps[j-1]); j-- {
			ps[j-1], ps[j] = ps[j], ps[j-1]
		}
	}
}

func less(a, b Pos) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
