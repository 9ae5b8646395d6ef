// Package engine implements the deterministic game state machine: a pure
// transition function over GameState, OracleSnapshot and Action that is
// reused byte-for-byte by the proving guest. No clock reads, no I/O, no
// ambient randomness — every byte of output is a function of the inputs.
package engine

import (
	"fmt"
	"sort"
)

// EntityID identifies an actor, item or prop. 0 is reserved for the system
// actor used by hook-generated actions.
type EntityID uint64

// SystemActorID is the reserved identity hooks use to author follow-up
// actions (death checks, status ticks, activation updates).
const SystemActorID EntityID = 0

// Pos is a grid coordinate. (0,0) is the top-left cell.
type Pos struct {
	X, Y int32
}

// MarshalText renders p as "x,y" so Pos can key a JSON map — encoding/json
// refuses struct-typed map keys unless they implement TextMarshaler, and
// WorldState.Occupancy is keyed by Pos. Only checkpoint persistence
// (persistence/checkpoint.go) round-trips GameState through JSON; the
// canonical hashing path in canonical.go never uses this.
func (p Pos) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d,%d", p.X, p.Y)), nil
}

// UnmarshalText parses the "x,y" form written by MarshalText.
func (p *Pos) UnmarshalText(text []byte) error {
	var x, y int32
	if _, err := fmt.Sscanf(string(text), "%d,%d", &x, &y); err != nil {
		return fmt.Errorf("engine: invalid Pos text %q: %w", text, err)
	}
	p.X, p.Y = x, y
	return nil
}

// CoreStats are the six persisted attributes plus level. These and current
// resources are the sole persisted stat SSOT; everything else is derived.
type CoreStats struct {
	STR, DEX, CON, INT, WIL, EGO int32
	Level                        int32
}

// Resources holds an actor's current consumable pools. Maxima are derived
// from CoreStats on demand and never stored.
type Resources struct {
	HP, MP, Lucidity int32
}

// StatusEffect is a timed modifier attached to an actor.
type StatusEffect struct {
	ID        string
	Remaining int32 // ticks remaining; 0 means expires this turn
}

// Actor is a living entity: position, stats, resources, status effects,
// cooldowns and an inventory.
type Actor struct {
	ID         EntityID
	Pos        Pos
	Stats      CoreStats
	Resources  Resources
	Statuses   []StatusEffect
	Cooldowns  map[string]int32 // ability id -> ticks remaining
	Inventory  Inventory
	TemplateID string
	Alive      bool
}

// Clone returns a deep copy of the actor, used for snapshot/delta comparison.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}
	c := *a
	c.Statuses = append([]StatusEffect(nil), a.Statuses...)
	c.Cooldowns = make(map[string]int32, len(a.Cooldowns))
	for k, v := range a.Cooldowns {
		c.Cooldowns[k] = v
	}
	c.Inventory = a.Inventory.Clone()
	return &c
}

// Item is a world or inventory item instance.
type Item struct {
	ID         EntityID
	TemplateID string
	Owner      EntityID // 0 if lying on the ground
	Pos        Pos      // valid only when Owner == 0
	Properties map[string]int32
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	c := *it
	c.Properties = make(map[string]int32, len(it.Properties))
	for k, v := range it.Properties {
		c.Properties[k] = v
	}
	return &c
}

// Prop is a static or interactive world object (door, switch, chest).
type Prop struct {
	ID     EntityID
	Pos    Pos
	Kind   string
	Active bool
}

// Clone returns a shallow copy of the prop (Prop has no reference fields).
func (p *Prop) Clone() *Prop {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// EntitiesState is the three flat entity tables keyed by identifier.
type EntitiesState struct {
	Actors map[EntityID]*Actor
	Items  map[EntityID]*Item
	Props  map[EntityID]*Prop
}

// NewEntitiesState returns an EntitiesState with initialized empty tables.
func NewEntitiesState() EntitiesState {
	return EntitiesState{
		Actors: make(map[EntityID]*Actor),
		Items:  make(map[EntityID]*Item),
		Props:  make(map[EntityID]*Prop),
	}
}

// Clone deep-copies all three tables.
func (e EntitiesState) Clone() EntitiesState {
	out := NewEntitiesState()
	for id, a := range e.Actors {
		out.Actors[id] = a.Clone()
	}
	for id, it := range e.Items {
		out.Items[id] = it.Clone()
	}
	for id, p := range e.Props {
		out.Props[id] = p.Clone()
	}
	return out
}

// SortedActorIDs returns actor identifiers in ascending order. Canonical
// serialization and delta computation never range over the map directly —
// Go map iteration order is not stable and would break determinism.
func (e EntitiesState) SortedActorIDs() []EntityID {
	return sortedIDs(e.Actors)
}

// SortedItemIDs returns item identifiers in ascending order.
func (e EntitiesState) SortedItemIDs() []EntityID {
	return sortedIDs(e.Items)
}

// SortedPropIDs returns prop identifiers in ascending order.
func (e EntitiesState) SortedPropIDs() []EntityID {
	return sortedIDs(e.Props)
}

func sortedIDs[T any](m map[EntityID]T) []EntityID {
	ids := make([]EntityID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TerrainTag identifies a tile's terrain class.
type TerrainTag uint8

const (
	TerrainFloor TerrainTag = iota
	TerrainWall
	TerrainWater
	TerrainChasm
	TerrainLava
)

// Tile is a single grid cell.
type Tile struct {
	Terrain  TerrainTag
	Walkable bool
}

// OverlayKind identifies the kind of transient world feature an Overlay
// represents.
type OverlayKind uint8

const (
	OverlayHazard OverlayKind = iota
	OverlayDoor
	OverlaySwitch
)

// Overlay is a non-terrain world feature anchored to a position.
type Overlay struct {
	Kind   OverlayKind
	Pos    Pos
	Active bool
	Data   map[string]int32
}

// Clone deep-copies the overlay.
func (o Overlay) Clone() Overlay {
	c := o
	c.Data = make(map[string]int32, len(o.Data))
	for k, v := range o.Data {
		c.Data[k] = v
	}
	return c
}

// WorldState is the fixed-size terrain grid plus overlays and the
// occupancy index.
type WorldState struct {
	Width, Height int32
	Grid          [][]Tile // row-major: Grid[y][x]
	Overlays      []Overlay
	Occupancy     map[Pos]EntityID
}

// Clone deep-copies the world state.
func (w WorldState) Clone() WorldState {
	grid := make([][]Tile, len(w.Grid))
	for y, row := range w.Grid {
		grid[y] = append([]Tile(nil), row...)
	}
	overlays := make([]Overlay, len(w.Overlays))
	for i, o := range w.Overlays {
		overlays[i] = o.Clone()
	}
	occ := make(map[Pos]EntityID, len(w.Occupancy))
	for p, id := range w.Occupancy {
		occ[p] = id
	}
	return WorldState{Width: w.Width, Height: w.Height, Grid: grid, Overlays: overlays, Occupancy: occ}
}

// InBounds reports whether p lies within the grid.
func (w WorldState) InBounds(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < w.Width && p.Y < w.Height
}

// TileAt returns the tile at p. Callers must check InBounds first.
func (w WorldState) TileAt(p Pos) Tile {
	return w.Grid[p.Y][p.X]
}

// TurnState is the monotonic clock, per-actor nonces, each actor's
// next-ready tick, and the currently active entity.
type TurnState struct {
	Tick         uint64
	Nonces       map[EntityID]uint64 // last-applied nonce per actor
	NextReady    map[EntityID]uint64 // tick at which actor may next act
	ActiveEntity EntityID
}

// Clone deep-copies the turn state.
func (t TurnState) Clone() TurnState {
	nonces := make(map[EntityID]uint64, len(t.Nonces))
	for id, n := range t.Nonces {
		nonces[id] = n
	}
	ready := make(map[EntityID]uint64, len(t.NextReady))
	for id, r := range t.NextReady {
		ready[id] = r
	}
	return TurnState{Tick: t.Tick, Nonces: nonces, NextReady: ready, ActiveEntity: t.ActiveEntity}
}

// LastNonce returns the last nonce applied by actor, or 0 if it has never
// acted.
func (t TurnState) LastNonce(actor EntityID) uint64 {
	return t.Nonces[actor]
}

// ReadyAt returns the tick at which actor may next act, or 0 if it has
// never been scheduled.
func (t TurnState) ReadyAt(actor EntityID) uint64 {
	return t.NextReady[actor]
}

// GameState is the canonical world snapshot: the sole mutable object the
// runtime owns and the sole value the engine ever transitions.
type GameState struct {
	Turn     TurnState
	Entities EntitiesState
	World    WorldState
}

// NewGameState returns an empty, zeroed GameState over a grid of the given
// dimensions.
func NewGameState(width, height int32) GameState {
	grid := make([][]Tile, height)
	for y := range grid {
		grid[y] = make([]Tile, width)
	}
	return GameState{
		Turn: TurnState{Nonces: make(map[EntityID]uint64), NextReady: make(map[EntityID]uint64)},
		World: WorldState{
			Width: width, Height: height, Grid: grid,
			Occupancy: make(map[Pos]EntityID),
		},
		Entities: NewEntitiesState(),
	}
}

// Clone deep-copies the entire state. The engine calls this before Apply so
// the pre-mutation snapshot survives for delta computation.
func (s GameState) Clone() GameState {
	return GameState{
		Turn:     s.Turn.Clone(),
		Entities: s.Entities.Clone(),
		World:    s.World.Clone(),
	}
}
