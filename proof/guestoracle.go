package proof

import (
	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/oracle"
)

// GuestOracles adapts a deserialized oracle.Snapshot into engine.Oracles
// so the guest runs the exact same engine.Reduce code path as the host,
// the same way oracle.Set adapts live content files host-side. The guest
// has no filesystem, so this is the only oracle implementation it can
// construct.
type GuestOracles struct {
	snap oracle.Snapshot

	tiles    map[engine.Pos]engine.Tile
	movement map[engine.TerrainTag]int32
	items    map[string]engine.ItemTemplate
	npcs     map[string]engine.ActorTemplate
	attacks  map[string]engine.AttackProfile
	loot     map[string][]engine.LootEntry
}

// NewGuestOracles indexes snap's flat slices into lookup maps once, then
// serves every engine oracle interface from s.
func NewGuestOracles(snap oracle.Snapshot) *GuestOracles {
	g := &GuestOracles{
		snap:     snap,
		tiles:    make(map[engine.Pos]engine.Tile, len(snap.Tiles)),
		movement: make(map[engine.TerrainTag]int32, len(snap.Movement)),
		items:    make(map[string]engine.ItemTemplate, len(snap.Items)),
		npcs:     make(map[string]engine.ActorTemplate, len(snap.Npcs)),
		attacks:  make(map[string]engine.AttackProfile, len(snap.AttackProfiles)),
		loot:     make(map[string][]engine.LootEntry, len(snap.LootTables)),
	}
	for _, te := range snap.Tiles {
		g.tiles[te.Pos] = te.Tile
	}
	for _, me := range snap.Movement {
		g.movement[me.Terrain] = me.Cost
	}
	for _, it := range snap.Items {
		g.items[it.ID] = it
	}
	for _, n := range snap.Npcs {
		g.npcs[n.ID] = n
	}
	for _, a := range snap.AttackProfiles {
		g.attacks[a.ID] = a
	}
	for _, lt := range snap.LootTables {
		g.loot[lt.ID] = lt.Entries
	}
	return g
}

// Bundle returns the engine.Oracles wiring g into every capability slot.
func (g *GuestOracles) Bundle() engine.Oracles {
	return engine.Oracles{Map: g, Items: g, Npcs: g, Tables: g, Config: g}
}

// Dimensions implements engine.MapOracle.
func (g *GuestOracles) Dimensions() (int32, int32) { return g.snap.Width, g.snap.Height }

// TileAt implements engine.MapOracle.
func (g *GuestOracles) TileAt(p engine.Pos) engine.Tile { return g.tiles[p] }

// MovementCost implements engine.MapOracle.
func (g *GuestOracles) MovementCost(t engine.Tile) int32 { return g.movement[t.Terrain] }

// ItemTemplate implements engine.ItemOracle.
func (g *GuestOracles) ItemTemplate(id string) (engine.ItemTemplate, bool) {
	tpl, ok := g.items[id]
	return tpl, ok
}

// ActorTemplate implements engine.NpcOracle.
func (g *GuestOracles) ActorTemplate(id string) (engine.ActorTemplate, bool) {
	tpl, ok := g.npcs[id]
	return tpl, ok
}

// AttackProfile implements engine.TablesOracle.
func (g *GuestOracles) AttackProfile(id string) (engine.AttackProfile, bool) {
	p, ok := g.attacks[id]
	return p, ok
}

// LootTable implements engine.TablesOracle.
func (g *GuestOracles) LootTable(id string) []engine.LootEntry { return g.loot[id] }

// Config implements engine.ConfigOracle.
func (g *GuestOracles) Config() engine.Config { return g.snap.Config }
