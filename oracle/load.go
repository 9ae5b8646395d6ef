package oracle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0xwonj/dungeon/engine"
)

// Set is the loaded, queryable content bundle. It implements all five
// engine oracle capability interfaces directly, so Bundle(s) can be
// passed wherever an engine.Oracles is expected.
type Set struct {
	width, height int32
	grid          [][]engine.Tile
	movementCost  map[engine.TerrainTag]int32

	items map[string]engine.ItemTemplate
	npcs  map[string]engine.ActorTemplate

	attackProfiles map[string]engine.AttackProfile
	lootTables     map[string][]engine.LootEntry

	config engine.Config

	cacheOnce cache
}

// Load reads map.json, items.json, actors.json, tables.json and
// config.json from dir and returns the assembled Set.
func Load(dir string) (*Set, error) {
	s := &Set{}

	var md mapDoc
	if err := loadJSON(filepath.Join(dir, "map.json"), &md); err != nil {
		return nil, err
	}
	s.width, s.height = md.Width, md.Height
	s.grid = make([][]engine.Tile, len(md.Tiles))
	for y, row := range md.Tiles {
		s.grid[y] = make([]engine.Tile, len(row))
		for x, tag := range row {
			t := parseTerrain(tag)
			s.grid[y][x] = engine.Tile{Terrain: t, Walkable: walkable(t)}
		}
	}
	s.movementCost = make(map[engine.TerrainTag]int32, len(md.Movement))
	for tag, cost := range md.Movement {
		s.movementCost[parseTerrain(tag)] = cost
	}

	var items []itemDoc
	if err := loadJSON(filepath.Join(dir, "items.json"), &items); err != nil {
		return nil, err
	}
	s.items = make(map[string]engine.ItemTemplate, len(items))
	for _, it := range items {
		mods := make([]engine.Modifier, len(it.Modifiers))
		for i, m := range it.Modifiers {
			mods[i] = engine.Modifier{Stat: parseStat(m.Stat), Kind: parseModKind(m.Kind), Value: m.Value}
		}
		s.items[it.ID] = engine.ItemTemplate{
			ID: it.ID, Name: it.Name, Consumable: it.Consumable, EquipSlot: it.EquipSlot,
			Modifiers: mods, OnUseEffect: it.OnUseEffect, Cooldown: it.Cooldown,
		}
	}

	var actors []actorDoc
	if err := loadJSON(filepath.Join(dir, "actors.json"), &actors); err != nil {
		return nil, err
	}
	s.npcs = make(map[string]engine.ActorTemplate, len(actors))
	for _, a := range actors {
		s.npcs[a.ID] = engine.ActorTemplate{
			ID:        a.ID,
			LootTable: a.LootTable,
			BaseStats: engine.CoreStats{STR: a.Stats.STR, DEX: a.Stats.DEX, CON: a.Stats.CON, INT: a.Stats.INT, WIL: a.Stats.WIL, EGO: a.Stats.EGO, Level: a.Stats.Level},
		}
	}

	var td tablesDoc
	if err := loadJSON(filepath.Join(dir, "tables.json"), &td); err != nil {
		return nil, err
	}
	s.attackProfiles = make(map[string]engine.AttackProfile, len(td.AttackProfiles))
	for _, p := range td.AttackProfiles {
		s.attackProfiles[p.ID] = engine.AttackProfile{ID: p.ID, BaseDamage: p.BaseDamage, Range: p.Range, Cooldown: p.Cooldown}
	}
	s.lootTables = make(map[string][]engine.LootEntry, len(td.LootTables))
	for id, entries := range td.LootTables {
		out := make([]engine.LootEntry, len(entries))
		for i, e := range entries {
			out[i] = engine.LootEntry{ItemTemplateID: e.ItemTemplateID, Weight: e.Weight}
		}
		s.lootTables[id] = out
	}

	var cd configDoc
	if err := loadJSON(filepath.Join(dir, "config.json"), &cd); err != nil {
		return nil, err
	}
	s.config = engine.Config{ActivationRadius: cd.ActivationRadius, BaseCooldown: cd.BaseCooldown}

	return s, nil
}

// Bundle returns the engine.Oracles wiring s into each capability slot.
func (s *Set) Bundle() engine.Oracles {
	return engine.Oracles{Map: s, Items: s, Npcs: s, Tables: s, Config: s}
}

// Dimensions implements engine.MapOracle.
func (s *Set) Dimensions() (int32, int32) { return s.width, s.height }

// TileAt implements engine.MapOracle.
func (s *Set) TileAt(p engine.Pos) engine.Tile {
	return s.grid[p.Y][p.X]
}

// MovementCost implements engine.MapOracle.
func (s *Set) MovementCost(t engine.Tile) int32 {
	return s.movementCost[t.Terrain]
}

// ItemTemplate implements engine.ItemOracle.
func (s *Set) ItemTemplate(id string) (engine.ItemTemplate, bool) {
	tpl, ok := s.items[id]
	return tpl, ok
}

// ActorTemplate implements engine.NpcOracle.
func (s *Set) ActorTemplate(id string) (engine.ActorTemplate, bool) {
	tpl, ok := s.npcs[id]
	return tpl, ok
}

// AttackProfile implements engine.TablesOracle.
func (s *Set) AttackProfile(id string) (engine.AttackProfile, bool) {
	p, ok := s.attackProfiles[id]
	return p, ok
}

// LootTable implements engine.TablesOracle.
func (s *Set) LootTable(id string) []engine.LootEntry {
	return s.lootTables[id]
}

// Config implements engine.ConfigOracle.
func (s *Set) Config() engine.Config { return s.config }

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("oracle: read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("oracle: parse %q: %w", path, err)
	}
	return nil
}
