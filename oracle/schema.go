// Package oracle implements the host-side, content-file-backed concrete
// types satisfying the engine's five read-only capability interfaces
// (engine.MapOracle, ItemOracle, NpcOracle, TablesOracle, ConfigOracle).
// Content is authored as JSON under content/ and loaded once at startup;
// Snapshot() serializes the loaded set into the OracleSnapshot the
// proving guest deserializes instead of reading files itself.
package oracle

import "github.com/0xwonj/dungeon/engine"

// mapDoc is the on-disk shape of content/map.json.
type mapDoc struct {
	Width    int32      `json:"width"`
	Height   int32      `json:"height"`
	Tiles    [][]string `json:"tiles"` // row-major terrain tags
	Movement map[string]int32 `json:"movement_cost"`
}

// itemDoc is one entry of content/items.json.
type itemDoc struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Consumable  bool              `json:"consumable"`
	EquipSlot   string            `json:"equip_slot"`
	Modifiers   []modifierDoc     `json:"modifiers"`
	OnUseEffect string            `json:"on_use_effect"`
	Cooldown    int32             `json:"cooldown"`
}

type modifierDoc struct {
	Stat  string `json:"stat"`
	Kind  string `json:"kind"`
	Value int32  `json:"value"`
}

// actorDoc is one entry of content/actors.json.
type actorDoc struct {
	ID        string `json:"id"`
	LootTable string `json:"loot_table"`
	Stats     struct {
		STR, DEX, CON, INT, WIL, EGO, Level int32
	} `json:"stats"`
}

// tablesDoc is the shape of content/tables.json.
type tablesDoc struct {
	AttackProfiles []attackProfileDoc `json:"attack_profiles"`
	LootTables     map[string][]lootEntryDoc `json:"loot_tables"`
}

type attackProfileDoc struct {
	ID         string `json:"id"`
	BaseDamage int32  `json:"base_damage"`
	Range      int32  `json:"range"`
	Cooldown   int32  `json:"cooldown"`
}

type lootEntryDoc struct {
	ItemTemplateID string `json:"item_template_id"`
	Weight         int32  `json:"weight"`
}

// configDoc is the shape of content/config.json.
type configDoc struct {
	ActivationRadius int32 `json:"activation_radius"`
	BaseCooldown     int32 `json:"base_cooldown"`
}

func parseStat(s string) engine.StatKind {
	return engine.StatKind(s)
}

func parseModKind(s string) engine.ModKind {
	switch s {
	case "flat":
		return engine.ModFlat
	case "pct_inc":
		return engine.ModPctInc
	case "more":
		return engine.ModMore
	case "less":
		return engine.ModLess
	default:
		return engine.ModFlat
	}
}

func parseTerrain(s string) engine.TerrainTag {
	switch s {
	case "wall":
		return engine.TerrainWall
	case "water":
		return engine.TerrainWater
	case "chasm":
		return engine.TerrainChasm
	case "lava":
		return engine.TerrainLava
	default:
		return engine.TerrainFloor
	}
}

func walkable(t engine.TerrainTag) bool {
	return t == engine.TerrainFloor
}
