package oracle

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/0xwonj/dungeon/engine"
)

// Snapshot is the flat, sorted, serializable view of a Set that the
// proving guest deserializes in place of reading content files itself —
// the guest has no filesystem, so Snapshot is the only way oracle content
// crosses into the guest's address space. CBOR (not JSON) is used for the
// wire encoding since the guest SDK's I/O channel is byte-oriented and
// CBOR avoids JSON's text-parsing overhead inside the constrained guest
// environment.
type Snapshot struct {
	Width, Height int32
	Tiles         []TileEntry
	Movement      []MovementEntry
	Items         []engine.ItemTemplate
	Npcs          []engine.ActorTemplate
	AttackProfiles []engine.AttackProfile
	LootTables    []LootTableEntry
	Config        engine.Config
}

// TileEntry is one (position, tile) pair in row-major order.
type TileEntry struct {
	Pos  engine.Pos
	Tile engine.Tile
}

// MovementEntry is one terrain-to-cost mapping.
type MovementEntry struct {
	Terrain engine.TerrainTag
	Cost    int32
}

// LootTableEntry names one loot table and its entries.
type LootTableEntry struct {
	ID      string
	Entries []engine.LootEntry
}

// ToSnapshot flattens s into its deterministic, sorted wire form. The
// result is identical across repeated calls on the same Set, which is
// what lets Snapshot() cache it after the first call.
func ToSnapshot(s *Set) Snapshot {
	snap := Snapshot{Width: s.width, Height: s.height, Config: s.config}

	for y, row := range s.grid {
		for x, t := range row {
			snap.Tiles = append(snap.Tiles, TileEntry{Pos: engine.Pos{X: int32(x), Y: int32(y)}, Tile: t})
		}
	}

	terrains := make([]int, 0, len(s.movementCost))
	for t := range s.movementCost {
		terrains = append(terrains, int(t))
	}
	sort.Ints(terrains)
	for _, t := range terrains {
		tag := engine.TerrainTag(t)
		snap.Movement = append(snap.Movement, MovementEntry{Terrain: tag, Cost: s.movementCost[tag]})
	}

	ids := sortedKeys(s.items)
	for _, id := range ids {
		snap.Items = append(snap.Items, s.items[id])
	}
	ids = sortedKeys(s.npcs)
	for _, id := range ids {
		snap.Npcs = append(snap.Npcs, s.npcs[id])
	}
	ids = sortedKeys(s.attackProfiles)
	for _, id := range ids {
		snap.AttackProfiles = append(snap.AttackProfiles, s.attackProfiles[id])
	}
	ids = sortedKeys(s.lootTables)
	for _, id := range ids {
		snap.LootTables = append(snap.LootTables, LootTableEntry{ID: id, Entries: s.lootTables[id]})
	}

	return snap
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cache holds the lazily-computed, serialized snapshot for a Set.
type cache struct {
	once sync.Once
	buf  []byte
	err  error
}

// Snapshot returns the CBOR-encoded Snapshot for s, computing and caching
// it on first call. Concurrent callers block on the same sync.Once rather
// than racing to encode independently — storage/statedb.go recomputes
// ComputeRoot on every call instead, but a read-only content bundle
// loaded once at startup is exactly the shape sync.Once exists for, and
// re-encoding it per proof batch would be wasted work on data that never
// changes during a session.
func (s *Set) Snapshot() ([]byte, error) {
	s.cacheOnce.once.Do(func() {
		snap := ToSnapshot(s)
		s.cacheOnce.buf, s.cacheOnce.err = cbor.Marshal(snap)
		if s.cacheOnce.err != nil {
			s.cacheOnce.err = fmt.Errorf("oracle: encode snapshot: %w", s.cacheOnce.err)
		}
	})
	return s.cacheOnce.buf, s.cacheOnce.err
}

// DecodeSnapshot parses a CBOR-encoded Snapshot, the guest-side
// counterpart to Set.Snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("oracle: decode snapshot: %w", err)
	}
	return snap, nil
}
