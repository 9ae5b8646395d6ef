package oracle

import (
	"encoding/binary"

	"github.com/consensys/gnark-crypto/hash"

	"github.com/0xwonj/dungeon/engine"
)

// canonicalVersion mirrors engine.canonicalVersion's role: a byte stamped
// into every oracle digest so a future wire-format change is detectable
// rather than silently producing a colliding root.
const canonicalVersion byte = 1

func putU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func putI32(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}

func putStr(buf []byte, s string) []byte {
	buf = putU64(buf, uint64(len(s)))
	return append(buf, s...)
}

func canonicalModifier(buf []byte, m engine.Modifier) []byte {
	buf = putStr(buf, string(m.Stat))
	buf = append(buf, byte(m.Kind))
	return putI32(buf, m.Value)
}

func canonicalItemTemplate(buf []byte, it engine.ItemTemplate) []byte {
	buf = putStr(buf, it.ID)
	buf = putStr(buf, it.Name)
	if it.Consumable {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = putStr(buf, it.EquipSlot)
	buf = putU64(buf, uint64(len(it.Modifiers)))
	for _, m := range it.Modifiers {
		buf = canonicalModifier(buf, m)
	}
	buf = putStr(buf, it.OnUseEffect)
	return putI32(buf, it.Cooldown)
}

func canonicalActorTemplate(buf []byte, a engine.ActorTemplate) []byte {
	buf = putStr(buf, a.ID)
	buf = putStr(buf, a.LootTable)
	buf = putI32(buf, a.BaseStats.STR)
	buf = putI32(buf, a.BaseStats.DEX)
	buf = putI32(buf, a.BaseStats.CON)
	buf = putI32(buf, a.BaseStats.INT)
	buf = putI32(buf, a.BaseStats.WIL)
	buf = putI32(buf, a.BaseStats.EGO)
	return putI32(buf, a.BaseStats.Level)
}

func canonicalAttackProfile(buf []byte, p engine.AttackProfile) []byte {
	buf = putStr(buf, p.ID)
	buf = putI32(buf, p.BaseDamage)
	buf = putI32(buf, p.Range)
	return putI32(buf, p.Cooldown)
}

func canonicalLootEntry(buf []byte, e engine.LootEntry) []byte {
	buf = putStr(buf, e.ItemTemplateID)
	return putI32(buf, e.Weight)
}

// CanonicalSnapshot encodes snap deterministically: fixed field order,
// every collection length-prefixed, all integers little-endian, no map
// iteration anywhere — snap's fields are already the sorted, flattened
// sequences oracle.ToSnapshot produced, so this only has to walk them in
// the order they're stored.
func CanonicalSnapshot(snap Snapshot) []byte {
	var buf []byte
	buf = putI32(buf, snap.Width)
	buf = putI32(buf, snap.Height)

	buf = putU64(buf, uint64(len(snap.Tiles)))
	for _, te := range snap.Tiles {
		buf = putI32(buf, te.Pos.X)
		buf = putI32(buf, te.Pos.Y)
		buf = append(buf, byte(te.Tile.Terrain))
		if te.Tile.Walkable {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}

	buf = putU64(buf, uint64(len(snap.Movement)))
	for _, me := range snap.Movement {
		buf = append(buf, byte(me.Terrain))
		buf = putI32(buf, me.Cost)
	}

	buf = putU64(buf, uint64(len(snap.Items)))
	for _, it := range snap.Items {
		buf = canonicalItemTemplate(buf, it)
	}

	buf = putU64(buf, uint64(len(snap.Npcs)))
	for _, n := range snap.Npcs {
		buf = canonicalActorTemplate(buf, n)
	}

	buf = putU64(buf, uint64(len(snap.AttackProfiles)))
	for _, p := range snap.AttackProfiles {
		buf = canonicalAttackProfile(buf, p)
	}

	buf = putU64(buf, uint64(len(snap.LootTables)))
	for _, lt := range snap.LootTables {
		buf = putStr(buf, lt.ID)
		buf = putU64(buf, uint64(len(lt.Entries)))
		for _, e := range lt.Entries {
			buf = canonicalLootEntry(buf, e)
		}
	}

	buf = putI32(buf, snap.Config.ActivationRadius)
	buf = putI32(buf, snap.Config.BaseCooldown)

	return buf
}

// OracleRoot hashes snap's canonical encoding with the same SNARK-friendly
// MiMC permutation engine.StateRoot uses, so oracle_root can be referenced
// inside a circuit alongside state_root without a second hash family.
func OracleRoot(snap Snapshot) [32]byte {
	h := hash.MIMC_BN254.New()
	h.Write([]byte{canonicalVersion})
	h.Write(CanonicalSnapshot(snap))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
