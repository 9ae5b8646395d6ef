package engine

import (
	"encoding/binary"

	"github.com/consensys/gnark-crypto/hash"
)

// Canonical serialization is a versioned wire contract: every byte written
// here is replayed verbatim inside the proving guest to recompute the same
// roots the host committed to. Changing a field's encoding, or iterating a
// map instead of a sorted id slice, breaks every proof written against the
// prior version.
const canonicalVersion byte = 1

// digest hashes a canonical byte stream with the SNARK-friendly MiMC
// permutation over BN254, so the same root can later be referenced from
// inside an arithmetic circuit without an expensive bit-decomposition of a
// general-purpose hash. This is the only hash used on the canonical state
// path; proof/journal.go uses SHA-256 for the outer journal digest instead.
func digest(parts ...[]byte) [32]byte {
	h := hash.MIMC_BN254.New()
	h.Write([]byte{canonicalVersion})
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

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

func canonicalPos(buf []byte, p Pos) []byte {
	buf = putI32(buf, p.X)
	return putI32(buf, p.Y)
}

func canonicalCoreStats(buf []byte, c CoreStats) []byte {
	buf = putI32(buf, c.STR)
	buf = putI32(buf, c.DEX)
	buf = putI32(buf, c.CON)
	buf = putI32(buf, c.INT)
	buf = putI32(buf, c.WIL)
	buf = putI32(buf, c.EGO)
	return putI32(buf, c.Level)
}

func canonicalResources(buf []byte, r Resources) []byte {
	buf = putI32(buf, r.HP)
	buf = putI32(buf, r.MP)
	return putI32(buf, r.Lucidity)
}

func canonicalInventory(buf []byte, inv Inventory) []byte {
	ids := inv.SortedTemplateIDs()
	buf = putU64(buf, uint64(len(ids)))
	for _, id := range ids {
		s := inv.Stacks[id]
		buf = putStr(buf, s.TemplateID)
		buf = putI32(buf, s.Count)
		buf = putStr(buf, s.Slot)
	}
	return buf
}

func canonicalActor(buf []byte, a *Actor) []byte {
	buf = putU64(buf, uint64(a.ID))
	buf = canonicalPos(buf, a.Pos)
	buf = canonicalCoreStats(buf, a.Stats)
	buf = canonicalResources(buf, a.Resources)
	buf = putU64(buf, uint64(len(a.Statuses)))
	for _, s := range a.Statuses {
		buf = putStr(buf, s.ID)
		buf = putI32(buf, s.Remaining)
	}
	cdIDs := make([]string, 0, len(a.Cooldowns))
	for k := range a.Cooldowns {
		cdIDs = append(cdIDs, k)
	}
	sortStrings(cdIDs)
	buf = putU64(buf, uint64(len(cdIDs)))
	for _, id := range cdIDs {
		buf = putStr(buf, id)
		buf = putI32(buf, a.Cooldowns[id])
	}
	buf = canonicalInventory(buf, a.Inventory)
	buf = putStr(buf, a.TemplateID)
	if a.Alive {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

func canonicalItem(buf []byte, it *Item) []byte {
	buf = putU64(buf, uint64(it.ID))
	buf = putStr(buf, it.TemplateID)
	buf = putU64(buf, uint64(it.Owner))
	buf = canonicalPos(buf, it.Pos)
	propIDs := make([]string, 0, len(it.Properties))
	for k := range it.Properties {
		propIDs = append(propIDs, k)
	}
	sortStrings(propIDs)
	buf = putU64(buf, uint64(len(propIDs)))
	for _, k := range propIDs {
		buf = putStr(buf, k)
		buf = putI32(buf, it.Properties[k])
	}
	return buf
}

func canonicalProp(buf []byte, p *Prop) []byte {
	buf = putU64(buf, uint64(p.ID))
	buf = canonicalPos(buf, p.Pos)
	buf = putStr(buf, p.Kind)
	if p.Active {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return buf
}

// CanonicalState encodes state deterministically: entity tables in
// ascending id order, grid row-major, overlays in slice order. The
// occupancy index is not encoded; it is derived from actor positions.
func CanonicalState(s GameState) []byte {
	var buf []byte
	buf = putU64(buf, s.Turn.Tick)
	buf = putU64(buf, uint64(s.Turn.ActiveEntity))

	nonceIDs := s.Entities.SortedActorIDs()
	buf = putU64(buf, uint64(len(nonceIDs)))
	for _, id := range nonceIDs {
		buf = putU64(buf, uint64(id))
		buf = putU64(buf, s.Turn.Nonces[id])
		buf = putU64(buf, s.Turn.NextReady[id])
	}

	actorIDs := s.Entities.SortedActorIDs()
	buf = putU64(buf, uint64(len(actorIDs)))
	for _, id := range actorIDs {
		buf = canonicalActor(buf, s.Entities.Actors[id])
	}

	itemIDs := s.Entities.SortedItemIDs()
	buf = putU64(buf, uint64(len(itemIDs)))
	for _, id := range itemIDs {
		buf = canonicalItem(buf, s.Entities.Items[id])
	}

	propIDs := s.Entities.SortedPropIDs()
	buf = putU64(buf, uint64(len(propIDs)))
	for _, id := range propIDs {
		buf = canonicalProp(buf, s.Entities.Props[id])
	}

	buf = putI32(buf, s.World.Width)
	buf = putI32(buf, s.World.Height)
	for _, row := range s.World.Grid {
		for _, t := range row {
			buf = append(buf, byte(t.Terrain))
			if t.Walkable {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
	}

	buf = putU64(buf, uint64(len(s.World.Overlays)))
	for _, o := range s.World.Overlays {
		buf = append(buf, byte(o.Kind))
		buf = canonicalPos(buf, o.Pos)
		if o.Active {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		keys := make([]string, 0, len(o.Data))
		for k := range o.Data {
			keys = append(keys, k)
		}
		sortStrings(keys)
		buf = putU64(buf, uint64(len(keys)))
		for _, k := range keys {
			buf = putStr(buf, k)
			buf = putI32(buf, o.Data[k])
		}
	}

	return buf
}

// StateRoot returns the canonical root digest for s.
func StateRoot(s GameState) [32]byte {
	return digest(CanonicalState(s))
}

// CanonicalAction encodes one action deterministically by variant.
func CanonicalAction(a Action) []byte {
	var buf []byte
	buf = putStr(buf, string(a.Type()))
	buf = putU64(buf, uint64(a.Actor()))
	buf = putU64(buf, a.Nonce())

	switch v := a.(type) {
	case *MoveAction:
		buf = append(buf, byte(v.Direction))
	case *AttackAction:
		buf = putU64(buf, uint64(v.Target))
		buf = putStr(buf, v.Ability)
	case *UseItemAction:
		buf = putStr(buf, v.TemplateID)
		buf = putU64(buf, uint64(v.Target))
	case *InteractAction:
		buf = putU64(buf, uint64(v.Target))
	case *WaitAction:
		// no extra fields
	case *ActionCostAction:
		buf = putU64(buf, uint64(v.Target))
		buf = putI32(buf, v.Ticks)
	case *ActivationAction:
		buf = putU64(buf, uint64(v.Target))
	case *SetDeathAction:
		buf = putU64(buf, uint64(v.Target))
	case *StatusTickAction:
		buf = putU64(buf, uint64(v.Target))
	}
	return buf
}

// ActionsRoot hashes a sequence of actions in application order. Used as
// the local commitment over one batch's action list (actions_root).
func ActionsRoot(actions []Action) [32]byte {
	var buf []byte
	buf = putU64(buf, uint64(len(actions)))
	for _, a := range actions {
		enc := CanonicalAction(a)
		buf = putU64(buf, uint64(len(enc)))
		buf = append(buf, enc...)
	}
	return digest(buf)
}

// SeedCommitment binds a session's game seed into the public journal
// without revealing it in the clear to the verifier beyond this digest.
func SeedCommitment(seed []byte) [32]byte {
	return digest(seed)
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
