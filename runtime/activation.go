package runtime

import "github.com/0xwonj/dungeon/engine"

// NextActive scans living actors in ascending-ID order and returns the
// entity with the lowest next-ready tick; ties break in favor of the
// lower entity ID. Returns (0, false) if no actor is alive.
func NextActive(state engine.GameState) (engine.EntityID, bool) {
	var best engine.EntityID
	var bestTick uint64
	found := false

	for _, id := range state.Entities.SortedActorIDs() {
		a := state.Entities.Actors[id]
		if !a.Alive {
			continue
		}
		ready := state.Turn.ReadyAt(id)
		if !found || ready < bestTick {
			best, bestTick, found = id, ready, true
		}
	}
	return best, found
}

// ActiveSet returns the living actors within Chebyshev radius of center,
// in ascending ID order.
func ActiveSet(state engine.GameState, center engine.Pos, radius int32) []engine.EntityID {
	var out []engine.EntityID
	for _, id := range state.Entities.SortedActorIDs() {
		a := state.Entities.Actors[id]
		if !a.Alive {
			continue
		}
		if chebyshev(a.Pos, center) <= radius {
			out = append(out, id)
		}
	}
	return out
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
