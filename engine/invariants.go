package engine

import "fmt"

// checkGlobalInvariants runs the state-wide checks every successful
// transition must satisfy regardless of which action produced it. These
// are unreachable by construction for a correct handler chain: a failure
// here is a post_validate bug, not a player-facing rejection.
func checkGlobalInvariants(state GameState) error {
	if err := checkResourceBounds(state); err != nil {
		return err
	}
	if err := checkOccupancyConsistency(state); err != nil {
		return err
	}
	if err := checkAliveIffActing(state); err != nil {
		return err
	}
	return nil
}

// checkResourceBounds verifies every actor's resources sit within
// [0, derived max].
func checkResourceBounds(state GameState) error {
	for _, id := range state.Entities.SortedActorIDs() {
		a := state.Entities.Actors[id]
		snap := ComputeSnapshot(*a, nil, DefaultConditions())
		if a.Resources.HP < 0 || a.Resources.HP > snap.ResourceMax.HP {
			return &PostValidateFailure{
				Invariant: "resource_bounds",
				Err:       fmt.Errorf("actor %d HP %d out of [0,%d]", id, a.Resources.HP, snap.ResourceMax.HP),
			}
		}
		if a.Resources.MP < 0 || a.Resources.MP > snap.ResourceMax.MP {
			return &PostValidateFailure{
				Invariant: "resource_bounds",
				Err:       fmt.Errorf("actor %d MP %d out of [0,%d]", id, a.Resources.MP, snap.ResourceMax.MP),
			}
		}
	}
	return nil
}

// checkOccupancyConsistency verifies World.Occupancy agrees exactly with
// the positions of living actors: every occupied tile names a living actor
// actually standing there, and every living actor's tile is occupied by it.
func checkOccupancyConsistency(state GameState) error {
	for _, id := range state.Entities.SortedActorIDs() {
		a := state.Entities.Actors[id]
		if !a.Alive {
			continue
		}
		occupant, ok := state.World.Occupancy[a.Pos]
		if !ok || occupant != id {
			return &PostValidateFailure{
				Invariant: "occupancy_consistency",
				Err:       fmt.Errorf("actor %d at %v not reflected in occupancy index (found %d)", id, a.Pos, occupant),
			}
		}
	}
	for pos, occupant := range state.World.Occupancy {
		a, ok := state.Entities.Actors[occupant]
		if !ok || !a.Alive || a.Pos != pos {
			return &PostValidateFailure{
				Invariant: "occupancy_consistency",
				Err:       fmt.Errorf("occupancy at %v names actor %d which is not alive there", pos, occupant),
			}
		}
	}
	return nil
}

// checkAliveIffActing verifies the turn system never names a dead actor
// as the active entity.
func checkAliveIffActing(state GameState) error {
	active := state.Turn.ActiveEntity
	if active == SystemActorID {
		return nil
	}
	a, ok := state.Entities.Actors[active]
	if !ok || !a.Alive {
		return &PostValidateFailure{
			Invariant: "alive_iff_acting",
			Err:       fmt.Errorf("active entity %d is not a living actor", active),
		}
	}
	return nil
}
