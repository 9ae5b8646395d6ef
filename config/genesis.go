package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/oracle"
)

// PlayerActorID is the entity identifier reserved for the single
// human-controlled actor a session bootstraps. Hostile NPCs are assigned
// ascending IDs above it by whatever spawns them (a dungeon generator is
// out of scope; session content provides a fixed roster).
const PlayerActorID engine.EntityID = 1

// SpawnPoint describes one actor's initial placement, as loaded from a
// session's content directory.
type SpawnPoint struct {
	ID         engine.EntityID
	TemplateID string
	Pos        engine.Pos
}

// BootstrapSession builds the initial GameState for a new session: an
// empty world sized from the oracle set's map, with one actor per spawn
// instantiated from its NPC template. Replaces a CreateGenesisBlock-style
// routine that seeded account balances into chain state — here the
// "genesis" artifact is a GameState, not a signed block, so there is
// nothing to sign.
func BootstrapSession(set *oracle.Set, spawns []SpawnPoint) (engine.GameState, error) {
	width, height := set.Dimensions()
	state := engine.NewGameState(width, height)

	for _, sp := range spawns {
		if !state.World.InBounds(sp.Pos) {
			return engine.GameState{}, fmt.Errorf("config: spawn %d position %+v out of bounds", sp.ID, sp.Pos)
		}
		tmpl, ok := set.ActorTemplate(sp.TemplateID)
		if !ok {
			return engine.GameState{}, fmt.Errorf("config: spawn %d references unknown template %q", sp.ID, sp.TemplateID)
		}
		seed := engine.Actor{Stats: tmpl.BaseStats, Resources: engine.Resources{Lucidity: engine.Scale}}
		snap := engine.ComputeSnapshot(seed, nil, nil)
		actor := &engine.Actor{
			ID:    sp.ID,
			Pos:   sp.Pos,
			Stats: tmpl.BaseStats,
			Resources: engine.Resources{
				HP:       snap.ResourceMax.HP,
				MP:       snap.ResourceMax.MP,
				Lucidity: engine.Scale,
			},
			Cooldowns:  map[string]int32{},
			Inventory:  engine.NewInventory(),
			TemplateID: sp.TemplateID,
			Alive:      true,
		}
		state.Entities.Actors[sp.ID] = actor
		state.World.Occupancy[sp.Pos] = sp.ID
		state.Turn.Nonces[sp.ID] = 0
	}

	return state, nil
}

// spawnDoc is the on-disk shape of content/spawns.json.
type spawnDoc struct {
	ID         uint64    `json:"id"`
	TemplateID string    `json:"template_id"`
	Pos        [2]int32  `json:"pos"`
}

// LoadSpawns reads contentDir/spawns.json, the session roster spawns.json
// alongside oracle.Load's map/items/actors/tables/config files. It is
// kept separate from oracle.Set since a spawn roster seeds GameState
// directly rather than answering an engine oracle query.
func LoadSpawns(contentDir string) ([]SpawnPoint, error) {
	path := filepath.Join(contentDir, "spawns.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	var docs []spawnDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	spawns := make([]SpawnPoint, len(docs))
	for i, d := range docs {
		spawns[i] = SpawnPoint{
			ID:         engine.EntityID(d.ID),
			TemplateID: d.TemplateID,
			Pos:        engine.Pos{X: d.Pos[0], Y: d.Pos[1]},
		}
	}
	return spawns, nil
}
