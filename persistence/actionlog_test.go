package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xwonj/dungeon/engine"
)

func TestWriterReader_RoundTripsRecordsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.log")

	w, err := NewWriter(path, 2)
	require.NoError(t, err)

	deltas := []engine.StateDelta{
		{Action: engine.NewWaitAction(1, 1), TickAfter: 10, NonceActor: 1, NonceAfter: 1},
		{Action: engine.NewMoveAction(1, 2, engine.North), TickAfter: 20, NonceActor: 1, NonceAfter: 2},
		{Action: engine.NewAttackAction(1, 3, 2, ""), TickAfter: 30, NonceActor: 1, NonceAfter: 3},
	}
	for _, d := range deltas {
		require.NoError(t, w.Write(d))
	}
	require.NoError(t, w.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	var got []Record
	for {
		rec, ok, err := r.ReadNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, rec)
	}

	require.Len(t, got, len(deltas))
	for i, d := range deltas {
		assert.Equal(t, d.TickAfter, got[i].Tick)
		assert.Equal(t, d.NonceActor, got[i].Actor)
		assert.Equal(t, d.Action.Type(), got[i].ActionType)
		assert.Equal(t, engine.CanonicalAction(d.Action), got[i].Raw)
	}
}

func TestReader_RefreshPicksUpNewlyAppendedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.log")

	w, err := NewWriter(path, 1)
	require.NoError(t, err)
	require.NoError(t, w.Write(engine.StateDelta{Action: engine.NewWaitAction(1, 1), TickAfter: 5, NonceActor: 1, NonceAfter: 1}))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, ok, err := r.ReadNext()
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = r.ReadNext()
	require.NoError(t, err)
	assert.False(t, ok, "no second record has been written yet")

	require.NoError(t, w.Write(engine.StateDelta{Action: engine.NewWaitAction(1, 2), TickAfter: 15, NonceActor: 1, NonceAfter: 2}))
	require.NoError(t, w.Close())
	require.NoError(t, r.Refresh())

	rec, ok, err := r.ReadNext()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(15), rec.Tick)
}

func TestCheckpoint_RoundTripsThroughOccupancyMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	state := engine.NewGameState(3, 3)
	state.Entities.Actors[1] = &engine.Actor{
		ID: 1, Pos: engine.Pos{X: 1, Y: 2}, Alive: true,
		Stats:     engine.CoreStats{STR: 5, Level: 1},
		Resources: engine.Resources{HP: 10, MP: 5},
		Cooldowns: map[string]int32{},
		Inventory: engine.NewInventory(),
	}
	state.World.Occupancy[engine.Pos{X: 1, Y: 2}] = 1

	cp := Checkpoint{Tick: 42, LogOffset: 128, State: state}
	require.NoError(t, WriteCheckpoint(path, cp))

	got, err := ReadCheckpoint(path)
	require.NoError(t, err)

	assert.Equal(t, cp.Tick, got.Tick)
	assert.Equal(t, cp.LogOffset, got.LogOffset)
	assert.Equal(t, engine.EntityID(1), got.State.World.Occupancy[engine.Pos{X: 1, Y: 2}])
	assert.Equal(t, state.Entities.Actors[1].Pos, got.State.Entities.Actors[1].Pos)
}
