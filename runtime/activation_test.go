package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xwonj/dungeon/engine"
)

func newActivationState() engine.GameState {
	s := engine.NewGameState(5, 5)
	for _, id := range []engine.EntityID{1, 2, 3} {
		s.Entities.Actors[id] = &engine.Actor{ID: id, Alive: true}
	}
	return s
}

func TestNextActive_PicksLowestReadyTick(t *testing.T) {
	s := newActivationState()
	s.Turn.NextReady[1] = 50
	s.Turn.NextReady[2] = 10
	s.Turn.NextReady[3] = 30

	actor, ok := NextActive(s)
	require.True(t, ok)
	assert.Equal(t, engine.EntityID(2), actor)
}

func TestNextActive_TiesBreakByAscendingID(t *testing.T) {
	s := newActivationState()
	s.Turn.NextReady[1] = 10
	s.Turn.NextReady[2] = 10
	s.Turn.NextReady[3] = 10

	actor, ok := NextActive(s)
	require.True(t, ok)
	assert.Equal(t, engine.EntityID(1), actor)
}

func TestNextActive_SkipsDeadActors(t *testing.T) {
	s := newActivationState()
	s.Entities.Actors[1].Alive = false
	s.Turn.NextReady[1] = 0
	s.Turn.NextReady[2] = 5
	s.Turn.NextReady[3] = 5

	actor, ok := NextActive(s)
	require.True(t, ok)
	assert.Equal(t, engine.EntityID(2), actor)
}

func TestNextActive_NoneAliveReturnsFalse(t *testing.T) {
	s := newActivationState()
	for _, a := range s.Entities.Actors {
		a.Alive = false
	}
	_, ok := NextActive(s)
	assert.False(t, ok)
}

func TestActiveSet_ChebyshevRadius(t *testing.T) {
	s := newActivationState()
	s.Entities.Actors[1].Pos = engine.Pos{X: 0, Y: 0}
	s.Entities.Actors[2].Pos = engine.Pos{X: 2, Y: 0}
	s.Entities.Actors[3].Pos = engine.Pos{X: 5, Y: 5}

	set := ActiveSet(s, engine.Pos{X: 0, Y: 0}, 2)
	assert.Equal(t, []engine.EntityID{1, 2}, set)
}
