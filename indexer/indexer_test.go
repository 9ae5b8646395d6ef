package indexer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/internal/testutil"
	"github.com/0xwonj/dungeon/runtime"
)

func TestIndexer_RecordsActionsByActor(t *testing.T) {
	bus := runtime.NewBus()
	db := testutil.NewMemDB()
	_ = New(db, bus)

	actor := engine.EntityID(1)
	action := engine.NewWaitAction(actor, 1)
	delta := engine.StateDelta{Action: action, TickAfter: 42}

	bus.Publish(runtime.Event{Topic: runtime.TopicActionApplied, Tick: 42, Payload: delta})

	require.Eventually(t, func() bool {
		idx := &Indexer{db: db}
		ticks, err := idx.GetActionsByActor(actor)
		return err == nil && len(ticks) == 1 && ticks[0] == 42
	}, time.Second, time.Millisecond)
}

func TestIndexer_UnknownActorReturnsEmpty(t *testing.T) {
	db := testutil.NewMemDB()
	idx := &Indexer{db: db}
	ticks, err := idx.GetActionsByActor(engine.EntityID(99))
	require.NoError(t, err)
	assert.Empty(t, ticks)
}
