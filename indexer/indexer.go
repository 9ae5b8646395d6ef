// Package indexer maintains a secondary lookup table over applied
// actions so a session can answer "what has this actor done" without
// scanning the full action log. Repurposed from an owner/session asset
// index — same subscribe-and-maintain-a-list shape, driven by
// runtime.Bus's TopicActionApplied instead of a chain event emitter.
package indexer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/runtime"
	"github.com/0xwonj/dungeon/storage"
)

const prefixActorActions = "idx:actor:actions:"

// Indexer subscribes to a runtime.Bus and maintains a per-actor list of
// applied-action tick numbers.
type Indexer struct {
	db storage.DB
}

// New creates an Indexer backed by db and starts a goroutine draining
// bus's TopicActionApplied subscription. The goroutine exits only when bus
// closes the subscriber channel after it fatally lags; Bus has no
// shutdown path that closes subscriber channels.
func New(db storage.DB, bus *runtime.Bus) *Indexer {
	idx := &Indexer{db: db}
	events := bus.Subscribe(runtime.TopicActionApplied, 0)
	go idx.run(events)
	return idx
}

func (idx *Indexer) run(events <-chan runtime.Event) {
	for ev := range events {
		delta, ok := ev.Payload.(engine.StateDelta)
		if !ok {
			continue
		}
		if err := idx.onActionApplied(delta); err != nil {
			log.Error().Err(err).Uint64("tick", ev.Tick).Msg("indexer: failed to record action")
		}
	}
}

func (idx *Indexer) onActionApplied(delta engine.StateDelta) error {
	actor := delta.Action.Actor()
	key := actorKey(actor)
	return idx.addToList(key, delta.TickAfter)
}

// GetActionsByActor returns every tick at which actor had an action
// applied, in the order they occurred.
func (idx *Indexer) GetActionsByActor(actor engine.EntityID) ([]uint64, error) {
	return idx.getList(actorKey(actor))
}

func actorKey(actor engine.EntityID) string {
	return fmt.Sprintf("%s%d", prefixActorActions, uint64(actor))
}

// ---- list helpers ----

func (idx *Indexer) getList(key string) ([]uint64, error) {
	data, err := idx.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var ticks []uint64
	if err := json.Unmarshal(data, &ticks); err != nil {
		return nil, fmt.Errorf("indexer unmarshal: %w", err)
	}
	return ticks, nil
}

func (idx *Indexer) addToList(key string, tick uint64) error {
	ticks, err := idx.getList(key)
	if err != nil {
		return fmt.Errorf("read list: %w", err)
	}
	ticks = append(ticks, tick)
	data, err := json.Marshal(ticks)
	if err != nil {
		return err
	}
	return idx.db.Set([]byte(key), data)
}
