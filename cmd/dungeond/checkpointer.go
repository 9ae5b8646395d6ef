package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/persistence"
	"github.com/0xwonj/dungeon/proof"
	"github.com/0xwonj/dungeon/runtime"
)

// checkpointer watches the simulation's action stream, requests a
// checkpoint every checkpointInterval applied actions, writes each
// TopicCheckpoint snapshot to disk, and — when proving is enabled —
// carves the actions since the last checkpoint into a proof batch and
// hands it to the worker. This mirrors the teacher's block-interval PoA
// driver, generalized from "mint a block" to "checkpoint and prove."
type checkpointer struct {
	sim        *runtime.Simulation
	bus        *runtime.Bus
	path       string
	logWriter  *persistence.Writer
	proofIndex *persistence.ProofIndex
	worker     *proof.Worker
	interval   int

	prevBatchState  engine.GameState
	actionsSinceLog int
	nextBatchID     uint64
	lastActionCount int
}

func newCheckpointer(
	sim *runtime.Simulation,
	bus *runtime.Bus,
	path string,
	logWriter *persistence.Writer,
	proofIndex *persistence.ProofIndex,
	worker *proof.Worker,
	interval int,
	initialState engine.GameState,
) *checkpointer {
	nextBatchID := uint64(0)
	if proofIndex != nil {
		nextBatchID = uint64(proofIndex.Count())
	}
	return &checkpointer{
		sim:            sim,
		bus:            bus,
		path:           path,
		logWriter:      logWriter,
		proofIndex:     proofIndex,
		worker:         worker,
		interval:       interval,
		prevBatchState: initialState,
		nextBatchID:    nextBatchID,
	}
}

// run subscribes to the bus and blocks until ctx is cancelled.
func (c *checkpointer) run(ctx context.Context) {
	applied := c.bus.Subscribe(runtime.TopicActionApplied, 0)
	checkpoints := c.bus.Subscribe(runtime.TopicCheckpoint, 0)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-applied:
			if !ok {
				return
			}
			c.actionsSinceLog++
			if c.interval > 0 && c.actionsSinceLog >= c.interval {
				c.actionsSinceLog = 0
				if err := c.sim.RequestCheckpoint(ctx); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Msg("request checkpoint failed")
				}
			}
			_ = ev
		case ev, ok := <-checkpoints:
			if !ok {
				return
			}
			c.handleCheckpoint(ev)
		}
	}
}

func (c *checkpointer) handleCheckpoint(ev runtime.Event) {
	state, ok := ev.Payload.(engine.GameState)
	if !ok {
		log.Error().Msg("checkpoint event carried an unexpected payload type")
		return
	}

	logOffset := 0
	if c.logWriter != nil {
		if off, err := c.logWriter.Offset(); err != nil {
			log.Error().Err(err).Msg("read action log offset failed")
		} else {
			logOffset = int(off)
		}
	}

	cp := persistence.Checkpoint{Tick: ev.Tick, LogOffset: logOffset, State: state}
	if err := persistence.WriteCheckpoint(c.path, cp); err != nil {
		log.Error().Err(err).Msg("write checkpoint failed")
		return
	}
	log.Info().Uint64("tick", ev.Tick).Msg("checkpoint written")

	if c.proofIndex == nil || c.worker == nil {
		return
	}

	history := c.sim.History()
	batchActions := history[c.lastActionCount:]
	if len(batchActions) == 0 {
		return
	}
	batch := proof.Batch{ID: c.nextBatchID, PrevState: c.prevBatchState, Actions: batchActions}
	entry := persistence.BatchEntry{
		BatchID:   batch.ID,
		StartTick: c.prevBatchState.Turn.Tick,
		EndTick:   ev.Tick,
		LogStart:  c.lastActionCount,
		LogEnd:    len(history),
	}
	if err := c.proofIndex.Append(entry); err != nil {
		log.Error().Err(err).Uint64("batch_id", batch.ID).Msg("append proof index entry failed")
		return
	}
	if !c.worker.Enqueue(batch) {
		log.Warn().Uint64("batch_id", batch.ID).Msg("proof queue full, batch skipped")
		return
	}

	c.nextBatchID++
	c.lastActionCount = len(history)
	c.prevBatchState = state
}
