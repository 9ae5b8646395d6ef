package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/proof"
	"github.com/0xwonj/dungeon/runtime"
)

// Handler holds all dependencies needed to serve RPC methods against a
// running session: the runtime worker, the prover's metrics, and an index
// of journals by the nonce they committed, for GetJournal(nonce) lookups.
// Generalized from a handler that held the same shape of dependency (a
// blockchain, a mempool, an indexer) wired to blockchain methods instead
// of session methods.
type Handler struct {
	sim     *runtime.Simulation
	metrics *proof.Metrics

	mu       sync.RWMutex
	journals map[uint64]proof.Journal
}

// NewHandler creates an RPC Handler. metrics may be nil if proving is
// disabled for this session.
func NewHandler(sim *runtime.Simulation, metrics *proof.Metrics) *Handler {
	return &Handler{sim: sim, metrics: metrics, journals: make(map[uint64]proof.Journal)}
}

// RecordJournal registers journal under the nonce it committed, making it
// retrievable via GetJournal. Called by the orchestrator once a batch has
// been proved.
func (h *Handler) RecordJournal(journal proof.Journal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.journals[journal.NewNonce] = journal
}

// Dispatch routes an RPC request to the correct method.
func (h *Handler) Dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case "prepareNextTurn":
		return h.prepareNextTurn(ctx, req)
	case "executeAction":
		return h.executeAction(ctx, req)
	case "queryState":
		return h.queryState(ctx, req)
	case "requestCheckpoint":
		return h.requestCheckpoint(ctx, req)
	case "getSnapshot":
		return h.queryState(ctx, req)
	case "getMetrics":
		return h.getMetrics(req)
	case "getJournal":
		return h.getJournal(req)
	default:
		return errResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

func (h *Handler) prepareNextTurn(ctx context.Context, req Request) Response {
	tick, active, err := h.sim.PrepareNextTurn(ctx)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]any{"tick": tick, "active": active})
}

func (h *Handler) executeAction(ctx context.Context, req Request) Response {
	var wire struct {
		Type      engine.ActionType `json:"type"`
		Actor     uint64            `json:"actor"`
		Nonce     uint64            `json:"nonce"`
		Direction engine.Direction  `json:"direction,omitempty"`
		Target    uint64            `json:"target,omitempty"`
		Ability   string            `json:"ability,omitempty"`
		ItemID    string            `json:"item_id,omitempty"`
	}
	if err := json.Unmarshal(req.Params, &wire); err != nil {
		return errResponse(req.ID, CodeInvalidParams, "params: "+err.Error())
	}

	var action engine.Action
	switch wire.Type {
	case engine.ActionMove:
		action = engine.NewMoveAction(engine.EntityID(wire.Actor), wire.Nonce, wire.Direction)
	case engine.ActionAttack:
		action = engine.NewAttackAction(engine.EntityID(wire.Actor), wire.Nonce, engine.EntityID(wire.Target), wire.Ability)
	case engine.ActionUseItem:
		action = engine.NewUseItemAction(engine.EntityID(wire.Actor), wire.Nonce, wire.ItemID, engine.EntityID(wire.Target))
	case engine.ActionInteract:
		action = engine.NewInteractAction(engine.EntityID(wire.Actor), wire.Nonce, engine.EntityID(wire.Target))
	case engine.ActionWait:
		action = engine.NewWaitAction(engine.EntityID(wire.Actor), wire.Nonce)
	default:
		return errResponse(req.ID, CodeInvalidParams, fmt.Sprintf("unknown action type %q", wire.Type))
	}

	state, delta, err := h.sim.SubmitAction(ctx, action)
	if err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	return okResponse(req.ID, map[string]any{"tick": state.Turn.Tick, "delta": delta})
}

func (h *Handler) queryState(ctx context.Context, req Request) Response {
	state, err := h.sim.QuerySnapshot(ctx)
	if err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, state)
}

func (h *Handler) requestCheckpoint(ctx context.Context, req Request) Response {
	if err := h.sim.RequestCheckpoint(ctx); err != nil {
		return errResponse(req.ID, CodeInternalError, err.Error())
	}
	return okResponse(req.ID, map[string]bool{"ok": true})
}

func (h *Handler) getMetrics(req Request) Response {
	if h.metrics == nil {
		return errResponse(req.ID, CodeInternalError, "proving is disabled for this session")
	}
	return okResponse(req.ID, h.metrics.Snapshot())
}

func (h *Handler) getJournal(req Request) Response {
	var params struct {
		Nonce uint64 `json:"nonce"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errResponse(req.ID, CodeInvalidParams, err.Error())
	}
	h.mu.RLock()
	journal, ok := h.journals[params.Nonce]
	h.mu.RUnlock()
	if !ok {
		return errResponse(req.ID, CodeInternalError, fmt.Sprintf("no journal recorded for nonce %d", params.Nonce))
	}
	return okResponse(req.ID, journal)
}
