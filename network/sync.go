package network

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/0xwonj/dungeon/engine"
)

// ActionSink receives a contiguous run of actions a peer distributed,
// starting at fromTick. The only implementation in this module is
// cmd/dungeond's noopActionSink, which rejects every batch; nothing feeds
// a received batch into a runtime.ReplayProvider.
type ActionSink interface {
	AcceptActions(fromTick uint64, actions []engine.Action) error
}

// ActionSource answers a peer's request for every action applied at or
// after since. On the distributing side cmd/dungeond's historySource
// adapts runtime.Simulation.History to it; that adapter ignores since and
// always returns the full history from tick 0.
type ActionSource interface {
	ActionsSince(since uint64) (fromTick uint64, actions []engine.Action)
}

// ReplaySyncer handles replay-stream synchronisation between nodes: same
// request/respond-with-a-batch/apply-with-rollback-on-failure shape as a
// block syncer, generalized from chain blocks to action batches — a thin
// adapter, not a new subsystem, since the actual state transition is
// still just engine.Reduce run by whatever consumes the sink.
type ReplaySyncer struct {
	node   *Node
	sink   ActionSink
	source ActionSource // may be nil on a pure consumer peer
}

// NewReplaySyncer creates a ReplaySyncer bound to node. source may be nil
// for a peer that only consumes replay streams and never serves them.
func NewReplaySyncer(node *Node, sink ActionSink, source ActionSource) *ReplaySyncer {
	s := &ReplaySyncer{node: node, sink: sink, source: source}
	node.Handle(MsgGetActions, s.handleGetActions)
	node.Handle(MsgActionBatch, s.handleActionBatch)
	return s
}

// RequestActions asks peer for every action applied at or after since.
func (s *ReplaySyncer) RequestActions(peer *Peer, since uint64) error {
	req, err := json.Marshal(GetActionsRequest{Since: since})
	if err != nil {
		return err
	}
	return peer.Send(Message{Type: MsgGetActions, Payload: req})
}

func (s *ReplaySyncer) handleGetActions(peer *Peer, msg Message) {
	if s.source == nil {
		return
	}
	var req GetActionsRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return
	}
	fromTick, actions := s.source.ActionsSince(req.Since)
	data, err := MarshalActionBatch(actions)
	if err != nil {
		log.Error().Err(err).Msg("network: marshal requested action batch")
		return
	}
	payload, err := json.Marshal(ActionBatch{FromTick: fromTick, Actions: data})
	if err != nil {
		log.Error().Err(err).Msg("network: marshal action batch envelope")
		return
	}
	_ = peer.Send(Message{Type: MsgActionBatch, Payload: payload})
}

func (s *ReplaySyncer) handleActionBatch(_ *Peer, msg Message) {
	var batch ActionBatch
	if err := json.Unmarshal(msg.Payload, &batch); err != nil {
		log.Error().Err(err).Msg("network: unmarshal action batch envelope")
		return
	}
	actions, err := UnmarshalActionBatch(batch.Actions)
	if err != nil {
		log.Error().Err(err).Msg("network: unmarshal action batch")
		return
	}
	if err := s.sink.AcceptActions(batch.FromTick, actions); err != nil {
		log.Error().Err(err).Uint64("from_tick", batch.FromTick).Msg("network: reject action batch")
	}
}
