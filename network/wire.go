package network

import (
	"encoding/json"
	"fmt"

	"github.com/0xwonj/dungeon/engine"
)

// wireAction is the JSON-serializable form of a player-facing engine.Action.
// engine.Action is an interface, so it cannot be marshaled directly; this
// tags the variant the way persistence's log frames tag records, except
// here the encoding round-trips (unlike the log's write-only canonical
// form) because a received action must be handed back to a
// ReplayProvider/ChannelProvider as a live engine.Action.
type wireAction struct {
	Type      engine.ActionType `json:"type"`
	Actor     uint64            `json:"actor"`
	Nonce     uint64            `json:"nonce"`
	Direction engine.Direction  `json:"direction,omitempty"`
	Target    uint64            `json:"target,omitempty"`
	Ability   string            `json:"ability,omitempty"`
	ItemID    string            `json:"item_id,omitempty"`
}

// EncodeAction converts a player-facing action into its wire form.
func EncodeAction(a engine.Action) (wireAction, error) {
	w := wireAction{Type: a.Type(), Actor: uint64(a.Actor()), Nonce: a.Nonce()}
	switch v := a.(type) {
	case *engine.MoveAction:
		w.Direction = v.Direction
	case *engine.AttackAction:
		w.Target = uint64(v.Target)
		w.Ability = v.Ability
	case *engine.UseItemAction:
		w.ItemID = v.TemplateID
		w.Target = uint64(v.Target)
	case *engine.InteractAction:
		w.Target = uint64(v.Target)
	case *engine.WaitAction:
		// no extra fields
	default:
		return wireAction{}, fmt.Errorf("network: action type %q is not wire-encodable (system action)", a.Type())
	}
	return w, nil
}

// DecodeAction reconstructs the engine.Action a wireAction describes.
func DecodeAction(w wireAction) (engine.Action, error) {
	actor := engine.EntityID(w.Actor)
	switch w.Type {
	case engine.ActionMove:
		return engine.NewMoveAction(actor, w.Nonce, w.Direction), nil
	case engine.ActionAttack:
		return engine.NewAttackAction(actor, w.Nonce, engine.EntityID(w.Target), w.Ability), nil
	case engine.ActionUseItem:
		return engine.NewUseItemAction(actor, w.Nonce, w.ItemID, engine.EntityID(w.Target)), nil
	case engine.ActionInteract:
		return engine.NewInteractAction(actor, w.Nonce, engine.EntityID(w.Target)), nil
	case engine.ActionWait:
		return engine.NewWaitAction(actor, w.Nonce), nil
	default:
		return nil, fmt.Errorf("network: unknown wire action type %q", w.Type)
	}
}

// MarshalActionBatch encodes a contiguous run of actions for
// MsgActionBatch distribution.
func MarshalActionBatch(actions []engine.Action) ([]byte, error) {
	wires := make([]wireAction, 0, len(actions))
	for _, a := range actions {
		w, err := EncodeAction(a)
		if err != nil {
			return nil, err
		}
		wires = append(wires, w)
	}
	return json.Marshal(wires)
}

// UnmarshalActionBatch decodes a MsgActionBatch payload back into actions.
func UnmarshalActionBatch(data []byte) ([]engine.Action, error) {
	var wires []wireAction
	if err := json.Unmarshal(data, &wires); err != nil {
		return nil, err
	}
	actions := make([]engine.Action, 0, len(wires))
	for _, w := range wires {
		a, err := DecodeAction(w)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}
