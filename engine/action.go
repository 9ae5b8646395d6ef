package engine

// ActionType tags the variant an Action carries. Mirrors a transaction-type
// enum, retyped from ledger operations to game intents.
type ActionType string

const (
	ActionMove     ActionType = "move"
	ActionAttack   ActionType = "attack"
	ActionUseItem  ActionType = "use_item"
	ActionInteract ActionType = "interact"
	ActionWait     ActionType = "wait"

	// System variants, authored only by hooks through SystemActorID.
	ActionCost       ActionType = "sys_action_cost"
	ActionActivation ActionType = "sys_activation"
	ActionSetDeath   ActionType = "sys_set_death"
	ActionStatusTick ActionType = "sys_status_tick"
)

// Direction is a cardinal or intercardinal move direction.
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

// Delta returns the position offset for d.
func (d Direction) Delta() Pos {
	switch d {
	case North:
		return Pos{0, -1}
	case South:
		return Pos{0, 1}
	case East:
		return Pos{1, 0}
	case West:
		return Pos{-1, 0}
	case NorthEast:
		return Pos{1, -1}
	case NorthWest:
		return Pos{-1, -1}
	case SouthEast:
		return Pos{1, 1}
	case SouthWest:
		return Pos{-1, 1}
	default:
		return Pos{}
	}
}

// Action is a tagged variant describing one actor's intent. Every variant
// carries the acting entity and the nonce binding it to that actor's
// sequence; variant-specific parameters live on the concrete type.
type Action interface {
	Type() ActionType
	Actor() EntityID
	Nonce() uint64
}

// actionBase factors the two fields every Action shares.
type actionBase struct {
	ActorID EntityID
	Seq     uint64
}

func (b actionBase) Actor() EntityID { return b.ActorID }
func (b actionBase) Nonce() uint64   { return b.Seq }

// MoveAction moves the actor one tile in Direction.
type MoveAction struct {
	actionBase
	Direction Direction
}

// NewMoveAction constructs a Move action.
func NewMoveAction(actor EntityID, nonce uint64, dir Direction) *MoveAction {
	return &MoveAction{actionBase{actor, nonce}, dir}
}

// Type implements Action.
func (a *MoveAction) Type() ActionType { return ActionMove }

// AttackAction strikes Target, optionally via Ability (empty = basic attack).
type AttackAction struct {
	actionBase
	Target  EntityID
	Ability string
}

// NewAttackAction constructs an Attack action.
func NewAttackAction(actor EntityID, nonce uint64, target EntityID, ability string) *AttackAction {
	return &AttackAction{actionBase{actor, nonce}, target, ability}
}

// Type implements Action.
func (a *AttackAction) Type() ActionType { return ActionAttack }

// UseItemAction consumes or activates an inventory item.
type UseItemAction struct {
	actionBase
	TemplateID string
	Target     EntityID // 0 = self-targeted
}

// NewUseItemAction constructs a UseItem action.
func NewUseItemAction(actor EntityID, nonce uint64, templateID string, target EntityID) *UseItemAction {
	return &UseItemAction{actionBase{actor, nonce}, templateID, target}
}

// Type implements Action.
func (a *UseItemAction) Type() ActionType { return ActionUseItem }

// InteractAction triggers a world prop (door, switch, chest) at Target.
type InteractAction struct {
	actionBase
	Target EntityID
}

// NewInteractAction constructs an Interact action.
func NewInteractAction(actor EntityID, nonce uint64, target EntityID) *InteractAction {
	return &InteractAction{actionBase{actor, nonce}, target}
}

// Type implements Action.
func (a *InteractAction) Type() ActionType { return ActionInteract }

// WaitAction passes the actor's turn.
type WaitAction struct {
	actionBase
}

// NewWaitAction constructs a Wait action.
func NewWaitAction(actor EntityID, nonce uint64) *WaitAction {
	return &WaitAction{actionBase{actor, nonce}}
}

// Type implements Action.
func (a *WaitAction) Type() ActionType { return ActionWait }

// ActionCostAction sets Target's next-ready tick to the current tick plus
// Ticks. Authored by each player-action handler's Apply and carried out by
// the ActionCost hook.
type ActionCostAction struct {
	actionBase
	Target EntityID
	Ticks  int32
}

// NewActionCostAction constructs a system ActionCost action.
func NewActionCostAction(target EntityID, ticks int32) *ActionCostAction {
	return &ActionCostAction{actionBase{SystemActorID, 0}, target, ticks}
}

// Type implements Action.
func (a *ActionCostAction) Type() ActionType { return ActionCost }

// ActivationAction recomputes the active-entity set around Target.
// Authored by the Activation hook.
type ActivationAction struct {
	actionBase
	Target EntityID
}

// NewActivationAction constructs a system Activation action.
func NewActivationAction(target EntityID) *ActivationAction {
	return &ActivationAction{actionBase{SystemActorID, 0}, target}
}

// Type implements Action.
func (a *ActivationAction) Type() ActionType { return ActionActivation }

// SetDeathAction marks Target dead and frees its occupancy tile. Authored
// by the DeathCheck hook after a Damage hook reduces HP to zero.
type SetDeathAction struct {
	actionBase
	Target EntityID
}

// NewSetDeathAction constructs a system SetDeath action.
func NewSetDeathAction(target EntityID) *SetDeathAction {
	return &SetDeathAction{actionBase{SystemActorID, 0}, target}
}

// Type implements Action.
func (a *SetDeathAction) Type() ActionType { return ActionSetDeath }

// StatusTickAction advances Target's status-effect durations by one tick,
// expiring any that reach zero. Authored by the status-tick hook.
type StatusTickAction struct {
	actionBase
	Target EntityID
}

// NewStatusTickAction constructs a system StatusTick action.
func NewStatusTickAction(target EntityID) *StatusTickAction {
	return &StatusTickAction{actionBase{SystemActorID, 0}, target}
}

// Type implements Action.
func (a *StatusTickAction) Type() ActionType { return ActionStatusTick }
