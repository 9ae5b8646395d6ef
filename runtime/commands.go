package runtime

import "github.com/0xwonj/dungeon/engine"

// CommandKind tags a Command variant.
type CommandKind uint8

const (
	CmdSubmitAction CommandKind = iota
	CmdQuerySnapshot
	CmdRequestCheckpoint
	CmdRegisterProvider
	CmdPrepareNextTurn
)

// Command is sent on the simulation worker's single inbound channel. The
// worker is the sole owner of GameState; every read or mutation request
// goes through this channel so state is never touched from two
// goroutines at once.
type Command struct {
	Kind     CommandKind
	Action   engine.Action   // CmdSubmitAction
	Actor    engine.EntityID // CmdRegisterProvider
	Provider ActionProvider  // CmdRegisterProvider
	Reply    chan CommandResult
}

// CommandResult is the worker's response to one Command.
type CommandResult struct {
	State  engine.GameState
	Delta  engine.StateDelta
	Tick   uint64 // CmdPrepareNextTurn
	Active bool   // CmdPrepareNextTurn: false if no actor is alive to schedule
	Err    error
}

// ErrQueueFull is returned when the worker's inbound command channel is
// at capacity: callers see explicit backpressure instead of blocking
// forever or silently being dropped.
type ErrQueueFull struct{}

func (ErrQueueFull) Error() string { return "runtime: command queue full" }
