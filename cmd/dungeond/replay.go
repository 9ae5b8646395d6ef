package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/0xwonj/dungeon/config"
	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/engine/actions"
	"github.com/0xwonj/dungeon/network"
	"github.com/0xwonj/dungeon/oracle"
	"github.com/0xwonj/dungeon/persistence"
)

// newReplayCmd drives a session's state machine offline against a batch
// of actions read from a file, without starting any network or RPC
// surface — useful for replaying a disputed batch locally against the
// same deterministic reducer the guest runs inside the zkVM.
func newReplayCmd(cfgPath *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "replay <actions.json>",
		Short: "Replay a JSON action batch against the session state and print the resulting root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(*cfgPath, args[0], out)
		},
	}
	cmd.Flags().StringVar(&out, "write-checkpoint", "", "if set, write the post-replay state to this checkpoint path")
	return cmd
}

func runReplay(cfgPath, actionsPath, checkpointOut string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	data, err := os.ReadFile(actionsPath)
	if err != nil {
		return fmt.Errorf("read actions file: %w", err)
	}
	batch, err := network.UnmarshalActionBatch(data)
	if err != nil {
		return fmt.Errorf("decode action batch: %w", err)
	}

	set, err := oracle.Load(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	bundle := set.Bundle()

	checkpointPath := filepath.Join(cfg.SaveDataDir, "checkpoint.dat")
	var state engine.GameState
	if cp, err := persistence.ReadCheckpoint(checkpointPath); err == nil {
		state = cp.State
		fmt.Printf("resuming replay from checkpoint at tick %d\n", cp.Tick)
	} else {
		spawns, err := config.LoadSpawns(cfg.ContentDir)
		if err != nil {
			return fmt.Errorf("load spawns: %w", err)
		}
		state, err = config.BootstrapSession(set, spawns)
		if err != nil {
			return fmt.Errorf("bootstrap session: %w", err)
		}
		fmt.Println("no checkpoint found, replaying from a fresh bootstrap")
	}

	ruleset, err := actions.DefaultRuleset()
	if err != nil {
		return fmt.Errorf("build ruleset: %w", err)
	}
	hooks := actions.DefaultHooks()

	for i, action := range batch {
		next, _, err := engine.Reduce(state, bundle, ruleset, hooks, action)
		if err != nil {
			return fmt.Errorf("action %d (%s) rejected: %w", i, action.Type(), err)
		}
		state = next
	}

	root := engine.StateRoot(state)
	fmt.Printf("replayed %d actions\n", len(batch))
	fmt.Printf("final tick:       %d\n", state.Turn.Tick)
	fmt.Printf("final state root: %x\n", root)

	if checkpointOut != "" {
		cp := persistence.Checkpoint{Tick: state.Turn.Tick, LogOffset: 0, State: state}
		if err := persistence.WriteCheckpoint(checkpointOut, cp); err != nil {
			return fmt.Errorf("write checkpoint: %w", err)
		}
		fmt.Printf("wrote checkpoint to %s\n", checkpointOut)
	}
	return nil
}
