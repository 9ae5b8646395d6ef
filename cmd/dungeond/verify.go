package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xwonj/dungeon/config"
	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/oracle"
	"github.com/0xwonj/dungeon/proof"
	"github.com/0xwonj/dungeon/verifier"
)

// artifactFile is the on-disk JSON shape an operator submits: a proof
// Receipt next to the Journal it was produced for, exactly what
// verifier.Artifact bundles in memory.
type artifactFile struct {
	Receipt proof.Receipt `json:"receipt"`
	Journal proof.Journal `json:"journal"`
}

// newVerifyCmd independently checks a submitted proof artifact against a
// fresh session bound to the content directory's current oracle content
// and a freshly bootstrapped genesis state, without needing a running
// orchestrator — the same two-stage check an RPC-embedded verifier.Session
// would run, exposed as a standalone tool for dispute resolution.
func newVerifyCmd(cfgPath *string) *cobra.Command {
	var backendName string
	var prevStateRootHex string
	cmd := &cobra.Command{
		Use:   "verify <artifact.json>",
		Short: "Verify a proof artifact against this session's oracle content and genesis state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(*cfgPath, args[0], backendName, prevStateRootHex)
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", "", "override the backend declared in config (stub|groth16)")
	cmd.Flags().StringVar(&prevStateRootHex, "prev-state-root", "", "hex state_root the artifact is expected to extend (default: genesis state_root)")
	return cmd
}

func runVerify(cfgPath, artifactPath, backendOverride, prevStateRootHex string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	backendName := cfg.Backend
	if backendOverride != "" {
		backendName = backendOverride
	}
	backend, err := newBackend(backendName)
	if err != nil {
		return fmt.Errorf("proving backend: %w", err)
	}

	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return fmt.Errorf("read artifact: %w", err)
	}
	var art artifactFile
	if err := json.Unmarshal(data, &art); err != nil {
		return fmt.Errorf("decode artifact: %w", err)
	}

	set, err := oracle.Load(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	snapBytes, err := set.Snapshot()
	if err != nil {
		return fmt.Errorf("encode oracle snapshot: %w", err)
	}
	snap, err := oracle.DecodeSnapshot(snapBytes)
	if err != nil {
		return fmt.Errorf("decode oracle snapshot: %w", err)
	}
	oracleRoot := oracle.OracleRoot(snap)

	spawns, err := config.LoadSpawns(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("load spawns: %w", err)
	}
	genesis, err := config.BootstrapSession(set, spawns)
	if err != nil {
		return fmt.Errorf("bootstrap session: %w", err)
	}
	initialStateRoot := engine.StateRoot(genesis)
	if prevStateRootHex != "" {
		raw, err := hex.DecodeString(prevStateRootHex)
		if err != nil {
			return fmt.Errorf("prev-state-root: %w", err)
		}
		if len(raw) != 32 {
			return fmt.Errorf("prev-state-root: expected 32 bytes, got %d", len(raw))
		}
		copy(initialStateRoot[:], raw)
	}

	session := verifier.NewSession(backend, oracleRoot, initialStateRoot)
	ok, reason := session.Verify(verifier.Artifact{Receipt: art.Receipt, Journal: art.Journal})
	if !ok {
		fmt.Printf("REJECTED: %s\n", reason)
		os.Exit(1)
	}
	fmt.Printf("ACCEPTED: new_nonce=%d new_state_root=%x\n", session.Nonce(), session.StateRoot())
	return nil
}
