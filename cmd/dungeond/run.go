package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/0xwonj/dungeon/config"
	"github.com/0xwonj/dungeon/engine"
	"github.com/0xwonj/dungeon/engine/actions"
	"github.com/0xwonj/dungeon/indexer"
	"github.com/0xwonj/dungeon/network"
	"github.com/0xwonj/dungeon/oracle"
	"github.com/0xwonj/dungeon/persistence"
	"github.com/0xwonj/dungeon/proof"
	"github.com/0xwonj/dungeon/rpc"
	"github.com/0xwonj/dungeon/runtime"
	"github.com/0xwonj/dungeon/storage"
	"github.com/0xwonj/dungeon/wallet"
)

// loadConfig reads path, falling back to development defaults if it does
// not yet exist — every subcommand that needs a session Config shares
// this helper.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", path).Msg("config file not found, using development defaults")
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// newRunCmd starts a full session node: engine, scheduler, persistence,
// the optional proving pipeline, JSON-RPC, and a replay-stream peer
// listener — the same shape as the teacher's single consensus node main,
// generalized from a blockchain validator to a dungeon session host.
func newRunCmd(cfgPath, keyPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a session orchestrator node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(*cfgPath, *keyPath)
		},
	}
}

func runNode(cfgPath, keyPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	password := keystorePassword()
	if password == "" {
		log.Warn().Msg("DUNGEON_PASSWORD not set — keystore will use an empty password")
	}
	priv, err := wallet.LoadKey(keyPath, password)
	if err != nil {
		return fmt.Errorf("load key (run `dungeond genkey` first): %w", err)
	}
	w := wallet.New(priv)
	log.Info().Str("player", w.Address()).Msg("player identity loaded")

	if err := os.MkdirAll(cfg.SaveDataDir, 0o755); err != nil {
		return fmt.Errorf("mkdir save data dir: %w", err)
	}

	// ---- oracle content ----
	set, err := oracle.Load(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	spawns, err := config.LoadSpawns(cfg.ContentDir)
	if err != nil {
		return fmt.Errorf("load spawns: %w", err)
	}
	bundle := set.Bundle()

	// ---- initial / resumed state ----
	checkpointPath := filepath.Join(cfg.SaveDataDir, "checkpoint.dat")
	actionLogPath := filepath.Join(cfg.SaveDataDir, "actions.log")

	var state engine.GameState
	if cp, err := persistence.ReadCheckpoint(checkpointPath); err == nil {
		state = cp.State
		log.Info().Uint64("tick", cp.Tick).Msg("resumed from checkpoint")
	} else {
		state, err = config.BootstrapSession(set, spawns)
		if err != nil {
			return fmt.Errorf("bootstrap session: %w", err)
		}
		log.Info().Msg("bootstrapped fresh session state")
	}

	ruleset, err := actions.DefaultRuleset()
	if err != nil {
		return fmt.Errorf("build ruleset: %w", err)
	}
	hooks := actions.DefaultHooks()

	// ---- persistence ----
	var sink runtime.DeltaSink
	var logWriter *persistence.Writer
	if cfg.EnablePersistence {
		logWriter, err = persistence.NewWriter(actionLogPath, cfg.CheckpointInterval)
		if err != nil {
			return fmt.Errorf("open action log: %w", err)
		}
		defer logWriter.Close()
		sink = logWriter
	} else if cfg.EnableProving {
		return fmt.Errorf("enable_persistence must be true when enable_proving is true")
	}

	bus := runtime.NewBus()
	sim := runtime.NewSimulation(state, bundle, ruleset, hooks, bus, sink, config.PlayerActorID)

	// NPCs defend themselves against the player; the player itself acts
	// only through ExecuteAction (RPC), never through a registered
	// provider, so an idle player simply stalls at Wait until a command
	// arrives.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, sp := range spawns {
		if sp.ID == config.PlayerActorID {
			continue
		}
		provider := &runtime.UtilityAIProvider{
			HostileOf: func(engine.EntityID) []engine.EntityID { return []engine.EntityID{config.PlayerActorID} },
		}
		if err := sim.RegisterProvider(ctx, sp.ID, provider); err != nil {
			return fmt.Errorf("register provider for %d: %w", sp.ID, err)
		}
	}

	// ---- indexer ----
	db, err := storage.NewLevelDB(filepath.Join(cfg.SaveDataDir, "index"))
	if err != nil {
		return fmt.Errorf("open index db: %w", err)
	}
	defer db.Close()
	indexer.New(db, bus)

	// ---- proving pipeline ----
	var metrics *proof.Metrics
	handler := rpc.NewHandler(sim, nil)
	if cfg.EnableProving {
		metrics = &proof.Metrics{}
		seed, err := loadOrCreateSeed(filepath.Join(cfg.SaveDataDir, "seed"))
		if err != nil {
			return fmt.Errorf("load game seed: %w", err)
		}
		seedCommitment := engine.SeedCommitment(seed)

		snapBytes, err := set.Snapshot()
		if err != nil {
			return fmt.Errorf("encode oracle snapshot: %w", err)
		}
		snap, err := oracle.DecodeSnapshot(snapBytes)
		if err != nil {
			return fmt.Errorf("decode oracle snapshot: %w", err)
		}

		backend, err := newBackend(cfg.Backend)
		if err != nil {
			return fmt.Errorf("proving backend: %w", err)
		}

		proofIndex, err := persistence.OpenProofIndex(filepath.Join(cfg.SaveDataDir, "proof_index.json"))
		if err != nil {
			return fmt.Errorf("open proof index: %w", err)
		}
		if pending := proofIndex.Pending(); len(pending) > 0 {
			log.Warn().Int("count", len(pending)).Msg("proof index has batches left unproved from a prior run; re-prove them out of band")
		}

		prover := proof.NewProver(snap, seedCommitment, backend, proofIndex, metrics)
		worker := proof.NewWorker(prover, metrics, cfg.ProofParallelism, cfg.ProofQueueSize)
		defer worker.Stop()
		worker.OnProved = func(batch proof.Batch, receipt proof.Receipt, journal proof.Journal) {
			handler.RecordJournal(journal)
			bus.Publish(runtime.Event{Topic: runtime.TopicProofReady, Tick: journal.NewNonce, Payload: journal})
		}
		worker.OnFailed = func(batch proof.Batch, err error) {
			bus.Publish(runtime.Event{Topic: runtime.TopicProofFailed, Tick: batch.ID, Payload: err.Error()})
		}

		checkpointer := newCheckpointer(sim, bus, checkpointPath, logWriter, proofIndex, worker, cfg.CheckpointInterval, state)
		go checkpointer.run(ctx)

		handler = rpc.NewHandler(sim, metrics)
	} else {
		checkpointer := newCheckpointer(sim, bus, checkpointPath, logWriter, nil, nil, cfg.CheckpointInterval, state)
		go checkpointer.run(ctx)
	}

	// ---- TLS ----
	tlsCfg, err := config.LoadTLSConfig(cfg.TLS)
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	if tlsCfg != nil {
		log.Info().Msg("mTLS enabled for P2P")
	}

	// ---- network (replay-stream distribution) ----
	p2pAddr := fmt.Sprintf(":%d", cfg.P2PPort)
	node := network.NewNode(cfg.NodeID, p2pAddr, tlsCfg)
	network.NewReplaySyncer(node, noopActionSink{}, historySource{sim: sim})
	if err := node.Start(); err != nil {
		return fmt.Errorf("p2p start: %w", err)
	}
	defer node.Stop()
	log.Info().Str("addr", p2pAddr).Msg("p2p listening")

	for _, sp := range cfg.SeedPeers {
		if err := node.AddPeer(sp.ID, sp.Addr); err != nil {
			log.Warn().Err(err).Str("peer", sp.ID).Msg("seed peer connect failed")
			continue
		}
		log.Info().Str("peer", sp.ID).Str("addr", sp.Addr).Msg("connected to seed peer")
	}

	// ---- RPC ----
	rpcAddr := fmt.Sprintf(":%d", cfg.RPCPort)
	rpcServer := rpc.NewServer(rpcAddr, handler, cfg.RPCAuthToken)
	if err := rpcServer.Start(); err != nil {
		return fmt.Errorf("rpc start: %w", err)
	}
	defer rpcServer.Stop()
	log.Info().Str("addr", rpcAddr).Msg("rpc listening")

	// ---- simulation worker + clock driver ----
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sim.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, _, err := sim.PrepareNextTurn(ctx); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Msg("prepare next turn failed")
				}
			}
		}
	}()

	log.Info().Str("session", cfg.SessionID).Msg("session running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")
	cancel()
	wg.Wait()
	log.Info().Msg("shutdown complete")
	return nil
}

func loadOrCreateSeed(path string) ([]byte, error) {
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, seed, 0o600); err != nil {
		return nil, err
	}
	return seed, nil
}

func newBackend(name string) (proof.Backend, error) {
	switch name {
	case "", "stub":
		return proof.StubBackend{}, nil
	case "groth16":
		return proof.NewGroth16Backend()
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// noopActionSink rejects every inbound replay batch: this node is the
// authoritative source for its own session, never a replay consumer.
type noopActionSink struct{}

func (noopActionSink) AcceptActions(fromTick uint64, batch []engine.Action) error {
	return fmt.Errorf("network: this node is authoritative and does not accept inbound replay batches")
}

// historySource answers a peer's replay request from the simulation's
// in-memory action history. fromTick is always 0 here: Simulation.History
// is not tick-indexed, so a requesting peer always gets the full run
// rather than an incremental suffix — acceptable for the thin replay-
// distribution adapter this is.
type historySource struct {
	sim *runtime.Simulation
}

func (h historySource) ActionsSince(since uint64) (uint64, []engine.Action) {
	return 0, h.sim.History()
}
