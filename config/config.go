package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// TLSConfig holds paths to the PEM files needed for mTLS.
// When nil or all paths empty, the node falls back to plain TCP.
type TLSConfig struct {
	CACert   string `json:"ca_cert"`   // CA certificate PEM path
	NodeCert string `json:"node_cert"` // node certificate PEM path
	NodeKey  string `json:"node_key"`  // node private key PEM path
}

// SeedPeer identifies a remote node to connect to on startup, for
// replay-stream distribution.
type SeedPeer struct {
	ID   string `json:"id"`   // remote node ID
	Addr string `json:"addr"` // host:port
}

// Config holds a session's configuration: the session, content, and
// storage options an orchestrator needs, plus the ambient fields (data
// directory, RPC port, TLS, auth token) carried over from a node config.
type Config struct {
	NodeID  string `json:"node_id"`
	DataDir string `json:"data_dir"`
	RPCPort int    `json:"rpc_port"`
	P2PPort int    `json:"p2p_port"`

	SessionID   string `json:"session_id"`
	ContentDir  string `json:"content_dir"`  // directory holding map/items/actors/tables/config JSON
	SaveDataDir string `json:"save_data_dir"`

	EnableProving     bool   `json:"enable_proving"`
	EnablePersistence bool   `json:"enable_persistence"`
	Backend           string `json:"backend"` // "stub" or "groth16"
	ProofParallelism  int    `json:"proof_parallelism"`
	ProofQueueSize    int    `json:"proof_queue_size"`

	CheckpointInterval int   `json:"checkpoint_interval"` // applied actions between automatic checkpoints; 0 → manual only
	ActivationRadius   int32 `json:"activation_radius"`

	SeedPeers    []SeedPeer `json:"seed_peers,omitempty"`
	TLS          *TLSConfig `json:"tls,omitempty"`           // nil → plain TCP
	RPCAuthToken string     `json:"rpc_auth_token,omitempty"` // empty → no auth
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:  "node0",
		DataDir: "./data",
		RPCPort: 8545,
		P2PPort: 30303,

		SessionID:   "session0",
		ContentDir:  "./content",
		SaveDataDir: "./data/saves",

		EnableProving:     true,
		EnablePersistence: true,
		Backend:           "stub",
		ProofParallelism:  2,
		ProofQueueSize:    64,

		CheckpointInterval: 100,
		ActivationRadius:   8,
	}
}

// Load reads a JSON config file from path and validates required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required fields are present and well-formed.
func (c *Config) Validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("node_id must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.SessionID == "" {
		return fmt.Errorf("session_id must not be empty")
	}
	if c.ContentDir == "" {
		return fmt.Errorf("content_dir must not be empty")
	}
	if c.RPCPort <= 0 || c.RPCPort > 65535 {
		return fmt.Errorf("rpc_port must be 1-65535, got %d", c.RPCPort)
	}
	if c.P2PPort <= 0 || c.P2PPort > 65535 {
		return fmt.Errorf("p2p_port must be 1-65535, got %d", c.P2PPort)
	}
	if c.RPCPort == c.P2PPort {
		return fmt.Errorf("rpc_port and p2p_port must not be the same (%d)", c.RPCPort)
	}
	if c.EnableProving {
		switch c.Backend {
		case "stub", "groth16":
		default:
			return fmt.Errorf("backend must be \"stub\" or \"groth16\", got %q", c.Backend)
		}
		if c.ProofParallelism <= 0 {
			return fmt.Errorf("proof_parallelism must be positive when proving is enabled, got %d", c.ProofParallelism)
		}
		if c.ProofQueueSize <= 0 {
			return fmt.Errorf("proof_queue_size must be positive when proving is enabled, got %d", c.ProofQueueSize)
		}
	}
	if c.ActivationRadius < 0 {
		return fmt.Errorf("activation_radius must not be negative, got %d", c.ActivationRadius)
	}
	if c.TLS != nil {
		t := c.TLS
		allSet := t.CACert != "" && t.NodeCert != "" && t.NodeKey != ""
		allEmpty := t.CACert == "" && t.NodeCert == "" && t.NodeKey == ""
		if !allSet && !allEmpty {
			return fmt.Errorf("tls: all three paths (ca_cert, node_cert, node_key) must be set or all empty")
		}
	}
	return nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
