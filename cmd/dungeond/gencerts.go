package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xwonj/dungeon/crypto/certgen"
)

// newGenCertsCmd writes a CA plus a node certificate/key pair for mTLS
// into the given directory, named after the session's node_id.
func newGenCertsCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "gencerts <dir>",
		Short: "Generate a CA and node TLS certificate pair for mTLS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			dir := args[0]
			if err := certgen.GenerateAll(dir, cfg.NodeID, nil); err != nil {
				return fmt.Errorf("gencerts: %w", err)
			}
			fmt.Printf("Certificates generated in %s for node %q\n", dir, cfg.NodeID)
			return nil
		},
	}
}
