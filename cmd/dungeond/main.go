// Command dungeond runs a session orchestrator: the deterministic game
// engine, the turn scheduler, persistence, and (optionally) the proving
// pipeline, all behind a JSON-RPC endpoint and a replay-stream peer
// listener.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath, keyPath string

	root := &cobra.Command{
		Use:   "dungeond",
		Short: "Run and administer a dungeon session node",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.json", "path to config file")
	root.PersistentFlags().StringVar(&keyPath, "key", "player.key", "path to keystore file")

	root.AddCommand(
		newRunCmd(&cfgPath, &keyPath),
		newGenKeyCmd(&keyPath),
		newGenCertsCmd(&cfgPath),
		newReplayCmd(&cfgPath),
		newVerifyCmd(&cfgPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// keystorePassword reads the keystore password from the environment
// rather than a CLI flag, the same way the pre-cobra CLI did — flags are
// visible to every other process on the host via /proc or `ps`, an
// environment variable read once at startup is not.
func keystorePassword() string {
	return os.Getenv("DUNGEON_PASSWORD")
}
