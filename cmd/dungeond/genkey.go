package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xwonj/dungeon/wallet"
)

// newGenKeyCmd generates a fresh ed25519 player key and writes it to the
// keystore path, encrypted with the password from DUNGEON_PASSWORD.
func newGenKeyCmd(keyPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "genkey",
		Short: "Generate a new player key and save it to the keystore",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := wallet.Generate()
			if err != nil {
				return err
			}
			if err := wallet.SaveKey(*keyPath, keystorePassword(), w.PrivKey()); err != nil {
				return err
			}
			fmt.Printf("Generated key. Public key: %s\n", w.PubKey())
			fmt.Printf("Saved to: %s\n", *keyPath)
			return nil
		},
	}
}
