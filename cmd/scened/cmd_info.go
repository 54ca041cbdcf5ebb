package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/scened/pkg/storage"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print a scene document's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.NewFileStore()
			doc, err := store.Load(args[0])
			if err != nil {
				return err
			}
			digest := doc.Snapshot.Digest()
			fmt.Printf("name     %s\n", doc.Name)
			fmt.Printf("entities %d\n", doc.Snapshot.EntityCount())
			fmt.Printf("digest   %s\n", hex.EncodeToString(digest[:]))
			return nil
		},
	}
}
