package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/scened/pkg/scene"
	"github.com/odvcencio/scened/pkg/storage"
)

func newNewCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create an empty scene document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if strings.TrimSpace(name) == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			g := scene.NewGraph()
			rootEntity, err := g.Create(scene.EntityID{})
			if err != nil {
				return err
			}
			if err := g.SetComponent(rootEntity, scene.Name{Value: "Root"}); err != nil {
				return err
			}

			store := storage.NewFileStore()
			doc := &storage.Document{Name: name, Snapshot: scene.Capture(g)}
			if err := store.Save(path, doc); err != nil {
				return err
			}
			fmt.Printf("created %s (%q, 1 entity)\n", path, name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the file stem)")
	return cmd
}
