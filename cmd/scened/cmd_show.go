package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odvcencio/scened/pkg/scene"
	"github.com/odvcencio/scened/pkg/storage"
)

func newShowCmd() *cobra.Command {
	var components bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print a scene document's entity hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.NewFileStore()
			doc, err := store.Load(args[0])
			if err != nil {
				return err
			}
			g, err := scene.Restore(doc.Snapshot)
			if err != nil {
				return err
			}

			fmt.Printf("%s (%d entities)\n", doc.Name, g.Len())
			for _, r := range g.Roots() {
				printEntity(g, r, 0, components)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&components, "components", "c", false, "print component values")
	return cmd
}

func printEntity(g *scene.Graph, id scene.EntityID, depth int, components bool) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s %s\n", indent, id, displayName(g, id))
	if components {
		comps, err := g.Components(id)
		if err == nil {
			for _, c := range comps {
				fmt.Printf("%s  [%s] %+v\n", indent, c.Kind(), c)
			}
		}
	}
	children, err := g.Children(id)
	if err != nil {
		return
	}
	for _, c := range children {
		printEntity(g, c, depth+1, components)
	}
}

func displayName(g *scene.Graph, id scene.EntityID) string {
	c, ok, err := g.Component(id, scene.KindName)
	if err != nil || !ok {
		return "(unnamed)"
	}
	return c.(scene.Name).Value
}
