package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/odvcencio/scened/pkg/session"
	"github.com/odvcencio/scened/pkg/workspace"
)

func newRecentCmd() *cobra.Command {
	var configPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened or saved scene documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := session.LoadConfig(configPath)
			if err != nil {
				return err
			}
			dbPath := cfg.WorkspaceDB
			if dbPath == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("recent: %w", err)
				}
				dbPath = filepath.Join(home, ".scened", "recent.db")
			}

			tracker, err := workspace.Open(dbPath)
			if err != nil {
				return err
			}
			defer tracker.Close()

			entries, err := tracker.Recent(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("no recent documents")
				return nil
			}
			for _, e := range entries {
				when := e.SavedAt
				if e.OpenedAt.After(when) {
					when = e.OpenedAt
				}
				fmt.Printf("%s  %s\n", when.Format("2006-01-02 15:04"), e.Path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "scened.toml", "config file path")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum entries to list")
	return cmd
}
