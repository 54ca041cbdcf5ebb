package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "scened",
		Short: "Scene document tooling for the session engine",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newNewCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newRecentCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("scened 0.1.0-dev")
		},
	}
}
