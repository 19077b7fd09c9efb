package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagResetAll bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the saved board",
	Long: `Delete the saved board so the next game starts fresh.

With --all, also delete the boards of SSH users and web sessions
("grid:<user>", "grid:web:<id>").

Examples:
  term2048 reset
  term2048 reset --all`,
	Run: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&flagResetAll, "all", false, "Also delete SSH and web session boards")
}

func runReset(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	store := mustOpenStore(cfg)
	defer store.Close()

	keys := []string{cfg.Storage.GridKey}
	if flagResetAll {
		more, err := store.Keys(cfg.Storage.GridKey + ":")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing boards: %v\n", err)
			os.Exit(1)
		}
		keys = append(keys, more...)
	}

	for _, k := range keys {
		if err := store.Delete(k); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("Deleted %d saved board(s).\n", len(keys))
}
