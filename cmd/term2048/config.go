package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/term2048/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default configuration",
	Long: `Print the built-in configuration as YAML.

Save it as ~/.term2048/config.yaml and edit the keys you want to change.

Examples:
  term2048 config > ~/.term2048/config.yaml`,
	Run: func(_ *cobra.Command, _ []string) {
		os.Stdout.Write(config.DefaultYAML())
	},
}
