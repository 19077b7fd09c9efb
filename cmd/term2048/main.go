// term2048 is the 2048 sliding-tile game for the terminal, SSH and the browser.
//
// Usage:
//
//	term2048 play            - Play in this terminal
//	term2048 serve           - Start SSH server for remote play
//	term2048 web             - Start the HTTP/websocket server
//	term2048 scores          - Show high scores
//	term2048 reset           - Forget the saved board
//	term2048 config          - Print the default configuration
//
// Global flags:
//
//	--config <path>     - Config file (default: search ~/.term2048, ./configs)
//	--db <path>         - Database path (overrides storage.db_path)
//	--seed <value>      - RNG seed for reproducible spawns
//	--log-level <lvl>   - debug, info, warn, error
//
// TERM2048_CONFIG and TERM2048_DB, also read from a .env file, set the
// defaults for --config and --db.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/term2048/internal/config"
	"github.com/vovakirdan/term2048/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagSeed     int64
	flagLogLevel string
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "term2048",
	Short: "2048 in your terminal",
	Long: `term2048 is the 2048 sliding-tile game. Slide tiles with the arrow
keys, WASD, hjkl or mouse swipes; equal tiles merge. Reach 2048 to win.

Available commands:
  play     - Play in this terminal
  serve    - Start SSH server for remote play
  web      - Start the HTTP/websocket server
  scores   - View high scores
  reset    - Forget the saved board

Examples:
  term2048 play
  term2048 serve --ssh :2222
  term2048 web --addr :9090
  term2048 scores --interactive`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML (default $TERM2048_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to database, overrides config (default $TERM2048_DB)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the config file and applies the global flags on top.
// Exits on invalid configuration.
func loadConfig() config.Config {
	// Read after main has loaded .env.
	path := envDefault(flagConfig, "TERM2048_CONFIG")
	dbPath := envDefault(flagDBPath, "TERM2048_DB")

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	return cfg
}

// envDefault returns flag, or the environment variable when flag is unset.
func envDefault(flag, env string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(env)
}

// newLogger builds the process logger for server commands.
func newLogger(cfg config.Config) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "term2048",
		Level:           cfg.LogLevel(),
	})
}

// mustOpenStore opens the database or exits.
func mustOpenStore(cfg config.Config) *storage.Store {
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return store
}
