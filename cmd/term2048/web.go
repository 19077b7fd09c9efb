package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/term2048/internal/httpapi"
)

var flagHTTPAddr string

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the HTTP/websocket server",
	Long: `Serve the game to browser clients.

Endpoints:
  GET  /health
  GET  /api/game          - Board, score and state
  POST /api/game/move     - {"direction": "left", "source": "key"|"swipe"}
  POST /api/game/new      - Start over
  GET  /api/game/ws       - Websocket stream of board updates
  GET  /api/scores        - Top scores

Sessions are picked with the X-Session-ID header (or ?session= for the
websocket) and saved under "grid:web:<id>".

Examples:
  term2048 web
  term2048 web --addr :9090`,
	Run: runWeb,
}

func init() {
	webCmd.Flags().StringVar(&flagHTTPAddr, "addr", "", "HTTP listen address (overrides http.address)")
}

func runWeb(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	logger := newLogger(cfg)

	store := mustOpenStore(cfg)
	defer store.Close()

	webCfg := httpapi.Config{
		Address:       cfg.HTTP.Address,
		GridKey:       cfg.Storage.GridKey,
		Weights:       cfg.Spawn.Weights,
		SwipeThrottle: cfg.Input.SwipeThrottle,
		Seed:          flagSeed,
	}
	if flagHTTPAddr != "" {
		webCfg.Address = flagHTTPAddr
	}

	server := httpapi.New(webCfg, store, store, logger)
	if err := server.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
