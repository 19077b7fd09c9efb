package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/term2048/internal/core"
	"github.com/vovakirdan/term2048/internal/engine"
	"github.com/vovakirdan/term2048/internal/platform/tui"
	"github.com/vovakirdan/term2048/internal/storage"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play 2048 in this terminal",
	Long: `Start playing. The board is saved after every turn and restored on
the next start.

Controls:
  Arrows/WASD/hjkl  - Slide tiles
  Mouse drag        - Swipe
  R                 - New game
  Y/N               - Answer a dialog
  Ctrl+S            - Save screenshot
  Q/Ctrl+C          - Quit

Examples:
  term2048 play
  term2048 play --seed 42
  term2048 play --db ./2048.db`,
	Run: runPlay,
}

func runPlay(_ *cobra.Command, _ []string) {
	cfg := loadConfig()

	// A missing database only costs persistence.
	var kv engine.KVStore = storage.NewMemory()
	var scores tui.ScoreRecorder
	best := 0

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open database, progress will not be saved: %v\n", err)
	} else {
		defer store.Close()
		kv = store
		scores = store
		if high, hsErr := store.HighScore(storage.GameID); hsErr == nil {
			best = high
		}
	}

	width, height := 80, 24
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	rc := core.RuntimeConfig{
		ScreenW: width,
		ScreenH: height,
		Seed:    flagSeed,
	}
	if rc.Seed == 0 {
		rc.Seed = time.Now().UnixNano()
	}

	eng := engine.New(kv, rand.New(rand.NewSource(rc.Seed)),
		engine.WithKey(cfg.Storage.GridKey),
		engine.WithWeights(cfg.Spawn.Weights),
	)

	in := tui.InputSettings{
		SwipeThrottle:    cfg.Input.SwipeThrottle,
		SwipeMinDistance: cfg.Input.SwipeMinDistance,
	}

	if err := tui.Run(eng, scores, rc, in, best); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
