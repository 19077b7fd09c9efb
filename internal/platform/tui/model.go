package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/term2048/internal/core"
	"github.com/vovakirdan/term2048/internal/engine"
	"github.com/vovakirdan/term2048/internal/input"
	"github.com/vovakirdan/term2048/internal/storage"
)

const (
	helpLine    = "arrows/wasd/hjkl move · drag to swipe · r new game · q quit"
	stoppedLine = "input stopped · q quit"

	questionLost = "Game over! Play again?"
	questionWon  = "You reached 2048! Keep going?"
)

// ScoreRecorder stores finished games.
// *storage.Store satisfies it.
type ScoreRecorder interface {
	SaveScore(gameID string, score, maxTile int) (int64, error)
}

// InputSettings configures pointer input.
type InputSettings struct {
	SwipeThrottle    time.Duration
	SwipeMinDistance int
}

// dialog is the blocking question currently shown, if any.
type dialog int

const (
	dialogNone dialog = iota
	dialogLost
	dialogWon
)

// hud holds values pushed by the engine's score listener.
// It is shared by pointer so every copy of the model sees updates.
type hud struct {
	score int
	best  int
}

func (h *hud) onScore(score int) {
	h.score = score
	if score > h.best {
		h.best = score
	}
}

// GameModel is the Bubble Tea model hosting one engine.
type GameModel struct {
	engine   *engine.Engine
	scores   ScoreRecorder
	logger   *log.Logger // nil when the UI owns the terminal
	screen   *core.Screen
	config   core.RuntimeConfig
	keys     *KeyMapper
	adapter  *input.Adapter
	swipe    *input.SwipeTracker
	hud      *hud
	now      func() time.Time
	initErr  error
	dialog   dialog
	status   string
	stopped  bool // A dialog was declined; only quit remains
	resumed  bool // Player chose to keep going after 2048
	saved    bool // Score already recorded for the current loss
	quitting bool
	back     bool
}

// NewGameModel creates a model for eng and initializes the engine, restoring
// the saved board if there is one. best seeds the best-score display.
func NewGameModel(eng *engine.Engine, scores ScoreRecorder, cfg core.RuntimeConfig, in InputSettings, best int) GameModel {
	h := &hud{best: best}
	eng.OnScore(h.onScore)

	m := GameModel{
		engine:  eng,
		scores:  scores,
		screen:  core.NewScreen(cfg.ScreenW, cfg.ScreenH),
		config:  cfg,
		keys:    NewKeyMapper(),
		adapter: input.NewAdapter(in.SwipeThrottle),
		swipe:   input.NewSwipeTracker(in.SwipeMinDistance),
		hud:     h,
		now:     time.Now,
	}

	state, err := eng.Initialize()
	if err != nil {
		m.initErr = err
		m.status = "saved board unreadable, started a new game"
	}
	switch state {
	case engine.StateWon:
		m.dialog = dialogWon
	case engine.StateLost:
		// Already recorded when the loss happened.
		m.saved = true
		m.dialog = dialogLost
	}
	return m
}

// WithLogger returns a copy of the model that logs storage failures.
func (m GameModel) WithLogger(l *log.Logger) GameModel {
	m.logger = l
	return m
}

// InitError returns the error the saved board failed to load with, if any.
func (m GameModel) InitError() error {
	return m.initErr
}

// Resume clears a pending return to the menu.
func (m GameModel) Resume() GameModel {
	m.back = false
	return m
}

// Restart discards the board and starts a new game.
func (m GameModel) Restart() GameModel {
	m.newGame()
	return m
}

// Init initializes the model.
func (m GameModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m GameModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, msg.Height)
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m GameModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, dir := m.keys.MapKey(msg)

	switch action {
	case ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case ActionScreenshot:
		m.saveScreenshot()
		return m, nil
	case ActionBack:
		if m.stopped || m.dialog == dialogNone {
			m.back = true
		}
		return m, nil
	}

	if m.stopped {
		return m, nil
	}

	// A pending dialog blocks everything but its answer.
	if m.dialog != dialogNone {
		switch action {
		case ActionYes:
			m.answer(true)
		case ActionNo:
			m.answer(false)
		}
		return m, nil
	}

	switch action {
	case ActionMove:
		m.dispatch(input.Event{Source: input.SourceKeyboard, Direction: dir, At: m.now()})
	case ActionNewGame:
		m.newGame()
	}
	return m, nil
}

// handleMouse turns a left-button drag that starts on the board into a swipe.
func (m GameModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.stopped || m.dialog != dialogNone {
		m.swipe.Cancel()
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && boardRect.Contains(msg.X, msg.Y) {
			m.swipe.Press(msg.X, msg.Y)
		}
	case tea.MouseActionRelease:
		if dir, ok := m.swipe.Release(msg.X, msg.Y); ok {
			m.dispatch(input.Event{Source: input.SourceSwipe, Direction: dir, At: m.now()})
		}
	}
	return m, nil
}

// dispatch runs one turn if the adapter lets the event through.
func (m *GameModel) dispatch(ev input.Event) {
	dir, ok := m.adapter.Dispatch(ev)
	if !ok {
		return
	}

	res, err := m.engine.Turn(dir)
	if err != nil && !errors.Is(err, engine.ErrBoardFull) {
		m.reportError("could not save board", err)
	} else if res.Moved {
		m.status = ""
	}
	if !res.Moved {
		return
	}

	switch {
	case res.State == engine.StateWon && !m.resumed:
		m.dialog = dialogWon
	case res.State == engine.StateLost, m.resumed && !m.engine.CanMove():
		m.lose()
	}
}

// answer resolves the pending dialog.
func (m *GameModel) answer(yes bool) {
	current := m.dialog
	m.dialog = dialogNone

	if !yes {
		m.stopped = true
		return
	}

	switch current {
	case dialogLost:
		m.newGame()
	case dialogWon:
		m.resumed = true
		if !m.engine.CanMove() {
			m.lose()
		}
	}
}

// lose shows the play-again dialog and records the score once.
func (m *GameModel) lose() {
	m.dialog = dialogLost
	if m.saved {
		return
	}
	m.saved = true

	if m.scores == nil {
		return
	}
	b := m.engine.Board()
	if _, err := m.scores.SaveScore(storage.GameID, b.Sum(), int(b.MaxTile())); err != nil {
		m.reportError("could not save score", err)
	}
}

// newGame discards the board and starts over.
func (m *GameModel) newGame() {
	m.stopped = false
	m.resumed = false
	m.saved = false
	m.dialog = dialogNone
	m.status = ""
	m.swipe.Cancel()
	m.adapter.Reset()

	if err := m.engine.NewGame(); err != nil {
		m.reportError("could not save board", err)
	}
}

// reportError shows msg in the status line and logs err when a logger is set.
func (m *GameModel) reportError(msg string, err error) {
	m.status = msg
	if m.logger != nil {
		m.logger.Warn(msg, "key", m.engine.Key(), "error", err)
	}
}

// saveScreenshot saves the current screen to a file.
func (m *GameModel) saveScreenshot() {
	m.draw()

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	dir := filepath.Join(home, ".term2048", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("2048_%s.txt", timestamp))

	//nolint:errcheck // Best-effort save, game continues regardless
	os.WriteFile(path, []byte(m.screen.String()), 0o600)
}

// draw renders the current state into the screen buffer.
func (m *GameModel) draw() {
	m.screen.Clear()
	drawHeader(m.screen, m.hud.score, m.hud.best)
	drawBoard(m.screen, m.engine.Board())

	switch m.dialog {
	case dialogLost:
		drawDialog(m.screen, questionLost)
	case dialogWon:
		drawDialog(m.screen, questionWon)
	}

	help := helpLine
	if m.stopped {
		help = stoppedLine
	}
	drawFooter(m.screen, help, m.status)
}

// View renders the current state to a string for display.
func (m GameModel) View() string {
	if m.quitting {
		return ""
	}

	m.draw()
	return RenderScreen(m.screen)
}

// Score returns the current score.
func (m GameModel) Score() int {
	return m.engine.Score()
}

// IsQuitting returns true if user requested to quit entirely.
func (m GameModel) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m GameModel) BackToMenu() bool {
	return m.back
}

// Run starts the Bubble Tea program hosting eng.
func Run(eng *engine.Engine, scores ScoreRecorder, cfg core.RuntimeConfig, in InputSettings, best int) error {
	model := NewGameModel(eng, scores, cfg, in, best)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Press/release for swipes
	)

	_, err := p.Run()
	return err
}
