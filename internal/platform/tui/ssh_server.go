package tui

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/term2048/internal/core"
	"github.com/vovakirdan/term2048/internal/engine"
	"github.com/vovakirdan/term2048/internal/storage"
)

// ScoreStore records and lists finished games.
// *storage.Store satisfies it.
type ScoreStore interface {
	ScoreRecorder
	ScoreSource
	HighScore(gameID string) (int, error)
}

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.term2048/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// GridKey prefixes each user's board slot: "<GridKey>:<user>".
	GridKey string

	// Weights is the spawn value distribution.
	Weights engine.SpawnWeights

	// Input configures pointer swipes.
	Input InputSettings
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
		GridKey:     engine.DefaultKey,
		Weights:     engine.DefaultWeights(),
	}
}

// SSHServer wraps a Wish SSH server hosting one game per session.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	kv     engine.KVStore
	scores ScoreStore
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
// Boards are saved in kv; scores may be nil to disable the score table.
func NewSSHServer(cfg SSHServerConfig, kv engine.KVStore, scores ScoreStore, logger *log.Logger) (*SSHServer, error) {
	if kv == nil {
		kv = storage.NewMemory()
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "term2048-ssh",
		})
	}

	srv := &SSHServer{
		config: cfg,
		kv:     kv,
		scores: scores,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath, err := storage.ExpandHome(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}
	if hostKeyPath == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("tui: cannot get home directory: %w", homeErr)
		}
		hostKeyPath = filepath.Join(home, ".term2048", "host_key")
	}

	// Ensure host key directory exists
	hostKeyDir := filepath.Dir(hostKeyPath)
	if mkdirErr := os.MkdirAll(hostKeyDir, 0o700); mkdirErr != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", mkdirErr)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// SlotKey returns the board slot for an SSH user.
func SlotKey(prefix, user string) string {
	if prefix == "" {
		prefix = engine.DefaultKey
	}
	if user == "" {
		user = "anonymous"
	}
	return prefix + ":" + user
}

// teaHandler creates a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	cfg := core.RuntimeConfig{
		ScreenW: pty.Window.Width,
		ScreenH: pty.Window.Height,
		Seed:    time.Now().UnixNano(),
	}

	eng := engine.New(s.kv, rand.New(rand.NewSource(cfg.Seed)),
		engine.WithKey(SlotKey(s.config.GridKey, sshSession.User())),
		engine.WithWeights(s.config.Weights),
	)

	model := NewSessionModel(eng, s.scores, cfg, s.config.Input, sshSession.User(), s.logger)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		start := time.Now()
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
		next(sshSession)
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
			"duration", time.Since(start).Round(time.Second),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until SIGINT/SIGTERM.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return fmt.Errorf("tui: ssh server: %w", err)
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// sessionView is the view a session is currently on.
type sessionView int

const (
	viewMenu sessionView = iota
	viewGame
	viewScores
)

// SessionModel manages one SSH session: menu -> game or scores -> menu.
type SessionModel struct {
	engine     *engine.Engine
	scores     ScoreStore
	config     core.RuntimeConfig
	input      InputSettings
	username   string
	logger     *log.Logger
	current    sessionView
	menu       MenuModel
	game       *GameModel
	scoreboard ScoreboardModel
	quitting   bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(eng *engine.Engine, scores ScoreStore, cfg core.RuntimeConfig, in InputSettings, username string, logger *log.Logger) SessionModel {
	return SessionModel{
		engine:   eng,
		scores:   scores,
		config:   cfg,
		input:    in,
		username: username,
		logger:   logger,
		menu:     NewMenuModel(cfg, username),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.config.ScreenW = wsm.Width
		m.config.ScreenH = wsm.Height
	}

	switch m.current {
	case viewGame:
		return m.updateGame(msg)
	case viewScores:
		return m.updateScores(msg)
	default:
		return m.updateMenu(msg)
	}
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.menu.Update(msg)
	if menuModel, ok := next.(MenuModel); ok {
		m.menu = menuModel
	}

	if m.menu.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.menu.Selected() {
	case MenuContinue:
		m.openGame(false)
	case MenuNewGame:
		m.openGame(true)
	case MenuScores:
		var source ScoreSource
		if m.scores != nil {
			source = m.scores
		}
		m.scoreboard = NewScoreboardModel(source, m.config.ScreenW, m.config.ScreenH)
		m.current = viewScores
	default:
		return m, cmd
	}

	m.menu = NewMenuModel(m.config, m.username)
	return m, nil
}

// openGame switches to the game, creating its model on first use.
func (m *SessionModel) openGame(restart bool) {
	if m.game == nil {
		best := 0
		var recorder ScoreRecorder
		if m.scores != nil {
			recorder = m.scores
			if high, err := m.scores.HighScore(storage.GameID); err == nil {
				best = high
			}
		}

		g := NewGameModel(m.engine, recorder, m.config, m.input, best).WithLogger(m.logger)
		if err := g.InitError(); err != nil && m.logger != nil {
			m.logger.Warn("discarded saved board", "user", m.username, "error", err)
		}
		m.game = &g
	}

	g := m.game.Resume()
	if restart {
		g = g.Restart()
	}
	g.screen.Resize(m.config.ScreenW, m.config.ScreenH)
	m.game = &g
	m.current = viewGame
}

// updateGame handles updates when in game mode.
func (m SessionModel) updateGame(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.game.Update(msg)
	if gameModel, ok := next.(GameModel); ok {
		m.game = &gameModel
	}

	if m.game.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.game.BackToMenu() {
		m.current = viewMenu
		m.menu = NewMenuModel(m.config, m.username)
		return m, m.menu.Init()
	}

	return m, cmd
}

// updateScores handles updates when on the scoreboard.
func (m SessionModel) updateScores(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.scoreboard.Update(msg)
	if sb, ok := next.(ScoreboardModel); ok {
		m.scoreboard = sb
	}

	if m.scoreboard.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}

	if m.scoreboard.IsGoingBack() {
		m.current = viewMenu
		m.menu = NewMenuModel(m.config, m.username)
		return m, m.menu.Init()
	}

	return m, cmd
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.current {
	case viewGame:
		return m.game.View()
	case viewScores:
		return m.scoreboard.View()
	default:
		return m.menu.View()
	}
}
