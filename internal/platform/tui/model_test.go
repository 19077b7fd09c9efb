package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/term2048/internal/core"
	"github.com/vovakirdan/term2048/internal/engine"
	"github.com/vovakirdan/term2048/internal/storage"
)

// zeroSource always picks the first empty cell and the first spawn weight.
type zeroSource struct{}

func (zeroSource) Intn(int) int { return 0 }

type savedScore struct {
	score, maxTile int
}

type fakeRecorder struct {
	saved []savedScore
	err   error
}

func (r *fakeRecorder) SaveScore(gameID string, score, maxTile int) (int64, error) {
	if gameID != storage.GameID {
		return 0, errors.New("unexpected game id")
	}
	r.saved = append(r.saved, savedScore{score, maxTile})
	return int64(len(r.saved)), r.err
}

var testClock = time.Unix(1_700_000_000, 0)

func newTestModel(t *testing.T, board engine.Board, scores ScoreRecorder) (GameModel, *engine.Engine) {
	t.Helper()

	kv := storage.NewMemory()
	if !board.IsBlank() {
		data, err := engine.EncodeBoard(board)
		if err != nil {
			t.Fatal(err)
		}
		kv.Set(engine.DefaultKey, data)
	}

	eng := engine.New(kv, zeroSource{})
	m := NewGameModel(eng, scores, core.RuntimeConfig{ScreenW: 80, ScreenH: 24},
		InputSettings{SwipeThrottle: 200 * time.Millisecond, SwipeMinDistance: 3}, 0)
	m.now = func() time.Time { return testClock }
	return m, eng
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func send(m GameModel, msgs ...tea.Msg) GameModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(GameModel)
	}
	return m
}

func keys(ks ...string) []tea.Msg {
	msgs := make([]tea.Msg, len(ks))
	for i, k := range ks {
		msgs[i] = keyMsg(k)
	}
	return msgs
}

// nearlyLost becomes a lost board after moving right and spawning a 2 at
// the only free cell.
var nearlyLost = engine.Board{
	{2, 4, 2, 4},
	{4, 2, 4, 2},
	{8, 4, 2, 4},
	{16, 8, 16, 0},
}

var lostBoard = engine.Board{
	{2, 4, 2, 4},
	{4, 2, 4, 2},
	{2, 4, 2, 4},
	{4, 2, 4, 2},
}

func TestKeyboardMoveRunsTurn(t *testing.T) {
	m, eng := newTestModel(t, engine.Board{{2, 2, 0, 0}}, nil)

	m = send(m, keyMsg("left"))

	b := eng.Board()
	if b[0][0] != 4 {
		t.Errorf("board[0][0] = %d, expected merged 4", b[0][0])
	}
	if b[0][1] != 2 {
		t.Errorf("board[0][1] = %d, expected spawned 2", b[0][1])
	}
	if m.hud.score != 6 {
		t.Errorf("hud score = %d, expected 6", m.hud.score)
	}
	if m.dialog != dialogNone {
		t.Errorf("dialog = %v, expected none", m.dialog)
	}
}

func TestLossShowsDialogAndSavesOnce(t *testing.T) {
	rec := &fakeRecorder{}
	m, eng := newTestModel(t, nearlyLost, rec)

	m = send(m, keyMsg("right"))

	if m.dialog != dialogLost {
		t.Fatalf("dialog = %v, expected lost", m.dialog)
	}
	if eng.Evaluate() != engine.StateLost {
		t.Fatalf("engine state = %v, expected lost", eng.Evaluate())
	}
	if len(rec.saved) != 1 || rec.saved[0] != (savedScore{84, 16}) {
		t.Fatalf("saved = %v, expected one 84/16 entry", rec.saved)
	}

	// The dialog blocks movement.
	before := eng.Board()
	m = send(m, keys("left", "up", "r")...)
	if eng.Board() != before {
		t.Error("board changed while the dialog was open")
	}
	if len(rec.saved) != 1 {
		t.Errorf("score saved %d times", len(rec.saved))
	}

	m = send(m, keyMsg("y"))
	if m.dialog != dialogNone {
		t.Error("dialog still open after play again")
	}
	if got := len(eng.Board().Tiles()); got != 2 {
		t.Errorf("new game has %d tiles, expected 2", got)
	}
}

func TestDecliningPlayAgainStopsInput(t *testing.T) {
	m, eng := newTestModel(t, lostBoard, nil)

	if m.dialog != dialogLost {
		t.Fatalf("restored lost board should open the dialog, got %v", m.dialog)
	}

	m = send(m, keyMsg("n"))
	if !m.stopped || m.dialog != dialogNone {
		t.Fatalf("stopped = %v, dialog = %v", m.stopped, m.dialog)
	}

	m = send(m, keys("y", "r", "left")...)
	if eng.Board() != lostBoard {
		t.Error("input after declining changed the board")
	}

	m = send(m, keyMsg("q"))
	if !m.IsQuitting() {
		t.Error("quit should still work after declining")
	}
}

func TestSaveFailureIsReported(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	m, _ := newTestModel(t, nearlyLost, rec)

	m = send(m, keyMsg("right"))
	if m.status == "" {
		t.Error("score save failure should be shown in the status line")
	}
	if m.dialog != dialogLost {
		t.Error("save failure should not hide the dialog")
	}
}

func TestWinDialog(t *testing.T) {
	won := engine.Board{{1024, 1024, 0, 0}}

	t.Run("keep going", func(t *testing.T) {
		m, eng := newTestModel(t, won, nil)
		m = send(m, keyMsg("left"))
		if m.dialog != dialogWon {
			t.Fatalf("dialog = %v, expected won", m.dialog)
		}

		m = send(m, keyMsg("y"))
		if m.dialog != dialogNone || !m.resumed {
			t.Fatalf("dialog = %v, resumed = %v", m.dialog, m.resumed)
		}

		before := eng.Board()
		m = send(m, keyMsg("down"))
		if eng.Board() == before {
			t.Error("moves should apply after choosing to keep going")
		}
		if m.dialog != dialogNone {
			t.Error("win dialog should not reopen")
		}
	})

	t.Run("stop", func(t *testing.T) {
		m, eng := newTestModel(t, won, nil)
		m = send(m, keyMsg("left"), keyMsg("n"))
		if !m.stopped {
			t.Fatal("declining should stop input")
		}

		before := eng.Board()
		send(m, keyMsg("down"))
		if eng.Board() != before {
			t.Error("board changed after declining")
		}
	})
}

func TestSwipeIsThrottled(t *testing.T) {
	m, eng := newTestModel(t, engine.Board{{2, 0, 0, 0}}, nil)

	swipe := func(m GameModel, fromX, toX int) GameModel {
		y := boardY + 1
		return send(m,
			tea.MouseMsg{X: fromX, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
			tea.MouseMsg{X: toX, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
		)
	}

	m = swipe(m, boardX+2, boardX+20)
	b := eng.Board()
	if b[0][3] != 2 {
		t.Fatalf("swipe right did not move the tile: %v", b)
	}

	// Second swipe inside the throttle window is dropped.
	m = swipe(m, boardX+20, boardX+2)
	if eng.Board() != b {
		t.Error("swipe inside the throttle window was applied")
	}

	// Keyboard input is never throttled.
	m = send(m, keyMsg("left"))
	if eng.Board() == b {
		t.Error("keyboard move inside the swipe window was dropped")
	}

	// After the window a vertical swipe goes through.
	b = eng.Board()
	m.now = func() time.Time { return testClock.Add(time.Second) }
	send(m,
		tea.MouseMsg{X: boardX + 2, Y: boardY + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: boardX + 2, Y: boardY + 10, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
	)
	if eng.Board() == b {
		t.Error("swipe down after the throttle window was dropped")
	}
}

func TestSwipeMustStartOnBoard(t *testing.T) {
	m, eng := newTestModel(t, engine.Board{{2, 0, 0, 0}}, nil)
	before := eng.Board()

	send(m,
		tea.MouseMsg{X: 70, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 70, Y: 20, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
	)
	if eng.Board() != before {
		t.Error("drag starting off the board moved tiles")
	}
}

func TestNewGameKey(t *testing.T) {
	m, eng := newTestModel(t, engine.Board{{2, 4, 8, 16}}, nil)
	send(m, keyMsg("r"))

	tiles := eng.Board().Tiles()
	if len(tiles) != 2 {
		t.Fatalf("new game has %d tiles, expected 2", len(tiles))
	}
	for _, tile := range tiles {
		if tile.Value != engine.MinValue {
			t.Errorf("new game tile %v, expected %d", tile, engine.MinValue)
		}
	}
}

func TestCorruptSaveStartsFresh(t *testing.T) {
	kv := storage.NewMemory()
	kv.Set(engine.DefaultKey, `[[3,0,0,0]]`)
	eng := engine.New(kv, zeroSource{})

	m := NewGameModel(eng, nil, core.DefaultConfig(), InputSettings{}, 0)
	if !errors.Is(m.InitError(), engine.ErrInvalidSnapshot) {
		t.Errorf("InitError() = %v, expected ErrInvalidSnapshot", m.InitError())
	}
	if m.status == "" {
		t.Error("discarded save should be reported")
	}
	if len(eng.Board().Tiles()) != 2 {
		t.Error("fresh game expected after corrupt save")
	}
}

func TestViewShowsBoardAndDialog(t *testing.T) {
	m, _ := newTestModel(t, lostBoard, nil)

	m.draw()
	text := m.screen.String()

	for _, want := range []string{"2048", "Score: 48", questionLost, "[y]es"} {
		if !strings.Contains(text, want) {
			t.Errorf("screen missing %q:\n%s", want, text)
		}
	}

	m = send(m, keyMsg("n"))
	m.draw()
	text = m.screen.String()
	if strings.Contains(text, questionLost) {
		t.Error("dialog still drawn after answering")
	}
	if !strings.Contains(text, stoppedLine) {
		t.Error("stopped hint not shown")
	}

	if out := m.View(); out == "" {
		t.Error("View() returned empty string")
	}
}

func TestBackAndQuit(t *testing.T) {
	m, _ := newTestModel(t, engine.Board{{2}}, nil)

	m = send(m, keyMsg("esc"))
	if !m.BackToMenu() {
		t.Error("esc should request the menu")
	}
	m = m.Resume()
	if m.BackToMenu() {
		t.Error("Resume() should clear the back request")
	}

	next, cmd := m.Update(keyMsg("ctrl+c"))
	if !next.(GameModel).IsQuitting() || cmd == nil {
		t.Error("ctrl+c should quit")
	}
}

func TestKeyMapper(t *testing.T) {
	km := NewKeyMapper()

	tests := []struct {
		key    string
		action Action
		dir    engine.Direction
	}{
		{"q", ActionQuit, 0},
		{"ctrl+c", ActionQuit, 0},
		{"y", ActionYes, 0},
		{"enter", ActionYes, 0},
		{"n", ActionNo, 0},
		{"r", ActionNewGame, 0},
		{"esc", ActionBack, 0},
		{"left", ActionMove, engine.DirLeft},
		{"w", ActionMove, engine.DirUp},
		{"j", ActionMove, engine.DirDown},
		{"d", ActionMove, engine.DirRight},
		{"x", ActionNone, 0},
	}

	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			action, dir := km.MapKey(keyMsg(tc.key))
			if action != tc.action {
				t.Errorf("MapKey(%q) action = %v, expected %v", tc.key, action, tc.action)
			}
			if action == ActionMove && dir != tc.dir {
				t.Errorf("MapKey(%q) dir = %v, expected %v", tc.key, dir, tc.dir)
			}
		})
	}
}
