package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/term2048/internal/engine"
	"github.com/vovakirdan/term2048/internal/storage"
)

// zeroSource always picks the first empty cell and the first spawn weight.
type zeroSource struct{}

func (zeroSource) Intn(int) int { return 0 }

type fakeScores struct {
	saved   [][2]int
	entries []storage.ScoreEntry
}

func (f *fakeScores) SaveScore(gameID string, score, maxTile int) (int64, error) {
	f.saved = append(f.saved, [2]int{score, maxTile})
	return int64(len(f.saved)), nil
}

func (f *fakeScores) TopScores(gameID string, limit int) ([]storage.ScoreEntry, error) {
	return f.entries[:min(limit, len(f.entries))], nil
}

var testClock = time.Unix(1_700_000_000, 0)

func newTestServer(t *testing.T, boards map[string]engine.Board, scores Scores) *Server {
	t.Helper()

	kv := storage.NewMemory()
	for id, b := range boards {
		data, err := engine.EncodeBoard(b)
		if err != nil {
			t.Fatal(err)
		}
		kv.Set(SlotKey(engine.DefaultKey, id), data)
	}

	srv := New(Config{SwipeThrottle: 200 * time.Millisecond}, kv, scores, log.New(io.Discard))
	srv.source = func() engine.Source { return zeroSource{} }
	srv.now = func() time.Time { return testClock }

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Hub().Run(ctx)
	t.Cleanup(cancel)

	return srv
}

func do(t *testing.T, srv *Server, method, path, session, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("cannot decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}

	rec = do(t, srv, http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d", rec.Code)
	}
}

func TestGetGameStartsFresh(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/game", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	msg := decode[Message](t, rec)
	if msg.SessionID != DefaultSession {
		t.Errorf("session = %q, expected %q", msg.SessionID, DefaultSession)
	}
	if got := len(msg.Game.Board.Tiles()); got != 2 {
		t.Errorf("fresh board has %d tiles", got)
	}
	if msg.Game.Score != 4 || msg.Game.State != engine.StateOngoing || !msg.CanMove {
		t.Errorf("unexpected game: %+v", msg)
	}
}

func TestMove(t *testing.T) {
	srv := newTestServer(t, map[string]engine.Board{"m1": {{2, 2, 0, 0}}}, nil)

	rec := do(t, srv, http.MethodPost, "/api/game/move", "m1", `{"direction":"left","source":"key"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	res := decode[moveResponse](t, rec)
	if !res.Moved || res.Merges != 1 || res.Gained != 4 {
		t.Errorf("moved = %v, merges = %d, gained = %d", res.Moved, res.Merges, res.Gained)
	}
	if res.Spawned == nil || *res.Spawned != (spawnedTile{Row: 0, Col: 1, Value: 2}) {
		t.Errorf("spawned = %+v, expected 2 at (0,1)", res.Spawned)
	}
	if res.Game.Score != 6 || res.Game.Board[0][0] != 4 {
		t.Errorf("game = %+v", res.Game)
	}

	// The turn was persisted under the session slot.
	data, ok, _ := srv.kv.Get(SlotKey(engine.DefaultKey, "m1"))
	if !ok {
		t.Fatal("board not persisted")
	}
	saved, err := engine.DecodeBoard(data)
	if err != nil || saved != res.Game.Board {
		t.Errorf("persisted board = %v (%v), expected %v", saved, err, res.Game.Board)
	}
}

func TestMoveErrors(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	tests := []struct {
		name    string
		session string
		body    string
	}{
		{"bad json", "", `{`},
		{"unknown direction", "", `{"direction":"sideways"}`},
		{"bad session", "../etc", `{"direction":"up"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/game/move", tt.session, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, expected 400", rec.Code)
			}
			if body := decode[map[string]string](t, rec); body["error"] == "" {
				t.Error("missing error message")
			}
		})
	}
}

func TestSwipeThrottle(t *testing.T) {
	srv := newTestServer(t, map[string]engine.Board{"sw": {{2, 0, 0, 0}}}, nil)

	rec := do(t, srv, http.MethodPost, "/api/game/move", "sw", `{"direction":"right","source":"swipe"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("first swipe status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/game/move", "sw", `{"direction":"left","source":"swipe"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second swipe status = %d, expected 429", rec.Code)
	}

	rec = do(t, srv, http.MethodPost, "/api/game/move", "sw", `{"direction":"left","source":"key"}`)
	if rec.Code != http.StatusOK || !decode[moveResponse](t, rec).Moved {
		t.Errorf("keyboard move inside the swipe window was rejected: %d", rec.Code)
	}

	srv.now = func() time.Time { return testClock.Add(time.Second) }
	rec = do(t, srv, http.MethodPost, "/api/game/move", "sw", `{"direction":"down","source":"swipe"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("swipe after the window status = %d", rec.Code)
	}
}

func TestLossRecordsScoreOnce(t *testing.T) {
	nearlyLost := engine.Board{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{8, 4, 2, 4},
		{16, 8, 16, 0},
	}
	scores := &fakeScores{}
	srv := newTestServer(t, map[string]engine.Board{"l": nearlyLost}, scores)

	rec := do(t, srv, http.MethodPost, "/api/game/move", "l", `{"direction":"right"}`)
	res := decode[moveResponse](t, rec)
	if res.CanMove || res.Game.State != engine.StateLost {
		t.Fatalf("can_move = %v, state = %s", res.CanMove, res.Game.State)
	}
	if len(scores.saved) != 1 || scores.saved[0] != [2]int{84, 16} {
		t.Fatalf("saved = %v, expected one 84/16 entry", scores.saved)
	}

	do(t, srv, http.MethodPost, "/api/game/move", "l", `{"direction":"left"}`)
	if len(scores.saved) != 1 {
		t.Errorf("score saved %d times", len(scores.saved))
	}

	rec = do(t, srv, http.MethodPost, "/api/game/new", "l", "")
	msg := decode[Message](t, rec)
	if msg.Event != EventNew || msg.Game.Score != 4 || !msg.CanMove {
		t.Errorf("new game = %+v", msg)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, map[string]engine.Board{
		"a": {{2, 2, 0, 0}},
		"b": {{0, 0, 4, 4}},
	}, nil)

	do(t, srv, http.MethodPost, "/api/game/move", "a", `{"direction":"left"}`)

	b := decode[Message](t, do(t, srv, http.MethodGet, "/api/game", "b", ""))
	if b.Game.Board != (engine.Board{{0, 0, 4, 4}}) {
		t.Errorf("session b changed: %v", b.Game.Board)
	}
}

func TestScores(t *testing.T) {
	scores := &fakeScores{entries: []storage.ScoreEntry{
		{Score: 900, MaxTile: 128},
		{Score: 500, MaxTile: 64},
		{Score: 100, MaxTile: 16},
	}}
	srv := newTestServer(t, nil, scores)

	rec := do(t, srv, http.MethodGet, "/api/scores?limit=2", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[[]map[string]any](t, rec)
	if len(got) != 2 || got[0]["score"] != float64(900) {
		t.Errorf("scores = %v", got)
	}

	for _, limit := range []string{"0", "abc", "1000"} {
		rec := do(t, srv, http.MethodGet, "/api/scores?limit="+limit, "", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s status = %d, expected 400", limit, rec.Code)
		}
	}

	empty := newTestServer(t, nil, nil)
	rec = do(t, empty, http.MethodGet, "/api/scores", "", "")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("no score store body = %s, expected []", body)
	}
}

func TestStream(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/game/ws?session=ws1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() Message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	first := read()
	if first.Event != EventState || first.SessionID != "ws1" || first.Game.Score != 4 {
		t.Fatalf("initial message = %+v", first)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/game/move", strings.NewReader(`{"direction":"right"}`))
	req.Header.Set(SessionHeader, "ws1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	turn := read()
	if turn.Event != EventTurn || turn.Game.Score != 6 {
		t.Errorf("turn message = %+v", turn)
	}
	if turn.Game.Board[0][3] != 4 {
		t.Errorf("streamed board = %v", turn.Game.Board)
	}
}

func TestSlotKey(t *testing.T) {
	if got := SlotKey("", "abc"); got != "grid:web:abc" {
		t.Errorf("SlotKey = %q", got)
	}
	if got := SlotKey("board", "x"); got != "board:web:x" {
		t.Errorf("SlotKey = %q", got)
	}
}
