// Package httpapi serves the game to browsers: a small JSON API for turns
// and a websocket stream of board updates.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/term2048/internal/engine"
	"github.com/vovakirdan/term2048/internal/input"
	"github.com/vovakirdan/term2048/internal/storage"
)

// SessionHeader carries the browser session ID.
const SessionHeader = "X-Session-ID"

// DefaultSession is used when a request names no session.
const DefaultSession = "web"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Scores records finished games and lists the best ones.
// *storage.Store satisfies it.
type Scores interface {
	SaveScore(gameID string, score, maxTile int) (int64, error)
	TopScores(gameID string, limit int) ([]storage.ScoreEntry, error)
}

// Config holds configuration for the web server.
type Config struct {
	// Address is the host:port to listen on (e.g., ":8080").
	Address string

	// GridKey prefixes each session's board slot: "<GridKey>:web:<id>".
	GridKey string

	// Weights is the spawn value distribution.
	Weights engine.SpawnWeights

	// SwipeThrottle is the minimum interval between accepted swipes.
	SwipeThrottle time.Duration

	// Seed seeds every session's RNG when non-zero.
	Seed int64
}

// session is one browser game. mu guards every field.
type session struct {
	mu      sync.Mutex
	id      string
	engine  *engine.Engine
	adapter *input.Adapter
	saved   bool
}

// Server is the HTTP front end.
type Server struct {
	r        *chi.Mux
	cfg      Config
	kv       engine.KVStore
	scores   Scores
	hub      *Hub
	logger   *log.Logger
	now      func() time.Time
	source   func() engine.Source
	mu       sync.Mutex
	sessions map[string]*session
}

// New constructs a Server, installs middleware, and registers routes.
// A nil kv keeps boards in memory; scores may be nil.
func New(cfg Config, kv engine.KVStore, scores Scores, logger *log.Logger) *Server {
	if kv == nil {
		kv = storage.NewMemory()
	}
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "term2048-web",
		})
	}
	if cfg.GridKey == "" {
		cfg.GridKey = engine.DefaultKey
	}

	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		kv:       kv,
		scores:   scores,
		hub:      NewHub(logger),
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	s.source = seededSource(cfg.Seed)

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)

	s.r.Get("/api/game/ws", s.handleStream)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Get("/api/game", s.handleGame)
		r.Post("/api/game/move", s.handleMove)
		r.Post("/api/game/new", s.handleNewGame)
		r.Get("/api/scores", s.handleScores)
	})

	s.r.NotFound(jsonContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})).ServeHTTP)

	return s
}

// Handler exposes the router (useful for tests).
func (s *Server) Handler() http.Handler { return s.r }

// Hub returns the stream hub. Serve runs it; callers using Handler directly
// must run it themselves, since turns block on broadcasting.
func (s *Server) Hub() *Hub { return s.hub }

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.Address }

// ListenAndServe starts the hub and the HTTP server and blocks until
// SIGINT/SIGTERM.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.Serve(ctx)
}

// Serve runs until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("starting web server", "address", s.cfg.Address)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("httpapi: %w", err)
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// SlotKey returns the board slot for a browser session.
func SlotKey(prefix, id string) string {
	if prefix == "" {
		prefix = engine.DefaultKey
	}
	return prefix + ":web:" + id
}

// sessionID reads the session from the header, falling back to the
// "session" query parameter for websocket clients.
func sessionID(r *http.Request) (string, error) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		id = r.URL.Query().Get("session")
	}
	if id == "" {
		return DefaultSession, nil
	}
	if !sessionIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid session id %q", id)
	}
	return id, nil
}

// seededSource returns a factory of per-session RNGs. Sessions created in
// the same order get the same sequence when seed is non-zero.
func seededSource(seed int64) func() engine.Source {
	var n int64
	return func() engine.Source {
		n++
		if seed == 0 {
			return rand.New(rand.NewSource(time.Now().UnixNano() + n))
		}
		return rand.New(rand.NewSource(seed + n))
	}
}

// session returns the game for id, loading it from storage on first use.
func (s *Server) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess
	}

	eng := engine.New(s.kv, s.source(),
		engine.WithKey(SlotKey(s.cfg.GridKey, id)),
		engine.WithWeights(s.cfg.Weights),
	)
	if _, err := eng.Initialize(); err != nil {
		s.logger.Warn("discarded saved board", "session", id, "error", err)
	}

	sess := &session{
		id:      id,
		engine:  eng,
		adapter: input.NewAdapter(s.cfg.SwipeThrottle),
		// A stuck board was recorded when it got stuck.
		saved: !eng.CanMove(),
	}
	s.sessions[id] = sess
	return sess
}

// message builds a stream message from the session. Caller holds sess.mu.
func (sess *session) message(event string) *Message {
	return &Message{
		SessionID: sess.id,
		Event:     event,
		Game:      sess.engine.Snapshot(),
		CanMove:   sess.engine.CanMove(),
	}
}

type moveRequest struct {
	Direction string `json:"direction"`
	Source    string `json:"source"` // "key" or "swipe"
}

type spawnedTile struct {
	Row   int         `json:"row"`
	Col   int         `json:"col"`
	Value engine.Cell `json:"value"`
}

type moveResponse struct {
	Moved   bool            `json:"moved"`
	Merges  int             `json:"merges"`
	Gained  int             `json:"gained"`
	Spawned *spawnedTile    `json:"spawned,omitempty"`
	Game    engine.Snapshot `json:"game"`
	CanMove bool            `json:"can_move"`
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.session(id)
	sess.mu.Lock()
	msg := sess.message(EventState)
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	dir, err := engine.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.session(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ev := input.Event{Source: input.ParseSource(req.Source), Direction: dir, At: s.now()}
	if _, ok := sess.adapter.Dispatch(ev); !ok {
		writeError(w, http.StatusTooManyRequests, "swipe throttled")
		return
	}

	res, err := sess.engine.Turn(dir)
	if err != nil {
		// The turn still happened; only persisting it failed.
		s.logger.Error("turn failed", "session", id, "error", err)
	}

	out := moveResponse{
		Moved:   res.Moved,
		Merges:  res.Merges,
		Gained:  res.Gained,
		Game:    sess.engine.Snapshot(),
		CanMove: sess.engine.CanMove(),
	}
	if res.Spawned != nil {
		out.Spawned = &spawnedTile{Row: res.Spawned.Row, Col: res.Spawned.Col, Value: res.Spawned.Value}
	}

	if res.Moved {
		if !out.CanMove && !sess.saved {
			s.recordScore(sess)
		}
		s.hub.Broadcast(sess.message(EventTurn))
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.session(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.engine.NewGame(); err != nil {
		s.logger.Error("new game failed", "session", id, "error", err)
	}
	sess.saved = false
	sess.adapter.Reset()

	msg := sess.message(EventNew)
	s.hub.Broadcast(msg)
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be 1..100")
			return
		}
		limit = n
	}

	type entry struct {
		Score     int       `json:"score"`
		MaxTile   int       `json:"max_tile"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := []entry{}

	if s.scores != nil {
		scores, err := s.scores.TopScores(storage.GameID, limit)
		if err != nil {
			s.logger.Error("cannot list scores", "error", err)
			writeError(w, http.StatusInternalServerError, "cannot list scores")
			return
		}
		for _, e := range scores {
			out = append(out, entry{Score: e.Score, MaxTile: e.MaxTile, CreatedAt: e.CreatedAt})
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.session(id)
	sess.mu.Lock()
	initial := sess.message(EventState)
	sess.mu.Unlock()

	s.hub.ServeWS(w, r, id, initial)
}

// recordScore saves the finished game once. Caller holds sess.mu.
func (s *Server) recordScore(sess *session) {
	sess.saved = true
	if s.scores == nil {
		return
	}
	b := sess.engine.Board()
	if _, err := s.scores.SaveScore(storage.GameID, b.Sum(), int(b.MaxTile())); err != nil {
		s.logger.Error("cannot save score", "session", sess.id, "error", err)
	}
}

// ----------------------------- helpers -------------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
