package engine

import (
	"errors"
	"fmt"
)

// DefaultKey is the storage slot the board is persisted under.
const DefaultKey = "grid"

// KVStore is a string key-value store the board is saved into.
type KVStore interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
}

// ScoreListener receives the total score every time it changes.
type ScoreListener func(score int)

// TurnResult is the outcome of one full turn: move, spawn, evaluate.
type TurnResult struct {
	MoveResult
	Spawned *Tile
	Score   int
	State   GameState
}

// Engine owns one board and applies the game rules to it.
// It is not safe for concurrent use.
type Engine struct {
	board     Board
	store     KVStore
	rng       Source
	key       string
	weights   SpawnWeights
	listeners []ScoreListener

	lastScore int
	emitted   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithKey sets the storage slot name.
func WithKey(key string) Option {
	return func(e *Engine) {
		if key != "" {
			e.key = key
		}
	}
}

// WithWeights sets the spawn value distribution.
func WithWeights(w SpawnWeights) Option {
	return func(e *Engine) {
		if len(w) > 0 {
			e.weights = w
		}
	}
}

// WithScoreListener registers a listener for score changes.
func WithScoreListener(l ScoreListener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listeners = append(e.listeners, l)
		}
	}
}

// New creates an engine with an empty board.
// A nil store disables persistence.
func New(store KVStore, rng Source, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		rng:     rng,
		key:     DefaultKey,
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Key returns the storage slot name.
func (e *Engine) Key() string {
	return e.key
}

// OnScore registers a listener for score changes.
func (e *Engine) OnScore(l ScoreListener) {
	if l != nil {
		e.listeners = append(e.listeners, l)
	}
}

// Initialize loads the persisted board if one exists, otherwise starts a
// fresh game. An unreadable or malformed snapshot also starts a fresh game;
// the decode error is returned alongside the fresh state so callers can
// report it.
func (e *Engine) Initialize() (GameState, error) {
	board, ok, restoreErr := e.Restore()
	if ok && !board.IsBlank() {
		e.board = board
		e.emitScore()
		return e.Evaluate(), nil
	}

	if err := e.NewGame(); err != nil {
		return StateOngoing, errors.Join(restoreErr, err)
	}
	return e.Evaluate(), restoreErr
}

// NewGame clears the board and places two minimum-value tiles.
func (e *Engine) NewGame() error {
	e.board.Clear()
	for range 2 {
		if _, err := e.place(MinValue); err != nil {
			return err
		}
	}
	e.emitScore()
	return e.Persist()
}

// Board returns a copy of the current board.
func (e *Engine) Board() Board {
	return e.board
}

// SetBoard replaces the board without persisting it.
func (e *Engine) SetBoard(b Board) {
	e.board = b
}

// Score returns the sum of all tile values.
func (e *Engine) Score() int {
	return e.board.Sum()
}

// Move shifts every tile towards dir. The board is unchanged when nothing
// could move.
func (e *Engine) Move(dir Direction) MoveResult {
	return e.board.slide(dir)
}

// Spawn places a weighted random value on a random empty cell, then
// persists the board.
func (e *Engine) Spawn() (Tile, error) {
	return e.SpawnValue(e.weights.draw(e.rng))
}

// SpawnValue places v on a random empty cell, then persists the board.
// The tile is placed even if persisting fails.
func (e *Engine) SpawnValue(v Cell) (Tile, error) {
	tile, err := e.place(v)
	if err != nil {
		return tile, err
	}

	e.emitScore()

	if err := e.Persist(); err != nil {
		return tile, err
	}
	return tile, nil
}

// place puts v on a uniformly random empty cell.
func (e *Engine) place(v Cell) (Tile, error) {
	empty := e.board.EmptyCells()
	if len(empty) == 0 {
		return Tile{}, ErrBoardFull
	}

	pos := empty[e.rng.Intn(len(empty))]
	e.board.Put(pos, v)
	return Tile{Position: pos, Value: v}, nil
}

// Evaluate classifies the current board.
func (e *Engine) Evaluate() GameState {
	return Evaluate(e.board)
}

// CanMove reports whether any move is still possible.
func (e *Engine) CanMove() bool {
	return CanMove(e.board)
}

// Turn runs one full turn: move, spawn if anything moved, evaluate.
func (e *Engine) Turn(dir Direction) (TurnResult, error) {
	result := TurnResult{MoveResult: e.Move(dir)}

	if result.Moved {
		tile, err := e.Spawn()
		if !errors.Is(err, ErrBoardFull) {
			result.Spawned = &tile
		}
		if err != nil {
			result.Score = e.Score()
			result.State = e.Evaluate()
			return result, err
		}
	}

	result.Score = e.Score()
	result.State = e.Evaluate()
	return result, nil
}

// Snapshot returns the board, score and state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Board:   e.board,
		Score:   e.Score(),
		MaxTile: e.board.MaxTile(),
		State:   e.Evaluate(),
	}
}

// Persist writes the board into the storage slot.
func (e *Engine) Persist() error {
	if e.store == nil {
		return nil
	}

	data, err := EncodeBoard(e.board)
	if err != nil {
		return err
	}
	if err := e.store.Set(e.key, data); err != nil {
		return fmt.Errorf("engine: cannot persist board: %w", err)
	}
	return nil
}

// Restore reads the board from the storage slot.
// ok is false when nothing usable was stored.
func (e *Engine) Restore() (board Board, ok bool, err error) {
	if e.store == nil {
		return board, false, nil
	}

	data, found, err := e.store.Get(e.key)
	if err != nil {
		return board, false, fmt.Errorf("engine: cannot restore board: %w", err)
	}
	if !found || data == "" {
		return board, false, nil
	}

	board, err = DecodeBoard(data)
	if err != nil {
		return Board{}, false, err
	}
	return board, true, nil
}

// emitScore notifies listeners if the score changed since the last emit.
func (e *Engine) emitScore() {
	score := e.Score()
	if e.emitted && score == e.lastScore {
		return
	}
	e.lastScore = score
	e.emitted = true
	for _, l := range e.listeners {
		l(score)
	}
}
