package engine

// GameState is the terminal-state classification of a board.
type GameState string

const (
	StateOngoing GameState = "ongoing"
	StateWon     GameState = "won"
	StateLost    GameState = "lost"
)

// Terminal reports whether the state ends the current turn loop.
func (s GameState) Terminal() bool {
	return s == StateWon || s == StateLost
}

// Snapshot captures the complete engine state for rendering and transport.
type Snapshot struct {
	Board   Board     `json:"board"`
	Score   int       `json:"score"`
	MaxTile Cell      `json:"max_tile"`
	State   GameState `json:"state"`
}
