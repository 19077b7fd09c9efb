// Package engine implements the 2048 grid: moves, merges, spawns, scoring,
// terminal-state detection and snapshot persistence.
//
// The engine is pure game logic. Randomness and storage are injected so the
// rules can be exercised deterministically in tests.
package engine

import "strconv"

// Size is the board dimension.
const Size = 4

// Cell is a single board cell: Empty or a tile value.
type Cell int

const (
	// Empty marks a cell with no tile.
	Empty Cell = 0

	// MinValue is the value of the seed tiles on a fresh board.
	MinValue Cell = 2

	// MaxValue is the winning tile. Tiles of this value do not merge further.
	MaxValue Cell = 2048
)

// Values lists the tile values in ascending order.
var Values = []Cell{2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, 2048}

// IsEmpty reports whether the cell holds no tile.
func (c Cell) IsEmpty() bool {
	return c == Empty
}

// Valid reports whether c is Empty or one of Values.
func (c Cell) Valid() bool {
	if c == Empty {
		return true
	}
	if c < MinValue || c > MaxValue {
		return false
	}
	return c&(c-1) == 0
}

// String returns the tile value, or "." for an empty cell.
func (c Cell) String() string {
	if c == Empty {
		return "."
	}
	return strconv.Itoa(int(c))
}

// Position is a (row, column) pair on the board.
type Position struct {
	Row int
	Col int
}

// InBounds reports whether the position lies on the board.
func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Add offsets the position by a direction step.
func (p Position) Add(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

// Tile is an occupied cell.
type Tile struct {
	Position
	Value Cell
}

// Board is the 4x4 matrix, indexed [row][col].
type Board [Size][Size]Cell

// At returns the cell at p.
func (b Board) At(p Position) Cell {
	return b[p.Row][p.Col]
}

// Put stores v at p.
func (b *Board) Put(p Position, v Cell) {
	b[p.Row][p.Col] = v
}

// Clear empties every cell.
func (b *Board) Clear() {
	*b = Board{}
}

// Tiles returns every occupied cell in row-major order.
func (b Board) Tiles() []Tile {
	tiles := make([]Tile, 0, Size*Size)
	for row := range Size {
		for col := range Size {
			if v := b[row][col]; v != Empty {
				tiles = append(tiles, Tile{Position: Position{Row: row, Col: col}, Value: v})
			}
		}
	}
	return tiles
}

// EmptyCells returns the positions of all empty cells in row-major order.
func (b Board) EmptyCells() []Position {
	var cells []Position
	for row := range Size {
		for col := range Size {
			if b[row][col] == Empty {
				cells = append(cells, Position{Row: row, Col: col})
			}
		}
	}
	return cells
}

// HasEmptyCell returns true if there's at least one empty cell.
func (b Board) HasEmptyCell() bool {
	for row := range Size {
		for col := range Size {
			if b[row][col] == Empty {
				return true
			}
		}
	}
	return false
}

// HasPossibleMerge returns true if any two orthogonal neighbours can merge.
func (b Board) HasPossibleMerge() bool {
	for row := range Size {
		for col := range Size {
			v := b[row][col]
			if col < Size-1 && canMerge(v, b[row][col+1]) {
				return true
			}
			if row < Size-1 && canMerge(v, b[row+1][col]) {
				return true
			}
		}
	}
	return false
}

// Sum returns the total of all tile values.
func (b Board) Sum() int {
	total := 0
	for row := range Size {
		for col := range Size {
			total += int(b[row][col])
		}
	}
	return total
}

// MaxTile returns the highest tile value on the board.
func (b Board) MaxTile() Cell {
	maxVal := Empty
	for row := range Size {
		for col := range Size {
			if b[row][col] > maxVal {
				maxVal = b[row][col]
			}
		}
	}
	return maxVal
}

// IsBlank reports whether the board holds no tiles at all.
func (b Board) IsBlank() bool {
	return b == Board{}
}

// canMerge reports whether a tile of value src may merge into dst.
func canMerge(src, dst Cell) bool {
	return src != Empty && src == dst && src < MaxValue
}
