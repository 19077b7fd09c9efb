package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidSnapshot is returned when a persisted board has the wrong shape
// or holds values outside the tile sequence.
var ErrInvalidSnapshot = errors.New("engine: invalid board snapshot")

// EncodeBoard serializes the board as a JSON array of rows, 0 for empty.
func EncodeBoard(b Board) (string, error) {
	rows := make([][]int, Size)
	for row := range Size {
		rows[row] = make([]int, Size)
		for col := range Size {
			rows[row][col] = int(b[row][col])
		}
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("engine: cannot encode board: %w", err)
	}
	return string(data), nil
}

// DecodeBoard parses a board written by EncodeBoard.
// The shape must be 4x4 and every value Empty or a member of Values.
func DecodeBoard(s string) (Board, error) {
	var board Board
	var rows [][]int
	if err := json.Unmarshal([]byte(s), &rows); err != nil {
		return board, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	if len(rows) != Size {
		return board, fmt.Errorf("%w: %d rows", ErrInvalidSnapshot, len(rows))
	}
	for row, cells := range rows {
		if len(cells) != Size {
			return board, fmt.Errorf("%w: row %d has %d cells", ErrInvalidSnapshot, row, len(cells))
		}
		for col, v := range cells {
			c := Cell(v)
			if !c.Valid() {
				return board, fmt.Errorf("%w: value %d at (%d,%d)", ErrInvalidSnapshot, v, row, col)
			}
			board[row][col] = c
		}
	}

	return board, nil
}
