package engine

// MoveResult describes what a single move did to the board.
type MoveResult struct {
	Moved  bool // At least one tile changed cell
	Merges int  // Number of merges performed
	Gained int  // Sum of the tiles produced by merges
}

// Slide performs a move in the given direction on a copy of board.
// Returns the new board and what the move did.
func Slide(board Board, dir Direction) (Board, MoveResult) {
	result := board.slide(dir)
	return board, result
}

// slide moves every tile towards the edge named by dir, in place.
//
// Tiles are processed nearest-edge first. Each tile steps one cell at a time
// into empty cells; on meeting an equal tile it merges into it and stops.
// A cell that received a merge is settled for the rest of the move: later
// tiles stop against it rather than merging a second time.
func (b *Board) slide(dir Direction) MoveResult {
	var result MoveResult
	var settled [Size][Size]bool

	dRow, dCol := dir.Vector()
	if dRow == 0 && dCol == 0 {
		return result
	}

	for _, start := range traversal(*b, dir) {
		cur := start
		val := b.At(cur)

		for {
			next := cur.Add(dRow, dCol)
			if !next.InBounds() {
				break
			}

			dst := b.At(next)
			if dst == Empty {
				b.Put(next, val)
				b.Put(cur, Empty)
				cur = next
				result.Moved = true
				continue
			}

			if canMerge(val, dst) && !settled[next.Row][next.Col] {
				merged := val * 2
				b.Put(next, merged)
				b.Put(cur, Empty)
				settled[next.Row][next.Col] = true
				result.Moved = true
				result.Merges++
				result.Gained += int(merged)
			}
			break
		}
	}

	return result
}

// CanMove returns true if any move is possible.
func CanMove(board Board) bool {
	return board.HasEmptyCell() || board.HasPossibleMerge()
}

// Evaluate classifies the board.
// Won takes priority over Lost: a board holding MaxValue is Won even when
// further merges remain.
func Evaluate(board Board) GameState {
	if board.MaxTile() >= MaxValue {
		return StateWon
	}
	if !CanMove(board) {
		return StateLost
	}
	return StateOngoing
}
