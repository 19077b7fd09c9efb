package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/term2048/internal/core"
	"github.com/vovakirdan/term2048/internal/engine"
)

// Board layout, in terminal cells.
const (
	tileW   = 8
	tileH   = 3
	boardX  = 2
	boardY  = 2
	dialogW = 34
	dialogH = 5
)

// boardRect is where the board is drawn and where swipes may start.
var boardRect = core.NewRect(boardX, boardY, engine.Size*tileW, engine.Size*tileH)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:       lipgloss.NewStyle(),
	core.ColorRed:           lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:        lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:          lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorMagenta:       lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorCyan:          lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:         lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorBrightRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorBrightGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBrightYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorBrightBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorBrightMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorBrightCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
	core.ColorBrightWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorOrange:        lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorGray:          lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		// Group consecutive cells with the same color for efficiency
		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			startColor := cell.Color

			// Collect consecutive cells with same color
			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			// Apply style to the run
			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// drawHeader draws the title and score line above the board.
func drawHeader(s *core.Screen, score, best int) {
	s.DrawTextColored(boardX, 0, "2048", core.ColorBrightYellow)
	s.DrawText(boardX+6, 0, fmt.Sprintf("Score: %d", score))
	if best > 0 {
		s.DrawTextColored(boardX+20, 0, fmt.Sprintf("Best: %d", best), core.ColorGray)
	}
}

// drawBoard draws every cell of b as a colored box.
func drawBoard(s *core.Screen, b engine.Board) {
	for row := range engine.Size {
		for col := range engine.Size {
			v := b.At(engine.Position{Row: row, Col: col})
			r := boardRect.Grid(engine.Size, engine.Size, row, col)
			c := core.TileColor(int(v))
			s.DrawBox(r, c)
			if !v.IsEmpty() {
				s.DrawTextIn(r, v.String(), c)
			}
		}
	}
}

// drawDialog draws a modal question centered over the board.
func drawDialog(s *core.Screen, question string) {
	cx, cy := boardRect.Center()
	r := core.NewRect(cx-dialogW/2, cy-dialogH/2, dialogW, dialogH)

	s.DrawRect(r, ' ', core.ColorDefault)
	s.DrawBox(r, core.ColorBrightYellow)
	s.DrawTextIn(core.NewRect(r.X, r.Y+1, r.W, 1), question, core.ColorBrightWhite)
	s.DrawTextIn(core.NewRect(r.X, r.Y+3, r.W, 1), "[y]es   [n]o", core.ColorGray)
}

// drawFooter draws the help and status lines under the board.
func drawFooter(s *core.Screen, help, status string) {
	y := boardRect.Bottom() + 1
	s.DrawTextColored(boardX, y, help, core.ColorGray)
	if status != "" {
		s.DrawTextColored(boardX, y+1, status, core.ColorBrightRed)
	}
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}
