package core

// Color represents a foreground color for a screen cell.
// The platform layer maps it to an ANSI 256-color code.
type Color uint8

// Predefined colors.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

// tileColors is indexed by log2 of the tile value.
var tileColors = [...]Color{
	ColorGray,          // empty
	ColorWhite,         // 2
	ColorBrightWhite,   // 4
	ColorOrange,        // 8
	ColorBrightRed,     // 16
	ColorRed,           // 32
	ColorBrightMagenta, // 64
	ColorYellow,        // 128
	ColorBrightYellow,  // 256
	ColorBrightGreen,   // 512
	ColorGreen,         // 1024
	ColorBrightCyan,    // 2048
}

// TileColor returns the color a tile of the given value is drawn in.
// Values past the palette reuse its last entry.
func TileColor(value int) Color {
	if value <= 0 {
		return tileColors[0]
	}
	idx := 0
	for v := value; v > 1; v >>= 1 {
		idx++
	}
	if idx >= len(tileColors) {
		idx = len(tileColors) - 1
	}
	return tileColors[idx]
}
