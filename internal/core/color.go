package core

// Color is a foreground color for a screen cell. The terminal layer maps
// each value to an ANSI 256-color style.
type Color uint8

const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)
