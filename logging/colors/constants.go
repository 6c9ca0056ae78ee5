package colors

// Color is an ANSI SGR code.
type Color int

// ANSI codes, matching the palette zerolog uses for its console writer.
const (
	BLACK Color = iota + 30
	RED
	GREEN
	YELLOW
	BLUE
	MAGENTA
	CYAN
	WHITE
	BOLD      Color = 1
	DARK_GRAY Color = 90
)

// LEFT_ARROW is the glyph printed in front of info-level console messages.
const LEFT_ARROW = "⇾"
