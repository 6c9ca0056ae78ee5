package colors

import "fmt"

// ColorFunc is an alias type for a coloring function that accepts anything and returns a colorized string
type ColorFunc = func(s any) string

// Reset returns the input as a plain string. Passing it to a logger resets the color context.
func Reset(s any) string {
	return fmt.Sprintf("%v", s)
}

// paint returns a ColorFunc for a single color.
func paint(c Color) ColorFunc {
	return func(s any) string {
		return Colorize(s, c)
	}
}

// paintBold returns a ColorFunc for a bold variant of a color.
func paintBold(c Color) ColorFunc {
	return func(s any) string {
		return Colorize(Colorize(s, c), BOLD)
	}
}

var (
	Red          = paint(RED)
	RedBold      = paintBold(RED)
	Green        = paint(GREEN)
	GreenBold    = paintBold(GREEN)
	Yellow       = paint(YELLOW)
	YellowBold   = paintBold(YELLOW)
	Blue         = paint(BLUE)
	BlueBold     = paintBold(BLUE)
	Magenta      = paint(MAGENTA)
	MagentaBold  = paintBold(MAGENTA)
	Cyan         = paint(CYAN)
	CyanBold     = paintBold(CYAN)
	Bold         = paint(BOLD)
	DarkGray     = paint(DARK_GRAY)
	DarkGrayBold = paintBold(DARK_GRAY)
)
