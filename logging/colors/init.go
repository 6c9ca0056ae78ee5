package colors

import "os"

// enabled reports whether Colorize emits ANSI codes.
var enabled = true

// init probes the console for ANSI support and honors NO_COLOR.
func init() {
	EnableColor()
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		DisableColor()
	}
}

// DisableColor makes every ColorFunc return its input unchanged.
func DisableColor() {
	enabled = false
}
