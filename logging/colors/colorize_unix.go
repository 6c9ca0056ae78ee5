//go:build !windows

package colors

import "fmt"

// EnableColor turns ANSI output on. Unix terminals are assumed to support it.
func EnableColor() {
	enabled = true
}

// Colorize returns the string s wrapped in ANSI code c
func Colorize(s any, c Color) string {
	if !enabled {
		return fmt.Sprintf("%v", s)
	}
	return fmt.Sprintf("\x1b[%dm%v\x1b[0m", c, s)
}
