package ui

import (
	"fmt"
	"strconv"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorWarn   = 214 // orange
)

var noColor bool

func render(code int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderWarn returns s in the warning (orange) color.
func RenderWarn(s string) string { return render(colorWarn, s) }

// RenderSwatch returns a small block painted in a "#RRGGBB" feature color,
// followed by the hex code. Without color support only the code is shown.
func RenderSwatch(hex string) string {
	r, g, b, ok := parseHex(hex)
	if noColor || !ok {
		return hex
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm■\x1b[0m %s", r, g, b, hex)
}

func parseHex(hex string) (r, g, b uint8, ok bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
