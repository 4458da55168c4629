package render

import (
	"os"
	"strconv"

	"golang.org/x/term"
)

// Default terminal dimensions when nothing can be detected.
const (
	DefaultWidth  = 80
	DefaultHeight = 24
)

// Size is a width and height in character cells.
type Size struct {
	Width  int
	Height int
}

// TerminalSize returns the size of the terminal attached to f. When f is not
// a terminal the COLUMNS and LINES environment variables are consulted, then
// the defaults.
func TerminalSize(f *os.File) Size {
	if f != nil && term.IsTerminal(int(f.Fd())) {
		width, height, err := term.GetSize(int(f.Fd()))
		if err == nil && width > 0 && height > 0 {
			return Size{Width: width, Height: height}
		}
	}

	return Size{
		Width:  envDimension("COLUMNS", DefaultWidth),
		Height: envDimension("LINES", DefaultHeight),
	}
}

// ChartSize applies explicit overrides to a detected terminal size. The chart
// leaves one row free for the prompt. Non-positive overrides are ignored.
func ChartSize(terminal Size, width, height int) Size {
	size := Size{Width: terminal.Width, Height: terminal.Height - 1}

	if width > 0 {
		size.Width = width
	}

	if height > 0 {
		size.Height = height
	}

	return size
}

func envDimension(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}

	return value
}
