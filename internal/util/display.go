package util

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	separatorRune  = "─"
	heavyRule      = "═"
	barFilled      = "█"
	barEmpty       = "░"
	defaultTermCol = 74
)

// GetDisplayWidth calculates the actual display width of a string, accounting for emojis
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadString pads a string to a specific display width, handling emojis correctly
func PadString(s string, width int, leftAlign bool) string {
	actualWidth := GetDisplayWidth(s)
	if actualWidth >= width {
		return s
	}

	padding := strings.Repeat(" ", width-actualWidth)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// TerminalWidth returns the width of stdout, or a fallback when stdout is not a terminal
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return defaultTermCol
	}
	return width
}

// TimelineBar draws a bar of the given width with the span [start, end) filled.
// At least one cell is always filled so zero-length spans stay visible.
func TimelineBar(start, end, width int) string {
	if width <= 0 {
		return ""
	}
	if start < 0 {
		start = 0
	}
	if start >= width {
		start = width - 1
	}
	filled := end - start
	if filled < 1 {
		filled = 1
	}
	if start+filled > width {
		filled = width - start
	}

	return strings.Repeat(barEmpty, start) +
		strings.Repeat(barFilled, filled) +
		strings.Repeat(barEmpty, width-start-filled)
}

// SectionSeparator returns a thin rule of the given width
func SectionSeparator(width int) string {
	return strings.Repeat(separatorRune, width)
}

// HeavySeparator returns a double rule of the given width
func HeavySeparator(width int) string {
	return strings.Repeat(heavyRule, width)
}

// CenterText centers text within the given display width
func CenterText(text string, width int) string {
	textWidth := GetDisplayWidth(text)
	if textWidth >= width {
		return text
	}
	padding := (width - textWidth) / 2
	return strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-padding-textWidth)
}
