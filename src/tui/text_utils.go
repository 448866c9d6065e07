package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// VisualWidth returns the display width of text, accounting for multi-byte characters
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate truncates plain text to maxLen columns (visual width) with optional ellipsis
func Truncate(s string, maxLen int, ellipsis bool) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 {
		return ""
	}

	visualWidth := VisualWidth(s)
	if visualWidth > maxLen {
		if ellipsis && maxLen > 3 {
			// Truncate to fit maxLen-3 visual characters, then add ellipsis
			return runewidth.Truncate(s, maxLen-3, "") + "..."
		}
		return runewidth.Truncate(s, maxLen, "")
	}
	return s
}

// TruncateStyled truncates text that may contain escape codes to width columns.
// Escape codes do not count towards the width. width <= 0 returns s unchanged.
func TruncateStyled(s string, width int) string {
	if width <= 0 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// SplitLines separates the complete lines of text from a trailing partial line.
func SplitLines(text string) (lines []string, partial string) {
	i := strings.LastIndexByte(text, '\n')
	if i < 0 {
		return nil, text
	}
	return strings.Split(text[:i], "\n"), text[i+1:]
}
