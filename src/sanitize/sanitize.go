// Package sanitize cleans CI job traces for storage, MCP responses and plain output.
// It removes ANSI escape sequences and GitLab's collapsible-section markers.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// GitLab section markers: section_start:<unix>:<name>[<options>]\r\x1b[0K
var sectionMarker = regexp.MustCompile(`section_(?:start|end):\d+:[^\r\n]*?\r\x1b\[0K`)

// StripANSI removes ANSI escape codes and GitLab section markers.
func StripANSI(s string) string {
	s = sectionMarker.ReplaceAllString(s, "")
	return ansi.Strip(s)
}

// StripSections removes GitLab section markers and CRLF line endings but keeps colors,
// for terminals that render the trace.
func StripSections(s string) string {
	s = sectionMarker.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// Clean strips escape codes and normalises line endings to \n.
func Clean(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return s
}

// Tail returns the last n lines of s. n <= 0 returns s unchanged.
func Tail(s string, n int) string {
	if n <= 0 {
		return s
	}
	trimmed := strings.TrimRight(s, "\n")
	lines := strings.Split(trimmed, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n") + "\n"
}
