package mcp

import (
	"fmt"
	"regexp"
	"strings"
)

// timestampPattern matches leading timestamps in various formats:
// - 2024-05-21T10:00:05.123Z
// - 2024-05-21 10:00:05,123
// - 2024-05-21T10:00:05+00:00
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}[.,]?\d*[Z]?([+-]\d{2}:?\d{2})?\s*`)

// stripTimestamps removes leading timestamps from a line.
func stripTimestamps(line string) string {
	return timestampPattern.ReplaceAllString(line, "")
}

// longPathPattern matches absolute paths with 3+ directories.
// Captures the filename (and optional line number) at the end.
var longPathPattern = regexp.MustCompile(`/(?:[^/\s]+/){3,}([^/\s:]+(?::\d+)?)`)

// compressPath shortens long file paths to .../filename.
func compressPath(line string) string {
	return longPathPattern.ReplaceAllString(line, ".../$1")
}

// compactTrace shrinks a cleaned trace for LLM consumption: leading timestamps go,
// long paths are shortened and runs of identical lines become one line plus a count.
func compactTrace(trace string) string {
	lines := strings.Split(strings.TrimRight(trace, "\n"), "\n")

	var out []string
	prev, repeats := "", 0
	flush := func() {
		if repeats > 0 {
			out = append(out, fmt.Sprintf("  [previous line repeated %d more times]", repeats))
			repeats = 0
		}
	}

	for i, raw := range lines {
		line := strings.TrimRight(compressPath(stripTimestamps(raw)), " \t")
		if i > 0 && line == prev {
			repeats++
			continue
		}
		flush()
		out = append(out, line)
		prev = line
	}
	flush()

	return strings.Join(out, "\n") + "\n"
}
