package mcp

import "testing"

func TestStripTimestamps(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ISO timestamp with T separator",
			input:    "2024-05-21T10:00:05.123Z [ERROR] Connection failed",
			expected: "[ERROR] Connection failed",
		},
		{
			name:     "timestamp with timezone offset",
			input:    "2024-05-21T10:00:05+00:00 $ npm ci",
			expected: "$ npm ci",
		},
		{
			name:     "timestamp mid-line preserved",
			input:    "Error at 2024-05-21T10:00:05Z in module",
			expected: "Error at 2024-05-21T10:00:05Z in module",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := stripTimestamps(tt.input)
			if result != tt.expected {
				t.Errorf("stripTimestamps(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCompressPath(t *testing.T) {
	got := compressPath("at /builds/fe/snhy/src/pages/home/index.tsx:12")
	if got != "at .../index.tsx:12" {
		t.Errorf("compressPath() = %q", got)
	}

	short := "see /tmp/out.log"
	if got := compressPath(short); got != short {
		t.Errorf("short path changed: %q", got)
	}
}

func TestCompactTrace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no repeats",
			input: "$ npm ci\nadded 100 packages\n",
			want:  "$ npm ci\nadded 100 packages\n",
		},
		{
			name:  "collapses repeated lines",
			input: "waiting\nwaiting\nwaiting\ndone\n",
			want:  "waiting\n  [previous line repeated 2 more times]\ndone\n",
		},
		{
			name:  "repeats at end",
			input: "retry  \nretry\n",
			want:  "retry\n  [previous line repeated 1 more times]\n",
		},
		{
			name:  "timestamps make lines equal",
			input: "2024-05-21T10:00:05Z tick\n2024-05-21T10:00:06Z tick\n",
			want:  "tick\n  [previous line repeated 1 more times]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compactTrace(tt.input); got != tt.want {
				t.Errorf("compactTrace() = %q, want %q", got, tt.want)
			}
		})
	}
}
