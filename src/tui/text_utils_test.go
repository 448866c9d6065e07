package tui

import (
	"strings"
	"testing"
)

func TestTruncate_WithEllipsis(t *testing.T) {
	text := "this is a very long text"
	maxLen := 10
	result := Truncate(text, maxLen, true)

	width := VisualWidth(result)
	if width > maxLen {
		t.Errorf("truncated text exceeds maxLen %d: width=%d, content='%s'", maxLen, width, result)
	}

	if !strings.HasSuffix(result, "...") {
		t.Errorf("expected ellipsis, got '%s'", result)
	}
}

func TestTruncate_WithoutEllipsis(t *testing.T) {
	text := "this is a very long text"
	maxLen := 10
	result := Truncate(text, maxLen, false)

	width := VisualWidth(result)
	if width > maxLen {
		t.Errorf("truncated text exceeds maxLen %d: width=%d, content='%s'", maxLen, width, result)
	}

	if strings.HasSuffix(result, "...") {
		t.Errorf("unexpected ellipsis, got '%s'", result)
	}
}

func TestTruncate_WideRunes(t *testing.T) {
	result := Truncate("构建失败构建失败", 6, false)
	if w := VisualWidth(result); w > 6 {
		t.Errorf("width = %d, want <= 6 for %q", w, result)
	}
}

func TestTruncate_ZeroWidth(t *testing.T) {
	if result := Truncate("hello", 0, true); result != "" {
		t.Errorf("expected empty string, got '%s'", result)
	}
}

func TestTruncateStyled(t *testing.T) {
	styled := "\x1b[31mERROR: something failed\x1b[0m"

	result := TruncateStyled(styled, 8)
	if !strings.HasPrefix(result, "\x1b[31m") {
		t.Errorf("escape code lost: %q", result)
	}
	if !strings.Contains(result, "ERROR") || strings.Contains(result, "failed") {
		t.Errorf("TruncateStyled() = %q", result)
	}

	if got := TruncateStyled(styled, 0); got != styled {
		t.Errorf("zero width should keep text, got %q", got)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		text        string
		wantLines   []string
		wantPartial string
	}{
		{text: "abc", wantLines: nil, wantPartial: "abc"},
		{text: "a\nb\n", wantLines: []string{"a", "b"}, wantPartial: ""},
		{text: "a\nb\nc", wantLines: []string{"a", "b"}, wantPartial: "c"},
		{text: "\n", wantLines: []string{""}, wantPartial: ""},
	}

	for _, tt := range tests {
		lines, partial := SplitLines(tt.text)
		if strings.Join(lines, "|") != strings.Join(tt.wantLines, "|") || len(lines) != len(tt.wantLines) || partial != tt.wantPartial {
			t.Errorf("SplitLines(%q) = (%q, %q), want (%q, %q)", tt.text, lines, partial, tt.wantLines, tt.wantPartial)
		}
	}
}
