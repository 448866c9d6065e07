package tui

import (
	"github.com/charmbracelet/lipgloss"

	"mfe-publish/src/provider"
)

// StyleConfig holds the colors of the job watch UI.
type StyleConfig struct {
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Failure lipgloss.Color
	Warning lipgloss.Color
	Badge   lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		Accent:  lipgloss.Color("#FFD700"), // Gold
		Muted:   lipgloss.Color("#9AA0A6"),
		Success: lipgloss.Color("#34A853"),
		Failure: lipgloss.Color("#EA4335"),
		Warning: lipgloss.Color("#FBBC04"),
		Badge:   lipgloss.Color("#1E1E1E"),
	}
}

// SpinnerStyle colors the waiting indicator.
func (s *StyleConfig) SpinnerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.Accent)
}

// StatusStyle renders the one-line status under the log.
func (s *StyleConfig) StatusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.Muted)
}

// NoticeStyle renders progress notices.
func (s *StyleConfig) NoticeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

// BadgeStyle returns the style of the final DONE/FAILED badge for status.
func (s *StyleConfig) BadgeStyle(status provider.Status) lipgloss.Style {
	bg := s.Warning
	switch status {
	case provider.StatusSuccess:
		bg = s.Success
	case provider.StatusFailed:
		bg = s.Failure
	}
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(s.Badge).
		Bold(true).
		Padding(0, 1)
}
