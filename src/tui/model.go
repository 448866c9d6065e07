// Package tui shows a CI job's log live in the terminal while a release or watch runs.
//
// Completed log lines are printed above the program with Program.Println so they stay in
// the terminal scrollback; the program itself only renders the current partial line and
// a one-line status with a spinner.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"mfe-publish/src/provider"
)

// WaitingMsg is sent when following starts.
type WaitingMsg struct {
	Job *provider.Job
}

// FirstOutputMsg is sent once, when the job produced its first output.
type FirstOutputMsg struct{}

// PartialMsg carries the unterminated last line of the log so far.
type PartialMsg string

// StatusMsg replaces the status line.
type StatusMsg string

// FinishedMsg is sent when following ends.
type FinishedMsg struct {
	Job *provider.Job
	Err error
}

// DoneMsg is sent when the background work has returned.
type DoneMsg struct{}

// Model is the bubbletea model of the job watch UI.
type Model struct {
	styles  *StyleConfig
	spinner spinner.Model
	cancel  context.CancelFunc

	width     int
	status    string
	partial   string
	job       *provider.Job
	waiting   bool
	canceling bool
	done      bool
}

// NewModel creates the model. cancel is called on the first ctrl+c; a second ctrl+c quits
// immediately.
func NewModel(cancel context.CancelFunc, styles *StyleConfig) Model {
	if styles == nil {
		styles = DefaultStyles()
	}
	return Model{
		styles: styles,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.SpinnerStyle()),
		),
		cancel: cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if msg.String() != "ctrl+c" {
			return m, nil
		}
		if m.canceling || m.cancel == nil {
			return m, tea.Quit
		}
		m.cancel()
		m.canceling = true
		m.status = "Canceling..."

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StatusMsg:
		if !m.canceling {
			m.status = string(msg)
		}

	case WaitingMsg:
		m.job = msg.Job
		m.waiting = true
		if !m.canceling {
			m.status = fmt.Sprintf("Waiting for job #%d (%s) to start logging", msg.Job.ID, msg.Job.Status)
		}

	case FirstOutputMsg:
		m.waiting = false
		if m.job != nil && !m.canceling {
			m.status = fmt.Sprintf("Following job #%d", m.job.ID)
		}

	case PartialMsg:
		m.partial = string(msg)

	case FinishedMsg:
		m.job = msg.Job
		m.waiting = false
		m.partial = ""
		m.status = ""

	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	var view string
	if m.partial != "" {
		view = TruncateStyled(m.partial, m.width) + "\n"
	}

	if m.status == "" {
		return view
	}

	width := m.width
	prefix := ""
	if m.waiting || m.canceling {
		prefix = m.spinner.View() + " "
		width -= VisualWidth(m.spinner.Spinner.Frames[0]) + 1
	}
	if width <= 0 {
		width = 80
	}

	return view + prefix + m.styles.StatusStyle().Render(Truncate(m.status, width, true))
}

// Waiting reports whether the spinner is shown.
func (m Model) Waiting() bool {
	return m.waiting
}

// Status returns the current status line text.
func (m Model) Status() string {
	return m.status
}
