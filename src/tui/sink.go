package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"mfe-publish/src/provider"
	"mfe-publish/src/sanitize"
)

// program is the part of *tea.Program the sink drives.
type program interface {
	Send(msg tea.Msg)
}

// ProgramSink forwards release progress to a running bubbletea program.
// Complete log lines are sent as print messages, which keeps them in order with the
// other messages and never blocks once the program has exited. The partial last line
// goes to the model.
type ProgramSink struct {
	p      program
	styles *StyleConfig

	mu      sync.Mutex
	partial string
}

// NewProgramSink creates a sink for p.
func NewProgramSink(p program, styles *StyleConfig) *ProgramSink {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &ProgramSink{p: p, styles: styles}
}

func (s *ProgramSink) Notice(msg string) {
	s.println(s.styles.NoticeStyle().Render(strings.TrimRight(msg, "\n")))
	s.p.Send(StatusMsg(firstLine(msg)))
}

func (s *ProgramSink) Waiting(job *provider.Job) {
	s.p.Send(WaitingMsg{Job: job})
}

func (s *ProgramSink) FirstOutput() {
	s.p.Send(FirstOutputMsg{})
}

func (s *ProgramSink) Chunk(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Markers and escape codes can be split across polls but never span a newline,
	// so they are stripped after joining with the held-back partial line.
	lines, partial := SplitLines(sanitize.StripSections(s.partial + text))
	s.partial = partial
	if len(lines) > 0 {
		s.println(strings.Join(lines, "\n"))
	}
	s.p.Send(PartialMsg(partial))
}

func (s *ProgramSink) Finished(job *provider.Job, err error) {
	s.mu.Lock()
	if s.partial != "" {
		s.println(s.partial)
		s.partial = ""
	}
	s.mu.Unlock()

	s.println(ResultLine(s.styles, job, err))
	s.p.Send(FinishedMsg{Job: job, Err: err})
}

// ResultLine renders the final badge line for a followed job.
func ResultLine(styles *StyleConfig, job *provider.Job, err error) string {
	switch {
	case err != nil:
		return fmt.Sprintf("%s job #%d: %v",
			styles.BadgeStyle(provider.StatusFailed).Render("STOPPED"), job.ID, err)
	case job.Status == provider.StatusSuccess:
		return fmt.Sprintf("%s job #%d %s",
			styles.BadgeStyle(job.Status).Render("DONE"), job.ID, job.WebURL)
	default:
		return fmt.Sprintf("%s job #%d %s",
			styles.BadgeStyle(job.Status).Render(strings.ToUpper(string(job.Status))), job.ID, job.WebURL)
	}
}

func (s *ProgramSink) println(text string) {
	s.p.Send(tea.Println(text)())
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Run starts the UI and calls fn with a sink connected to it. It returns fn's error once
// fn has returned, canceling fn's context if the UI is quit first.
func Run(ctx context.Context, fn func(ctx context.Context, sink *ProgramSink) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	styles := DefaultStyles()
	p := tea.NewProgram(NewModel(cancel, styles), opts...)
	sink := NewProgramSink(p, styles)

	errCh := make(chan error, 1)
	go func() {
		errCh <- fn(ctx, sink)
		p.Send(DoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("terminal UI failed: %w", err)
	}

	cancel()
	return <-errCh
}
