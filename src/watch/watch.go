// Package watch follows a running CI job and streams the new part of its log.
//
// The CI trace endpoint only returns the whole cumulative log, so every poll reads the
// full text and emits whatever follows the previously seen prefix. A Stream is driven
// like bufio.Scanner:
//
//	s := w.Watch(ctx, projectID, job, onFirstOutput)
//	for s.Next() {
//		fmt.Print(s.Chunk())
//	}
//	if err := s.Err(); err != nil { ... }
//	final := s.Job()
package watch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mfe-publish/src/logger"
	"mfe-publish/src/provider"
)

// DefaultInterval is the pause between polls of an active job.
const DefaultInterval = time.Second

var (
	// ErrLogReset is returned under ResetFail when a trace no longer starts with the
	// text already emitted.
	ErrLogReset = errors.New("job trace was reset")
	// ErrCanceled is returned (wrapped with the context error) when ctx ends mid-watch.
	ErrCanceled = errors.New("watch canceled")
)

// ResetPolicy decides what happens when the remote trace stops extending the cursor.
type ResetPolicy int

const (
	// ResetResync treats the whole current trace as new output and continues from it.
	ResetResync ResetPolicy = iota
	// ResetFail ends the stream with ErrLogReset.
	ResetFail
)

func (p ResetPolicy) String() string {
	switch p {
	case ResetResync:
		return "resync"
	case ResetFail:
		return "fail"
	}
	return fmt.Sprintf("ResetPolicy(%d)", int(p))
}

// ParseResetPolicy maps "resync" and "fail" to a policy.
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "resync":
		return ResetResync, nil
	case "fail":
		return ResetFail, nil
	}
	return ResetResync, fmt.Errorf("unknown reset policy %q (want resync or fail)", s)
}

// Source is the read side of a CI system the watcher needs.
type Source interface {
	provider.JobGetter
	provider.TraceReader
}

// Watcher creates Streams. It holds configuration only and may be shared; every Stream
// owns its own cursor.
type Watcher struct {
	source   Source
	interval time.Duration
	reset    ResetPolicy
	log      logger.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the pause between polls. Negative values are treated as zero.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d < 0 {
			d = 0
		}
		w.interval = d
	}
}

// WithResetPolicy sets how a shrinking or rewritten trace is handled.
func WithResetPolicy(p ResetPolicy) Option {
	return func(w *Watcher) {
		w.reset = p
	}
}

// WithLogger sets the logger used for resets and poll diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// New creates a Watcher reading from source.
func New(source Source, opts ...Option) *Watcher {
	w := &Watcher{
		source:   source,
		interval: DefaultInterval,
		reset:    ResetResync,
		log:      logger.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch starts following job. The job's Status is the last known state (for example the
// job returned by a play call); a job that is not pending or running yields no chunks.
// onFirstOutput, if non-nil, runs once just before the first non-empty chunk is returned.
// Nothing is fetched until the first call to Next.
func (w *Watcher) Watch(ctx context.Context, projectID string, job *provider.Job, onFirstOutput func()) *Stream {
	seed := *job
	return &Stream{
		w:             w,
		ctx:           ctx,
		projectID:     projectID,
		job:           &seed,
		onFirstOutput: onFirstOutput,
	}
}

// Stream is a single, non-restartable pass over a job's output.
type Stream struct {
	w             *Watcher
	ctx           context.Context
	projectID     string
	onFirstOutput func()

	job    *provider.Job
	cursor string
	chunk  string
	polls  int
	resets int
	fired  bool
	done   bool
	err    error
}

// Next polls until new output is available or the job leaves the active states.
// It returns false when the stream has ended; check Err afterwards.
func (s *Stream) Next() bool {
	s.chunk = ""
	if s.done {
		return false
	}

	for s.job.Status.Active() {
		if s.polls > 0 {
			if err := s.sleep(); err != nil {
				return s.finish(err)
			}
		} else if err := s.ctx.Err(); err != nil {
			return s.finish(fmt.Errorf("%w: %w", ErrCanceled, err))
		}
		s.polls++

		chunk, err := s.poll()
		if err != nil {
			return s.finish(err)
		}
		if chunk != "" {
			if !s.fired {
				s.fired = true
				if s.onFirstOutput != nil {
					s.onFirstOutput()
				}
			}
			s.chunk = chunk
			return true
		}
	}

	return s.finish(nil)
}

// poll reads status and trace once, advances the cursor and returns the new text.
func (s *Stream) poll() (string, error) {
	latest, err := s.w.source.GetJob(s.ctx, s.projectID, s.job.ID)
	if err != nil {
		return "", err
	}

	trace, err := s.w.source.GetTrace(s.ctx, s.projectID, s.job.ID)
	if err != nil {
		return "", err
	}

	newText, err := s.diff(trace)
	if err != nil {
		return "", err
	}

	s.job.Status = latest.Status
	if latest.WebURL != "" {
		s.job.WebURL = latest.WebURL
	}
	s.w.log.Debug("job #%d poll %d: status=%s +%d bytes", s.job.ID, s.polls, latest.Status, len(newText))

	return newText, nil
}

// diff returns the part of trace after the cursor and moves the cursor to trace.
func (s *Stream) diff(trace string) (string, error) {
	if strings.HasPrefix(trace, s.cursor) {
		newText := trace[len(s.cursor):]
		if newText != "" {
			s.cursor = trace
		}
		return newText, nil
	}

	s.resets++
	if s.w.reset == ResetFail {
		return "", fmt.Errorf("job #%d: %w (had %d bytes, now %d)", s.job.ID, ErrLogReset, len(s.cursor), len(trace))
	}

	s.w.log.Warn("job #%d trace no longer extends the %d bytes already shown; re-reading from the start", s.job.ID, len(s.cursor))
	s.cursor = trace
	return trace, nil
}

func (s *Stream) sleep() error {
	if s.w.interval == 0 {
		if err := s.ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrCanceled, err)
		}
		return nil
	}

	timer := time.NewTimer(s.w.interval)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return fmt.Errorf("%w: %w", ErrCanceled, s.ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (s *Stream) finish(err error) bool {
	s.done = true
	s.err = err
	return false
}

// Chunk returns the text produced by the last successful call to Next.
func (s *Stream) Chunk() string {
	return s.chunk
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Job returns the job as last observed. After the stream ends without error its
// status is terminal.
func (s *Stream) Job() *provider.Job {
	job := *s.job
	return &job
}

// Resets returns how many times the trace had to be re-read from the start.
func (s *Stream) Resets() int {
	return s.resets
}

// output returns everything observed so far.
func (s *Stream) output() string {
	return s.cursor
}

// Collect drains a stream and returns all chunks with the final job.
func Collect(s *Stream) ([]string, *provider.Job, error) {
	var chunks []string
	for s.Next() {
		chunks = append(chunks, s.Chunk())
	}
	return chunks, s.Job(), s.Err()
}
