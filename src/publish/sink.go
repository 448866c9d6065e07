package publish

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"mfe-publish/src/provider"
	"mfe-publish/src/sanitize"
)

// Sink presents release progress and job output.
type Sink interface {
	// Notice shows a progress line or a block of instructions.
	Notice(msg string)
	// Waiting is called when following starts and no output has arrived yet.
	Waiting(job *provider.Job)
	// FirstOutput is called once, just before the first chunk.
	FirstOutput()
	// Chunk receives each new piece of the job trace.
	Chunk(text string)
	// Finished is called once with the final job and the error that ended following.
	Finished(job *provider.Job, err error)
}

// DiscardSink ignores everything.
type DiscardSink struct{}

func (DiscardSink) Notice(string)                 {}
func (DiscardSink) Waiting(*provider.Job)         {}
func (DiscardSink) FirstOutput()                  {}
func (DiscardSink) Chunk(string)                  {}
func (DiscardSink) Finished(*provider.Job, error) {}

// WriterSink writes plain text to W, for pipes and CI logs. With Strip set, escape
// codes and section markers are removed from the trace; the trace is then written a
// line at a time so a marker or escape code split across two chunks is still matched.
type WriterSink struct {
	W     io.Writer
	Strip bool

	mu      sync.Mutex
	partial string
}

func (s *WriterSink) Notice(msg string) {
	s.printf("%s\n", msg)
}

func (s *WriterSink) Waiting(job *provider.Job) {
	s.printf("Waiting for output of job #%d (%s)...\n", job.ID, job.Status)
}

func (s *WriterSink) FirstOutput() {}

func (s *WriterSink) Chunk(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Strip {
		fmt.Fprint(s.W, text)
		return
	}

	s.partial += text
	i := strings.LastIndexByte(s.partial, '\n')
	if i < 0 {
		return
	}
	fmt.Fprint(s.W, sanitize.Clean(s.partial[:i+1]))
	s.partial = s.partial[i+1:]
}

func (s *WriterSink) Finished(job *provider.Job, err error) {
	s.mu.Lock()
	if s.partial != "" {
		fmt.Fprint(s.W, sanitize.Clean(s.partial))
		s.partial = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.printf("\nStopped following job #%d: %v\n", job.ID, err)
		return
	}
	s.printf("\nJob #%d finished: %s\n", job.ID, job.Status)
}

func (s *WriterSink) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.W, format, args...)
}
