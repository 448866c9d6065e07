package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mfe-publish/src/broker"
	"mfe-publish/src/contracts"
	"mfe-publish/src/pipeline"
	"mfe-publish/src/provider"
	"mfe-publish/src/publish"
)

// tailCmd reads job output that other mfepub runs published
var tailCmd = &cobra.Command{
	Use:   "tail [job-id]",
	Short: "Print job logs published by mfepub runs",
	Long: `Read job log events from Redpanda. With a job id, print that job's log and exit
when its result arrives. Without one, print the output of every job as it is published.

Requires MFEPUB_REDPANDA_BROKERS.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pipeline.DetectMode(appConfig) != pipeline.DistributedMode {
			return errors.New("tail requires MFEPUB_REDPANDA_BROKERS")
		}

		var jobID int64
		if len(args) == 1 {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			jobID = id
		}

		backends, err := pipelineSetup(cmd.Context())
		if err != nil {
			return err
		}
		defer backends.Close()

		out := newTailPrinter(os.Stdout, !isatty.IsTerminal(os.Stdout.Fd()))
		group := "mfepub-tail-" + uuid.NewString()
		finished, err := broker.Tail(cmd.Context(), backends.Broker, group, jobID, out.chunk)
		if jobID == 0 && errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		return out.finish(finished)
	},
}

// tailPrinter writes each job's chunks through its own WriterSink so partial lines of
// interleaved jobs are kept apart, and prints a header whenever the job changes.
type tailPrinter struct {
	w       io.Writer
	strip   bool
	sinks   map[int64]*publish.WriterSink
	current int64
}

func newTailPrinter(w io.Writer, strip bool) *tailPrinter {
	return &tailPrinter{w: w, strip: strip, sinks: make(map[int64]*publish.WriterSink)}
}

func (p *tailPrinter) chunk(ev contracts.LogChunkEvent) {
	sink, ok := p.sinks[ev.JobID]
	if !ok {
		sink = &publish.WriterSink{W: p.w, Strip: p.strip}
		p.sinks[ev.JobID] = sink
	}
	if ev.JobID != p.current {
		if p.current != 0 {
			fmt.Fprintln(p.w)
		}
		fmt.Fprintf(p.w, "==> job #%d %s (%s)\n", ev.JobID, ev.JobName, ev.ProjectID)
		p.current = ev.JobID
	}
	if ev.Resync {
		fmt.Fprintln(p.w, "--- log was rewritten, printing it again ---")
	}
	sink.Chunk(ev.Content)
}

func (p *tailPrinter) finish(ev *contracts.JobFinishedEvent) error {
	job := &provider.Job{ID: ev.JobID, Name: ev.JobName, Status: provider.Status(ev.Status), WebURL: ev.WebURL}
	sink, ok := p.sinks[ev.JobID]
	if !ok {
		sink = &publish.WriterSink{W: p.w, Strip: p.strip}
	}

	var followErr error
	if ev.Error != "" {
		followErr = errors.New(ev.Error)
	}
	sink.Finished(job, followErr)

	if followErr != nil {
		return followErr
	}
	if job.Status != provider.StatusSuccess {
		return fmt.Errorf("%w: job #%d ended %s", publish.ErrJobFailed, job.ID, job.Status)
	}
	return nil
}
