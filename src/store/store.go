// Package store persists the history of test-release runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// RunStatus is the lifecycle state of a publish run.
type RunStatus string

const (
	// RunTagged: commit and tag pushed, CI not yet involved.
	RunTagged RunStatus = "tagged"
	// RunManual: no token configured, the user finishes in the browser.
	RunManual   RunStatus = "manual"
	RunRunning  RunStatus = "running"
	RunSuccess  RunStatus = "success"
	RunFailed   RunStatus = "failed"
	RunCanceled RunStatus = "canceled"
	// RunError: following the CI job failed (network, no job found, trace reset).
	RunError RunStatus = "error"
)

// Run is one test release.
type Run struct {
	ID        string
	Entry     string
	Version   string
	Tag       string
	Commit    string
	ProjectID string
	JobID     int64
	JobName   string
	JobURL    string
	Status    RunStatus
	// JobStatus is the last CI status seen for the job.
	JobStatus string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRun creates a run in RunTagged state with a fresh id.
func NewRun(entry, version, tag, commit, projectID string) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:        uuid.NewString(),
		Entry:     entry,
		Version:   version,
		Tag:       tag,
		Commit:    commit,
		ProjectID: projectID,
		Status:    RunTagged,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store defines the interface for persisting runs.
type Store interface {
	// CreateRun inserts a new run.
	CreateRun(ctx context.Context, run *Run) error

	// UpdateRun overwrites the mutable fields of an existing run and bumps UpdatedAt.
	UpdateRun(ctx context.Context, run *Run) error

	// GetRun returns a run by id, or ErrNotFound.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Close closes the store connection
	Close() error
}
