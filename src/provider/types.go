package provider

import "time"

// Status is the lifecycle state of a CI job as reported by the CI system.
type Status string

const (
	StatusCreated            Status = "created"
	StatusWaitingForResource Status = "waiting_for_resource"
	StatusPreparing          Status = "preparing"
	StatusPending            Status = "pending"
	StatusRunning            Status = "running"
	StatusSuccess            Status = "success"
	StatusFailed             Status = "failed"
	StatusCanceled           Status = "canceled"
	StatusSkipped            Status = "skipped"
	StatusManual             Status = "manual"
	StatusScheduled          Status = "scheduled"
)

// Active reports whether the job is still producing output.
// Only pending and running count; everything else ends a watch.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusRunning
}

// JobRef identifies a job in a CI project
type JobRef struct {
	Host      string // e.g. "https://gitlab.com"
	ProjectID string // "group/project" or numeric id
	JobID     int64
}

// Job represents a single CI job
type Job struct {
	ID         int64
	Name       string
	Stage      string
	Ref        string
	Status     Status
	WebURL     string
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
}

// Finished reports whether the job reached a state that will not change on its own.
func (j *Job) Finished() bool {
	switch j.Status {
	case StatusSuccess, StatusFailed, StatusCanceled, StatusSkipped:
		return true
	}
	return false
}
