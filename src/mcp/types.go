// Package mcp exposes CI job lookups to LLM clients over the Model Context Protocol.
package mcp

import (
	"time"

	"mfe-publish/src/provider"
	"mfe-publish/src/store"
)

// JobInfo is the JSON shape of a job in tool responses.
type JobInfo struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Stage      string     `json:"stage"`
	Ref        string     `json:"ref"`
	Status     string     `json:"status"`
	Finished   bool       `json:"finished"`
	WebURL     string     `json:"web_url,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func toJobInfo(j *provider.Job) JobInfo {
	return JobInfo{
		ID:         j.ID,
		Name:       j.Name,
		Stage:      j.Stage,
		Ref:        j.Ref,
		Status:     string(j.Status),
		Finished:   j.Finished(),
		WebURL:     j.WebURL,
		CreatedAt:  j.CreatedAt,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
}

// FindJobResult is returned by find_job.
type FindJobResult struct {
	Found bool     `json:"found"`
	Job   *JobInfo `json:"job,omitempty"`
}

// TraceResult is returned by job_trace.
type TraceResult struct {
	JobID     int64  `json:"job_id"`
	Lines     int    `json:"lines"`
	Truncated bool   `json:"truncated"`
	Trace     string `json:"trace"`
}

// RunInfo is the JSON shape of a publish run.
type RunInfo struct {
	ID        string    `json:"id"`
	Entry     string    `json:"entry"`
	Tag       string    `json:"tag"`
	Status    string    `json:"status"`
	JobStatus string    `json:"job_status,omitempty"`
	JobURL    string    `json:"job_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toRunInfo(r store.Run) RunInfo {
	return RunInfo{
		ID:        r.ID,
		Entry:     r.Entry,
		Tag:       r.Tag,
		Status:    string(r.Status),
		JobStatus: r.JobStatus,
		JobURL:    r.JobURL,
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
	}
}
