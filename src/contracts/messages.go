// Package contracts defines the events mfe-publish fans out while following CI jobs.
package contracts

// Topic names. Both topics are keyed by the CI job id so a job's events stay ordered
// within one partition.
const (
	// TopicJobLogs carries LogChunkEvent, one per new piece of trace output.
	TopicJobLogs = "ci_job_logs"

	// TopicJobResults carries one JobFinishedEvent per followed job.
	TopicJobResults = "ci_job_results"
)

// LogChunkEvent is a piece of trace output that appeared since the previous poll.
// Published to: ci_job_logs
// Key: {job_id}
type LogChunkEvent struct {
	// Publish run this job belongs to; empty for plain watches.
	RunID     string `json:"run_id,omitempty"`
	ProjectID string `json:"project_id"`
	JobID     int64  `json:"job_id"`
	JobName   string `json:"job_name"`
	// Position of the chunk within the job, starting at 0.
	Sequence int `json:"sequence"`
	// Raw trace text, escape codes included.
	Content string `json:"content"`
	// True when the trace was reset and Content is the whole new trace.
	Resync    bool   `json:"resync,omitempty"`
	Timestamp string `json:"timestamp"`
}

// JobFinishedEvent reports how a followed job ended.
// Published to: ci_job_results
// Key: {job_id}
type JobFinishedEvent struct {
	RunID     string `json:"run_id,omitempty"`
	ProjectID string `json:"project_id"`
	JobID     int64  `json:"job_id"`
	JobName   string `json:"job_name"`
	// Final CI status, or the last seen status when following stopped early.
	Status string `json:"status"`
	WebURL string `json:"web_url"`
	Chunks int    `json:"chunks"`
	Resets int    `json:"resets"`
	// Error is set when following failed (network, cancel, trace reset).
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}
