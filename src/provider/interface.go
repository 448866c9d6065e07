package provider

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	ErrInvalidURL = errors.New("invalid job URL")
)

// JobGetter fetches a single job's current state.
type JobGetter interface {
	GetJob(ctx context.Context, projectID string, jobID int64) (*Job, error)
}

// JobLister lists the jobs of a project, most recent first.
type JobLister interface {
	ListJobs(ctx context.Context, projectID string) ([]Job, error)
}

// TraceReader fetches the full cumulative log of a job.
type TraceReader interface {
	GetTrace(ctx context.Context, projectID string, jobID int64) (string, error)
}

// JobPlayer triggers a manual job and returns the job it started.
type JobPlayer interface {
	PlayJob(ctx context.Context, projectID string, jobID int64) (*Job, error)
}

// Client is everything the publish flow needs from a CI system.
type Client interface {
	JobGetter
	JobLister
	TraceReader
	JobPlayer
}

var jobURLPattern = regexp.MustCompile(`^(https?://[^/]+)/(.+?)/-/jobs/(\d+)/?$`)

// ParseJobURL extracts host, project path and job id from a job page URL.
// Expected format: https://{host}/{group}/{project}/-/jobs/{id}
func ParseJobURL(url string) (*JobRef, error) {
	matches := jobURLPattern.FindStringSubmatch(url)
	if matches == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}

	id, err := strconv.ParseInt(matches[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}

	return &JobRef{
		Host:      matches[1],
		ProjectID: matches[2],
		JobID:     id,
	}, nil
}

// JobURL renders the web page URL of a job under a repository URL.
func JobURL(repoURL string, jobID int64) string {
	return fmt.Sprintf("%s/-/jobs/%d", repoURL, jobID)
}
