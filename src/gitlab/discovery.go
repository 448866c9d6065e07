package gitlab

import (
	"context"
	"time"

	"mfe-publish/src/provider"
	"mfe-publish/src/retry"
)

var (
	// DefaultFindPolicy covers the delay between pushing a tag and GitLab creating its pipeline.
	DefaultFindPolicy = retry.Policy{MaxAttempts: 10, Delay: 500 * time.Millisecond}
	// DefaultReadyPolicy covers a job sitting in "created" before it can be played.
	DefaultReadyPolicy = retry.Policy{MaxAttempts: 10, Delay: 1500 * time.Millisecond}
)

// Matcher selects the job a tag pipeline is expected to produce.
// All fields are compared with exact string equality.
type Matcher struct {
	Ref   string
	Stage string
	Name  string
}

// Match reports whether job satisfies all three predicates.
func (m Matcher) Match(job provider.Job) bool {
	return job.Ref == m.Ref && job.Stage == m.Stage && job.Name == m.Name
}

// FindJob lists the project's jobs once and returns the first one matching m.
// A nil job with a nil error means nothing matched.
func FindJob(ctx context.Context, lister provider.JobLister, projectID string, m Matcher) (*provider.Job, error) {
	jobs, err := lister.ListJobs(ctx, projectID)
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		if m.Match(jobs[i]) {
			job := jobs[i]
			return &job, nil
		}
	}

	return nil, nil
}

// FindJobEventually retries FindJob until a job matches or the policy runs out.
// Running out is not an error; the returned job is nil in that case.
func FindJobEventually(ctx context.Context, lister provider.JobLister, projectID string, m Matcher, policy retry.Policy, opts ...retry.Option[*provider.Job]) (*provider.Job, error) {
	return retry.Do(ctx,
		func(ctx context.Context) (*provider.Job, error) {
			return FindJob(ctx, lister, projectID, m)
		},
		func(job *provider.Job) bool { return job != nil },
		policy,
		opts...,
	)
}

// WaitForJobReady polls a job until it has left the "created" state or the policy runs
// out, and returns the last observed job either way.
func WaitForJobReady(ctx context.Context, getter provider.JobGetter, projectID string, jobID int64, policy retry.Policy, opts ...retry.Option[*provider.Job]) (*provider.Job, error) {
	return retry.Do(ctx,
		func(ctx context.Context) (*provider.Job, error) {
			return getter.GetJob(ctx, projectID, jobID)
		},
		func(job *provider.Job) bool { return job.Status != provider.StatusCreated },
		policy,
		opts...,
	)
}
