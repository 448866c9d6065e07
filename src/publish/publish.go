// Package publish runs a test release end to end: push a commit and a tag, find the
// CI job the tag triggered, play it and stream its log until it finishes.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mfe-publish/src/broker"
	"mfe-publish/src/config"
	"mfe-publish/src/contracts"
	"mfe-publish/src/gitlab"
	"mfe-publish/src/logger"
	"mfe-publish/src/provider"
	"mfe-publish/src/release"
	"mfe-publish/src/retry"
	"mfe-publish/src/store"
	"mfe-publish/src/watch"
)

// ErrJobFailed is returned when a followed job ends in any state but success.
var ErrJobFailed = errors.New("CI job did not succeed")

// Repo is the git side of a release. *release.Git implements it.
type Repo interface {
	CurrentBranch(ctx context.Context) (string, error)
	RemoteURL(ctx context.Context) (string, error)
	HeadCommit(ctx context.Context) (string, error)
	PushCommit(ctx context.Context, branch, message string) (string, error)
	PushTag(ctx context.Context, tag, message, repoURL string) error
}

// Options describe one release.
type Options struct {
	Entry   string
	Version string
	// Message is the tag annotation; empty uses the default.
	Message string
}

// Publisher runs releases and follows CI jobs.
type Publisher struct {
	cfg     *config.Config
	repo    Repo
	ci      provider.Client
	watcher *watch.Watcher
	store   store.Store
	events  *broker.EventPublisher
	sink    Sink
	log     logger.Logger
	now     func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithStore records runs in s. The default is an in-memory store.
func WithStore(s store.Store) Option {
	return func(p *Publisher) { p.store = s }
}

// WithEvents publishes log chunks and job results through e.
func WithEvents(e *broker.EventPublisher) Option {
	return func(p *Publisher) { p.events = e }
}

// WithSink sets where progress and job output are shown.
func WithSink(s Sink) Option {
	return func(p *Publisher) { p.sink = s }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) { p.log = l }
}

// WithClock overrides time.Now for tag naming.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

// New creates a Publisher. repo may be nil when only FollowJob is used.
func New(cfg *config.Config, repo Repo, ci provider.Client, opts ...Option) *Publisher {
	p := &Publisher{
		cfg:   cfg,
		repo:  repo,
		ci:    ci,
		store: store.NewMemoryStore(),
		sink:  DiscardSink{},
		log:   logger.NewSilentLogger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.watcher = watch.New(ci,
		watch.WithInterval(cfg.PollInterval),
		watch.WithResetPolicy(cfg.Reset()),
		watch.WithLogger(p.log),
	)
	return p
}

// Run pushes a tagged test release and, when a token is configured, plays and follows
// the CI job that publishes it. The returned run is non-nil once the tag was pushed.
func (p *Publisher) Run(ctx context.Context, opts Options) (*store.Run, error) {
	branch, err := p.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current branch: %w", err)
	}
	remote, err := p.repo.RemoteURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read origin remote: %w", err)
	}
	if err := release.CheckRepo(remote, branch, p.cfg.Debug); err != nil {
		return nil, err
	}

	repoPath, err := release.RepoPath(remote)
	if err != nil {
		return nil, err
	}
	repoURL := release.RepoURL(p.cfg.GitLabHost, repoPath)
	names := release.NewNames(opts.Entry, opts.Version, opts.Message, p.now())

	p.sink.Notice(fmt.Sprintf("Pushing %s to %s", names.Commit, branch))
	if _, err := p.repo.PushCommit(ctx, branch, names.Commit); err != nil {
		return nil, err
	}
	commit, err := p.repo.HeadCommit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pushed commit: %w", err)
	}

	p.sink.Notice(fmt.Sprintf("Pushing tag %s", names.Tag))
	if err := p.repo.PushTag(ctx, names.Tag, names.Message, repoURL); err != nil {
		return nil, err
	}

	run := store.NewRun(opts.Entry, names.Version, names.Tag, commit, repoPath)
	if err := p.store.CreateRun(ctx, run); err != nil {
		p.log.Warn("failed to record run %s: %v", run.ID, err)
	}

	if !p.cfg.HasToken() {
		p.sink.Notice(release.ManualTip(release.TipToken, repoURL, commit, p.cfg.TokenURL()))
		run.Status = store.RunManual
		p.saveRun(ctx, run)
		return run, nil
	}

	job, err := p.startJob(ctx, repoPath, names.Tag)
	if err != nil {
		return run, p.failRun(ctx, run, repoURL, err)
	}

	run.JobID = job.ID
	run.JobName = job.Name
	run.JobURL = provider.JobURL(repoURL, job.ID)
	run.JobStatus = string(job.Status)
	run.Status = store.RunRunning
	p.saveRun(ctx, run)

	final, err := p.follow(ctx, run.ID, repoPath, job)
	run.JobStatus = string(final.Status)
	if err != nil {
		return run, p.failRun(ctx, run, repoURL, err)
	}

	run.Status = runStatus(final.Status)
	p.saveRun(ctx, run)
	p.sink.Notice(fmt.Sprintf("Job #%d %s: %s", final.ID, final.Status, run.JobURL))

	if final.Status != provider.StatusSuccess {
		return run, fmt.Errorf("%w: job #%d ended %s", ErrJobFailed, final.ID, final.Status)
	}
	return run, nil
}

// startJob finds the job the tag triggered, waits for it to become playable and plays it.
func (p *Publisher) startJob(ctx context.Context, projectID, tag string) (*provider.Job, error) {
	m := gitlab.Matcher{Ref: tag, Stage: p.cfg.CIStage(), Name: p.cfg.CIJobName()}
	p.sink.Notice(fmt.Sprintf("Looking for %s/%s job on %s", m.Stage, m.Name, tag))

	job, err := gitlab.FindJobEventually(ctx, p.ci, projectID, m, p.cfg.FindPolicy(),
		retry.OnAttempt(func(a retry.Attempt[*provider.Job]) {
			p.log.Debug("find job attempt %d: found=%t", a.Number, a.Accepted)
		}),
	)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, provider.WrapError(fmt.Errorf("%w: %s/%s on %s after %s",
			provider.ErrNoMatchingJob, m.Stage, m.Name, tag, p.cfg.FindPolicy()))
	}

	return p.playWhenReady(ctx, projectID, job.ID)
}

// playWhenReady waits until the job leaves "created" and plays it when it is manual.
// Jobs that already run are returned as they are.
func (p *Publisher) playWhenReady(ctx context.Context, projectID string, jobID int64) (*provider.Job, error) {
	ready, err := gitlab.WaitForJobReady(ctx, p.ci, projectID, jobID, p.cfg.ReadyPolicy(),
		retry.OnAttempt(func(a retry.Attempt[*provider.Job]) {
			p.log.Debug("job #%d ready attempt %d: status=%s", jobID, a.Number, a.Result.Status)
		}),
	)
	if err != nil {
		return nil, err
	}

	if ready.Status != provider.StatusManual {
		p.log.Debug("job #%d is %s, following without play", ready.ID, ready.Status)
		return ready, nil
	}

	played, err := p.ci.PlayJob(ctx, projectID, ready.ID)
	if err != nil {
		return nil, err
	}
	return played, nil
}

// PlayJob plays a manual job and follows it like FollowJob.
func (p *Publisher) PlayJob(ctx context.Context, projectID string, jobID int64) (*provider.Job, error) {
	job, err := p.playWhenReady(ctx, projectID, jobID)
	if err != nil {
		return nil, err
	}
	return p.followToEnd(ctx, projectID, job)
}

// FollowJob streams an existing job until it leaves the active states and returns the
// final job. It does not play the job.
func (p *Publisher) FollowJob(ctx context.Context, projectID string, jobID int64) (*provider.Job, error) {
	job, err := p.ci.GetJob(ctx, projectID, jobID)
	if err != nil {
		return nil, err
	}

	return p.followToEnd(ctx, projectID, job)
}

func (p *Publisher) followToEnd(ctx context.Context, projectID string, job *provider.Job) (*provider.Job, error) {
	final, err := p.follow(ctx, "", projectID, job)
	if err != nil {
		return final, err
	}
	if final.Status != provider.StatusSuccess {
		return final, fmt.Errorf("%w: job #%d ended %s", ErrJobFailed, final.ID, final.Status)
	}
	return final, nil
}

func (p *Publisher) follow(ctx context.Context, runID, projectID string, job *provider.Job) (*provider.Job, error) {
	p.sink.Waiting(job)

	stream := p.watcher.Watch(ctx, projectID, job, p.sink.FirstOutput)
	seq, resets := 0, 0
	for stream.Next() {
		chunk := stream.Chunk()
		p.sink.Chunk(chunk)

		if p.events != nil {
			ev := contracts.LogChunkEvent{
				RunID:     runID,
				ProjectID: projectID,
				JobID:     job.ID,
				JobName:   job.Name,
				Sequence:  seq,
				Content:   chunk,
				Resync:    stream.Resets() > resets,
			}
			if err := p.events.PublishLogChunk(ctx, ev); err != nil {
				p.log.Warn("failed to publish log chunk for job #%d: %v", job.ID, err)
			}
		}
		seq++
		resets = stream.Resets()
	}

	final := stream.Job()
	err := stream.Err()
	p.sink.Finished(final, err)

	if p.events != nil {
		ev := contracts.JobFinishedEvent{
			RunID:     runID,
			ProjectID: projectID,
			JobID:     final.ID,
			JobName:   final.Name,
			Status:    string(final.Status),
			WebURL:    final.WebURL,
			Chunks:    seq,
			Resets:    stream.Resets(),
		}
		if err != nil {
			ev.Error = err.Error()
		}
		// The follow context may already be canceled; the result still goes out.
		if perr := p.events.PublishJobFinished(context.WithoutCancel(ctx), ev); perr != nil {
			p.log.Warn("failed to publish result for job #%d: %v", final.ID, perr)
		}
	}

	return final, err
}

// failRun marks run as errored, shows the manual fallback and returns err as a user error.
func (p *Publisher) failRun(ctx context.Context, run *store.Run, repoURL string, err error) error {
	run.Status = store.RunError
	run.Error = err.Error()
	p.saveRun(context.WithoutCancel(ctx), run)
	p.sink.Notice(release.ManualTip(release.TipCI, repoURL, run.Commit, ""))
	return provider.WrapError(err)
}

func (p *Publisher) saveRun(ctx context.Context, run *store.Run) {
	if err := p.store.UpdateRun(ctx, run); err != nil {
		p.log.Warn("failed to update run %s: %v", run.ID, err)
	}
}

func runStatus(s provider.Status) store.RunStatus {
	switch s {
	case provider.StatusSuccess:
		return store.RunSuccess
	case provider.StatusFailed:
		return store.RunFailed
	case provider.StatusCanceled:
		return store.RunCanceled
	}
	return store.RunError
}
