package gitlab

import (
	"context"
	"errors"
	"testing"

	"mfe-publish/src/provider"
	"mfe-publish/src/retry"
)

type fakeLister struct {
	responses [][]provider.Job
	err       error
	calls     int
}

func (f *fakeLister) ListJobs(ctx context.Context, projectID string) ([]provider.Job, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	i := f.calls - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

type fakeGetter struct {
	statuses []provider.Status
	calls    int
}

func (f *fakeGetter) GetJob(ctx context.Context, projectID string, jobID int64) (*provider.Job, error) {
	i := f.calls
	f.calls++
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return &provider.Job{ID: jobID, Status: f.statuses[i]}, nil
}

var matcher = Matcher{Ref: "tag__home__1.0.0-1", Stage: "test", Name: "simulate"}

func TestFindJob(t *testing.T) {
	tests := []struct {
		name   string
		jobs   []provider.Job
		wantID int64
	}{
		{
			name: "exact match",
			jobs: []provider.Job{
				{ID: 1, Ref: "tag__home__1.0.0-1", Stage: "build", Name: "simulate"},
				{ID: 2, Ref: "tag__home__1.0.0-1", Stage: "test", Name: "simulate"},
			},
			wantID: 2,
		},
		{
			name: "first of several matches",
			jobs: []provider.Job{
				{ID: 9, Ref: "tag__home__1.0.0-1", Stage: "test", Name: "simulate"},
				{ID: 5, Ref: "tag__home__1.0.0-1", Stage: "test", Name: "simulate"},
			},
			wantID: 9,
		},
		{
			name: "ref mismatch",
			jobs: []provider.Job{
				{ID: 1, Ref: "master", Stage: "test", Name: "simulate"},
			},
		},
		{
			name: "name mismatch",
			jobs: []provider.Job{
				{ID: 1, Ref: "tag__home__1.0.0-1", Stage: "test", Name: "Simulate"},
			},
		},
		{
			name: "empty list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeLister{responses: [][]provider.Job{tt.jobs}}

			job, err := FindJob(context.Background(), lister, "group/project", matcher)
			if err != nil {
				t.Fatalf("FindJob() error = %v", err)
			}
			if tt.wantID == 0 {
				if job != nil {
					t.Errorf("FindJob() = %+v, want nil", job)
				}
				return
			}
			if job == nil || job.ID != tt.wantID {
				t.Errorf("FindJob() = %+v, want id %d", job, tt.wantID)
			}
			if lister.calls != 1 {
				t.Errorf("ListJobs called %d times, want 1", lister.calls)
			}
		})
	}
}

func TestFindJobEventually_AppearsLater(t *testing.T) {
	lister := &fakeLister{responses: [][]provider.Job{
		nil,
		{{ID: 1, Ref: "other", Stage: "test", Name: "simulate"}},
		{{ID: 4, Ref: "tag__home__1.0.0-1", Stage: "test", Name: "simulate"}},
	}}

	job, err := FindJobEventually(context.Background(), lister, "p", matcher, retry.Policy{MaxAttempts: 10})
	if err != nil {
		t.Fatalf("FindJobEventually() error = %v", err)
	}
	if job == nil || job.ID != 4 {
		t.Errorf("FindJobEventually() = %+v, want id 4", job)
	}
	if lister.calls != 3 {
		t.Errorf("ListJobs called %d times, want 3", lister.calls)
	}
}

func TestFindJobEventually_NotFoundIsNotAnError(t *testing.T) {
	lister := &fakeLister{responses: [][]provider.Job{nil}}

	job, err := FindJobEventually(context.Background(), lister, "p", matcher, retry.Policy{MaxAttempts: 3})
	if err != nil {
		t.Fatalf("FindJobEventually() error = %v", err)
	}
	if job != nil {
		t.Errorf("FindJobEventually() = %+v, want nil", job)
	}
	if lister.calls != 3 {
		t.Errorf("ListJobs called %d times, want 3", lister.calls)
	}
}

func TestFindJobEventually_ListErrorAborts(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	lister := &fakeLister{err: boom}

	_, err := FindJobEventually(context.Background(), lister, "p", matcher, retry.Policy{MaxAttempts: 5})
	if !errors.Is(err, boom) {
		t.Errorf("FindJobEventually() error = %v, want %v", err, boom)
	}
	if lister.calls != 1 {
		t.Errorf("ListJobs called %d times, want 1", lister.calls)
	}
}

func TestWaitForJobReady(t *testing.T) {
	getter := &fakeGetter{statuses: []provider.Status{
		provider.StatusCreated, provider.StatusCreated, provider.StatusManual,
	}}

	job, err := WaitForJobReady(context.Background(), getter, "p", 12, retry.Policy{MaxAttempts: 10})
	if err != nil {
		t.Fatalf("WaitForJobReady() error = %v", err)
	}
	if job.Status != provider.StatusManual {
		t.Errorf("Status = %s, want manual", job.Status)
	}
	if getter.calls != 3 {
		t.Errorf("GetJob called %d times, want 3", getter.calls)
	}
}

func TestWaitForJobReady_ExhaustedReturnsStaleJob(t *testing.T) {
	getter := &fakeGetter{statuses: []provider.Status{provider.StatusCreated}}

	job, err := WaitForJobReady(context.Background(), getter, "p", 12, retry.Policy{MaxAttempts: 2})
	if err != nil {
		t.Fatalf("WaitForJobReady() error = %v", err)
	}
	if job.Status != provider.StatusCreated {
		t.Errorf("Status = %s, want created", job.Status)
	}
	if getter.calls != 2 {
		t.Errorf("GetJob called %d times, want 2", getter.calls)
	}
}

func TestDefaultPolicies(t *testing.T) {
	if DefaultFindPolicy.MaxAttempts != 10 || DefaultFindPolicy.Delay.Milliseconds() != 500 {
		t.Errorf("DefaultFindPolicy = %v", DefaultFindPolicy)
	}
	if DefaultReadyPolicy.MaxAttempts != 10 || DefaultReadyPolicy.Delay.Milliseconds() != 1500 {
		t.Errorf("DefaultReadyPolicy = %v", DefaultReadyPolicy)
	}
}
