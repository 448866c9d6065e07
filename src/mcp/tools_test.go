package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"mfe-publish/src/provider"
	"mfe-publish/src/store"
)

type fakeCI struct {
	jobs    []provider.Job
	trace   string
	err     error
	project string
}

func (f *fakeCI) ListJobs(ctx context.Context, projectID string) ([]provider.Job, error) {
	f.project = projectID
	return f.jobs, f.err
}

func (f *fakeCI) GetJob(ctx context.Context, projectID string, jobID int64) (*provider.Job, error) {
	f.project = projectID
	if f.err != nil {
		return nil, f.err
	}
	for _, j := range f.jobs {
		if j.ID == jobID {
			job := j
			return &job, nil
		}
	}
	return nil, provider.ErrJobNotFound
}

func (f *fakeCI) GetTrace(ctx context.Context, projectID string, jobID int64) (string, error) {
	return f.trace, f.err
}

func (f *fakeCI) PlayJob(ctx context.Context, projectID string, jobID int64) (*provider.Job, error) {
	return nil, f.err
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

func newTestServer(ci *fakeCI, runs store.Store) *Server {
	return NewServer(ci, Config{Stage: "test", JobName: "simulate", Runs: runs})
}

func TestHandleFindJob(t *testing.T) {
	ci := &fakeCI{jobs: []provider.Job{
		{ID: 1, Name: "build", Stage: "build", Ref: "tag__snhy__1.0.0-1", Status: provider.StatusSuccess},
		{ID: 2, Name: "simulate", Stage: "test", Ref: "tag__snhy__1.0.0-1", Status: provider.StatusManual},
		{ID: 3, Name: "dev", Stage: "dev", Ref: "tag__snhy__1.0.0-1", Status: provider.StatusManual},
	}}
	s := newTestServer(ci, nil)

	tests := []struct {
		name    string
		args    map[string]any
		wantID  int64
		wantHit bool
	}{
		{name: "defaults", args: map[string]any{"project": "fe/snhy", "ref": "tag__snhy__1.0.0-1"}, wantID: 2, wantHit: true},
		{name: "explicit stage and name", args: map[string]any{"project": "fe/snhy", "ref": "tag__snhy__1.0.0-1", "stage": "dev", "name": "dev"}, wantID: 3, wantHit: true},
		{name: "unknown ref", args: map[string]any{"project": "fe/snhy", "ref": "master"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleFindJob(context.Background(), callTool(tt.args))
			if err != nil {
				t.Fatalf("handleFindJob() error = %v", err)
			}
			if res.IsError {
				t.Fatalf("tool error: %s", resultText(t, res))
			}

			var got FindJobResult
			if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if got.Found != tt.wantHit {
				t.Fatalf("Found = %v, want %v", got.Found, tt.wantHit)
			}
			if tt.wantHit && got.Job.ID != tt.wantID {
				t.Errorf("Job.ID = %d, want %d", got.Job.ID, tt.wantID)
			}
		})
	}
}

func TestHandleFindJob_MissingArgs(t *testing.T) {
	s := newTestServer(&fakeCI{}, nil)

	res, _ := s.handleFindJob(context.Background(), callTool(map[string]any{"project": "fe/snhy"}))
	if !res.IsError || !strings.Contains(resultText(t, res), "ref") {
		t.Errorf("expected ref error, got %+v", res)
	}
}

func TestHandleJobStatus(t *testing.T) {
	ci := &fakeCI{jobs: []provider.Job{{ID: 42, Name: "simulate", Status: provider.StatusRunning}}}
	s := newTestServer(ci, nil)

	res, _ := s.handleJobStatus(context.Background(), callTool(map[string]any{"project": "fe/snhy", "job_id": float64(42)}))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var got JobInfo
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Status != "running" || got.Finished {
		t.Errorf("JobInfo = %+v", got)
	}
	if ci.project != "fe/snhy" {
		t.Errorf("project = %q", ci.project)
	}
}

func TestHandleJobStatus_NotFoundHasHint(t *testing.T) {
	s := newTestServer(&fakeCI{}, nil)

	res, _ := s.handleJobStatus(context.Background(), callTool(map[string]any{"project": "fe/snhy", "job_id": float64(7)}))
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	if text := resultText(t, res); !strings.Contains(text, "Job not found") || !strings.Contains(text, "Hint") {
		t.Errorf("error text = %q", text)
	}
}

func TestHandleJobStatus_InvalidJobID(t *testing.T) {
	s := newTestServer(&fakeCI{}, nil)

	res, _ := s.handleJobStatus(context.Background(), callTool(map[string]any{"project": "fe/snhy"}))
	if !res.IsError || !strings.Contains(resultText(t, res), "job_id") {
		t.Errorf("expected job_id error, got %+v", res)
	}
}

func TestHandleJobTrace(t *testing.T) {
	ci := &fakeCI{trace: "section_start:1:step\r\x1b[0K\x1b[32m$ npm ci\x1b[0m\r\nline 2\nline 3\nline 3\n"}
	s := newTestServer(ci, nil)

	t.Run("tail and compact", func(t *testing.T) {
		res, _ := s.handleJobTrace(context.Background(), callTool(map[string]any{
			"project": "fe/snhy", "job_id": float64(1), "tail_lines": float64(2),
		}))
		if res.IsError {
			t.Fatalf("tool error: %s", resultText(t, res))
		}

		var got TraceResult
		if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		want := "line 3\n  [previous line repeated 1 more times]\n"
		if got.Trace != want {
			t.Errorf("Trace = %q, want %q", got.Trace, want)
		}
		if !got.Truncated || got.Lines != 2 {
			t.Errorf("Truncated = %v Lines = %d", got.Truncated, got.Lines)
		}
	})

	t.Run("full raw", func(t *testing.T) {
		res, _ := s.handleJobTrace(context.Background(), callTool(map[string]any{
			"project": "fe/snhy", "job_id": float64(1), "tail_lines": float64(0), "compact": false,
		}))

		var got TraceResult
		if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		want := "$ npm ci\nline 2\nline 3\nline 3\n"
		if got.Trace != want {
			t.Errorf("Trace = %q, want %q", got.Trace, want)
		}
		if got.Truncated {
			t.Error("Truncated = true for full trace")
		}
	})

	t.Run("negative tail", func(t *testing.T) {
		res, _ := s.handleJobTrace(context.Background(), callTool(map[string]any{
			"project": "fe/snhy", "job_id": float64(1), "tail_lines": float64(-1),
		}))
		if !res.IsError {
			t.Error("expected tool error for negative tail_lines")
		}
	})
}

func TestHandleRecentRuns(t *testing.T) {
	runs := store.NewMemoryStore()
	ctx := context.Background()
	for _, entry := range []string{"snhy", "home"} {
		if err := runs.CreateRun(ctx, store.NewRun(entry, "1.0.0-1", "tag__"+entry, "abc", "fe/"+entry)); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
	}
	s := newTestServer(&fakeCI{}, runs)

	res, _ := s.handleRecentRuns(ctx, callTool(map[string]any{"limit": float64(1)}))
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}

	var got []RunInfo
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 1 || got[0].Status != "tagged" {
		t.Errorf("runs = %+v", got)
	}
}
