package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"mfe-publish/src/gitlab"
	"mfe-publish/src/provider"
	"mfe-publish/src/sanitize"
)

// handleFindJob handles the find_job tool call.
func (s *Server) handleFindJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := request.GetString("project", "")
	if project == "" {
		return mcp.NewToolResultError("project parameter is required"), nil
	}
	ref := request.GetString("ref", "")
	if ref == "" {
		return mcp.NewToolResultError("ref parameter is required"), nil
	}

	m := gitlab.Matcher{
		Ref:   ref,
		Stage: request.GetString("stage", s.stage),
		Name:  request.GetString("name", s.jobName),
	}

	job, err := gitlab.FindJob(ctx, s.ci, project, m)
	if err != nil {
		return toolError("find_job failed", err), nil
	}

	result := FindJobResult{Found: job != nil}
	if job != nil {
		info := toJobInfo(job)
		result.Job = &info
	}
	return jsonResult(result)
}

// handleJobStatus handles the job_status tool call.
func (s *Server) handleJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, jobID, errResult := jobArgs(request)
	if errResult != nil {
		return errResult, nil
	}

	job, err := s.ci.GetJob(ctx, project, jobID)
	if err != nil {
		return toolError("job_status failed", err), nil
	}

	return jsonResult(toJobInfo(job))
}

// handleJobTrace handles the job_trace tool call.
func (s *Server) handleJobTrace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, jobID, errResult := jobArgs(request)
	if errResult != nil {
		return errResult, nil
	}

	tail := request.GetInt("tail_lines", defaultTailLines)
	if tail < 0 {
		return mcp.NewToolResultError("tail_lines must not be negative"), nil
	}

	raw, err := s.ci.GetTrace(ctx, project, jobID)
	if err != nil {
		return toolError("job_trace failed", err), nil
	}

	trace := sanitize.Clean(raw)
	if request.GetBool("compact", true) && trace != "" {
		trace = compactTrace(trace)
	}
	tailed := sanitize.Tail(trace, tail)

	s.log.Debug("job_trace %s#%d: %d bytes raw, %d returned", project, jobID, len(raw), len(tailed))

	return jsonResult(TraceResult{
		JobID:     jobID,
		Lines:     strings.Count(tailed, "\n"),
		Truncated: len(tailed) < len(trace),
		Trace:     tailed,
	})
}

// handleRecentRuns handles the recent_runs tool call.
func (s *Server) handleRecentRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", 10)

	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return toolError("recent_runs failed", err), nil
	}

	infos := make([]RunInfo, 0, len(runs))
	for _, r := range runs {
		infos = append(infos, toRunInfo(r))
	}
	return jsonResult(infos)
}

func jobArgs(request mcp.CallToolRequest) (string, int64, *mcp.CallToolResult) {
	project := request.GetString("project", "")
	if project == "" {
		return "", 0, mcp.NewToolResultError("project parameter is required")
	}
	jobID := request.GetInt("job_id", 0)
	if jobID <= 0 {
		return "", 0, mcp.NewToolResultError("job_id parameter is required")
	}
	return project, int64(jobID), nil
}

// toolError reports err to the client, with the hint when it is a user error.
func toolError(prefix string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s: %v", prefix, provider.WrapError(err))
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
