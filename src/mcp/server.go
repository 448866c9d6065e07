package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mfe-publish/src/logger"
	"mfe-publish/src/provider"
	"mfe-publish/src/store"
)

// defaultTailLines bounds job_trace output when the caller gives no limit.
const defaultTailLines = 200

// Server is the MCP server for mfe-publish.
type Server struct {
	mcpServer *server.MCPServer
	ci        provider.Client
	runs      store.Store
	stage     string
	jobName   string
	log       logger.Logger
}

// Config configures a Server.
type Config struct {
	// Stage and JobName are the find_job defaults.
	Stage   string
	JobName string
	// Runs enables the recent_runs tool when non-nil.
	Runs    store.Store
	Logger  logger.Logger
	Version string
}

// NewServer creates a new MCP server backed by ci.
func NewServer(ci provider.Client, cfg Config) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewSilentLogger()
	}

	s := server.NewMCPServer(
		"mfe-publish",
		cfg.Version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		ci:        ci,
		runs:      cfg.Runs,
		stage:     cfg.Stage,
		jobName:   cfg.JobName,
		log:       cfg.Logger,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	findTool := mcp.NewTool("find_job",
		mcp.WithDescription("Find the CI job a ref (usually a test-release tag) produced. Returns found=false when no job matches yet; pipelines can take a few seconds to appear after a push."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("GitLab project path (group/project) or numeric id"),
		),
		mcp.WithString("ref",
			mcp.Required(),
			mcp.Description("Branch or tag the pipeline ran for, e.g. tag__snhy__1.4.0-1700000000000"),
		),
		mcp.WithString("stage",
			mcp.Description("CI stage (default: "+s.stage+")"),
		),
		mcp.WithString("name",
			mcp.Description("CI job name (default: "+s.jobName+")"),
		),
	)

	statusTool := mcp.NewTool("job_status",
		mcp.WithDescription("Get the current status of a CI job."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("GitLab project path (group/project) or numeric id"),
		),
		mcp.WithNumber("job_id",
			mcp.Required(),
			mcp.Description("CI job id"),
		),
	)

	traceTool := mcp.NewTool("job_trace",
		mcp.WithDescription("Get the log of a CI job with escape codes removed. Returns the last tail_lines lines; repeated lines and timestamps are compacted unless compact is false."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("GitLab project path (group/project) or numeric id"),
		),
		mcp.WithNumber("job_id",
			mcp.Required(),
			mcp.Description("CI job id"),
		),
		mcp.WithNumber("tail_lines",
			mcp.Description("Number of lines from the end to return (default: 200, 0 for all)"),
		),
		mcp.WithBoolean("compact",
			mcp.Description("Compact repeated lines and timestamps (default: true)"),
		),
	)

	s.mcpServer.AddTool(findTool, s.handleFindJob)
	s.mcpServer.AddTool(statusTool, s.handleJobStatus)
	s.mcpServer.AddTool(traceTool, s.handleJobTrace)

	if s.runs != nil {
		runsTool := mcp.NewTool("recent_runs",
			mcp.WithDescription("List recent test releases published with mfepub, newest first."),
			mcp.WithNumber("limit",
				mcp.Description("Max runs to return (default: 10)"),
			),
		)
		s.mcpServer.AddTool(runsTool, s.handleRecentRuns)
	}
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}
