// Package main provides the MCP server entry point for mfe-publish.
// The server speaks the Model Context Protocol over stdin/stdout so LLM clients can
// look up the CI jobs a test release produced and read their logs.
package main

import (
	"context"
	"fmt"
	"os"

	"mfe-publish/src/config"
	"mfe-publish/src/gitlab"
	"mfe-publish/src/logger"
	"mfe-publish/src/mcp"
	"mfe-publish/src/pipeline"
	"mfe-publish/src/store"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// stdout carries the protocol; the console logger writes to stderr.
	log := logger.NewConsoleLogger(cfg.LogLevel)
	defer log.Sync()

	ci := gitlab.NewClient(gitlab.Config{Host: cfg.GitLabHost, Token: cfg.PrivateToken})
	if !ci.HasToken() {
		log.Warn("no private token configured, GitLab calls will fail for private projects")
	}

	// Only run history is served here, so no broker is opened.
	var runs store.Store
	if cfg.PostgresDSN != "" {
		st, err := pipeline.OpenStore(context.Background(), cfg, log)
		if err != nil {
			log.Error("run history unavailable: %v", err)
		} else {
			defer st.Close()
			runs = st
		}
	}

	server := mcp.NewServer(ci, mcp.Config{
		Stage:   cfg.CIStage(),
		JobName: cfg.CIJobName(),
		Runs:    runs,
		Logger:  log,
		Version: version,
	})

	// stdio transport
	if err := server.Run(); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
