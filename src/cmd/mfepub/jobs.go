package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mfe-publish/src/gitlab"
	"mfe-publish/src/provider"
	"mfe-publish/src/publish"
)

// watchCmd follows a running job
var watchCmd = &cobra.Command{
	Use:   "watch <job-url> | watch <project> <job-id>",
	Short: "Stream the log of a CI job until it finishes",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, jobID, err := jobTarget(args, appConfig.GitLabHost)
		if err != nil {
			return err
		}
		return withPublisher(cmd.Context(), nil, func(ctx context.Context, p *publish.Publisher) error {
			_, err := p.FollowJob(ctx, projectID, jobID)
			return provider.WrapError(err)
		})
	},
}

// playCmd plays a manual job
var playCmd = &cobra.Command{
	Use:   "play <job-url> | play <project> <job-id>",
	Short: "Play a manual CI job and stream its log",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !appConfig.HasToken() {
			return provider.WrapError(provider.ErrAuthFailed)
		}
		projectID, jobID, err := jobTarget(args, appConfig.GitLabHost)
		if err != nil {
			return err
		}
		return withPublisher(cmd.Context(), nil, func(ctx context.Context, p *publish.Publisher) error {
			_, err := p.PlayJob(ctx, projectID, jobID)
			return provider.WrapError(err)
		})
	},
}

var (
	findStage string
	findName  string
)

// findCmd looks up the job a ref produced
var findCmd = &cobra.Command{
	Use:   "find <project> <ref>",
	Short: "Find the CI job a tag or branch produced",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ci := gitlab.NewClient(gitlab.Config{Host: appConfig.GitLabHost, Token: appConfig.PrivateToken})
		m := gitlab.Matcher{Ref: args[1], Stage: appConfig.CIStage(), Name: appConfig.CIJobName()}
		if findStage != "" {
			m.Stage = findStage
		}
		if findName != "" {
			m.Name = findName
		}

		job, err := gitlab.FindJob(cmd.Context(), ci, args[0], m)
		if err != nil {
			return provider.WrapError(err)
		}
		if job == nil {
			return provider.WrapError(fmt.Errorf("%w: %s/%s on %s", provider.ErrNoMatchingJob, m.Stage, m.Name, m.Ref))
		}

		fmt.Printf("Job #%d %s/%s (%s)\n", job.ID, job.Stage, job.Name, job.Status)
		if job.WebURL != "" {
			fmt.Println(job.WebURL)
		}
		return nil
	},
}

var runsLimit int

// runsCmd lists recorded test releases
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent test releases",
	Long: `List test releases recorded in Postgres, newest first.

Requires MFEPUB_POSTGRES_DSN; without it runs only live for the duration of a publish.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig.PostgresDSN == "" {
			return fmt.Errorf("runs requires MFEPUB_POSTGRES_DSN")
		}

		backends, err := pipelineSetup(cmd.Context())
		if err != nil {
			return err
		}
		defer backends.Close()

		runs, err := backends.Store.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tENTRY\tTAG\tSTATUS\tJOB")
		for _, r := range runs {
			job := r.JobURL
			if job == "" && r.Error != "" {
				job = r.Error
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.CreatedAt.Local().Format(time.DateTime), r.Entry, r.Tag, r.Status, job)
		}
		return w.Flush()
	},
}

// jobTarget resolves either a job URL or a project and job id pair. A URL must point
// at host, the instance the configured token belongs to.
func jobTarget(args []string, host string) (string, int64, error) {
	if len(args) == 1 {
		ref, err := provider.ParseJobURL(args[0])
		if err != nil {
			return "", 0, provider.WrapError(err)
		}
		if !strings.EqualFold(ref.Host, strings.TrimRight(host, "/")) {
			return "", 0, &provider.UserError{
				Message: fmt.Sprintf("Job URL is on %s, not the configured GitLab host %s", ref.Host, host),
				Hint:    fmt.Sprintf("Set MFEPUB_GITLAB_HOST=%s (and a token for it) to follow this job.", ref.Host),
			}
		}
		return ref.ProjectID, ref.JobID, nil
	}

	id, err := parseJobID(args[1])
	if err != nil {
		return "", 0, err
	}
	return args[0], id, nil
}

func parseJobID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", s)
	}
	return id, nil
}

func init() {
	findCmd.Flags().StringVar(&findStage, "stage", "", "CI stage (default from config)")
	findCmd.Flags().StringVar(&findName, "name", "", "CI job name (default from config)")

	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "max runs to list")
}
