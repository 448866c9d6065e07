// Package main provides the mfepub CLI: push a test release and follow the CI job
// that publishes it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mfe-publish/src/config"
	"mfe-publish/src/gitlab"
	"mfe-publish/src/logger"
	"mfe-publish/src/pipeline"
	"mfe-publish/src/publish"
	"mfe-publish/src/release"
	"mfe-publish/src/tui"
)

var (
	configPath string
	plain      bool

	appConfig *config.Config
	log       logger.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mfepub",
	Short: "mfepub - test releases for micro front-end entries",
	Long: `mfepub pushes a test release of a micro front-end entry and follows the
GitLab CI job that publishes it.

Configuration comes from .mfepub.yaml (or --config) and MFEPUB_* environment
variables. Without a private token the tag is pushed and the CI job has to be
played by hand.

Set MFEPUB_POSTGRES_DSN to keep run history and MFEPUB_REDPANDA_BROKERS to stream
job logs to other consumers, such as mfepub tail.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			appConfig, err = config.Load(configPath)
		} else {
			appConfig, err = config.LoadDefault()
		}
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		if useTUI() {
			log = logger.NewSilentLogger()
		} else {
			log = logger.NewConsoleLogger(appConfig.LogLevel)
		}
		return nil
	},
}

var (
	publishVersion string
	publishMessage string
)

// publishCmd runs a test release
var publishCmd = &cobra.Command{
	Use:   "publish <entry>",
	Short: "Push a test release of an entry and follow its CI job",
	Long: `Commit the working tree, push it, push a tag__<entry>__<version>-<ms> tag and,
when a private token is configured, play the CI job the tag created and stream its log.

The version defaults to the version field of ./package.json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version := publishVersion
		if version == "" {
			v, err := release.PackageVersion(".")
			if err != nil {
				return fmt.Errorf("no --version given: %w", err)
			}
			version = v
		}

		opts := publish.Options{Entry: args[0], Version: version, Message: publishMessage}
		repo := release.NewGit(release.ExecRunner{})

		return withPublisher(cmd.Context(), repo, func(ctx context.Context, p *publish.Publisher) error {
			run, err := p.Run(ctx, opts)
			if run != nil {
				log.Info("run %s: %s", run.ID, run.Status)
			}
			return err
		})
	},
}

// withPublisher opens the backends and runs fn with a Publisher whose output goes to
// the terminal UI, or to stdout when stdout is not a terminal.
func withPublisher(ctx context.Context, repo publish.Repo, fn func(ctx context.Context, p *publish.Publisher) error) error {
	backends, err := pipelineSetup(ctx)
	if err != nil {
		return err
	}
	defer backends.Close()

	ci := gitlab.NewClient(gitlab.Config{Host: appConfig.GitLabHost, Token: appConfig.PrivateToken})
	opts := []publish.Option{
		publish.WithStore(backends.Store),
		publish.WithEvents(backends.Events),
		publish.WithLogger(log),
	}

	if useTUI() {
		return tui.Run(ctx, func(ctx context.Context, sink *tui.ProgramSink) error {
			return fn(ctx, publish.New(appConfig, repo, ci, append(opts, publish.WithSink(sink))...))
		})
	}

	sink := &publish.WriterSink{W: os.Stdout, Strip: !isatty.IsTerminal(os.Stdout.Fd())}
	return fn(ctx, publish.New(appConfig, repo, ci, append(opts, publish.WithSink(sink))...))
}

func pipelineSetup(ctx context.Context) (*pipeline.Backends, error) {
	backends, err := pipeline.Setup(ctx, appConfig, log)
	if err != nil {
		return nil, err
	}
	log.Debug("%s mode", backends.Mode)
	return backends, nil
}

func useTUI() bool {
	return !plain && isatty.IsTerminal(os.Stdout.Fd())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "print job output without the terminal UI")

	publishCmd.Flags().StringVar(&publishVersion, "version", "", "version to release (default: package.json version)")
	publishCmd.Flags().StringVarP(&publishMessage, "message", "m", "", "tag message")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(tailCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
