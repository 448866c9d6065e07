package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a command and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// CommandError carries the stderr of a failed command.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs commands with os/exec in Dir (the current directory when empty).
type ExecRunner struct {
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &CommandError{
			Args:   append([]string{name}, args...),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Git wraps the handful of git commands a test release needs.
type Git struct {
	runner Runner
}

// NewGit creates a Git using runner.
func NewGit(runner Runner) *Git {
	return &Git{runner: runner}
}

func (g *Git) git(ctx context.Context, args ...string) (string, error) {
	return g.runner.Run(ctx, "git", args...)
}

// CurrentBranch returns the short name of HEAD.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	return g.git(ctx, "symbolic-ref", "--short", "HEAD")
}

// RemoteURL returns the URL of the origin remote, or "" when none is configured.
func (g *Git) RemoteURL(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "config", "--get", "remote.origin.url")
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		var exitErr *exec.ExitError
		if errors.As(cmdErr.Err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
	}
	return out, err
}

// HeadCommit returns the full sha of HEAD.
func (g *Git) HeadCommit(ctx context.Context) (string, error) {
	return g.git(ctx, "rev-parse", "HEAD")
}

// PushCommit stages everything, commits the test build and pushes branch to origin.
// If the push fails the commit is undone with "git reset HEAD~".
func (g *Git) PushCommit(ctx context.Context, branch, message string) (string, error) {
	if _, err := g.git(ctx, "add", "."); err != nil {
		return "", err
	}

	summary, err := g.git(ctx, "commit", "-m", message)
	if err != nil {
		return "", err
	}

	if _, err := g.git(ctx, "push", "origin", branch); err != nil {
		if _, resetErr := g.git(ctx, "reset", "HEAD~"); resetErr != nil {
			return "", fmt.Errorf("%w (rollback failed: %v)", err, resetErr)
		}
		return "", &RolledBackError{Op: "commit", Err: err, Hint: pushHint(stderrOf(err))}
	}

	return summary, nil
}

// PushTag creates an annotated tag and pushes it to origin.
// If the push fails the local tag is deleted again.
func (g *Git) PushTag(ctx context.Context, tag, message, repoURL string) error {
	if _, err := g.git(ctx, "tag", "-a", tag, "-m", message); err != nil {
		return err
	}

	if _, err := g.git(ctx, "push", "origin", tag); err != nil {
		if _, delErr := g.git(ctx, "tag", "-d", tag); delErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, delErr)
		}
		return &RolledBackError{
			Op:   "tag",
			Err:  err,
			Hint: fmt.Sprintf("Create the tag by hand: %s/-/tags/new", repoURL),
		}
	}

	return nil
}

// RolledBackError reports a failed push whose local effect was undone.
type RolledBackError struct {
	Op   string
	Err  error
	Hint string
}

func (e *RolledBackError) Error() string {
	msg := fmt.Sprintf("push %s failed, local %s rolled back: %v", e.Op, e.Op, e.Err)
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

func (e *RolledBackError) Unwrap() error {
	return e.Err
}

func stderrOf(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Stderr
	}
	return err.Error()
}

func pushHint(stderr string) string {
	switch {
	case strings.Contains(stderr, "connect to host"):
		return "Check your network connection."
	case strings.Contains(stderr, "git pull"):
		return "The remote branch has new commits; run git pull first."
	}
	return ""
}
