package provider

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailed     = errors.New("authentication failed")
	ErrJobNotFound    = errors.New("job not found")
	ErrNoMatchingJob  = errors.New("no matching CI job")
	ErrNetworkTimeout = errors.New("network timeout")
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts CI API errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		return err
	}

	if errors.Is(err, ErrInvalidURL) {
		return &UserError{
			Message: "Invalid job URL",
			Hint:    "Supported format:\n  - https://gitlab.example.com/group/project/-/jobs/123",
			Err:     err,
		}
	}

	if errors.Is(err, ErrAuthFailed) {
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check that your private token is valid and has the api scope.\n  - Set MFEPUB_PRIVATE_TOKEN or privateToken in .mfepub.yaml",
			Err:     err,
		}
	}

	if errors.Is(err, ErrJobNotFound) {
		return &UserError{
			Message: "Job not found",
			Hint:    "Check that the project and job id are correct and you have access to the repository.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrNetworkTimeout) {
		return &UserError{
			Message: "GitLab did not respond",
			Hint:    "Check your network connection and that the GitLab host is reachable (VPN?).",
			Err:     err,
		}
	}

	if errors.Is(err, ErrNoMatchingJob) {
		return &UserError{
			Message: "No matching CI job",
			Hint:    "Check .gitlab-ci.yml: the tag pipeline needs a job with the configured stage and name.",
			Err:     err,
		}
	}

	return err
}
