// Package release names and validates test releases and renders the manual fallback
// instructions shown when CI automation is unavailable.
package release

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNoRemote      = errors.New("no origin remote configured")
	ErrHTTPRemote    = errors.New("origin must be an ssh remote")
	ErrWrongBranch   = errors.New("test releases must be published from master")
	ErrUnknownRemote = errors.New("cannot parse origin remote")
)

// ReleaseBranch is the only branch test releases may come from outside debug mode.
const ReleaseBranch = "master"

// Names holds everything derived from an entry name, a version and a timestamp.
type Names struct {
	Version string // <version>-<unix millis>
	Tag     string
	Commit  string
	Message string
}

// NewNames derives tag, commit message and tag message. An empty message gets the
// default "test <entry> v<version>".
func NewNames(entry, version, message string, now time.Time) Names {
	v := fmt.Sprintf("%s-%d", version, now.UnixMilli())
	if message == "" {
		message = fmt.Sprintf("test %s v%s", entry, v)
	}
	return Names{
		Version: v,
		Tag:     fmt.Sprintf("tag__%s__%s", entry, v),
		Commit:  fmt.Sprintf("[TEST] v%s", v),
		Message: message,
	}
}

// CheckRepo validates the origin remote and the current branch.
func CheckRepo(remote, branch string, debug bool) error {
	if remote == "" {
		return ErrNoRemote
	}
	if strings.HasPrefix(remote, "http://") || strings.HasPrefix(remote, "https://") {
		return fmt.Errorf("%w: %s", ErrHTTPRemote, remote)
	}
	if !debug && branch != ReleaseBranch {
		return fmt.Errorf("%w (on %s)", ErrWrongBranch, branch)
	}
	return nil
}

// RepoPath extracts "group/project" from an ssh remote, either scp-like
// (git@host:group/project.git) or URL form (ssh://git@host:22/group/project.git).
func RepoPath(remote string) (string, error) {
	var p string

	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnknownRemote, err)
		}
		p = u.Path
	} else {
		i := strings.Index(remote, ":")
		if i < 0 {
			return "", fmt.Errorf("%w: %s", ErrUnknownRemote, remote)
		}
		p = remote[i+1:]
	}

	p = strings.TrimSuffix(strings.Trim(p, "/"), ".git")
	if p == "" || !strings.Contains(p, "/") {
		return "", fmt.Errorf("%w: %s", ErrUnknownRemote, remote)
	}
	return p, nil
}

// RepoURL is the web URL of a repository.
func RepoURL(host, repoPath string) string {
	return strings.TrimRight(host, "/") + "/" + repoPath
}

// TipKind selects the manual-publish instructions.
type TipKind string

const (
	// TipToken is shown when no private token is configured.
	TipToken TipKind = "token"
	// TipCI is shown when the CI job could not be followed.
	TipCI TipKind = "ci"
)

// ManualTip renders instructions for publishing the pushed commit by hand.
func ManualTip(kind TipKind, repoURL, commit, tokenURL string) string {
	var b strings.Builder
	commitPage := fmt.Sprintf("%s/-/commit/%s", repoURL, commit)

	switch kind {
	case TipToken:
		b.WriteString("CI access is not configured, publish manually:\n")
		b.WriteString(commitPage + "\n\n")
		b.WriteString("Set privateToken in .mfepub.yaml (or MFEPUB_PRIVATE_TOKEN) to enable automated publishing.\n")
		b.WriteString("Create a private token at:\n")
		b.WriteString(tokenURL + "\n")
	case TipCI:
		b.WriteString("CI job could not be followed, publish manually:\n")
		b.WriteString(commitPage + "\n")
	}

	return b.String()
}
