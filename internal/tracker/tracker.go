// Package tracker manages the issue-tracker feedback loop for synthesis
// runs: opening, updating, and closing failure issues on GitHub.
package tracker

import (
	"context"
	"fmt"
	"strings"
)

// Issue is the slice of the tracker's issue model the reporter needs. The
// tracker owns the full record; we only read and mutate state through the
// Client.
type Issue struct {
	Number int
	URL    string
	Title  string
	State  string
}

// Client is the tracker surface consumed by the reporter and the library
// list providers.
type Client interface {
	// ListIssues returns all issues for repository matching state and label,
	// following pagination.
	ListIssues(ctx context.Context, repository, state, label string) ([]Issue, error)
	// CreateIssue opens a new issue and returns it.
	CreateIssue(ctx context.Context, repository, title, body string, labels []string) (*Issue, error)
	// CreateIssueComment posts a comment on an existing issue.
	CreateIssueComment(ctx context.Context, repository string, number int, comment string) error
	// PatchIssue updates an issue's state ("open" or "closed").
	PatchIssue(ctx context.Context, repository string, number int, state string) error
	// GetAPILabel tries to match name to an api: label defined on the
	// repository. Returns "" when there is no match.
	GetAPILabel(ctx context.Context, repository, name string) (string, error)
}

// splitRepo splits an "owner/repo" string.
func splitRepo(repository string) (owner, repo string, err error) {
	parts := strings.SplitN(repository, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, want owner/repo", repository)
	}
	return parts[0], parts[1], nil
}
