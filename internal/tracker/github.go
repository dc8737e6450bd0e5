package tracker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
)

// GitHub implements Client against the GitHub REST API.
type GitHub struct {
	client *github.Client
}

// NewGitHub creates a client authenticated with token. An empty token
// yields an unauthenticated client, which is enough for read-only use
// against public repositories.
func NewGitHub(token string) *GitHub {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHub{client: client}
}

// NewGitHubWithClient creates a client backed by a custom HTTP client and
// base URL. Used by tests with httptest servers.
func NewGitHubWithClient(httpClient *http.Client, baseURL string) (*GitHub, error) {
	client := github.NewClient(httpClient)
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, err
		}
	}
	return &GitHub{client: client}, nil
}

// ListIssues returns all issues matching state and label, following
// pagination.
func (g *GitHub) ListIssues(ctx context.Context, repository, state, label string) ([]Issue, error) {
	owner, repo, err := splitRepo(repository)
	if err != nil {
		return nil, err
	}

	opts := &github.IssueListByRepoOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: 100},
	}
	if label != "" {
		opts.Labels = []string{label}
	}

	var issues []Issue
	for {
		page, resp, err := g.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list issues for %s: %w", repository, err)
		}
		for _, issue := range page {
			issues = append(issues, Issue{
				Number: issue.GetNumber(),
				URL:    issue.GetHTMLURL(),
				Title:  issue.GetTitle(),
				State:  issue.GetState(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return issues, nil
}

// CreateIssue opens a new issue.
func (g *GitHub) CreateIssue(ctx context.Context, repository, title, body string, labels []string) (*Issue, error) {
	owner, repo, err := splitRepo(repository)
	if err != nil {
		return nil, err
	}

	req := &github.IssueRequest{
		Title:  github.String(title),
		Body:   github.String(body),
		Labels: &labels,
	}
	issue, _, err := g.client.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return nil, fmt.Errorf("create issue on %s: %w", repository, err)
	}
	return &Issue{
		Number: issue.GetNumber(),
		URL:    issue.GetHTMLURL(),
		Title:  issue.GetTitle(),
		State:  issue.GetState(),
	}, nil
}

// CreateIssueComment posts a comment on an existing issue.
func (g *GitHub) CreateIssueComment(ctx context.Context, repository string, number int, comment string) error {
	owner, repo, err := splitRepo(repository)
	if err != nil {
		return err
	}
	_, _, err = g.client.Issues.CreateComment(ctx, owner, repo, number,
		&github.IssueComment{Body: github.String(comment)})
	if err != nil {
		return fmt.Errorf("comment on %s#%d: %w", repository, number, err)
	}
	return nil
}

// PatchIssue updates an issue's state.
func (g *GitHub) PatchIssue(ctx context.Context, repository string, number int, state string) error {
	owner, repo, err := splitRepo(repository)
	if err != nil {
		return err
	}
	_, _, err = g.client.Issues.Edit(ctx, owner, repo, number,
		&github.IssueRequest{State: github.String(state)})
	if err != nil {
		return fmt.Errorf("patch %s#%d: %w", repository, number, err)
	}
	return nil
}

// GetAPILabel tries to match name to an api: label on the repository.
func (g *GitHub) GetAPILabel(ctx context.Context, repository, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	owner, repo, err := splitRepo(repository)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(strings.ReplaceAll(name, "_", ""))

	opts := &github.ListOptions{PerPage: 100}
	for {
		labels, resp, err := g.client.Issues.ListLabels(ctx, owner, repo, opts)
		if err != nil {
			return "", fmt.Errorf("list labels for %s: %w", repository, err)
		}
		for _, label := range labels {
			labelName := label.GetName()
			if strings.Contains(labelName, "api") && strings.Contains(labelName, needle) {
				return labelName, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return "", nil
}

// ListPullRequests returns open pull requests whose head is branch.
func (g *GitHub) ListPullRequests(ctx context.Context, repository, branch string) ([]int, error) {
	owner, repo, err := splitRepo(repository)
	if err != nil {
		return nil, err
	}
	pulls, _, err := g.client.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{
		State: "open",
		Head:  owner + ":" + branch,
	})
	if err != nil {
		return nil, fmt.Errorf("list pulls for %s: %w", repository, err)
	}
	numbers := make([]int, 0, len(pulls))
	for _, pr := range pulls {
		numbers = append(numbers, pr.GetNumber())
	}
	return numbers, nil
}

// CreatePullRequest opens a pull request from branch against the default
// base branch and returns its URL.
func (g *GitHub) CreatePullRequest(ctx context.Context, repository, branch, base, title, body string) (string, error) {
	owner, repo, err := splitRepo(repository)
	if err != nil {
		return "", err
	}
	pr, _, err := g.client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title:               github.String(title),
		Body:                github.String(body),
		Head:                github.String(branch),
		Base:                github.String(base),
		MaintainerCanModify: github.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("create pull request on %s: %w", repository, err)
	}
	return pr.GetHTMLURL(), nil
}

// FileExists reports whether path exists in the repository's default branch.
func (g *GitHub) FileExists(ctx context.Context, repository, path string) (bool, error) {
	owner, repo, err := splitRepo(repository)
	if err != nil {
		return false, err
	}
	_, _, resp, err := g.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("check %s in %s: %w", path, repository, err)
	}
	return true, nil
}

// ListDirectory returns the subdirectories under path in the repository's
// default branch. Entries are full paths from the repository root, the way
// the contents API reports them.
func (g *GitHub) ListDirectory(ctx context.Context, repository, path string) ([]string, error) {
	owner, repo, err := splitRepo(repository)
	if err != nil {
		return nil, err
	}
	_, entries, _, err := g.client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s in %s: %w", path, repository, err)
	}
	var dirs []string
	for _, entry := range entries {
		if entry.GetType() == "dir" {
			dirs = append(dirs, entry.GetPath())
		}
	}
	return dirs, nil
}
