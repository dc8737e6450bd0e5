package synth

import (
	"context"
	"fmt"
	"log"
)

// PullRequester is the tracker surface the pusher needs.
type PullRequester interface {
	ListPullRequests(ctx context.Context, repository, branch string) ([]int, error)
	CreatePullRequest(ctx context.Context, repository, branch, base, title, body string) (string, error)
}

// ChangePusher pushes a synthesized branch and opens the pull request.
type ChangePusher struct {
	Client     PullRequester
	Repository string
	Branch     string
	// Base is the PR target branch. Empty means "main".
	Base string
}

// PRExists reports whether an open pull request already exists for the
// work branch, in which case the run can stop early.
func (p *ChangePusher) PRExists(ctx context.Context) (bool, error) {
	numbers, err := p.Client.ListPullRequests(ctx, p.Repository, p.Branch)
	if err != nil {
		return false, err
	}
	return len(numbers) > 0, nil
}

// Push opens the pull request for the already-pushed branch and returns
// its URL.
func (p *ChangePusher) Push(ctx context.Context, title, body string) (string, error) {
	base := p.Base
	if base == "" {
		base = "main"
	}
	url, err := p.Client.CreatePullRequest(ctx, p.Repository, p.Branch, base, title, body)
	if err != nil {
		return "", fmt.Errorf("push changes for %s: %w", p.Repository, err)
	}
	log.Printf("[synth] opened pull request: %s", url)
	return url, nil
}
