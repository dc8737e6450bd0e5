package tracker

import "context"

type cacheKey struct {
	repository string
	state      string
	label      string
}

// IssueCache memoizes open-issue listings for the lifetime of one batch
// run, bounding tracker API calls to one query per distinct key. Staleness
// within a run is accepted. The batch run is single-threaded, so no
// locking is needed.
type IssueCache struct {
	client Client
	issues map[cacheKey][]Issue
}

// NewIssueCache creates a cache over client. Discard it with the run.
func NewIssueCache(client Client) *IssueCache {
	return &IssueCache{
		client: client,
		issues: make(map[cacheKey][]Issue),
	}
}

// ListIssues returns the cached listing for (repository, state, label),
// querying the tracker on first use. A failed query is not cached.
func (c *IssueCache) ListIssues(ctx context.Context, repository, state, label string) ([]Issue, error) {
	key := cacheKey{repository: repository, state: state, label: label}
	if issues, ok := c.issues[key]; ok {
		return issues, nil
	}
	issues, err := c.client.ListIssues(ctx, repository, state, label)
	if err != nil {
		return nil, err
	}
	c.issues[key] = issues
	return issues, nil
}
