package tracker

import (
	"context"
	"fmt"
	"log"
)

// FailureLabel marks issues opened by the reporter. The open-issue lookup
// filters on it.
const FailureLabel = "autosynth failure"

// Reporter updates the tracker with the outcome of each library's run. On
// failure it opens a new issue or comments on the existing one; on success
// it closes any outstanding issue. For a given library and run, at most
// one issue transitions state.
type Reporter struct {
	client  Client
	cache   *IssueCache
	buildID string
}

// NewReporter creates a reporter. buildID is embedded in issue bodies as a
// pointer to the run's full build log.
func NewReporter(client Client, buildID string) *Reporter {
	return &Reporter{
		client:  client,
		cache:   NewIssueCache(client),
		buildID: buildID,
	}
}

// IssueTitle returns the fixed title used for a library's failure issue.
// Lookups match on exact equality with this string.
func IssueTitle(name string) string {
	return fmt.Sprintf("Synthesis failed for %s", name)
}

// Report records the outcome of one library's run on the tracker. failed
// reflects the canonical outcome mapping: the skip sentinel counts as
// success here. Callers treat any returned error as best-effort
// notification failure and must not abort the batch.
func (r *Reporter) Report(ctx context.Context, name, repository string, failed bool, output string) error {
	title := IssueTitle(name)

	openIssues, err := r.cache.ListIssues(ctx, repository, "open", FailureLabel)
	if err != nil {
		return err
	}

	// First match in list order wins.
	var existing *Issue
	for i := range openIssues {
		if openIssues[i].Title == title {
			existing = &openIssues[i]
			break
		}
	}

	if !failed {
		return r.closeIssue(ctx, repository, existing)
	}
	return r.fileOrComment(ctx, name, repository, title, existing, output)
}

// closeIssue closes an outstanding failure issue after a successful run.
// Nothing to do when no issue is open.
func (r *Reporter) closeIssue(ctx context.Context, repository string, existing *Issue) error {
	if existing == nil {
		return nil
	}

	log.Printf("[tracker] closing issue: %s", existing.URL)
	if err := r.client.CreateIssueComment(ctx, repository, existing.Number,
		"Autosynth passed, closing! :green_heart:"); err != nil {
		return err
	}
	return r.client.PatchIssue(ctx, repository, existing.Number, "closed")
}

func (r *Reporter) fileOrComment(ctx context.Context, name, repository, title string, existing *Issue, output string) error {
	message := fmt.Sprintf("Here's the output from running `synth`:\n\n```\n%s\n```\n\n"+
		"The full log is available [here](https://sponge/%s).\n", output, r.buildID)

	if existing == nil {
		body := fmt.Sprintf("Hello! Autosynth couldn't regenerate %s. :broken_heart:\n\n%s", name, message)
		labels := []string{FailureLabel, "priority: p1", "type: bug"}

		apiLabel, err := r.client.GetAPILabel(ctx, repository, name)
		if err != nil {
			return err
		}
		if apiLabel != "" {
			labels = append(labels, apiLabel)
		}

		issue, err := r.client.CreateIssue(ctx, repository, title, body, labels)
		if err != nil {
			return err
		}
		log.Printf("[tracker] opened issue: %s", issue.URL)
		return nil
	}

	comment := fmt.Sprintf("Autosynth is still having trouble generating %s. :sob:\n\n%s", name, message)
	if err := r.client.CreateIssueComment(ctx, repository, existing.Number, comment); err != nil {
		return err
	}
	log.Printf("[tracker] updated issue: %s", existing.URL)
	return nil
}
