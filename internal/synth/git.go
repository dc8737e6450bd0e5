package synth

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Modifications to existing synth.metadata files never count as changes;
// newly added ones do.
var ignoredStatusPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^M (.*?)synth.metadata`),
}

// Repo wraps git operations on a working clone.
type Repo struct {
	Dir string
}

// git runs a git subcommand in the repo directory.
func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}

// Clone clones repository (an owner/repo slug) into dir and returns the
// working repo.
func Clone(ctx context.Context, repository, dir string) (*Repo, error) {
	url := fmt.Sprintf("https://github.com/%s.git", repository)
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", url, dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("git clone %s: %s: %w", repository, strings.TrimSpace(string(out)), err)
	}
	return &Repo{Dir: dir}, nil
}

// ConfigureUser sets the commit identity for the clone.
func (r *Repo) ConfigureUser(ctx context.Context, name, email string) error {
	if name != "" {
		if _, err := r.git(ctx, "config", "user.name", name); err != nil {
			return err
		}
	}
	if email != "" {
		if _, err := r.git(ctx, "config", "user.email", email); err != nil {
			return err
		}
	}
	return nil
}

// SetupBranch creates (or resets) the work branch and checks it out.
func (r *Repo) SetupBranch(ctx context.Context, branch string) error {
	if _, err := r.git(ctx, "branch", "-f", branch); err != nil {
		return err
	}
	_, err := r.git(ctx, "checkout", branch)
	return err
}

// HasChanges reports whether the working tree has changes that matter,
// ignoring modifications to existing synth.metadata files.
func (r *Repo) HasChanges(ctx context.Context) (bool, error) {
	out, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return filterStatus(out), nil
}

// filterStatus parses porcelain output and applies the ignore patterns.
func filterStatus(porcelain string) bool {
	for _, line := range strings.Split(strings.TrimSpace(porcelain), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ignored := false
		for _, pattern := range ignoredStatusPatterns {
			if pattern.MatchString(line) {
				ignored = true
				break
			}
		}
		if !ignored {
			return true
		}
	}
	return false
}

// CommitAll stages and commits every change in the working tree.
func (r *Repo) CommitAll(ctx context.Context, message string) error {
	if _, err := r.git(ctx, "add", "-A"); err != nil {
		return err
	}
	_, err := r.git(ctx, "commit", "-m", message)
	return err
}

// Push force-pushes the branch to origin.
func (r *Repo) Push(ctx context.Context, branch string) error {
	_, err := r.git(ctx, "push", "--force", "origin", branch)
	return err
}
