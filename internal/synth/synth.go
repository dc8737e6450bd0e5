// Package synth regenerates a single library: it prepares a work branch in
// a clone of the target repository, runs the generator, and pushes any
// resulting changes as a pull request.
package synth

import (
	"path/filepath"
	"strings"
)

// ExitCodeSkipped is the process exit code signaling "nothing changed";
// a designated non-error outcome distinct from success and failure.
const ExitCodeSkipped = 28

// Outcome classifies a generator process exit code.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeSkipped
	OutcomeFailure
)

// Classify maps a subprocess exit code to its outcome. This is the single
// canonical mapping: the log collector, the report writer, and the issue
// reporter all derive from it.
func Classify(exitCode int) Outcome {
	switch exitCode {
	case 0:
		return OutcomeSuccess
	case ExitCodeSkipped:
		return OutcomeSkipped
	default:
		return OutcomeFailure
	}
}

// Failed reports whether the outcome counts as a synthesis failure.
// Skipped runs do not.
func (o Outcome) Failed() bool {
	return o == OutcomeFailure
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failure"
	}
}

// BranchName composes the work branch name from the fixed prefix and an
// optional per-library suffix.
func BranchName(suffix string) string {
	parts := []string{"autosynth"}
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, "-")
}

// LogDir returns the log directory for a library:
// <base>/<repository>[/<synth-path>].
func LogDir(base, repository, synthPath string) string {
	dir := filepath.Join(base, filepath.FromSlash(repository))
	if synthPath != "" {
		dir = filepath.Join(dir, filepath.FromSlash(synthPath))
	}
	return dir
}

// DefaultPRTitle is used when a library config does not set one.
func DefaultPRTitle(synthPath string) string {
	space := ""
	if synthPath != "" {
		space = synthPath + " "
	}
	return "[CHANGE ME] Re-generated " + space +
		"to pick up changes in the API or client library generator."
}
