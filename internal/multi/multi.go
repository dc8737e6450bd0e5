// Package multi drives synthesis across a list of libraries, reporting
// each outcome to the issue tracker and aggregating results into an xUnit
// report. The loop is strictly sequential: one library's failure never
// stops the rest.
package multi

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hochfrequenz/autosynth/internal/config"
	"github.com/hochfrequenz/autosynth/internal/executor"
	"github.com/hochfrequenz/autosynth/internal/report"
	"github.com/hochfrequenz/autosynth/internal/synth"
	"github.com/hochfrequenz/autosynth/internal/tracker"
)

// Runner executes one generator process. Tests substitute a stub.
type Runner func(ctx context.Context, command []string, logPath string, env []string) (int, string, error)

// Result is the outcome of one library's run.
type Result struct {
	Name       string
	Repository string
	ExitCode   int
	Output     string
	Outcome    synth.Outcome
}

// IssueReporter is the tracker surface the driver needs.
type IssueReporter interface {
	Report(ctx context.Context, name, repository string, failed bool, output string) error
}

// Driver runs one batch over a library list.
type Driver struct {
	// SynthCommand is the per-library generator entry point, typically
	// {self, "synth"}. Library flags are appended to it.
	SynthCommand []string
	// Token is merged into each child's environment as GITHUB_TOKEN.
	Token string
	// ExtraArgs are appended to every generator invocation after the
	// library's own args.
	ExtraArgs []string
	// LogsDir receives per-repository log files.
	LogsDir string
	// Reporter posts per-library outcomes to the tracker. Nil disables
	// reporting entirely.
	Reporter IssueReporter
	// Collector receives one entry per library.
	Collector *report.Collector
	// Run executes the generator process. Nil uses the real executor.
	Run Runner
}

// LibraryArgs builds the argument list for one library's generator
// invocation. Required flags are always present, empty when unset;
// optional flags appear only when set.
func LibraryArgs(lib config.Library) []string {
	args := []string{
		"--repository", lib.Repository,
		"--synth-path", lib.SynthPath,
		"--branch-suffix", lib.BranchSuffix,
		"--pr-title", lib.PRTitle,
	}
	if lib.MetadataPath != "" {
		args = append(args, "--metadata-path", lib.MetadataPath)
	}
	if lib.DeprecatedExecution {
		args = append(args, "--deprecated-execution")
	}
	if lib.HideSynthLog {
		args = append(args, "--hide-synth-log")
	}
	return append(args, lib.Args...)
}

// childEnv builds the generator's environment: a copy of the ambient
// environment with the token injected. The process environment itself is
// never mutated.
func childEnv(token string) []string {
	base := os.Environ()
	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if strings.HasPrefix(kv, "GITHUB_TOKEN=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, "GITHUB_TOKEN="+token)
}

// logPath returns the per-repository log file for a library.
func (d *Driver) logPath(lib config.Library) string {
	return filepath.Join(d.LogsDir, filepath.FromSlash(lib.Repository), "synth.log")
}

// SynthesizeLibrary runs the generator once for lib and classifies the
// exit code.
func (d *Driver) SynthesizeLibrary(ctx context.Context, lib config.Library) Result {
	log.Printf("[multi] synthesizing %s", lib.Name)

	command := append(append([]string{}, d.SynthCommand...), LibraryArgs(lib)...)
	command = append(command, d.ExtraArgs...)

	run := d.Run
	if run == nil {
		run = func(ctx context.Context, command []string, logPath string, env []string) (int, string, error) {
			return executor.Execute(ctx, command, logPath, env, false)
		}
	}

	code, output, err := run(ctx, command, d.logPath(lib), childEnv(d.Token))
	if err != nil {
		// The process could not be spawned at all; treat it like a failing
		// generator so the batch keeps going.
		log.Printf("[multi] running generator for %s: %v", lib.Name, err)
		return Result{
			Name:       lib.Name,
			Repository: lib.Repository,
			ExitCode:   -1,
			Output:     err.Error(),
			Outcome:    synth.OutcomeFailure,
		}
	}

	outcome := synth.Classify(code)
	if outcome.Failed() {
		log.Printf("[multi] synthesis failed for %s", lib.Name)
	}
	return Result{
		Name:       lib.Name,
		Repository: lib.Repository,
		ExitCode:   code,
		Output:     output,
		Outcome:    outcome,
	}
}

// RunAll processes every library in order and returns the failure count.
// Tracker errors are logged and swallowed: issue reporting is a
// best-effort side channel and never aborts the batch.
func (d *Driver) RunAll(ctx context.Context, libraries []config.Library) int {
	for _, lib := range libraries {
		result := d.SynthesizeLibrary(ctx, lib)
		d.Collector.AddEntry(result.Name, result.Output, !result.Outcome.Failed())

		if lib.NoCreateIssue || d.Reporter == nil {
			continue
		}
		err := d.Reporter.Report(ctx, result.Name, result.Repository, result.Outcome.Failed(), result.Output)
		if err != nil {
			log.Printf("[multi] tracker update for %s failed (ignored): %v", lib.Name, err)
		}
	}
	return d.Collector.Failures()
}

// WriteReport renders the batch report. Called unconditionally after the
// loop, whatever the failure count.
func (d *Driver) WriteReport(runName, destPath string) error {
	return report.Write(runName, d.Collector, destPath)
}

var _ IssueReporter = (*tracker.Reporter)(nil)
