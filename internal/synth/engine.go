package synth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hochfrequenz/autosynth/internal/executor"
	"github.com/hochfrequenz/autosynth/internal/report"
)

// Options configures one single-library run.
type Options struct {
	Repository          string
	SynthPath           string
	BranchSuffix        string
	PRTitle             string
	MetadataPath        string
	DeprecatedExecution bool
	HideSynthLog        bool
	ExtraArgs           []string
	GitHubUser          string
	GitHubEmail         string
	LogsBase            string // defaults to ./logs
	WorkDir             string // existing clone to reuse; empty clones fresh
	Pusher              PullRequester
}

// ErrSkipped reports a run that produced no changes. The process maps it
// to ExitCodeSkipped.
var ErrSkipped = errors.New("no changes to synthesize")

// Synthesize regenerates one library end to end: clone, branch, generate,
// detect changes, commit, push, open the PR. Returns ErrSkipped when the
// generator produced no relevant changes.
func Synthesize(ctx context.Context, opts Options) error {
	if opts.Repository == "" {
		return errors.New("repository is required")
	}

	branch := BranchName(opts.BranchSuffix)
	prTitle := opts.PRTitle
	if prTitle == "" {
		prTitle = DefaultPRTitle(opts.SynthPath)
	}

	logsBase := opts.LogsBase
	if logsBase == "" {
		logsBase = "logs"
	}
	logDir, err := filepath.Abs(LogDir(logsBase, opts.Repository, opts.SynthPath))
	if err != nil {
		return err
	}
	log.Printf("[synth] logs will be written to: %s", logDir)

	pusher := &ChangePusher{Client: opts.Pusher, Repository: opts.Repository, Branch: branch}
	if opts.Pusher != nil {
		exists, err := pusher.PRExists(ctx)
		if err != nil {
			return err
		}
		if exists {
			log.Printf("[synth] pull request for %s already exists, nothing to do", branch)
			return nil
		}
	}

	workDir := opts.WorkDir
	var repo *Repo
	if workDir == "" {
		cloneDir, err := os.MkdirTemp("", "autosynth-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(cloneDir)
		repo, err = Clone(ctx, opts.Repository, cloneDir)
		if err != nil {
			return err
		}
	} else {
		repo = &Repo{Dir: workDir}
	}

	if err := repo.ConfigureUser(ctx, opts.GitHubUser, opts.GitHubEmail); err != nil {
		return err
	}
	if err := repo.SetupBranch(ctx, branch); err != nil {
		return err
	}

	generatorDir := repo.Dir
	if opts.SynthPath != "" {
		generatorDir = filepath.Join(repo.Dir, filepath.FromSlash(opts.SynthPath))
	}
	metadataPath := filepath.Join(opts.MetadataPath, "synth.metadata")

	collector := report.NewCollector()
	var runner Runner
	if opts.HideSynthLog {
		capturing := executor.NewLogCapturing(collector, func(code int) bool {
			return !Classify(code).Failed()
		})
		runner = func(ctx context.Context, dir string, command []string, logPath string, env []string) (int, string, error) {
			return capturing.ExecuteIn(ctx, "synthesize", dir, command, logPath, env)
		}
	}

	synthesizer := &Synthesizer{
		WorkDir:      generatorDir,
		MetadataPath: metadataPath,
		Deprecated:   opts.DeprecatedExecution,
		ExtraArgs:    opts.ExtraArgs,
		Run:          runner,
	}
	if _, err := synthesizer.Synthesize(ctx, logDir, os.Environ()); err != nil {
		if opts.HideSynthLog {
			writeSynthReport(collector, logDir)
		}
		return fmt.Errorf("generator failed: %w", err)
	}
	if opts.HideSynthLog {
		writeSynthReport(collector, logDir)
	}

	changed, err := repo.HasChanges(ctx)
	if err != nil {
		return err
	}
	if !changed {
		log.Printf("[synth] no changes :)")
		return ErrSkipped
	}

	if err := repo.CommitAll(ctx, prTitle); err != nil {
		return err
	}
	if err := repo.Push(ctx, branch); err != nil {
		return err
	}
	if opts.Pusher != nil {
		if _, err := pusher.Push(ctx, prTitle, "Regenerated by autosynth."); err != nil {
			return err
		}
	}
	return nil
}

func writeSynthReport(collector *report.Collector, logDir string) {
	if err := report.Write("autosynth.synth", collector, filepath.Join(logDir, "sponge_log.xml")); err != nil {
		log.Printf("[synth] writing report: %v", err)
	}
}
