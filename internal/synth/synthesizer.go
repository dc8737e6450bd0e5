package synth

import (
	"context"
	"path/filepath"

	"github.com/hochfrequenz/autosynth/internal/executor"
)

// Runner abstracts process execution for tests.
type Runner func(ctx context.Context, dir string, command []string, logPath string, env []string) (int, string, error)

// Synthesizer runs the generator step for one library.
type Synthesizer struct {
	// WorkDir is the directory the generator runs in (the clone, or the
	// synth path inside it).
	WorkDir string
	// MetadataPath is passed to the generator for provenance recording.
	MetadataPath string
	// Deprecated invokes the library's synth script directly instead of
	// going through the synthtool module. Older repos still need this.
	Deprecated bool
	// ExtraArgs are forwarded to the generator verbatim.
	ExtraArgs []string
	// Run executes the generator process. Defaults to a log-capturing
	// executor wired by the caller.
	Run Runner
}

// Command builds the generator invocation.
func (s *Synthesizer) Command() []string {
	if s.Deprecated {
		return append([]string{"python3", "synth.py"}, s.ExtraArgs...)
	}
	command := []string{"python3", "-m", "synthtool", "--metadata", s.MetadataPath}
	return append(command, s.ExtraArgs...)
}

// Synthesize runs the generator, capturing its log under logDir. Returns
// the captured output. A non-zero generator exit surfaces as a
// *executor.ProcessFailure carrying the output.
func (s *Synthesizer) Synthesize(ctx context.Context, logDir string, env []string) (string, error) {
	logPath := filepath.Join(logDir, "sponge_log.log")
	command := s.Command()

	run := s.Run
	if run == nil {
		run = func(ctx context.Context, dir string, command []string, logPath string, env []string) (int, string, error) {
			return executor.ExecuteIn(ctx, dir, command, logPath, env, false)
		}
	}

	code, output, err := run(ctx, s.WorkDir, command, logPath, env)
	if err != nil {
		return output, err
	}
	if code != 0 {
		return output, &executor.ProcessFailure{Command: command, ExitCode: code, Output: output}
	}
	return output, nil
}
