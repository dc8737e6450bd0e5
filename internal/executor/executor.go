// Package executor runs generator subprocesses, capturing their combined
// output to memory and to a per-run log file.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hochfrequenz/autosynth/internal/report"
)

// ProcessFailure reports a checked command that exited non-zero. It carries
// the captured output so callers can still inspect or log it.
type ProcessFailure struct {
	Command  []string
	ExitCode int
	Output   string
}

func (e *ProcessFailure) Error() string {
	return fmt.Sprintf("command %q exited with code %d", strings.Join(e.Command, " "), e.ExitCode)
}

// syncWriter serializes writes from the stdout and stderr copiers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Execute runs command in the current directory. See ExecuteIn.
func Execute(ctx context.Context, command []string, logPath string, env []string, check bool) (int, string, error) {
	return ExecuteIn(ctx, "", command, logPath, env, check)
}

// ExecuteIn runs command in dir with the given environment, streaming
// combined stdout+stderr to logPath (parent directories created as needed)
// and to an in-memory buffer. It returns the exit code and the captured
// text.
//
// When check is true a non-zero exit is returned as a *ProcessFailure.
// Callers that need the output of a failing command pass check=false and
// inspect the exit code themselves.
func ExecuteIn(ctx context.Context, dir string, command []string, logPath string, env []string, check bool) (int, string, error) {
	if len(command) == 0 {
		return -1, "", errors.New("empty command")
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return -1, "", fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return -1, "", fmt.Errorf("create log file: %w", err)
	}
	defer logFile.Close()

	var buf strings.Builder
	out := &syncWriter{w: io.MultiWriter(&buf, logFile)}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = out
	cmd.Stderr = out

	runErr := cmd.Run()
	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return -1, buf.String(), fmt.Errorf("run %s: %w", command[0], runErr)
		}
	}

	if check && exitCode != 0 {
		return exitCode, buf.String(), &ProcessFailure{
			Command:  command,
			ExitCode: exitCode,
			Output:   buf.String(),
		}
	}
	return exitCode, buf.String(), nil
}

// LogCapturing wraps Execute and records each run in a collector. The
// success of an entry is decided by the injected classifier, so a sentinel
// "skipped" exit code can be recorded as non-failing.
type LogCapturing struct {
	collector *report.Collector
	isSuccess func(exitCode int) bool
}

// NewLogCapturing creates a capturing executor. isSuccess maps an exit code
// to the entry's success flag; nil means exit code zero only.
func NewLogCapturing(c *report.Collector, isSuccess func(int) bool) *LogCapturing {
	if isSuccess == nil {
		isSuccess = func(code int) bool { return code == 0 }
	}
	return &LogCapturing{collector: c, isSuccess: isSuccess}
}

// Execute runs the command with check=false and appends a log entry for it.
func (l *LogCapturing) Execute(ctx context.Context, name string, command []string, logPath string, env []string) (int, string, error) {
	return l.ExecuteIn(ctx, name, "", command, logPath, env)
}

// ExecuteIn is Execute with an explicit working directory.
func (l *LogCapturing) ExecuteIn(ctx context.Context, name, dir string, command []string, logPath string, env []string) (int, string, error) {
	code, output, err := ExecuteIn(ctx, dir, command, logPath, env, false)
	if err != nil {
		return code, output, err
	}
	l.collector.AddEntry(name, output, l.isSuccess(code))
	return code, output, nil
}
