// Package gapic generates client library code by running a language
// generator Docker image against a local proto tree.
package gapic

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hochfrequenz/autosynth/internal/executor"
	"github.com/hochfrequenz/autosynth/internal/metadata"
)

// Runner executes one external process. Tests substitute a stub.
type Runner func(ctx context.Context, dir string, command []string, logPath string, env []string, check bool) (int, string, error)

// Options configures one generation run.
type Options struct {
	// Service is the short API name, e.g. "speech".
	Service string
	// Version is the API version, e.g. "v1".
	Version string
	// Language selects the generator image, e.g. "java".
	Language string
	// ProtoPath is the path of the service protos inside GoogleapisDir,
	// e.g. "google/cloud/speech/v1". Derived from Service/Version when
	// empty.
	ProtoPath string
	// GoogleapisDir is a local checkout of the proto repository.
	GoogleapisDir string
	// ImageRegistry and GeneratorVersion select the Docker image. Both
	// default from the tool config.
	ImageRegistry    string
	GeneratorVersion string
	// OutputDir receives the generated tree.
	OutputDir string
	// LogPath captures the generator's combined output.
	LogPath string
	// Recorder, when set, gets a client destination entry per run.
	Recorder *metadata.Recorder
	// Run executes docker. Nil uses the real executor.
	Run Runner
}

func (o *Options) protoPath() string {
	if o.ProtoPath != "" {
		return strings.Trim(o.ProtoPath, "/")
	}
	return fmt.Sprintf("google/cloud/%s/%s", o.Service, o.Version)
}

func (o *Options) image() string {
	registry := o.ImageRegistry
	if registry == "" {
		registry = "gcr.io/gapic-images"
	}
	version := o.GeneratorVersion
	if version == "" {
		version = "latest"
	}
	return fmt.Sprintf("%s/gapic-generator-%s:%s", registry, o.Language, version)
}

// EnsureDependencies verifies the external tools generation needs are on
// PATH. Called once before a batch of generations.
func EnsureDependencies() error {
	for _, tool := range []string{"docker", "git"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s is required for code generation: %w", tool, err)
		}
	}
	return nil
}

// Generate runs the generator image and returns the output directory.
func Generate(ctx context.Context, opts Options) (string, error) {
	if opts.Service == "" || opts.Version == "" || opts.Language == "" {
		return "", fmt.Errorf("service, version and language are required")
	}

	protoPath := opts.protoPath()
	protoDir := filepath.Join(opts.GoogleapisDir, filepath.FromSlash(protoPath))
	if info, err := os.Stat(protoDir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("proto directory %s does not exist", protoDir)
	}
	if empty, err := dirIsEmpty(protoDir); err != nil {
		return "", err
	} else if empty {
		return "", fmt.Errorf("proto directory %s is empty", protoDir)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		dir, err := os.MkdirTemp("", "autosynth-gapic-")
		if err != nil {
			return "", err
		}
		outputDir = dir
	}

	run := opts.Run
	if run == nil {
		run = executor.ExecuteIn
	}
	logPath := opts.LogPath
	if logPath == "" {
		// Kept out of outputDir so the emptiness check below only sees
		// generator output.
		logPath = filepath.Join(os.TempDir(), "autosynth-gapic.log")
	}

	image := opts.image()
	log.Printf("[gapic] generating %s/%s with %s", opts.Service, opts.Version, image)

	if _, _, err := run(ctx, "", []string{"docker", "pull", image}, logPath, nil, true); err != nil {
		return "", fmt.Errorf("pull generator image: %w", err)
	}

	command := []string{
		"docker", "run", "--rm",
		"--user", fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		"--mount", fmt.Sprintf("type=bind,source=%s,destination=/in/%s,readonly", protoDir, protoPath),
		"--mount", fmt.Sprintf("type=bind,source=%s,destination=/out", outputDir),
		image,
	}
	if _, _, err := run(ctx, "", command, logPath, nil, true); err != nil {
		return "", fmt.Errorf("run generator: %w", err)
	}

	if empty, err := dirIsEmpty(outputDir); err != nil {
		return "", err
	} else if empty {
		return "", fmt.Errorf("generator produced no output for %s/%s", opts.Service, opts.Version)
	}

	if opts.Recorder != nil {
		opts.Recorder.AddClientDestination(metadata.ClientDestination{
			Source:       "googleapis",
			APIName:      opts.Service,
			APIVersion:   opts.Version,
			Language:     opts.Language,
			GeneratorStr: fmt.Sprintf("gapic-generator-%s", opts.Language),
		})
	}
	return outputDir, nil
}

func dirIsEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
