package gapic

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hochfrequenz/autosynth/internal/metadata"
)

// stubRunner records docker invocations and plants output files so the
// emptiness check passes.
type stubRunner struct {
	commands  [][]string
	outputDir string
	plant     bool
}

func (s *stubRunner) run(ctx context.Context, dir string, command []string, logPath string, env []string, check bool) (int, string, error) {
	s.commands = append(s.commands, command)
	if s.plant && command[1] == "run" {
		if err := os.WriteFile(filepath.Join(s.outputDir, "Speech.java"), []byte("class Speech {}"), 0o644); err != nil {
			return -1, "", err
		}
	}
	return 0, "", nil
}

func setupProtoDir(t *testing.T) string {
	t.Helper()
	googleapis := t.TempDir()
	protoDir := filepath.Join(googleapis, "google", "cloud", "speech", "v1")
	if err := os.MkdirAll(protoDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(protoDir, "speech.proto"), []byte("syntax = \"proto3\";"), 0o644); err != nil {
		t.Fatal(err)
	}
	return googleapis
}

func TestGenerate(t *testing.T) {
	googleapis := setupProtoDir(t)
	outputDir := t.TempDir()
	stub := &stubRunner{outputDir: outputDir, plant: true}
	var rec metadata.Recorder

	got, err := Generate(context.Background(), Options{
		Service:       "speech",
		Version:       "v1",
		Language:      "java",
		GoogleapisDir: googleapis,
		OutputDir:     outputDir,
		Recorder:      &rec,
		Run:           stub.run,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != outputDir {
		t.Errorf("output dir = %q, want %q", got, outputDir)
	}

	if len(stub.commands) != 2 {
		t.Fatalf("docker invoked %d times, want pull+run", len(stub.commands))
	}
	pull := strings.Join(stub.commands[0], " ")
	if pull != "docker pull gcr.io/gapic-images/gapic-generator-java:latest" {
		t.Errorf("pull command = %q", pull)
	}
	run := strings.Join(stub.commands[1], " ")
	if !strings.Contains(run, "destination=/in/google/cloud/speech/v1,readonly") {
		t.Errorf("run command missing proto mount: %q", run)
	}
	if !strings.Contains(run, "destination=/out") {
		t.Errorf("run command missing output mount: %q", run)
	}

	dests := rec.Get().Destinations
	if len(dests) != 1 || dests[0].APIName != "speech" || dests[0].Language != "java" {
		t.Errorf("recorded destinations = %+v", dests)
	}
}

func TestGenerateMissingProtoDir(t *testing.T) {
	stub := &stubRunner{}
	_, err := Generate(context.Background(), Options{
		Service:       "speech",
		Version:       "v1",
		Language:      "java",
		GoogleapisDir: t.TempDir(),
		OutputDir:     t.TempDir(),
		Run:           stub.run,
	})
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("err = %v, want missing proto dir", err)
	}
	if len(stub.commands) != 0 {
		t.Error("docker invoked despite missing protos")
	}
}

func TestGenerateEmptyOutput(t *testing.T) {
	googleapis := setupProtoDir(t)
	stub := &stubRunner{plant: false}
	_, err := Generate(context.Background(), Options{
		Service:       "speech",
		Version:       "v1",
		Language:      "java",
		GoogleapisDir: googleapis,
		OutputDir:     t.TempDir(),
		Run:           stub.run,
	})
	if err == nil || !strings.Contains(err.Error(), "no output") {
		t.Errorf("err = %v, want empty-output error", err)
	}
}

func TestImageSelection(t *testing.T) {
	o := &Options{Language: "java"}
	if got := o.image(); got != "gcr.io/gapic-images/gapic-generator-java:latest" {
		t.Errorf("default image = %q", got)
	}
	o = &Options{Language: "python", ImageRegistry: "eu.gcr.io/x", GeneratorVersion: "2.1.0"}
	if got := o.image(); got != "eu.gcr.io/x/gapic-generator-python:2.1.0" {
		t.Errorf("custom image = %q", got)
	}
}
