package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorderAccumulatesSources(t *testing.T) {
	var r Recorder
	r.AddGitSource("googleapis", "https://github.com/googleapis/googleapis.git", "abc123")
	r.AddGeneratorSource("gapic-generator-java", "1.0.0", "gcr.io/gapic-images/gapic-generator-java:1.0.0")
	r.AddTemplateSource("java_library", "synthtool", "2026.1")

	m := r.Get()
	if len(m.Sources) != 3 {
		t.Fatalf("sources = %d, want 3", len(m.Sources))
	}
	if m.Sources[0].Git == nil || m.Sources[0].Git.Sha != "abc123" {
		t.Errorf("git source = %+v", m.Sources[0])
	}
	if m.Sources[1].Generator == nil || m.Sources[1].Generator.Name != "gapic-generator-java" {
		t.Errorf("generator source = %+v", m.Sources[1])
	}
	if m.Sources[2].Template == nil || m.Sources[2].Template.Origin != "synthtool" {
		t.Errorf("template source = %+v", m.Sources[2])
	}
}

func TestRecorderReset(t *testing.T) {
	var r Recorder
	r.AddGitSource("a", "remote", "sha")
	r.Reset()
	if len(r.Get().Sources) != 0 {
		t.Error("Reset left sources behind")
	}
}

func TestWriteAndRead(t *testing.T) {
	fixed := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	r := Recorder{now: func() time.Time { return fixed }}
	r.AddGitSource("googleapis", "https://github.com/googleapis/googleapis.git", "abc123")
	r.AddClientDestination(ClientDestination{
		Source:     "googleapis",
		APIName:    "speech",
		APIVersion: "v1",
		Language:   "java",
	})

	path := filepath.Join(t.TempDir(), "nested", "synth.metadata")
	if err := r.Write(path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Fatalf("written metadata is not valid JSON:\n%s", data)
	}
	if !strings.Contains(string(data), `"updateTime": "2026-08-23T10:00:00Z"`) {
		t.Errorf("updateTime missing or wrong:\n%s", data)
	}

	m, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Sources) != 1 || m.Sources[0].Git.Name != "googleapis" {
		t.Errorf("round-tripped sources = %+v", m.Sources)
	}
	if len(m.Destinations) != 1 || m.Destinations[0].APIName != "speech" {
		t.Errorf("round-tripped destinations = %+v", m.Destinations)
	}
}

func TestReadMissingFile(t *testing.T) {
	m, err := Read(filepath.Join(t.TempDir(), "absent", "synth.metadata"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(m.Sources) != 0 {
		t.Errorf("missing file yielded sources: %+v", m)
	}
}
