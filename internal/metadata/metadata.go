// Package metadata records what went into a generated client: source
// repositories with their pinned commits, the generator that ran, and the
// files it produced. The record is written as synth.metadata next to the
// generated code.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// GitSource pins one input repository.
type GitSource struct {
	Name   string `json:"name,omitempty"`
	Remote string `json:"remote,omitempty"`
	Sha    string `json:"sha,omitempty"`
}

// GeneratorSource identifies the code generator that ran.
type GeneratorSource struct {
	Name        string `json:"name,omitempty"`
	Version     string `json:"version,omitempty"`
	DockerImage string `json:"dockerImage,omitempty"`
}

// TemplateSource identifies a template set applied to the output.
type TemplateSource struct {
	Name    string `json:"name,omitempty"`
	Origin  string `json:"origin,omitempty"`
	Version string `json:"version,omitempty"`
}

// Source is a tagged union: exactly one field is set.
type Source struct {
	Git       *GitSource       `json:"git,omitempty"`
	Generator *GeneratorSource `json:"generator,omitempty"`
	Template  *TemplateSource  `json:"template,omitempty"`
}

// ClientDestination describes one generated client library.
type ClientDestination struct {
	Source       string `json:"source,omitempty"`
	APIName      string `json:"apiName,omitempty"`
	APIVersion   string `json:"apiVersion,omitempty"`
	Language     string `json:"language,omitempty"`
	GeneratorStr string `json:"generator,omitempty"`
	Config       string `json:"config,omitempty"`
}

// Metadata is the full synth.metadata document.
type Metadata struct {
	UpdateTime   string              `json:"updateTime,omitempty"`
	Sources      []Source            `json:"sources,omitempty"`
	Destinations []ClientDestination `json:"destinations,omitempty"`
}

// Recorder accumulates metadata during one synthesis run. The zero value
// is ready to use.
type Recorder struct {
	metadata Metadata
	now      func() time.Time
}

// Reset drops everything recorded so far, for reuse across runs.
func (r *Recorder) Reset() {
	r.metadata = Metadata{}
}

// Get returns a copy of the current record.
func (r *Recorder) Get() Metadata {
	return r.metadata
}

// AddGitSource records a pinned input repository.
func (r *Recorder) AddGitSource(name, remote, sha string) {
	r.metadata.Sources = append(r.metadata.Sources, Source{
		Git: &GitSource{Name: name, Remote: remote, Sha: sha},
	})
}

// AddGeneratorSource records the generator.
func (r *Recorder) AddGeneratorSource(name, version, dockerImage string) {
	r.metadata.Sources = append(r.metadata.Sources, Source{
		Generator: &GeneratorSource{Name: name, Version: version, DockerImage: dockerImage},
	})
}

// AddTemplateSource records an applied template set.
func (r *Recorder) AddTemplateSource(name, origin, version string) {
	r.metadata.Sources = append(r.metadata.Sources, Source{
		Template: &TemplateSource{Name: name, Origin: origin, Version: version},
	})
}

// AddClientDestination records one generated client.
func (r *Recorder) AddClientDestination(dest ClientDestination) {
	r.metadata.Destinations = append(r.metadata.Destinations, dest)
}

// Write stamps the record with the current time and writes it as indented
// JSON to path.
func (r *Recorder) Write(path string) error {
	clock := r.now
	if clock == nil {
		clock = time.Now
	}
	r.metadata.UpdateTime = clock().UTC().Format(time.RFC3339Nano)

	data, err := json.MarshalIndent(r.metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// Read loads an existing synth.metadata file. A missing file returns an
// empty record, not an error: first runs have nothing to read.
func Read(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Metadata{}, nil
	}
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return m, nil
}
