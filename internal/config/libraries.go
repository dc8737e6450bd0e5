package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Library describes one target repository to synthesize. Field names match
// the configuration YAML consumed by earlier versions of the tool.
type Library struct {
	Name                string   `yaml:"name"`
	Repository          string   `yaml:"repository"`
	SynthPath           string   `yaml:"synth-path"`
	BranchSuffix        string   `yaml:"branch-suffix"`
	PRTitle             string   `yaml:"pr-title"`
	MetadataPath        string   `yaml:"metadata-path"`
	DeprecatedExecution bool     `yaml:"deprecated-execution"`
	HideSynthLog        bool     `yaml:"hide-synth-log"`
	NoCreateIssue       bool     `yaml:"no_create_issue"`
	Args                []string `yaml:"args"`
}

// ErrNoConfig reports that neither a YAML file nor a registered provider
// yielded a library list.
var ErrNoConfig = errors.New("no configuration could be loaded")

// ProviderFunc yields a library list, the provider-module analogue of a
// config file.
type ProviderFunc func() ([]Library, error)

// ProviderLookup resolves a provider name to its ProviderFunc.
type ProviderLookup func(name string) (ProviderFunc, bool)

// Source yields the library list for one batch run.
type Source interface {
	Load() ([]Library, error)
}

// FileSource reads libraries from a YAML document with a top-level
// "libraries" sequence.
type FileSource struct {
	Path string
}

// Load parses the YAML file.
func (s FileSource) Load() ([]Library, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", s.Path, err)
	}

	var doc struct {
		Libraries []Library `yaml:"libraries"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", s.Path, err)
	}
	if doc.Libraries == nil {
		return nil, fmt.Errorf("config %s: missing top-level \"libraries\" key", s.Path)
	}
	return doc.Libraries, nil
}

// ProviderSource asks a registered provider for the library list.
type ProviderSource struct {
	Name     string
	Provider ProviderFunc
}

// Load invokes the provider.
func (s ProviderSource) Load() ([]Library, error) {
	libraries, err := s.Provider()
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", s.Name, err)
	}
	return libraries, nil
}

// Resolve probes for a configuration source: a YAML file at path first,
// else a provider registered under that name. Returns ErrNoConfig when
// neither exists. Resolution happens once, at startup.
func Resolve(path string, lookup ProviderLookup) (Source, error) {
	if _, err := os.Stat(path); err == nil {
		return FileSource{Path: path}, nil
	}
	if lookup != nil {
		if fn, ok := lookup(path); ok {
			return ProviderSource{Name: path, Provider: fn}, nil
		}
	}
	return nil, ErrNoConfig
}
