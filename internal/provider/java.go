package provider

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/hochfrequenz/autosynth/internal/config"
)

// seedLibraries are Java clients that live outside the discoverable repo
// layout and must always be part of the batch.
var seedLibraries = []config.Library{
	{
		Name:         "java-bigquerystorage",
		Repository:   "googleapis/java-bigquerystorage",
		MetadataPath: ".",
	},
}

// RepoBrowser is the read-only repository surface the discovery provider
// needs. tracker.GitHub implements it.
type RepoBrowser interface {
	ListDirectory(ctx context.Context, repository, path string) ([]string, error)
	FileExists(ctx context.Context, repository, path string) (bool, error)
}

// JavaDiscovery enumerates the per-client directories of the Java
// monorepo and emits one library per client that carries a synth script.
type JavaDiscovery struct {
	Client     RepoBrowser
	Repository string // defaults to googleapis/google-cloud-java
	ClientsDir string // defaults to google-cloud-clients
}

// Libraries performs the discovery.
func (j *JavaDiscovery) Libraries(ctx context.Context) ([]config.Library, error) {
	repository := j.Repository
	if repository == "" {
		repository = "googleapis/google-cloud-java"
	}
	clientsDir := j.ClientsDir
	if clientsDir == "" {
		clientsDir = "google-cloud-clients"
	}

	// Entries are full paths from the repository root, e.g.
	// "google-cloud-clients/google-cloud-speech".
	dirs, err := j.Client.ListDirectory(ctx, repository, clientsDir)
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", repository, clientsDir, err)
	}
	sort.Strings(dirs)

	var libraries []config.Library
	for _, dir := range dirs {
		exists, err := j.Client.FileExists(ctx, repository, dir+"/synth.py")
		if err != nil {
			return nil, fmt.Errorf("probe %s/%s: %w", repository, dir, err)
		}
		if !exists {
			continue
		}
		name := path.Base(dir)
		suffix := strings.TrimPrefix(name, "google-cloud-")
		libraries = append(libraries, config.Library{
			Name:         name,
			Repository:   repository,
			SynthPath:    dir,
			MetadataPath: dir,
			BranchSuffix: suffix,
			PRTitle: fmt.Sprintf(
				"[CHANGE ME] Re-generated %s to pick up changes in the API or client library generator.", name),
		})
	}
	return libraries, nil
}

// JavaLibraries is the "java" provider: the static seed list followed by
// every discovered monorepo client.
func JavaLibraries(ctx context.Context, browser RepoBrowser) ([]config.Library, error) {
	discovery := &JavaDiscovery{Client: browser}
	discovered, err := discovery.Libraries(ctx)
	if err != nil {
		return nil, err
	}
	libraries := append([]config.Library{}, seedLibraries...)
	return append(libraries, discovered...), nil
}

// RegisterJava wires the "java" provider against a live repository
// browser. Called from the command layer once a token is available.
func RegisterJava(browser RepoBrowser) {
	Register("java", func() ([]config.Library, error) {
		return JavaLibraries(context.Background(), browser)
	})
}
