// Package javafmt post-processes generated Java code: it runs
// google-java-format over the tree and repairs the license headers the
// proto and gRPC generators emit in the wrong position.
package javafmt

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hochfrequenz/autosynth/internal/executor"
)

// MavenMetadataURL is the version index for google-java-format.
const MavenMetadataURL = "https://repo1.maven.org/maven2/com/google/googlejavaformat/google-java-format/maven-metadata.xml"

// JarURLTemplate builds the download URL for one release.
const JarURLTemplate = "https://repo1.maven.org/maven2/com/google/googlejavaformat/google-java-format/%[1]s/google-java-format-%[1]s-all-deps.jar"

// VersionFromMetadata extracts versioning/latest from a maven-metadata.xml
// document.
func VersionFromMetadata(doc []byte) (string, error) {
	var meta struct {
		Versioning struct {
			Latest string `xml:"latest"`
		} `xml:"versioning"`
	}
	if err := xml.Unmarshal(doc, &meta); err != nil {
		return "", fmt.Errorf("parse maven metadata: %w", err)
	}
	if meta.Versioning.Latest == "" {
		return "", fmt.Errorf("maven metadata has no latest version")
	}
	return meta.Versioning.Latest, nil
}

// LatestMavenVersion queries the version index. Failures degrade to
// "0.0.0" so an offline run still formats with a cached jar.
func LatestMavenVersion(ctx context.Context, client *http.Client, metadataURL string) string {
	if client == nil {
		client = http.DefaultClient
	}
	if metadataURL == "" {
		metadataURL = MavenMetadataURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return "0.0.0"
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[javafmt] fetching formatter version: %v", err)
		return "0.0.0"
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("[javafmt] fetching formatter version: HTTP %d", resp.StatusCode)
		return "0.0.0"
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "0.0.0"
	}
	version, err := VersionFromMetadata(body)
	if err != nil {
		log.Printf("[javafmt] %v", err)
		return "0.0.0"
	}
	return version
}

// Formatter downloads and runs google-java-format.
type Formatter struct {
	// CacheDir holds downloaded jars, keyed by version. Defaults to
	// ~/.cache/autosynth.
	CacheDir string
	// Client fetches the jar. Nil uses http.DefaultClient.
	Client *http.Client
	// JarURL overrides the download URL, for tests.
	JarURL string
	// Run executes java. Nil uses the real executor.
	Run func(ctx context.Context, command []string, logPath string, env []string, check bool) (int, string, error)
}

func (f *Formatter) cacheDir() (string, error) {
	if f.CacheDir != "" {
		return f.CacheDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "autosynth"), nil
}

// EnsureJar returns the path to the formatter jar for version, downloading
// it on first use.
func (f *Formatter) EnsureJar(ctx context.Context, version string) (string, error) {
	cacheDir, err := f.cacheDir()
	if err != nil {
		return "", err
	}
	jarPath := filepath.Join(cacheDir, fmt.Sprintf("google-java-format-%s-all-deps.jar", version))
	if _, err := os.Stat(jarPath); err == nil {
		return jarPath, nil
	}

	url := f.JarURL
	if url == "" {
		url = fmt.Sprintf(JarURLTemplate, version)
	}
	log.Printf("[javafmt] downloading %s", url)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download formatter: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("download formatter: HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(cacheDir, "jar-")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("download formatter: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), jarPath); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return jarPath, nil
}

// FormatCode formats every .java file under the given directories in
// place.
func (f *Formatter) FormatCode(ctx context.Context, version string, dirs ...string) error {
	var files []string
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".java") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		return nil
	}

	jarPath, err := f.EnsureJar(ctx, version)
	if err != nil {
		return err
	}

	run := f.Run
	if run == nil {
		run = executor.Execute
	}
	command := append([]string{"java", "-jar", jarPath, "--replace"}, files...)
	logPath := filepath.Join(os.TempDir(), "autosynth-javafmt.log")
	if _, _, err := run(ctx, command, logPath, nil, true); err != nil {
		return fmt.Errorf("google-java-format: %w", err)
	}
	return nil
}

// The proto and gRPC code generators emit the license header after the
// package statement. These patterns lift it back to the top of the file.
var (
	protoHeaderRe = regexp.MustCompile(`(?s)^(// Generated by the protocol buffer compiler\..*?)(// Copyright.*?limitations under the License\.\n)`)
	grpcHeaderRe  = regexp.MustCompile(`(?s)^(package .*?;\n)(/\*\n \* Copyright.*?\*/\n)`)
)

// FixProtoHeaders moves misplaced Apache headers above the
// compiler-generated banner in every .java file under dir.
func FixProtoHeaders(dir string) error {
	return rewriteJavaFiles(dir, func(content string) string {
		return protoHeaderRe.ReplaceAllString(content, "$2$1")
	})
}

// FixGrpcHeaders moves misplaced block-comment headers above the package
// statement in every .java file under dir.
func FixGrpcHeaders(dir string) error {
	return rewriteJavaFiles(dir, func(content string) string {
		return grpcHeaderRe.ReplaceAllString(content, "$2$1")
	})
}

func rewriteJavaFiles(dir string, fix func(string) string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".java") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		fixed := fix(string(data))
		if fixed == string(data) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.WriteFile(path, []byte(fixed), info.Mode().Perm())
	})
}
