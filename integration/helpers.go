//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"
)

// TempConfigPath creates a temporary settings file path for testing
func TempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.toml")
}

// WriteLibraryConfig writes a library YAML config and returns its path
func WriteLibraryConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libraries.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("Failed to write library config: %v", err)
	}
	return path
}

// WriteSettings writes a tool settings TOML file and returns its path
func WriteSettings(t *testing.T, toml string) string {
	t.Helper()
	path := TempConfigPath(t)
	if err := os.WriteFile(path, []byte(toml), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}
	return path
}
