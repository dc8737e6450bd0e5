// Package config loads the tool configuration and the per-run library list.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config holds tool-level settings, loaded from a TOML file.
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Generator     GeneratorConfig     `toml:"generator"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// GeneralConfig holds paths used by every run.
type GeneralConfig struct {
	LogsDir    string `toml:"logs_dir"`
	ReportPath string `toml:"report_path"`
}

// GeneratorConfig holds settings for the Docker-based generators.
type GeneratorConfig struct {
	ImageRegistry    string `toml:"image_registry"`
	GeneratorVersion string `toml:"generator_version"`
}

// NotificationsConfig holds notification settings.
type NotificationsConfig struct {
	SlackWebhook string `toml:"slack_webhook"`
	Desktop      bool   `toml:"desktop"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			LogsDir:    "logs",
			ReportPath: "sponge_log.xml",
		},
		Generator: GeneratorConfig{
			ImageRegistry:    "gcr.io/gapic-images",
			GeneratorVersion: "latest",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.General.LogsDir = ExpandPath(cfg.General.LogsDir)
	cfg.General.ReportPath = ExpandPath(cfg.General.ReportPath)

	return cfg, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "autosynth", "config.toml")
}
