package schedule

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// RunConfig represents one scheduled synthesis batch
type RunConfig struct {
	Name             string   `toml:"name"`
	Cron             string   `toml:"cron"`
	Config           string   `toml:"config"`
	Report           string   `toml:"report"`
	Args             []string `toml:"args"`
	NotifyOnComplete bool     `toml:"notify_on_complete"`
}

// ScheduleConfig holds all scheduled batch configurations
type ScheduleConfig struct {
	Batches []RunConfig `toml:"batch"`
}

// Validate checks if the config is valid
func (c *RunConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("batch name is required")
	}
	if c.Cron == "" {
		return fmt.Errorf("cron expression is required")
	}
	if _, err := ParseCron(c.Cron); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	if c.Config == "" {
		return fmt.Errorf("library config is required")
	}
	if c.Report == "" {
		c.Report = "sponge_log.xml" // Default
	}
	return nil
}

// LoadScheduleConfig loads the batch schedule from a TOML file
func LoadScheduleConfig(path string) (*ScheduleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ScheduleConfig{}, nil
		}
		return nil, err
	}

	var cfg ScheduleConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Validate all batches
	for i := range cfg.Batches {
		if err := cfg.Batches[i].Validate(); err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
	}

	return &cfg, nil
}
