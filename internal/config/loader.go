package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from global and project paths.
// Order of precedence (highest to lowest): project config, global config, defaults.
// Missing files are not errors; malformed JSON returns an error.
func Load(globalPath, projectPath string) (*TaskherdConfig, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Merge global config if exists
	if globalPath != "" {
		if err := mergeConfigFile(cfg, globalPath); err != nil {
			return nil, fmt.Errorf("loading global config: %w", err)
		}
	}

	// Merge project config if exists (highest precedence)
	if projectPath != "" {
		if err := mergeConfigFile(cfg, projectPath); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return cfg, nil
}

// LoadDefault loads configuration from conventional paths.
// Global: ~/.taskherd/config.json
// Project: .taskherd/config.json (relative to cwd)
func LoadDefault() (*TaskherdConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	globalPath := filepath.Join(homeDir, ".taskherd", "config.json")
	projectPath := filepath.Join(".taskherd", "config.json")

	return Load(globalPath, projectPath)
}

// mergeConfigFile reads a JSON config file and merges it into the base config.
// Missing files are silently skipped. Malformed JSON returns an error.
// Scalar fields replace the base value only when set; priority weights merge
// per key so a file can override a single priority.
func mergeConfigFile(base *TaskherdConfig, path string) error {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Missing file is not an error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var loaded TaskherdConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if loaded.Scheduler.MaxConcurrentTasks > 0 {
		base.Scheduler.MaxConcurrentTasks = loaded.Scheduler.MaxConcurrentTasks
	}
	if loaded.Scheduler.SchedulingIntervalMS > 0 {
		base.Scheduler.SchedulingIntervalMS = loaded.Scheduler.SchedulingIntervalMS
	}
	for key, weight := range loaded.Scheduler.PriorityWeights {
		base.Scheduler.PriorityWeights[key] = weight
	}

	if loaded.Runner.Concurrency > 0 {
		base.Runner.Concurrency = loaded.Runner.Concurrency
	}
	if loaded.Runner.RetryInitialMS > 0 {
		base.Runner.RetryInitialMS = loaded.Runner.RetryInitialMS
	}
	if loaded.Runner.RetryMaxMS > 0 {
		base.Runner.RetryMaxMS = loaded.Runner.RetryMaxMS
	}
	if loaded.Runner.RetryMaxElapsedMS > 0 {
		base.Runner.RetryMaxElapsedMS = loaded.Runner.RetryMaxElapsedMS
	}

	if loaded.API.ListenAddr != "" {
		base.API.ListenAddr = loaded.API.ListenAddr
	}

	return nil
}
