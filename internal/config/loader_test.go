package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name string, cfg *TaskherdConfig) string {
	t.Helper()

	path := filepath.Join(dir, name)
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshaling config: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		globalConfig  *TaskherdConfig
		projectConfig *TaskherdConfig
		check         func(t *testing.T, cfg *TaskherdConfig)
	}{
		{
			name: "No config files - returns defaults",
			check: func(t *testing.T, cfg *TaskherdConfig) {
				if cfg.Scheduler.MaxConcurrentTasks != 10 {
					t.Errorf("max concurrent = %d, want 10", cfg.Scheduler.MaxConcurrentTasks)
				}
				if cfg.Scheduler.PriorityWeights["urgent"] != 4 {
					t.Errorf("urgent weight = %d, want 4", cfg.Scheduler.PriorityWeights["urgent"])
				}
				if cfg.API.ListenAddr != ":8080" {
					t.Errorf("listen addr = %q, want :8080", cfg.API.ListenAddr)
				}
			},
		},
		{
			name: "Global only - overrides scalar",
			globalConfig: &TaskherdConfig{
				Scheduler: SchedulerConfig{MaxConcurrentTasks: 3},
			},
			check: func(t *testing.T, cfg *TaskherdConfig) {
				if cfg.Scheduler.MaxConcurrentTasks != 3 {
					t.Errorf("max concurrent = %d, want 3", cfg.Scheduler.MaxConcurrentTasks)
				}
				// Untouched fields keep defaults
				if cfg.Scheduler.SchedulingIntervalMS != 1000 {
					t.Errorf("interval = %d, want default 1000", cfg.Scheduler.SchedulingIntervalMS)
				}
			},
		},
		{
			name: "Project overrides global - project wins",
			globalConfig: &TaskherdConfig{
				Scheduler: SchedulerConfig{MaxConcurrentTasks: 3},
				API:       APIConfig{ListenAddr: ":9000"},
			},
			projectConfig: &TaskherdConfig{
				Scheduler: SchedulerConfig{MaxConcurrentTasks: 7},
			},
			check: func(t *testing.T, cfg *TaskherdConfig) {
				if cfg.Scheduler.MaxConcurrentTasks != 7 {
					t.Errorf("max concurrent = %d, want project value 7", cfg.Scheduler.MaxConcurrentTasks)
				}
				// Global still applies where the project is silent
				if cfg.API.ListenAddr != ":9000" {
					t.Errorf("listen addr = %q, want global :9000", cfg.API.ListenAddr)
				}
			},
		},
		{
			name: "Priority weights merge per key",
			globalConfig: &TaskherdConfig{
				Scheduler: SchedulerConfig{
					PriorityWeights: map[string]int{"urgent": 10, "critical": 20},
				},
			},
			check: func(t *testing.T, cfg *TaskherdConfig) {
				if cfg.Scheduler.PriorityWeights["urgent"] != 10 {
					t.Errorf("urgent weight = %d, want 10", cfg.Scheduler.PriorityWeights["urgent"])
				}
				if cfg.Scheduler.PriorityWeights["critical"] != 20 {
					t.Errorf("custom weight = %d, want 20", cfg.Scheduler.PriorityWeights["critical"])
				}
				// Defaults survive for keys the file doesn't touch
				if cfg.Scheduler.PriorityWeights["low"] != 1 {
					t.Errorf("low weight = %d, want default 1", cfg.Scheduler.PriorityWeights["low"])
				}
			},
		},
		{
			name: "Runner overrides",
			projectConfig: &TaskherdConfig{
				Runner: RunnerConfig{Concurrency: 16, RetryInitialMS: 50},
			},
			check: func(t *testing.T, cfg *TaskherdConfig) {
				if cfg.Runner.Concurrency != 16 {
					t.Errorf("concurrency = %d, want 16", cfg.Runner.Concurrency)
				}
				if cfg.Runner.RetryInitialMS != 50 {
					t.Errorf("retry initial = %d, want 50", cfg.Runner.RetryInitialMS)
				}
				if cfg.Runner.RetryMaxMS != 10_000 {
					t.Errorf("retry max = %d, want default 10000", cfg.Runner.RetryMaxMS)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.globalConfig != nil {
				globalPath = writeConfig(t, tmpDir, "global.json", tt.globalConfig)
			}
			projectPath := ""
			if tt.projectConfig != nil {
				projectPath = writeConfig(t, tmpDir, "project.json", tt.projectConfig)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()

	globalPath := filepath.Join(tmpDir, "global.json")
	if err := os.WriteFile(globalPath, []byte("{invalid json"), 0644); err != nil {
		t.Fatalf("writing malformed config: %v", err)
	}

	if _, err := Load(globalPath, ""); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestLoad_MissingFilesNotError(t *testing.T) {
	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("expected no error for missing files, got: %v", err)
	}

	if cfg.Scheduler.MaxConcurrentTasks != 10 {
		t.Errorf("max concurrent = %d, want default 10", cfg.Scheduler.MaxConcurrentTasks)
	}
}
