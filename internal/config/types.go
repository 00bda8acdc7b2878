package config

// SchedulerConfig mirrors the scheduler's construction options.
type SchedulerConfig struct {
	MaxConcurrentTasks   int            `json:"max_concurrent_tasks"`   // Concurrency cap (default 10)
	SchedulingIntervalMS int            `json:"scheduling_interval_ms"` // Poll period in milliseconds (default 1000)
	PriorityWeights      map[string]int `json:"priority_weights"`       // Priority label -> ordering weight
}

// RunnerConfig tunes the task executor.
type RunnerConfig struct {
	Concurrency       int `json:"concurrency"`          // Max handlers executing at once
	RetryInitialMS    int `json:"retry_initial_ms"`     // First backoff interval
	RetryMaxMS        int `json:"retry_max_ms"`         // Backoff interval ceiling
	RetryMaxElapsedMS int `json:"retry_max_elapsed_ms"` // Total retry budget per task
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	ListenAddr string `json:"listen_addr"`
}

// TaskherdConfig is the top-level configuration.
type TaskherdConfig struct {
	Scheduler SchedulerConfig `json:"scheduler"`
	Runner    RunnerConfig    `json:"runner"`
	API       APIConfig       `json:"api"`
}
