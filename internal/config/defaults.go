package config

// DefaultConfig returns the default configuration.
func DefaultConfig() *TaskherdConfig {
	return &TaskherdConfig{
		Scheduler: SchedulerConfig{
			MaxConcurrentTasks:   10,
			SchedulingIntervalMS: 1000,
			PriorityWeights: map[string]int{
				"urgent": 4,
				"high":   3,
				"medium": 2,
				"low":    1,
			},
		},
		Runner: RunnerConfig{
			Concurrency:       4,
			RetryInitialMS:    100,
			RetryMaxMS:        10_000,
			RetryMaxElapsedMS: 120_000,
		},
		API: APIConfig{
			ListenAddr: ":8080",
		},
	}
}
