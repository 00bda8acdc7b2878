package scheduler

import (
	"time"

	"github.com/taskherd/taskherd/internal/task"
)

// QueueStats summarizes the scheduler's collections.
type QueueStats struct {
	Queued         map[task.Priority]int `json:"queued"`
	Active         map[task.Priority]int `json:"active"`
	TotalCompleted int                   `json:"total_completed"`
	AverageWait    time.Duration         `json:"average_wait"`
}

// GetQueueStats returns per-priority counts for the queued and active sets,
// the total completed count, and the average wait time: the mean of
// startedAt-createdAt over completed tasks carrying both timestamps, or 0
// when no such task exists.
func (s *Scheduler) GetQueueStats() QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := QueueStats{
		Queued:         make(map[task.Priority]int),
		Active:         make(map[task.Priority]int),
		TotalCompleted: len(s.completed),
	}

	for _, t := range s.queued {
		stats.Queued[t.Priority]++
	}
	for _, t := range s.active {
		stats.Active[t.Priority]++
	}

	var total time.Duration
	counted := 0
	for _, t := range s.completed {
		if t.StartedAt.IsZero() || t.CreatedAt.IsZero() {
			continue
		}
		total += t.StartedAt.Sub(t.CreatedAt)
		counted++
	}
	if counted > 0 {
		stats.AverageWait = total / time.Duration(counted)
	}

	return stats
}
