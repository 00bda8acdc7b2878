package scheduler

import (
	"testing"
	"time"

	"github.com/taskherd/taskherd/internal/task"
)

func TestGetQueueStats_Empty(t *testing.T) {
	s, _ := newTestScheduler(10)

	stats := s.GetQueueStats()
	if len(stats.Queued) != 0 || len(stats.Active) != 0 {
		t.Errorf("expected empty maps, got %+v", stats)
	}
	if stats.TotalCompleted != 0 {
		t.Errorf("TotalCompleted = %d, want 0", stats.TotalCompleted)
	}
	if stats.AverageWait != 0 {
		t.Errorf("AverageWait = %v, want 0", stats.AverageWait)
	}
}

func TestGetQueueStats_Counts(t *testing.T) {
	s, _ := newTestScheduler(2)

	s.ScheduleTask(mkTask("a", task.PriorityHigh))
	s.ScheduleTask(mkTask("b", task.PriorityHigh))
	s.ScheduleTask(mkTask("c", task.PriorityLow))
	s.ScheduleTask(mkTask("d", task.PriorityLow))
	s.Tick() // promotes a and b

	s.OnTaskCompleted("a", true)

	stats := s.GetQueueStats()
	if got := stats.Queued[task.PriorityLow]; got != 2 {
		t.Errorf("queued low = %d, want 2", got)
	}
	if got := stats.Active[task.PriorityHigh]; got != 1 {
		t.Errorf("active high = %d, want 1", got)
	}
	if stats.TotalCompleted != 1 {
		t.Errorf("TotalCompleted = %d, want 1", stats.TotalCompleted)
	}
}

func TestGetQueueStats_AverageWait(t *testing.T) {
	s, _ := newTestScheduler(10)

	base := time.Now().Add(-time.Minute)
	s.ScheduleTask(&task.Task{ID: "a", Title: "a", Priority: task.PriorityMedium, CreatedAt: base})
	s.Tick()
	s.OnTaskCompleted("a", true)

	stats := s.GetQueueStats()
	// a waited roughly a minute between creation and promotion
	if stats.AverageWait < 50*time.Second {
		t.Errorf("AverageWait = %v, want around a minute", stats.AverageWait)
	}

	// Failed tasks count toward the average too
	s.ScheduleTask(&task.Task{ID: "b", Title: "b", Priority: task.PriorityMedium, CreatedAt: time.Now()})
	s.Tick()
	s.OnTaskCompleted("b", false)

	stats = s.GetQueueStats()
	if stats.TotalCompleted != 2 {
		t.Errorf("TotalCompleted = %d, want 2", stats.TotalCompleted)
	}
	if stats.AverageWait >= 50*time.Second {
		t.Errorf("AverageWait = %v, should drop once b's near-zero wait is averaged in", stats.AverageWait)
	}
}
