package events

import (
	"time"

	"github.com/taskherd/taskherd/internal/task"
)

// Event is the base interface for all scheduler notifications.
type Event interface {
	EventType() string
	TaskID() string
}

// Event type constants
const (
	EventTypeStarted               = "scheduler.started"
	EventTypeStopped               = "scheduler.stopped"
	EventTypeTaskScheduled         = "task.scheduled"
	EventTypeTaskCancelled         = "task.cancelled"
	EventTypeTaskRescheduled       = "task.rescheduled"
	EventTypeTaskReady             = "task.ready"
	EventTypeTaskFinished          = "task.finished"
	EventTypeDependenciesSatisfied = "task.dependencies_satisfied"
)

// StartedEvent is published when the scheduler's poll loop starts.
type StartedEvent struct {
	Timestamp time.Time
}

func (e StartedEvent) EventType() string { return EventTypeStarted }
func (e StartedEvent) TaskID() string    { return "" }

// StoppedEvent is published when the scheduler's poll loop stops.
type StoppedEvent struct {
	Timestamp time.Time
}

func (e StoppedEvent) EventType() string { return EventTypeStopped }
func (e StoppedEvent) TaskID() string    { return "" }

// TaskScheduledEvent is published when a task is accepted into the queue.
type TaskScheduledEvent struct {
	Task      *task.Task
	Timestamp time.Time
}

func (e TaskScheduledEvent) EventType() string { return EventTypeTaskScheduled }
func (e TaskScheduledEvent) TaskID() string    { return e.Task.ID }

// TaskCancelledEvent is published when a queued or active task is withdrawn.
type TaskCancelledEvent struct {
	Task      *task.Task
	Timestamp time.Time
}

func (e TaskCancelledEvent) EventType() string { return EventTypeTaskCancelled }
func (e TaskCancelledEvent) TaskID() string    { return e.Task.ID }

// TaskRescheduledEvent is published when a queued task's priority changes.
type TaskRescheduledEvent struct {
	Task      *task.Task
	Timestamp time.Time
}

func (e TaskRescheduledEvent) EventType() string { return EventTypeTaskRescheduled }
func (e TaskRescheduledEvent) TaskID() string    { return e.Task.ID }

// TaskReadyEvent is published when the poll cycle promotes a task into the
// active set.
type TaskReadyEvent struct {
	Task      *task.Task
	Timestamp time.Time
}

func (e TaskReadyEvent) EventType() string { return EventTypeTaskReady }
func (e TaskReadyEvent) TaskID() string    { return e.Task.ID }

// TaskFinishedEvent is published when an active task completes or fails.
type TaskFinishedEvent struct {
	Task      *task.Task
	Success   bool
	Timestamp time.Time
}

func (e TaskFinishedEvent) EventType() string { return EventTypeTaskFinished }
func (e TaskFinishedEvent) TaskID() string    { return e.Task.ID }

// DependenciesSatisfiedEvent announces that a queued task's dependencies are
// now fully satisfied. Notification only: promotion happens in the poll cycle.
type DependenciesSatisfiedEvent struct {
	Task      *task.Task
	Timestamp time.Time
}

func (e DependenciesSatisfiedEvent) EventType() string { return EventTypeDependenciesSatisfied }
func (e DependenciesSatisfiedEvent) TaskID() string    { return e.Task.ID }
