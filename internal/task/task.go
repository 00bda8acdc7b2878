package task

import (
	"errors"
	"time"
)

// Priority orders tasks within the scheduler queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Status represents the current state of a task.
type Status string

const (
	StatusPending    Status = "pending"     // Queued, waiting for promotion
	StatusInProgress Status = "in_progress" // Admitted to the active set
	StatusCompleted  Status = "completed"   // Finished successfully
	StatusFailed     Status = "failed"      // Finished with error
	StatusCancelled  Status = "cancelled"   // Withdrawn before or during execution
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from one status to another is legal:
// pending -> in_progress -> {completed, failed}, and any non-terminal
// status -> cancelled.
func CanTransition(from, to Status) bool {
	switch to {
	case StatusInProgress:
		return from == StatusPending
	case StatusCompleted, StatusFailed:
		return from == StatusInProgress
	case StatusCancelled:
		return !from.Terminal()
	default:
		return false
	}
}

var (
	ErrMissingID    = errors.New("task id is required")
	ErrMissingTitle = errors.New("task title is required")
)

// Task represents a unit of schedulable work. The scheduler exclusively owns
// the status, progress, and timestamp fields once a task is submitted;
// callers receive clones and must not mutate a submitted task directly.
type Task struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Priority     Priority       `json:"priority"`
	Status       Status         `json:"status"`
	Dependencies []string       `json:"dependencies,omitempty"` // Task IDs that must complete first
	Capabilities []string       `json:"capabilities,omitempty"` // Capability tags an executor must provide
	Input        map[string]any `json:"input,omitempty"`
	Output       map[string]any `json:"output,omitempty"`
	Progress     int            `json:"progress"` // Percentage, 0-100

	EstimatedDuration time.Duration `json:"estimated_duration,omitempty"`
	ActualDuration    time.Duration `json:"actual_duration,omitempty"`

	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate checks the fields a caller must populate before scheduling.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}
	if t.Title == "" {
		return ErrMissingTitle
	}
	return nil
}

// Clone returns a deep copy. Slices and maps are copied one level deep,
// which covers everything the scheduler mutates.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}

	cp := *t
	if t.Dependencies != nil {
		cp.Dependencies = append([]string(nil), t.Dependencies...)
	}
	if t.Capabilities != nil {
		cp.Capabilities = append([]string(nil), t.Capabilities...)
	}
	cp.Input = cloneMap(t.Input)
	cp.Output = cloneMap(t.Output)
	cp.Metadata = cloneMap(t.Metadata)
	return &cp
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cloned := make(map[string]any, len(m))
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}
