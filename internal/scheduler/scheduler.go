package scheduler

import (
	"fmt"
	"log"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/taskherd/taskherd/internal/events"
	"github.com/taskherd/taskherd/internal/task"
)

// Default configuration values.
const (
	DefaultMaxConcurrentTasks = 10
	DefaultSchedulingInterval = time.Second
)

// DefaultPriorityWeights returns the built-in priority weight map.
// Priorities absent from the map weigh 1.
func DefaultPriorityWeights() map[task.Priority]int {
	return map[task.Priority]int{
		task.PriorityUrgent: 4,
		task.PriorityHigh:   3,
		task.PriorityMedium: 2,
		task.PriorityLow:    1,
	}
}

// Config holds the scheduler's construction options. Zero values fall back
// to the defaults above.
type Config struct {
	MaxConcurrentTasks int                   // Concurrency cap for the active set
	SchedulingInterval time.Duration         // Poll cycle period
	PriorityWeights    map[task.Priority]int // Priority label -> ordering weight
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentTasks <= 0 {
		c.MaxConcurrentTasks = DefaultMaxConcurrentTasks
	}
	if c.SchedulingInterval <= 0 {
		c.SchedulingInterval = DefaultSchedulingInterval
	}
	if c.PriorityWeights == nil {
		c.PriorityWeights = DefaultPriorityWeights()
	}
	return c
}

// DuplicateTaskError is returned by ScheduleTask when the task ID is already
// present in any of the three collections.
type DuplicateTaskError struct {
	ID string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task with ID %q already exists", e.ID)
}

// Scheduler owns the queued, active, and completed collections and promotes
// ready tasks into the active set on a recurring poll cycle, bounded by the
// concurrency cap.
//
// Once a task is submitted the scheduler exclusively owns its mutable
// status, progress, and timestamp fields; all getters return clones. The
// scheduler tracks state only — it never invokes or awaits task bodies.
type Scheduler struct {
	mu        sync.Mutex
	cfg       Config
	queued    []*task.Task // Ordered by the sort policy, promotion takes from the front
	active    map[string]*task.Task
	completed map[string]*task.Task // Holds both completed and failed tasks

	dispatcher *events.Dispatcher

	running bool
	stopCh  chan struct{}
}

// New creates a scheduler with the given configuration, publishing
// notifications through the dispatcher.
func New(cfg Config, dispatcher *events.Dispatcher) *Scheduler {
	s := &Scheduler{
		cfg:        cfg.withDefaults(),
		dispatcher: dispatcher,
	}
	s.Initialize()
	return s
}

// Initialize resets the three collections. Called by New; callers may invoke
// it again on a stopped scheduler to reuse the instance.
func (s *Scheduler) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queued = nil
	s.active = make(map[string]*task.Task)
	s.completed = make(map[string]*task.Task)
}

// ScheduleTask validates and enqueues a task. The ID must not collide with
// any task in the queued, active, or completed collections; collisions
// return a DuplicateTaskError and leave all collections untouched.
func (s *Scheduler) ScheduleTask(t *task.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.exists(t.ID) {
		s.mu.Unlock()
		return &DuplicateTaskError{ID: t.ID}
	}

	t.Status = task.StatusPending
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.queued = append(s.queued, t)
	s.sortQueued()
	snapshot := t.Clone()
	s.mu.Unlock()

	s.dispatcher.Dispatch(events.TaskScheduledEvent{Task: snapshot, Timestamp: time.Now()})
	return nil
}

// CancelTask withdraws a queued or active task. Cancelled tasks are dropped
// entirely rather than retained in the completed collection. Cancellation is
// cooperative: an active task's external work is not interrupted.
//
// Unknown and already-terminal IDs are ignored; the return value reports
// whether a task was cancelled.
func (s *Scheduler) CancelTask(id string) bool {
	s.mu.Lock()
	var cancelled *task.Task
	for i, t := range s.queued {
		if t.ID == id {
			s.queued = append(s.queued[:i], s.queued[i+1:]...)
			t.Status = task.StatusCancelled
			cancelled = t.Clone()
			break
		}
	}
	if cancelled == nil {
		if t, ok := s.active[id]; ok {
			delete(s.active, id)
			t.Status = task.StatusCancelled
			cancelled = t.Clone()
		}
	}
	s.mu.Unlock()

	if cancelled == nil {
		return false
	}

	s.dispatcher.Dispatch(events.TaskCancelledEvent{Task: cancelled, Timestamp: time.Now()})
	return true
}

// RescheduleTask overwrites the priority of a queued task and re-sorts the
// queue. Active and completed tasks cannot be rescheduled; an empty priority
// leaves a found task untouched. The return value reports whether the task
// was found in the queue.
func (s *Scheduler) RescheduleTask(id string, newPriority task.Priority) bool {
	s.mu.Lock()
	var snapshot *task.Task
	found := false
	for _, t := range s.queued {
		if t.ID != id {
			continue
		}
		found = true
		if newPriority != "" {
			t.Priority = newPriority
			s.sortQueued()
			snapshot = t.Clone()
		}
		break
	}
	s.mu.Unlock()

	if snapshot != nil {
		s.dispatcher.Dispatch(events.TaskRescheduledEvent{Task: snapshot, Timestamp: time.Now()})
	}
	return found
}

// OnTaskCompleted records the outcome of an active task. The task moves to
// the completed collection (failed outcomes included), and queued tasks
// whose dependencies just became fully satisfied are announced via
// DependenciesSatisfiedEvent. Announcement only — promotion happens in the
// poll cycle.
//
// A failed task is terminal and never re-queued; retrying requires a fresh
// ScheduleTask with a new ID. Unknown IDs are ignored (returns false).
func (s *Scheduler) OnTaskCompleted(id string, success bool) bool {
	now := time.Now()

	s.mu.Lock()
	t, ok := s.active[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.active, id)

	if success {
		t.Status = task.StatusCompleted
		t.Progress = 100
	} else {
		t.Status = task.StatusFailed
	}
	t.CompletedAt = now
	if !t.StartedAt.IsZero() {
		t.ActualDuration = now.Sub(t.StartedAt)
	}
	s.completed[id] = t

	evts := []events.Event{events.TaskFinishedEvent{Task: t.Clone(), Success: success, Timestamp: now}}
	if success {
		for _, qt := range s.queued {
			if slices.Contains(qt.Dependencies, id) && s.depsSatisfied(qt) {
				evts = append(evts, events.DependenciesSatisfiedEvent{Task: qt.Clone(), Timestamp: now})
			}
		}
	}
	s.mu.Unlock()

	for _, e := range evts {
		s.dispatcher.Dispatch(e)
	}
	return true
}

// Tick runs a single poll cycle: compute free slots and promote ready queued
// tasks in queue order until the slots are spent. Ordering was fixed at
// schedule/reschedule time; the poll cycle never re-sorts. Exported so tests
// and tools can drive the scheduler deterministically.
func (s *Scheduler) Tick() {
	now := time.Now()

	s.mu.Lock()
	slots := s.cfg.MaxConcurrentTasks - len(s.active)
	if slots <= 0 {
		s.mu.Unlock()
		return
	}

	var promoted []*task.Task
	remaining := s.queued[:0]
	for _, t := range s.queued {
		if len(promoted) < slots && s.depsSatisfied(t) {
			t.Status = task.StatusInProgress
			t.StartedAt = now
			s.active[t.ID] = t
			promoted = append(promoted, t.Clone())
			continue
		}
		remaining = append(remaining, t)
	}
	s.queued = remaining
	s.mu.Unlock()

	for _, t := range promoted {
		s.dispatcher.Dispatch(events.TaskReadyEvent{Task: t, Timestamp: now})
	}
}

// Start begins the poll loop. No-op if already running; a stopped scheduler
// can be started again.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	interval := s.cfg.SchedulingInterval
	s.mu.Unlock()

	go s.loop(stopCh, interval)

	log.Printf("Scheduler started (interval %v, max %d active)", interval, s.cfg.MaxConcurrentTasks)
	s.dispatcher.Dispatch(events.StartedEvent{Timestamp: time.Now()})
}

// Stop halts the poll loop. No-op if already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	log.Println("Scheduler stopped")
	s.dispatcher.Dispatch(events.StoppedEvent{Timestamp: time.Now()})
}

func (s *Scheduler) loop(stopCh chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// GetQueuedTasks returns the queued tasks in promotion order.
func (s *Scheduler) GetQueuedTasks() []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*task.Task, 0, len(s.queued))
	for _, t := range s.queued {
		tasks = append(tasks, t.Clone())
	}
	return tasks
}

// GetActiveTasks returns the tasks currently in the active set.
func (s *Scheduler) GetActiveTasks() []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*task.Task, 0, len(s.active))
	for _, t := range s.active {
		tasks = append(tasks, t.Clone())
	}
	return tasks
}

// GetCompletedTasks returns the terminal collection, failed tasks included.
func (s *Scheduler) GetCompletedTasks() []*task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*task.Task, 0, len(s.completed))
	for _, t := range s.completed {
		tasks = append(tasks, t.Clone())
	}
	return tasks
}

// GetTask looks a task up across all three collections.
func (s *Scheduler) GetTask(id string) (*task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.active[id]; ok {
		return t.Clone(), true
	}
	if t, ok := s.completed[id]; ok {
		return t.Clone(), true
	}
	for _, t := range s.queued {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return nil, false
}

// exists reports whether the ID is present in any collection.
// Caller must hold s.mu.
func (s *Scheduler) exists(id string) bool {
	if _, ok := s.active[id]; ok {
		return true
	}
	if _, ok := s.completed[id]; ok {
		return true
	}
	for _, t := range s.queued {
		if t.ID == id {
			return true
		}
	}
	return false
}

// depsSatisfied reports whether every dependency resolves to a successfully
// completed task. Failed dependencies never satisfy. Caller must hold s.mu.
func (s *Scheduler) depsSatisfied(t *task.Task) bool {
	for _, depID := range t.Dependencies {
		dep, ok := s.completed[depID]
		if !ok || dep.Status != task.StatusCompleted {
			return false
		}
	}
	return true
}

// sortQueued applies the ordering policy: fewer declared dependencies first,
// then higher priority weight, then earlier creation time. The dependency
// comparison uses the raw count of declared IDs, not dependency depth — a
// task with three satisfied dependencies still sorts behind a task with one
// unsatisfied dependency. Stable, so equal tasks keep arrival order.
// Caller must hold s.mu.
func (s *Scheduler) sortQueued() {
	sort.SliceStable(s.queued, func(i, j int) bool {
		a, b := s.queued[i], s.queued[j]
		if len(a.Dependencies) != len(b.Dependencies) {
			return len(a.Dependencies) < len(b.Dependencies)
		}
		wa, wb := s.weightFor(a.Priority), s.weightFor(b.Priority)
		if wa != wb {
			return wa > wb
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// weightFor looks up the ordering weight for a priority label.
// Unknown labels weigh 1.
func (s *Scheduler) weightFor(p task.Priority) int {
	if w, ok := s.cfg.PriorityWeights[p]; ok {
		return w
	}
	return 1
}
