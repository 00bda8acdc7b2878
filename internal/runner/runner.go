package runner

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/taskherd/taskherd/internal/events"
	"github.com/taskherd/taskherd/internal/scheduler"
	"github.com/taskherd/taskherd/internal/task"
)

// Handler executes the body of a task. The error return decides the success
// flag reported back to the scheduler.
type Handler func(ctx context.Context, t *task.Task) error

// DefaultCapability is the handler key used for tasks that declare no
// capability tags.
const DefaultCapability = "default"

// Config configures the runner.
type Config struct {
	Concurrency int         // Max handlers executing at once (default 4)
	QueueSize   int         // Buffer between the scheduler and the workers (default 256)
	Retry       RetryConfig // Backoff applied around each handler
}

// Runner is the task-body executor collaborating with the scheduler. It
// consumes taskReady notifications, runs the handler matching the task's
// capability, and reports the outcome through OnTaskCompleted. The scheduler
// itself never invokes or awaits handlers; a task the runner gives up on is
// reported failed exactly once and stays terminal.
type Runner struct {
	sched    *scheduler.Scheduler
	cfg      Config
	mu       sync.RWMutex
	handlers map[string]Handler
	breakers *BreakerRegistry
	ready    chan *task.Task
}

// New creates a runner and registers it on the dispatcher for taskReady
// notifications.
func New(sched *scheduler.Scheduler, dispatcher *events.Dispatcher, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}

	r := &Runner{
		sched:    sched,
		cfg:      cfg,
		handlers: make(map[string]Handler),
		breakers: NewBreakerRegistry(),
		ready:    make(chan *task.Task, cfg.QueueSize),
	}

	dispatcher.On(events.EventTypeTaskReady, func(e events.Event) {
		if ev, ok := e.(events.TaskReadyEvent); ok {
			// Blocking send: the dispatcher calls us outside the scheduler
			// lock, so a full queue applies backpressure to the poll loop
			// without deadlocking.
			r.ready <- ev.Task
		}
	})

	return r
}

// Register maps a capability tag to a handler.
func (r *Runner) Register(capability string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[capability] = h
}

// Run executes ready tasks with bounded concurrency until ctx is cancelled,
// then drains in-flight handlers.
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	log.Printf("Runner started (%d workers)", r.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			err := g.Wait()
			log.Println("Runner stopped")
			return err
		case t := <-r.ready:
			g.Go(func() error {
				r.execute(gctx, t)
				return nil
			})
		}
	}
}

// execute runs a single task through its handler and reports the outcome.
// Handler errors are terminal for the task, never for the runner.
func (r *Runner) execute(ctx context.Context, t *task.Task) {
	h, capability, ok := r.lookup(t)
	if !ok {
		log.Printf("Task %s: no handler for capabilities %v", t.ID, t.Capabilities)
		r.sched.OnTaskCompleted(t.ID, false)
		return
	}

	cb := r.breakers.Get(capability)
	err := runWithRetry(ctx, h, t, cb, r.cfg.Retry)
	if err != nil {
		log.Printf("Task %s failed: %v", t.ID, err)
	}
	r.sched.OnTaskCompleted(t.ID, err == nil)
}

// lookup selects the handler for a task's first capability tag. Tasks with
// no tags use the DefaultCapability handler.
func (r *Runner) lookup(t *task.Task) (Handler, string, bool) {
	capability := DefaultCapability
	if len(t.Capabilities) > 0 {
		capability = t.Capabilities[0]
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[capability]
	return h, capability, ok
}
