package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskherd/taskherd/internal/api"
	"github.com/taskherd/taskherd/internal/config"
	"github.com/taskherd/taskherd/internal/events"
	"github.com/taskherd/taskherd/internal/runner"
	"github.com/taskherd/taskherd/internal/scheduler"
	"github.com/taskherd/taskherd/internal/task"
	"github.com/taskherd/taskherd/internal/tui"
)

func main() {
	monitor := flag.Bool("monitor", false, "run the terminal monitor with a demo workload instead of the HTTP API")
	addr := flag.String("addr", "", "listen address for the HTTP API (overrides config)")
	flag.Parse()

	// Create signal-aware context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.API.ListenAddr = *addr
	}

	dispatcher := events.NewDispatcher()
	defer dispatcher.Close()

	sched := scheduler.New(schedulerConfig(cfg), dispatcher)
	run := runner.New(sched, dispatcher, runnerConfig(cfg))
	run.Register(runner.DefaultCapability, demoHandler)

	sched.Start()
	defer sched.Stop()

	go func() {
		if err := run.Run(ctx); err != nil {
			log.Printf("Runner error: %v", err)
		}
	}()

	if *monitor {
		runMonitor(ctx, stop, sched, dispatcher)
		return
	}

	runServer(ctx, cfg.API.ListenAddr, sched)
}

// schedulerConfig maps the file configuration onto scheduler options.
func schedulerConfig(cfg *config.TaskherdConfig) scheduler.Config {
	weights := make(map[task.Priority]int, len(cfg.Scheduler.PriorityWeights))
	for name, w := range cfg.Scheduler.PriorityWeights {
		weights[task.Priority(name)] = w
	}
	return scheduler.Config{
		MaxConcurrentTasks: cfg.Scheduler.MaxConcurrentTasks,
		SchedulingInterval: time.Duration(cfg.Scheduler.SchedulingIntervalMS) * time.Millisecond,
		PriorityWeights:    weights,
	}
}

// runnerConfig maps the file configuration onto runner options.
func runnerConfig(cfg *config.TaskherdConfig) runner.Config {
	retry := runner.DefaultRetryConfig()
	retry.InitialInterval = time.Duration(cfg.Runner.RetryInitialMS) * time.Millisecond
	retry.MaxInterval = time.Duration(cfg.Runner.RetryMaxMS) * time.Millisecond
	retry.MaxElapsedTime = time.Duration(cfg.Runner.RetryMaxElapsedMS) * time.Millisecond
	return runner.Config{
		Concurrency: cfg.Runner.Concurrency,
		Retry:       retry,
	}
}

// demoHandler simulates work for tasks without a dedicated handler. It sleeps
// for the task's estimate (or a short default) and respects cancellation.
func demoHandler(ctx context.Context, t *task.Task) error {
	d := t.EstimatedDuration
	if d <= 0 {
		d = time.Duration(100+rand.Intn(400)) * time.Millisecond
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// runServer serves the HTTP API until the context is cancelled.
func runServer(ctx context.Context, addr string, sched *scheduler.Scheduler) {
	handler := api.NewHandler(sched)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(handler),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("API listening on %s", addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Println("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}

	log.Println("Shutdown complete")
}

// runMonitor runs the terminal monitor over a small demo workload.
func runMonitor(ctx context.Context, stop context.CancelFunc, sched *scheduler.Scheduler, dispatcher *events.Dispatcher) {
	model := tui.New(dispatcher)
	p := tea.NewProgram(model, tea.WithAltScreen())

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	seedDemoTasks(sched)

	select {
	case err := <-errChan:
		// Normal exit (user pressed 'q')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		// Restore default signal handling so a second Ctrl+C force-exits
		stop()

		log.Println("Shutdown signal received, cleaning up...")
		p.Quit()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		select {
		case err := <-errChan:
			if err != nil {
				log.Printf("Monitor exit error: %v", err)
			}
		case <-shutdownCtx.Done():
			log.Println("Shutdown timeout exceeded, forcing exit")
		}
	}

	log.Println("Shutdown complete")
}

// seedDemoTasks schedules a small dependency chain so the monitor has
// something to show.
func seedDemoTasks(sched *scheduler.Scheduler) {
	demo := []*task.Task{
		{ID: "fetch", Title: "Fetch sources", Priority: task.PriorityHigh},
		{ID: "build", Title: "Build artifacts", Priority: task.PriorityHigh, Dependencies: []string{"fetch"}},
		{ID: "test", Title: "Run tests", Priority: task.PriorityMedium, Dependencies: []string{"build"}},
		{ID: "lint", Title: "Lint sources", Priority: task.PriorityLow, Dependencies: []string{"fetch"}},
		{ID: "package", Title: "Package release", Priority: task.PriorityUrgent, Dependencies: []string{"test", "lint"}},
	}
	for _, t := range demo {
		if err := sched.ScheduleTask(t); err != nil {
			log.Printf("Demo task %s: %v", t.ID, err)
		}
	}
}
