package scheduler

import (
	"fmt"
	"strings"

	"github.com/gammazero/toposort"
)

// ValidateDependencies checks the queued set for dependency cycles and for
// references to IDs the scheduler has never seen. Advisory only: the poll
// cycle tolerates both conditions (an unsatisfiable task simply stays queued
// forever), but callers submitting a batch usually want to know before
// waiting on it.
func (s *Scheduler) ValidateDependencies() error {
	s.mu.Lock()
	known := make(map[string]bool, len(s.queued)+len(s.active)+len(s.completed))
	for _, t := range s.queued {
		known[t.ID] = true
	}
	for id := range s.active {
		known[id] = true
	}
	for id := range s.completed {
		known[id] = true
	}

	var unknown []string
	var edges []toposort.Edge
	for _, t := range s.queued {
		if len(t.Dependencies) == 0 {
			// Edge from nil keeps dependency-free tasks in the graph
			edges = append(edges, toposort.Edge{nil, t.ID})
			continue
		}
		for _, depID := range t.Dependencies {
			if !known[depID] {
				unknown = append(unknown, fmt.Sprintf("%s -> %s", t.ID, depID))
			}
			// Edge (depID, t.ID) means depID must complete before t
			edges = append(edges, toposort.Edge{depID, t.ID})
		}
	}
	s.mu.Unlock()

	if len(unknown) > 0 {
		return fmt.Errorf("unknown dependencies: %s", strings.Join(unknown, ", "))
	}

	if _, err := toposort.Toposort(edges); err != nil {
		return fmt.Errorf("dependency cycle: %w", err)
	}
	return nil
}
