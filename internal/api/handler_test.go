package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskherd/taskherd/internal/events"
	"github.com/taskherd/taskherd/internal/scheduler"
	"github.com/taskherd/taskherd/internal/task"
)

func setupTestAPI(t *testing.T) (*scheduler.Scheduler, *chi.Mux) {
	t.Helper()

	d := events.NewDispatcher()
	sched := scheduler.New(scheduler.Config{
		MaxConcurrentTasks: 4,
		SchedulingInterval: time.Hour, // Tests drive Tick directly
	}, d)

	return sched, NewRouter(NewHandler(sched))
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshaling payload: %v", err)
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateTask(t *testing.T) {
	_, router := setupTestAPI(t)

	rr := doJSON(t, router, "POST", "/tasks", map[string]any{
		"title":    "Build artifacts",
		"priority": "high",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rr.Code, rr.Body)
	}

	var created task.Task
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.ID == "" {
		t.Error("expected a server-assigned ID")
	}
	if created.Title != "Build artifacts" {
		t.Errorf("title = %q", created.Title)
	}
	if created.Priority != task.PriorityHigh {
		t.Errorf("priority = %q, want high", created.Priority)
	}
	if created.Status != task.StatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
}

func TestCreateTask_DefaultsPriority(t *testing.T) {
	_, router := setupTestAPI(t)

	rr := doJSON(t, router, "POST", "/tasks", map[string]any{"title": "x"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rr.Code)
	}

	var created task.Task
	json.Unmarshal(rr.Body.Bytes(), &created)
	if created.Priority != task.PriorityMedium {
		t.Errorf("priority = %q, want medium default", created.Priority)
	}
}

func TestCreateTask_Validation(t *testing.T) {
	_, router := setupTestAPI(t)

	rr := doJSON(t, router, "POST", "/tasks", map[string]any{"description": "no title"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestCreateTask_Duplicate(t *testing.T) {
	_, router := setupTestAPI(t)

	payload := map[string]any{"id": "dup", "title": "x"}
	if rr := doJSON(t, router, "POST", "/tasks", payload); rr.Code != http.StatusCreated {
		t.Fatalf("first create: status = %d", rr.Code)
	}

	rr := doJSON(t, router, "POST", "/tasks", payload)
	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rr.Code)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	_, router := setupTestAPI(t)

	rr := doJSON(t, router, "GET", "/tasks/non-existent-id", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestListTasks_ByState(t *testing.T) {
	sched, router := setupTestAPI(t)

	sched.ScheduleTask(&task.Task{ID: "a", Title: "a", Priority: task.PriorityMedium})
	sched.ScheduleTask(&task.Task{ID: "b", Title: "b", Priority: task.PriorityMedium})
	sched.Tick()
	sched.OnTaskCompleted("a", true)

	for _, tt := range []struct {
		state string
		want  int
	}{
		{"queued", 0},
		{"active", 1},
		{"completed", 1},
	} {
		rr := doJSON(t, router, "GET", "/tasks?state="+tt.state, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("state %s: status = %d", tt.state, rr.Code)
		}
		var tasks []task.Task
		if err := json.Unmarshal(rr.Body.Bytes(), &tasks); err != nil {
			t.Fatalf("state %s: decoding: %v", tt.state, err)
		}
		if len(tasks) != tt.want {
			t.Errorf("state %s: got %d tasks, want %d", tt.state, len(tasks), tt.want)
		}
	}

	// Unknown state is a client error
	if rr := doJSON(t, router, "GET", "/tasks?state=bogus", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bogus state: status = %d, want 400", rr.Code)
	}
}

func TestCancelTask(t *testing.T) {
	sched, router := setupTestAPI(t)
	sched.ScheduleTask(&task.Task{ID: "a", Title: "a", Priority: task.PriorityMedium})

	rr := doJSON(t, router, "DELETE", "/tasks/a", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}

	if rr := doJSON(t, router, "DELETE", "/tasks/a", nil); rr.Code != http.StatusNotFound {
		t.Errorf("second cancel: status = %d, want 404", rr.Code)
	}
}

func TestRescheduleTask(t *testing.T) {
	sched, router := setupTestAPI(t)
	sched.ScheduleTask(&task.Task{ID: "a", Title: "a", Priority: task.PriorityLow})

	rr := doJSON(t, router, "POST", "/tasks/a/reschedule", map[string]string{"priority": "urgent"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body)
	}

	var updated task.Task
	json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated.Priority != task.PriorityUrgent {
		t.Errorf("priority = %q, want urgent", updated.Priority)
	}

	if rr := doJSON(t, router, "POST", "/tasks/ghost/reschedule", map[string]string{"priority": "high"}); rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rr.Code)
	}
}

func TestCompleteTask(t *testing.T) {
	sched, router := setupTestAPI(t)
	sched.ScheduleTask(&task.Task{ID: "a", Title: "a", Priority: task.PriorityMedium})
	sched.Tick()

	rr := doJSON(t, router, "POST", "/tasks/a/complete", map[string]bool{"success": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body)
	}

	var done task.Task
	json.Unmarshal(rr.Body.Bytes(), &done)
	if done.Status != task.StatusCompleted {
		t.Errorf("status = %q, want completed", done.Status)
	}

	// Completing a task that is not active is a 404
	if rr := doJSON(t, router, "POST", "/tasks/a/complete", map[string]bool{"success": true}); rr.Code != http.StatusNotFound {
		t.Errorf("second complete: status = %d, want 404", rr.Code)
	}
}

func TestValidateTasks(t *testing.T) {
	sched, router := setupTestAPI(t)

	sched.ScheduleTask(&task.Task{ID: "a", Title: "a", Priority: task.PriorityMedium, Dependencies: []string{"ghost"}})

	rr := doJSON(t, router, "POST", "/tasks/validate", nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 for unknown dependency", rr.Code)
	}
}

func TestStats(t *testing.T) {
	sched, router := setupTestAPI(t)
	sched.ScheduleTask(&task.Task{ID: "a", Title: "a", Priority: task.PriorityHigh})

	rr := doJSON(t, router, "GET", "/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var stats scheduler.QueueStats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.Queued[task.PriorityHigh] != 1 {
		t.Errorf("queued high = %d, want 1", stats.Queued[task.PriorityHigh])
	}
}

func TestHealthCheck(t *testing.T) {
	_, router := setupTestAPI(t)

	rr := doJSON(t, router, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}
