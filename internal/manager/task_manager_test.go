package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Prxnesh/Task-Manager-App/internal/models"
	"github.com/Prxnesh/Task-Manager-App/internal/storage"
)

func TestAddTask(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage(), false)
	ctx := context.Background()

	task, err := tm.AddTask(ctx, models.NewTask{Title: "Buy milk"}, nil)
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.ID != 1 {
		t.Errorf("expected ID=1, got %d", task.ID)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("expected default priority Medium, got %q", task.Priority)
	}
	if task.Completed {
		t.Error("new task must not be completed")
	}

	tasks, err := tm.ListTasks(ctx, nil)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}

func TestAddEmptyTask(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage(), false)
	ctx := context.Background()

	if _, err := tm.AddTask(ctx, models.NewTask{}, nil); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := tm.AddTask(ctx, models.NewTask{Title: "x", Priority: "Someday"}, nil); !errors.Is(err, models.ErrValidation) {
		t.Errorf("expected validation error for priority, got %v", err)
	}

	tasks, _ := tm.ListTasks(ctx, nil)
	if len(tasks) != 0 {
		t.Errorf("nothing should be persisted, got %+v", tasks)
	}
}

func TestSetCompletedAndDelete(t *testing.T) {
	tm := NewTaskManager(storage.NewMemoryStorage(), false)
	ctx := context.Background()

	task, _ := tm.AddTask(ctx, models.NewTask{Title: "Buy milk", Priority: models.PriorityHigh}, nil)

	found, err := tm.SetCompleted(ctx, task.ID, true, nil)
	if err != nil || !found {
		t.Fatalf("SetCompleted: found=%v err=%v", found, err)
	}

	tasks, _ := tm.ListTasks(ctx, nil)
	if !tasks[0].Completed || tasks[0].Priority != models.PriorityHigh {
		t.Errorf("unexpected task after update: %+v", tasks[0])
	}

	if found, err := tm.SetCompleted(ctx, 999, true, nil); err != nil || found {
		t.Errorf("missing id: found=%v err=%v", found, err)
	}

	if found, err := tm.DeleteTask(ctx, task.ID, nil); err != nil || !found {
		t.Fatalf("DeleteTask: found=%v err=%v", found, err)
	}
	if found, err := tm.DeleteTask(ctx, task.ID, nil); err != nil || found {
		t.Errorf("second delete: found=%v err=%v", found, err)
	}

	tasks, _ = tm.ListTasks(ctx, nil)
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %+v", tasks)
	}
}

func TestAuthEnabledScoping(t *testing.T) {
	store := storage.NewMemoryStorage()
	tm := NewTaskManager(store, true)
	ctx := context.Background()

	aliceID, _ := store.InsertUser(ctx, "alice", "h")
	bobID, _ := store.InsertUser(ctx, "bob", "h")
	alice := &models.User{ID: aliceID, Username: "alice"}
	bob := &models.User{ID: bobID, Username: "bob"}

	t.Run("anonymous is rejected", func(t *testing.T) {
		if _, err := tm.AddTask(ctx, models.NewTask{Title: "x"}, nil); !errors.Is(err, models.ErrAuthRequired) {
			t.Errorf("AddTask: expected ErrAuthRequired, got %v", err)
		}
		if _, err := tm.ListTasks(ctx, nil); !errors.Is(err, models.ErrAuthRequired) {
			t.Errorf("ListTasks: expected ErrAuthRequired, got %v", err)
		}
		if _, err := tm.SetCompleted(ctx, 1, true, nil); !errors.Is(err, models.ErrAuthRequired) {
			t.Errorf("SetCompleted: expected ErrAuthRequired, got %v", err)
		}
		if _, err := tm.DeleteTask(ctx, 1, nil); !errors.Is(err, models.ErrAuthRequired) {
			t.Errorf("DeleteTask: expected ErrAuthRequired, got %v", err)
		}
	})

	aliceTask, err := tm.AddTask(ctx, models.NewTask{Title: "alice task"}, alice)
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if aliceTask.OwnerID == nil || *aliceTask.OwnerID != aliceID {
		t.Errorf("task not stamped with owner: %+v", aliceTask)
	}
	bobTask, _ := tm.AddTask(ctx, models.NewTask{Title: "bob task"}, bob)

	t.Run("list only own tasks", func(t *testing.T) {
		tasks, err := tm.ListTasks(ctx, alice)
		if err != nil {
			t.Fatal(err)
		}
		if len(tasks) != 1 || tasks[0].ID != aliceTask.ID {
			t.Errorf("alice sees %+v", tasks)
		}
	})

	t.Run("foreign tasks are untouchable", func(t *testing.T) {
		if found, err := tm.SetCompleted(ctx, bobTask.ID, true, alice); err != nil || found {
			t.Errorf("SetCompleted foreign: found=%v err=%v", found, err)
		}
		if found, err := tm.DeleteTask(ctx, bobTask.ID, alice); err != nil || found {
			t.Errorf("DeleteTask foreign: found=%v err=%v", found, err)
		}

		tasks, _ := tm.ListTasks(ctx, bob)
		if len(tasks) != 1 || tasks[0].Completed {
			t.Errorf("bob's task changed: %+v", tasks)
		}
	})
}

func TestAddTaskMetrics(t *testing.T) {
	originalCreateTaskCount := createTaskCount
	originalTaskTitleLength := taskTitleLength

	registry := prometheus.NewRegistry()

	testCreateTaskCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskapi_tasks_created_total",
			Help: "Test counter",
		},
		[]string{"status"},
	)
	testTaskTitleLength := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskapi_task_title_length_bytes",
			Help:    "Test histogram",
			Buckets: []float64{16, 32, 64},
		},
	)
	registry.MustRegister(testCreateTaskCount, testTaskTitleLength)

	createTaskCount = testCreateTaskCount
	taskTitleLength = testTaskTitleLength
	defer func() {
		createTaskCount = originalCreateTaskCount
		taskTitleLength = originalTaskTitleLength
	}()

	tm := NewTaskManager(storage.NewMemoryStorage(), false)
	ctx := context.Background()

	if _, err := tm.AddTask(ctx, models.NewTask{Title: "Valid title"}, nil); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if got := testutil.ToFloat64(testCreateTaskCount.WithLabelValues("success")); got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}

	metrics, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range metrics {
		if mf.GetName() == "taskapi_task_title_length_bytes" {
			found = true
			if mf.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
				t.Error("histogram should hold one sample")
			}
		}
	}
	if !found {
		t.Error("title length histogram not found")
	}

	if _, err := tm.AddTask(ctx, models.NewTask{}, nil); err == nil {
		t.Error("expected error for empty title")
	}
	if got := testutil.ToFloat64(testCreateTaskCount.WithLabelValues("invalid")); got != 1 {
		t.Errorf("expected 1 invalid, got %v", got)
	}
}
