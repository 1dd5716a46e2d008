package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Prxnesh/Task-Manager-App/internal/logger"
	"github.com/Prxnesh/Task-Manager-App/internal/models"
)

var (
	createTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskapi_tasks_created_total",
			Help: "Total number of create task operations",
		},
		[]string{"status"},
	)

	updateTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskapi_tasks_updated_total",
			Help: "Total number of set completed operations",
		},
		[]string{"status"},
	)

	deleteTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskapi_tasks_deleted_total",
			Help: "Total number of delete task operations",
		},
		[]string{"status"},
	)

	taskTitleLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskapi_task_title_length_bytes",
			Help:    "Length distribution of task titles",
			Buckets: []float64{16, 32, 64, 128, 256, 1024},
		},
	)

	createTaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskapi_create_task_duration_seconds",
			Help:    "Duration of create task operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// TaskStorage is the part of the storage layer the task service needs.
type TaskStorage interface {
	InsertTask(ctx context.Context, task models.NewTask) (int64, error)
	ListTasks(ctx context.Context, ownerID *int64) ([]models.Task, error)
	UpdateTaskCompletion(ctx context.Context, id int64, completed bool, ownerID *int64) (bool, error)
	DeleteTask(ctx context.Context, id int64, ownerID *int64) (bool, error)
}

// TaskManager applies ownership scoping on top of the storage layer. With
// auth disabled requester is ignored and every task is visible.
type TaskManager struct {
	storage     TaskStorage
	authEnabled bool
}

func NewTaskManager(storage TaskStorage, authEnabled bool) *TaskManager {
	return &TaskManager{storage: storage, authEnabled: authEnabled}
}

func (tm *TaskManager) AuthEnabled() bool {
	return tm.authEnabled
}

// AddTask stores a new task. An empty priority defaults to Medium; with
// auth enabled the task is stamped with the requester as owner.
func (tm *TaskManager) AddTask(ctx context.Context, task models.NewTask, requester *models.User) (*models.Task, error) {
	startTime := time.Now()
	defer func() {
		createTaskDuration.Observe(time.Since(startTime).Seconds())
	}()

	owner, err := tm.scope(requester)
	if err != nil {
		createTaskCount.WithLabelValues("unauthorized").Inc()
		return nil, err
	}
	task.OwnerID = owner

	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if err := task.Validate(); err != nil {
		createTaskCount.WithLabelValues("invalid").Inc()
		return nil, err
	}

	id, err := tm.storage.InsertTask(ctx, task)
	if err != nil {
		createTaskCount.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("add task: %w", err)
	}

	createTaskCount.WithLabelValues("success").Inc()
	taskTitleLength.Observe(float64(len(task.Title)))
	logger.Debug(ctx, "task created", "taskID", id, "priority", task.Priority)

	return &models.Task{
		ID:       id,
		Title:    task.Title,
		Priority: task.Priority,
		OwnerID:  task.OwnerID,
	}, nil
}

func (tm *TaskManager) ListTasks(ctx context.Context, requester *models.User) ([]models.Task, error) {
	owner, err := tm.scope(requester)
	if err != nil {
		return nil, err
	}

	tasks, err := tm.storage.ListTasks(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// SetCompleted reports whether a matching task existed. A missing id is
// not an error.
func (tm *TaskManager) SetCompleted(ctx context.Context, id int64, completed bool, requester *models.User) (bool, error) {
	owner, err := tm.scope(requester)
	if err != nil {
		updateTaskCount.WithLabelValues("unauthorized").Inc()
		return false, err
	}

	found, err := tm.storage.UpdateTaskCompletion(ctx, id, completed, owner)
	if err != nil {
		updateTaskCount.WithLabelValues("error").Inc()
		return false, fmt.Errorf("set completed: %w", err)
	}

	updateTaskCount.WithLabelValues(foundLabel(found)).Inc()
	return found, nil
}

// DeleteTask follows the same missing-id policy as SetCompleted.
func (tm *TaskManager) DeleteTask(ctx context.Context, id int64, requester *models.User) (bool, error) {
	owner, err := tm.scope(requester)
	if err != nil {
		deleteTaskCount.WithLabelValues("unauthorized").Inc()
		return false, err
	}

	found, err := tm.storage.DeleteTask(ctx, id, owner)
	if err != nil {
		deleteTaskCount.WithLabelValues("error").Inc()
		return false, fmt.Errorf("delete task: %w", err)
	}

	deleteTaskCount.WithLabelValues(foundLabel(found)).Inc()
	return found, nil
}

func (tm *TaskManager) scope(requester *models.User) (*int64, error) {
	if !tm.authEnabled {
		return nil, nil
	}
	if requester == nil {
		return nil, models.ErrAuthRequired
	}
	id := requester.ID
	return &id, nil
}

func foundLabel(found bool) string {
	if found {
		return "success"
	}
	return "missing"
}
