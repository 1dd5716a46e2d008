package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Prxnesh/Task-Manager-App/internal/models"
)

func listTasksHandler(tasks TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := tasks.ListTasks(r.Context(), userFrom(r.Context()))
		if err != nil {
			writeError(w, r, err)
			return
		}

		if !tasks.AuthEnabled() {
			writeJSON(w, http.StatusOK, list)
			return
		}

		summaries := make([]models.TaskSummary, 0, len(list))
		for _, t := range list {
			summaries = append(summaries, models.TaskSummary{ID: t.ID, Title: t.Title, Priority: t.Priority})
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func addTaskHandler(tasks TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateTaskRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		task, err := req.Validate()
		if err != nil {
			writeError(w, r, err)
			return
		}

		if _, err := tasks.AddTask(r.Context(), task, userFrom(r.Context())); err != nil {
			writeError(w, r, err)
			return
		}

		status := http.StatusCreated
		if tasks.AuthEnabled() {
			status = http.StatusOK
		}
		writeMessage(w, status, "Task created successfully")
	}
}

func updateTaskHandler(tasks TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := taskID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		var req models.UpdateTaskRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		completed, err := req.Validate()
		if err != nil {
			writeError(w, r, err)
			return
		}

		// a missing id still answers with success
		if _, err := tasks.SetCompleted(r.Context(), id, completed, userFrom(r.Context())); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Task updated successfully")
	}
}

func deleteTaskHandler(tasks TaskService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := taskID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		if _, err := tasks.DeleteTask(r.Context(), id, userFrom(r.Context())); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Task deleted successfully")
	}
}

func taskID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, models.NewValidationError("id", "Invalid task id")
	}
	return id, nil
}
