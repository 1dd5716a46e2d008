package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Prxnesh/Task-Manager-App/internal/models"
)

const banner = "Task Manager API is running! Access /tasks to view tasks."

type TaskService interface {
	AuthEnabled() bool
	AddTask(ctx context.Context, task models.NewTask, requester *models.User) (*models.Task, error)
	ListTasks(ctx context.Context, requester *models.User) ([]models.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool, requester *models.User) (bool, error)
	DeleteTask(ctx context.Context, id int64, requester *models.User) (bool, error)
}

type AuthService interface {
	Register(ctx context.Context, creds models.Credentials) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

type CookieOptions struct {
	Name   string
	Secure bool
}

// NewRouter wires the task routes and, when tasks.AuthEnabled(), the
// register/login/logout routes. auth may be nil when auth is disabled.
func NewRouter(tasks TaskService, auth AuthService, cookie CookieOptions) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(instrument)
	r.Use(middleware.Recoverer)

	r.Get("/", homeHandler)
	r.Handle("/metrics", promhttp.Handler())

	authEnabled := tasks.AuthEnabled() && auth != nil

	r.Route("/tasks", func(r chi.Router) {
		if authEnabled {
			r.Use(requireUser(auth, cookie))
		}
		r.Get("/", listTasksHandler(tasks))
		r.Post("/", addTaskHandler(tasks))
		r.Put("/{id}", updateTaskHandler(tasks))
		r.Delete("/{id}", deleteTaskHandler(tasks))
	})

	if authEnabled {
		r.Post("/register", registerHandler(auth))
		r.Post("/login", loginHandler(auth, cookie))
		r.With(requireUser(auth, cookie)).Get("/logout", logoutHandler(auth, cookie))
	}

	return r
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(banner))
}
