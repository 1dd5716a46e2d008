package models

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title    string  `json:"title"`
	Priority *string `json:"priority,omitempty"`
}

// Validate checks the request and fills in the default priority. The owner
// is left for the caller.
func (r CreateTaskRequest) Validate() (NewTask, error) {
	if r.Title == "" {
		return NewTask{}, NewValidationError("title", "Title is required")
	}

	priority := PriorityMedium
	if r.Priority != nil {
		p, err := ParsePriority(*r.Priority)
		if err != nil {
			return NewTask{}, err
		}
		priority = p
	}

	return NewTask{Title: r.Title, Priority: priority}, nil
}

// UpdateTaskRequest is the body of PUT /tasks/{id}.
type UpdateTaskRequest struct {
	Completed *bool `json:"completed"`
}

func (r UpdateTaskRequest) Validate() (bool, error) {
	if r.Completed == nil {
		return false, NewValidationError("completed", "Completed is required")
	}
	return *r.Completed, nil
}

// Credentials is the body of POST /register and POST /login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if c.Username == "" {
		return NewValidationError("username", "Username is required")
	}
	if c.Password == "" {
		return NewValidationError("password", "Password is required")
	}
	return nil
}

// MessageResponse and ErrorResponse are the two JSON envelopes every
// non-list endpoint answers with.
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// TaskSummary is the list entry returned when authentication is enabled.
type TaskSummary struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Priority Priority `json:"priority"`
}
