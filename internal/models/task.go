package models

import "strings"

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of High, Medium or Low.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ParsePriority accepts any letter case ("high", "HIGH") and returns the
// canonical value.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	}
	return "", NewValidationError("priority", "Priority must be one of High, Medium, Low")
}

type Task struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Completed bool     `json:"completed"`
	Priority  Priority `json:"priority"`
	OwnerID   *int64   `json:"-"`
}

// NewTask is what the storage layer needs to insert a row. The id is
// assigned on insert.
type NewTask struct {
	Title    string
	Priority Priority
	OwnerID  *int64
}

func (t NewTask) Validate() error {
	if t.Title == "" {
		return NewValidationError("title", "Title is required")
	}
	if !t.Priority.Valid() {
		return NewValidationError("priority", "Priority must be one of High, Medium, Low")
	}
	return nil
}
