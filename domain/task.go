package domain

import "time"

// Task priorities accepted on the wire.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task statuses accepted on the wire.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task represents a user-owned activity item. JSON field names follow the
// REST contract, including the Mongo-style "_id" and "user" keys the web
// client expects.
type Task struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	UserID      string     `json:"user"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// ValidPriority reports whether p is one of the accepted priority values.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the accepted status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}
