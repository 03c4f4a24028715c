package domain

import "time"

// Activity actions recorded in the audit trail.
const (
	ActivityCreated = "created"
	ActivityUpdated = "updated"
	ActivityDeleted = "deleted"
)

// Activity is one audit-trail entry describing a task mutation.
type Activity struct {
	ID     string    `json:"id"`
	UserID string    `json:"user"`
	TaskID string    `json:"taskId"`
	Action string    `json:"action"`
	Title  string    `json:"title,omitempty"`
	At     time.Time `json:"at"`
}
