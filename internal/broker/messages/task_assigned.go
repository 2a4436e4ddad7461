package messages

import "time"

// TaskAssigned is published when a task gets a new assignee who wants to be notified.
type TaskAssigned struct {
	EventID     string     `json:"event_id"`
	TaskID      int64      `json:"task_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	AssigneeID int64  `json:"assignee_id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`

	AssignedAt time.Time `json:"assigned_at"`
}
