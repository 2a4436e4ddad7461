package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusReview, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func Priorities() []TaskPriority {
	return []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Entity types used for back-references and the activity log.
const (
	EntityJob      = "job"
	EntityTask     = "task"
	EntityCallback = "callback"
	EntityOrder    = "order"
)

type Task struct {
	ID                int64        `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Priority          TaskPriority `json:"priority"`
	Status            TaskStatus   `json:"status"`
	AssignedTo        *int64       `json:"assignedTo,omitempty"`
	DueDate           *time.Time   `json:"dueDate,omitempty"`
	RelatedEntityType *string      `json:"relatedEntityType,omitempty"`
	RelatedEntityID   *int64       `json:"relatedEntityId,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
	CompletedAt       *time.Time   `json:"completedAt,omitempty"`
}

type TaskFilter struct {
	AssignedTo        *int64
	Status            *TaskStatus
	RelatedEntityType *string
	RelatedEntityID   *int64
}

type TaskCreateInput struct {
	Title             string
	Description       string
	Priority          TaskPriority
	Status            TaskStatus
	AssignedTo        *int64
	DueDate           *time.Time
	RelatedEntityType *string
	RelatedEntityID   *int64
}

// TaskPatch is a partial task update. ClearAssignee unassigns the task,
// ClearDueDate removes the due date.
type TaskPatch struct {
	Title         *string
	Description   *string
	Priority      *TaskPriority
	Status        *TaskStatus
	AssignedTo    *int64
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
}

func ParseTaskStatus(s string) (TaskStatus, bool) {
	st := TaskStatus(s)
	return st, st.IsValid()
}

func ParseTaskPriority(s string) (TaskPriority, bool) {
	p := TaskPriority(s)
	return p, p.IsValid()
}
