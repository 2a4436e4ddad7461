package models

import "time"

type CallbackStatus string

const (
	CallbackStatusPending   CallbackStatus = "pending"
	CallbackStatusCompleted CallbackStatus = "completed"
	CallbackStatusDeleted   CallbackStatus = "deleted"
)

func (s CallbackStatus) IsValid() bool {
	switch s {
	case CallbackStatusPending, CallbackStatusCompleted, CallbackStatusDeleted:
		return true
	}
	return false
}

// DeleteGracePeriod is how long a soft-deleted callback can still be restored.
const DeleteGracePeriod = 24 * time.Hour

type CallbackRequest struct {
	ID              int64          `json:"id"`
	CustomerID      *int64         `json:"customerId,omitempty"`
	CustomerName    string         `json:"customerName"`
	PhoneNumber     string         `json:"phoneNumber"`
	Subject         string         `json:"subject"`
	Details         string         `json:"details"`
	Priority        TaskPriority   `json:"priority"`
	AssignedTo      *int64         `json:"assignedTo,omitempty"`
	Status          CallbackStatus `json:"status"`
	RelatedTaskID   *int64         `json:"relatedTaskId,omitempty"`
	RequestedAt     time.Time      `json:"requestedAt"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
	DeletedAt       *time.Time     `json:"deletedAt,omitempty"`
	DeleteExpiresAt *time.Time     `json:"deleteExpiresAt,omitempty"`
}

type CallbackFilter struct {
	Status     *CallbackStatus
	AssignedTo *int64
}

type CallbackCreateInput struct {
	CustomerName string
	PhoneNumber  string
	Subject      string
	Details      string
	Priority     TaskPriority
	AssignedTo   *int64
}

func ParseCallbackStatus(s string) (CallbackStatus, bool) {
	st := CallbackStatus(s)
	return st, st.IsValid()
}

// CallbackCompletion is written atomically: the callback, its related task and
// an optional follow-up task.
type CallbackCompletion struct {
	ID          int64
	Notes       *string
	CompletedAt time.Time
	FollowUp    *Task
}

// CallbackCompletionResult is what a completion wrote. CompletedTask is set
// only when this completion moved the related task to completed.
type CallbackCompletionResult struct {
	Callback      *CallbackRequest
	CompletedTask *Task
	FollowUp      *Task
}
