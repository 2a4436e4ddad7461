package models

import "time"

type JobStatus string

const (
	JobStatusWaitingAssessment JobStatus = "waiting_assessment"
	JobStatusInProgress        JobStatus = "in_progress"
	JobStatusPartsOrdered      JobStatus = "parts_ordered"
	JobStatusReadyForPickup    JobStatus = "ready_for_pickup"
	JobStatusCompleted         JobStatus = "completed"
	JobStatusCancelled         JobStatus = "cancelled"
)

var jobStatuses = []JobStatus{
	JobStatusWaitingAssessment,
	JobStatusInProgress,
	JobStatusPartsOrdered,
	JobStatusReadyForPickup,
	JobStatusCompleted,
	JobStatusCancelled,
}

func JobStatuses() []JobStatus {
	out := make([]JobStatus, len(jobStatuses))
	copy(out, jobStatuses)
	return out
}

func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusWaitingAssessment, JobStatusInProgress, JobStatusPartsOrdered,
		JobStatusReadyForPickup, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether a job still occupies the workshop.
func (s JobStatus) IsActive() bool {
	return s != JobStatusCompleted && s != JobStatusCancelled
}

type Job struct {
	ID               int64      `json:"id"`
	JobID            string     `json:"jobId"`
	CustomerID       int64      `json:"customerId"`
	EquipmentID      *int64     `json:"equipmentId,omitempty"`
	AssignedTo       *int64     `json:"assignedTo,omitempty"`
	Description      string     `json:"description"`
	Status           JobStatus  `json:"status"`
	EstimatedHours   *float64   `json:"estimatedHours,omitempty"`
	ActualHours      *float64   `json:"actualHours,omitempty"`
	CustomerNotified bool       `json:"customerNotified"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

// JobUpdate is a note attached to a job. Only public notes leave the workshop
// through the customer lookup.
type JobUpdate struct {
	ID        int64     `json:"id"`
	JobID     int64     `json:"jobId"`
	Note      string    `json:"note"`
	IsPublic  bool      `json:"isPublic"`
	CreatedBy *int64    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type JobFilter struct {
	CustomerID *int64
	AssignedTo *int64
	Status     *JobStatus
}

type JobCreateInput struct {
	CustomerID     int64
	EquipmentID    *int64
	AssignedTo     *int64
	Description    string
	EstimatedHours *float64
}

// JobPatch carries the non-status fields staff may edit. Nil fields are left untouched.
// JobPatch is a partial job update. ClearAssignee unassigns the job.
type JobPatch struct {
	AssignedTo       *int64
	ClearAssignee    bool
	Description      *string
	EstimatedHours   *float64
	ActualHours      *float64
	CustomerNotified *bool
}

func ParseJobStatus(s string) (JobStatus, bool) {
	st := JobStatus(s)
	return st, st.IsValid()
}
