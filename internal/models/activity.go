package models

import "time"

type ActivityType string

const (
	ActivityJobCreated        ActivityType = "job_created"
	ActivityJobStarted        ActivityType = "job_started"
	ActivityJobReceived       ActivityType = "job_received"
	ActivityJobCompleted      ActivityType = "job_completed"
	ActivityTaskCompleted     ActivityType = "task_completed"
	ActivityTaskReopened      ActivityType = "task_reopened"
	ActivityCallbackLogged    ActivityType = "callback_logged"
	ActivityCallbackCompleted ActivityType = "callback_completed"
)

// Activity is an append-only log entry.
type Activity struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"userId"`
	ActivityType ActivityType `json:"activityType"`
	Description  string       `json:"description"`
	EntityType   string       `json:"entityType"`
	EntityID     int64        `json:"entityId"`
	Timestamp    time.Time    `json:"timestamp"`
}
