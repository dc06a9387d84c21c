package models

import "time"

// Alert priority levels.
const (
	AlertPriorityLow    = "low"
	AlertPriorityMedium = "medium"
	AlertPriorityHigh   = "high"
)

// Alert types raised by this core.
const (
	AlertTypeLowQuizScore = "low_quiz_score"
)

// Alert is a parent-facing notification. Fire-and-forget from the
// submission pipeline; the parent dashboard lists and acknowledges them.
type Alert struct {
	ID         int64     `json:"id"`
	Reference  string    `json:"reference"`
	LearnerID  int64     `json:"learner_id"`
	AlertType  string    `json:"alert_type"`
	Priority   string    `json:"priority"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Metadata   string    `json:"metadata,omitempty"`
	ActionLink string    `json:"action_link,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type AlertsResponse struct {
	Alerts      []Alert `json:"alerts"`
	UnreadCount int     `json:"unread_count"`
}
