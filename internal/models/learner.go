package models

import "time"

// Learner is a child profile. XP and level are mutated only through the
// gamification ledger; streak fields only through the streak tracker.
type Learner struct {
	ID             int64      `json:"id"`
	ParentID       int64      `json:"parent_id"`
	Name           string     `json:"name"`
	GradeLevel     int        `json:"grade_level"`
	XP             int        `json:"xp"`
	Level          int        `json:"level"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type CreateLearnerRequest struct {
	Name       string `json:"name"`
	GradeLevel int    `json:"grade_level"`
}

// Progress is the per-(learner, lesson) record. QuizScore and IsCompleted
// carry the latest attempt; TimeSpent accumulates across attempts.
type Progress struct {
	ID             int64     `json:"id"`
	LearnerID      int64     `json:"learner_id"`
	LessonID       int64     `json:"lesson_id"`
	LessonTitle    string    `json:"lesson_title,omitempty"`
	IsCompleted    bool      `json:"is_completed"`
	QuizScore      *int      `json:"quiz_score"`
	TimeSpent      int       `json:"time_spent"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}

// WeakArea is a recurring source of wrong answers for one
// (learner, subject, topic) triple. Rows are never deleted; mastery
// flips is_resolved instead.
type WeakArea struct {
	ID           int64      `json:"id"`
	LearnerID    int64      `json:"learner_id"`
	Subject      string     `json:"subject"`
	Topic        string     `json:"topic"`
	Category     string     `json:"category"`
	GradeLevel   int        `json:"grade_level"`
	ErrorCount   int        `json:"error_count"`
	AttemptCount int        `json:"attempt_count"`
	IsResolved   bool       `json:"is_resolved"`
	LastErrorAt  time.Time  `json:"last_error_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}
