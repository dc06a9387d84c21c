package models

// AnsweredQuestion is one question from a quiz attempt as the client
// graded it locally.
type AnsweredQuestion struct {
	Prompt        string `json:"prompt"`
	LearnerAnswer string `json:"learner_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
}

type SubmitQuizRequest struct {
	LearnerID      int64              `json:"learner_id"`
	LessonID       int64              `json:"lesson_id"`
	Score          int                `json:"score"`
	CorrectCount   int                `json:"correct_count"`
	TotalQuestions int                `json:"total_questions"`
	TimeSpent      int                `json:"time_spent"`
	Questions      []AnsweredQuestion `json:"questions"`
}

// SubmitQuizResponse is returned whenever the grading and progress write
// succeed. Feedback and badges are best-effort and may be absent.
type SubmitQuizResponse struct {
	Success   bool           `json:"success"`
	Score     int            `json:"score"`
	Passed    bool           `json:"passed"`
	IsPerfect bool           `json:"is_perfect"`
	XPEarned  int            `json:"xp_earned"`
	LeveledUp bool           `json:"leveled_up"`
	NewBadges []EarnedBadge  `json:"new_badges"`
	Feedback  string         `json:"feedback,omitempty"`
}

// EarnedBadge identifies a badge awarded during the current call.
type EarnedBadge struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
