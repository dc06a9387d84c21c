package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/moussahe/schoolaris-backend/internal/gamification"
	"github.com/moussahe/schoolaris-backend/internal/insights"
	"github.com/moussahe/schoolaris-backend/internal/models"
)

// XP reward tiers for a quiz attempt.
const (
	XPRewardPerfect    = 200
	XPRewardPass       = 100
	XPRewardCompletion = 25
)

const (
	PassingScore        = 70
	PerfectScore        = 100
	MasteryScore        = 90
	AlertScoreThreshold = 50
)

// Mastery resolution: a weak area counts as mastered once the learner
// has kept error_count low across enough attempts.
const (
	masteryMinAttempts = 3
	masteryMaxErrors   = 2
)

// LessonContext is the lesson slice the pipeline needs for grading,
// insights prompts, and alerts.
type LessonContext struct {
	ID         int64
	Title      string
	Subject    string
	GradeLevel int
}

// Store is the persistence surface of the submission pipeline.
// Implemented by SQLStore; tests substitute an in-memory fake.
type Store interface {
	GetLessonContext(lessonID int64) (*LessonContext, error)
	UpsertProgress(learnerID, lessonID int64, score int, completed bool, timeSpent int) error
	UpsertWeakArea(learnerID int64, subject, topic, category string, gradeLevel int) error
	ResolveMasteredWeakAreas(learnerID int64, subject string) (int64, error)
	ListRecentProgress(learnerID int64, limit int) ([]models.Progress, error)
	ListWeakAreas(learnerID int64, openOnly bool) ([]models.WeakArea, error)
}

// Gamification is the slice of the gamification service the pipeline
// drives after a successful progress write.
type Gamification interface {
	VerifyOwnership(learnerID, parentID int64) error
	TouchStreak(learnerID int64) (*gamification.StreakResult, error)
	AddXP(learnerID int64, amount int) (*gamification.XPResult, error)
	EvaluateAndAwardBadges(learnerID int64) ([]models.EarnedBadge, error)
}

// InsightsClient is the external text-generation collaborator. Both
// calls are best-effort for the pipeline.
type InsightsClient interface {
	ExtractWeakAreas(ctx context.Context, subject, lessonTitle string, gradeLevel int, wrong []insights.WrongAnswer) ([]insights.WeakAreaTag, error)
	GenerateFeedback(ctx context.Context, subject, lessonTitle string, score int, wrong []insights.WrongAnswer) (string, error)
}

// AlertSink receives parent-facing alerts raised by the pipeline.
type AlertSink interface {
	Create(alert *models.Alert) error
}

type Service struct {
	store    Store
	gam      Gamification
	insights InsightsClient
	alerts   AlertSink
}

func NewService(store Store, gam Gamification, insightsClient InsightsClient, alerts AlertSink) *Service {
	return &Service{store: store, gam: gam, insights: insightsClient, alerts: alerts}
}

// SubmitQuizAttempt runs the grading pipeline for one client-graded
// attempt. Validation and ownership failures abort before any write.
// Once the progress record is written the submission counts: failures
// in the gamification, insights, and alert steps are logged and the
// response still reports success.
func (s *Service) SubmitQuizAttempt(ctx context.Context, parentID int64, req *models.SubmitQuizRequest) (*models.SubmitQuizResponse, error) {
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	if err := s.gam.VerifyOwnership(req.LearnerID, parentID); err != nil {
		return nil, err
	}

	lesson, err := s.store.GetLessonContext(req.LessonID)
	if err != nil {
		return nil, err
	}

	isPerfect := req.Score == PerfectScore
	passed := req.Score >= PassingScore
	reward := XPRewardCompletion
	if isPerfect {
		reward = XPRewardPerfect
	} else if passed {
		reward = XPRewardPass
	}

	// The progress write is the commit point of the submission.
	if err := s.store.UpsertProgress(req.LearnerID, req.LessonID, req.Score, passed, req.TimeSpent); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}

	resp := &models.SubmitQuizResponse{
		Success:   true,
		Score:     req.Score,
		Passed:    passed,
		IsPerfect: isPerfect,
		NewBadges: []models.EarnedBadge{},
	}

	if _, err := s.gam.TouchStreak(req.LearnerID); err != nil {
		log.Printf("[quiz] WARN: touch streak for learner %d: %v", req.LearnerID, err)
	}

	if xp, err := s.gam.AddXP(req.LearnerID, reward); err != nil {
		log.Printf("[quiz] WARN: grant %d xp to learner %d: %v", reward, req.LearnerID, err)
	} else {
		resp.XPEarned = reward
		resp.LeveledUp = xp.LeveledUp
	}

	if badges, err := s.gam.EvaluateAndAwardBadges(req.LearnerID); err != nil {
		log.Printf("[quiz] WARN: evaluate badges for learner %d: %v", req.LearnerID, err)
	} else {
		resp.NewBadges = badges
	}

	wrong := wrongAnswers(req.Questions)
	s.trackWeakAreas(ctx, req.LearnerID, lesson, wrong)

	if req.Score >= MasteryScore {
		if n, err := s.store.ResolveMasteredWeakAreas(req.LearnerID, lesson.Subject); err != nil {
			log.Printf("[quiz] WARN: resolve weak areas for learner %d: %v", req.LearnerID, err)
		} else if n > 0 {
			log.Printf("[quiz] Resolved %d mastered weak areas for learner %d in %s", n, req.LearnerID, lesson.Subject)
		}
	}

	if req.Score < AlertScoreThreshold {
		s.raiseLowScoreAlert(req.LearnerID, lesson, req.Score)
	}

	if feedback, err := s.insights.GenerateFeedback(ctx, lesson.Subject, lesson.Title, req.Score, wrong); err != nil {
		log.Printf("[quiz] WARN: generate feedback for learner %d: %v", req.LearnerID, err)
	} else {
		resp.Feedback = feedback
	}

	return resp, nil
}

func validateSubmission(req *models.SubmitQuizRequest) error {
	if req.Score < 0 || req.Score > 100 {
		return &models.ValidationError{Field: "score", Reason: "must be between 0 and 100"}
	}
	if req.CorrectCount < 0 {
		return &models.ValidationError{Field: "correct_count", Reason: "must not be negative"}
	}
	if req.TotalQuestions < 1 {
		return &models.ValidationError{Field: "total_questions", Reason: "must be at least 1"}
	}
	if req.CorrectCount > req.TotalQuestions {
		return &models.ValidationError{Field: "correct_count", Reason: "cannot exceed total_questions"}
	}
	if len(req.Questions) == 0 {
		return &models.ValidationError{Field: "questions", Reason: "at least one question is required"}
	}
	if req.TimeSpent < 0 {
		return &models.ValidationError{Field: "time_spent", Reason: "must not be negative"}
	}
	return nil
}

func wrongAnswers(questions []models.AnsweredQuestion) []insights.WrongAnswer {
	var wrong []insights.WrongAnswer
	for _, q := range questions {
		if q.IsCorrect {
			continue
		}
		wrong = append(wrong, insights.WrongAnswer{
			Question:      q.Prompt,
			LearnerAnswer: q.LearnerAnswer,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return wrong
}

// trackWeakAreas classifies the wrong answers and upserts one row per
// derived (topic, category) pair. Best-effort throughout.
func (s *Service) trackWeakAreas(ctx context.Context, learnerID int64, lesson *LessonContext, wrong []insights.WrongAnswer) {
	if len(wrong) == 0 {
		return
	}

	tags, err := s.insights.ExtractWeakAreas(ctx, lesson.Subject, lesson.Title, lesson.GradeLevel, wrong)
	if err != nil {
		log.Printf("[quiz] WARN: extract weak areas for learner %d: %v", learnerID, err)
		return
	}

	for _, tag := range tags {
		if err := s.store.UpsertWeakArea(learnerID, lesson.Subject, tag.Topic, tag.Category, lesson.GradeLevel); err != nil {
			log.Printf("[quiz] WARN: upsert weak area %q for learner %d: %v", tag.Topic, learnerID, err)
		}
	}
}

func (s *Service) raiseLowScoreAlert(learnerID int64, lesson *LessonContext, score int) {
	metadata, _ := json.Marshal(map[string]interface{}{
		"score":        score,
		"lesson_id":    lesson.ID,
		"lesson_title": lesson.Title,
		"subject":      lesson.Subject,
	})

	alert := &models.Alert{
		LearnerID:  learnerID,
		AlertType:  models.AlertTypeLowQuizScore,
		Priority:   models.AlertPriorityMedium,
		Title:      "Low quiz score",
		Message:    fmt.Sprintf("Scored %d%% on the %q quiz. A review together might help.", score, lesson.Title),
		Metadata:   string(metadata),
		ActionLink: fmt.Sprintf("/learners/%d/progress", learnerID),
	}

	if err := s.alerts.Create(alert); err != nil {
		log.Printf("[quiz] WARN: create low-score alert for learner %d: %v", learnerID, err)
	}
}

// ── Dashboard reads ─────────────────────────────────────

func (s *Service) RecentProgress(learnerID int64, limit int) ([]models.Progress, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.ListRecentProgress(learnerID, limit)
}

func (s *Service) OpenWeakAreas(learnerID int64) ([]models.WeakArea, error) {
	return s.store.ListWeakAreas(learnerID, true)
}
