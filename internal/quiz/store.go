package quiz

import (
	"database/sql"
	"fmt"

	"github.com/moussahe/schoolaris-backend/internal/models"
)

// SQLStore is the Postgres implementation of Store.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) GetLessonContext(lessonID int64) (*LessonContext, error) {
	var lesson LessonContext
	err := s.db.QueryRow(
		`SELECT id, title, subject, grade_level FROM lessons
		 WHERE id = $1 AND published`,
		lessonID,
	).Scan(&lesson.ID, &lesson.Title, &lesson.Subject, &lesson.GradeLevel)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson context: %w", err)
	}
	return &lesson, nil
}

// UpsertProgress overwrites score and completion with the latest attempt
// and accumulates time spent across attempts.
func (s *SQLStore) UpsertProgress(learnerID, lessonID int64, score int, completed bool, timeSpent int) error {
	_, err := s.db.Exec(
		`INSERT INTO progress (learner_id, lesson_id, is_completed, quiz_score, time_spent, last_accessed_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (learner_id, lesson_id) DO UPDATE SET
		    is_completed = EXCLUDED.is_completed,
		    quiz_score = EXCLUDED.quiz_score,
		    time_spent = progress.time_spent + EXCLUDED.time_spent,
		    last_accessed_at = NOW()`,
		learnerID, lessonID, completed, score, timeSpent,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (s *SQLStore) UpsertWeakArea(learnerID int64, subject, topic, category string, gradeLevel int) error {
	_, err := s.db.Exec(
		`INSERT INTO weak_areas (learner_id, subject, topic, category, grade_level, error_count, attempt_count, last_error_at)
		 VALUES ($1, $2, $3, $4, $5, 1, 1, NOW())
		 ON CONFLICT (learner_id, subject, topic) DO UPDATE SET
		    error_count = weak_areas.error_count + 1,
		    attempt_count = weak_areas.attempt_count + 1,
		    category = EXCLUDED.category,
		    last_error_at = NOW()`,
		learnerID, subject, topic, category, gradeLevel,
	)
	if err != nil {
		return fmt.Errorf("upsert weak area: %w", err)
	}
	return nil
}

// ResolveMasteredWeakAreas flips is_resolved on every open weak area for
// the learner and subject that meets the mastery criteria, and returns
// how many rows it resolved.
func (s *SQLStore) ResolveMasteredWeakAreas(learnerID int64, subject string) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE weak_areas SET is_resolved = TRUE, resolved_at = NOW()
		 WHERE learner_id = $1 AND subject = $2 AND NOT is_resolved
		   AND attempt_count >= $3 AND error_count <= $4`,
		learnerID, subject, masteryMinAttempts, masteryMaxErrors,
	)
	if err != nil {
		return 0, fmt.Errorf("resolve weak areas: %w", err)
	}
	return result.RowsAffected()
}

func (s *SQLStore) ListRecentProgress(learnerID int64, limit int) ([]models.Progress, error) {
	rows, err := s.db.Query(
		`SELECT p.id, p.learner_id, p.lesson_id, l.title, p.is_completed,
		        p.quiz_score, p.time_spent, p.last_accessed_at
		 FROM progress p
		 JOIN lessons l ON l.id = p.lesson_id
		 WHERE p.learner_id = $1
		 ORDER BY p.last_accessed_at DESC
		 LIMIT $2`,
		learnerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var progress []models.Progress
	for rows.Next() {
		var p models.Progress
		if err := rows.Scan(&p.ID, &p.LearnerID, &p.LessonID, &p.LessonTitle,
			&p.IsCompleted, &p.QuizScore, &p.TimeSpent, &p.LastAccessedAt); err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, rows.Err()
}

func (s *SQLStore) ListWeakAreas(learnerID int64, openOnly bool) ([]models.WeakArea, error) {
	query := `SELECT id, learner_id, subject, topic, category, grade_level,
	                 error_count, attempt_count, is_resolved, last_error_at, resolved_at
	          FROM weak_areas WHERE learner_id = $1`
	if openOnly {
		query += ` AND NOT is_resolved`
	}
	query += ` ORDER BY last_error_at DESC`

	rows, err := s.db.Query(query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list weak areas: %w", err)
	}
	defer rows.Close()

	var areas []models.WeakArea
	for rows.Next() {
		var wa models.WeakArea
		if err := rows.Scan(&wa.ID, &wa.LearnerID, &wa.Subject, &wa.Topic, &wa.Category,
			&wa.GradeLevel, &wa.ErrorCount, &wa.AttemptCount, &wa.IsResolved,
			&wa.LastErrorAt, &wa.ResolvedAt); err != nil {
			return nil, err
		}
		areas = append(areas, wa)
	}
	return areas, rows.Err()
}
