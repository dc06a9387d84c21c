package gamification

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/moussahe/schoolaris-backend/internal/models"
)

// SQLStore is the Postgres implementation of Store.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// ── Learner Ledger ──────────────────────────────────────

func (s *SQLStore) GetLearnerState(learnerID int64) (*LearnerState, error) {
	var state LearnerState
	err := s.db.QueryRow(
		`SELECT xp, level, current_streak, longest_streak, last_activity_at
		 FROM learners WHERE id = $1`,
		learnerID,
	).Scan(&state.XP, &state.Level, &state.CurrentStreak, &state.LongestStreak, &state.LastActivityAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get learner state: %w", err)
	}
	return &state, nil
}

func (s *SQLStore) GetLearnerParent(learnerID int64) (int64, error) {
	var parentID int64
	err := s.db.QueryRow(`SELECT parent_id FROM learners WHERE id = $1`, learnerID).Scan(&parentID)
	if err == sql.ErrNoRows {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get learner parent: %w", err)
	}
	return parentID, nil
}

// IncrementXP applies the delta in one statement and returns the new
// total, so concurrent increments cannot lose each other's writes.
func (s *SQLStore) IncrementXP(learnerID int64, amount int) (int, error) {
	var newXP int
	err := s.db.QueryRow(
		`UPDATE learners SET xp = xp + $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING xp`,
		learnerID, amount,
	).Scan(&newXP)
	if err == sql.ErrNoRows {
		return 0, models.ErrNotFound
	}
	return newXP, err
}

func (s *SQLStore) SetLevel(learnerID int64, level int) error {
	_, err := s.db.Exec(
		`UPDATE learners SET level = $2, updated_at = NOW() WHERE id = $1`,
		learnerID, level,
	)
	return err
}

func (s *SQLStore) UpdateStreak(learnerID int64, currentStreak, longestStreak int, lastActivityAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE learners SET
		    current_streak = $2, longest_streak = $3, last_activity_at = $4,
		    updated_at = NOW()
		 WHERE id = $1`,
		learnerID, currentStreak, longestStreak, lastActivityAt,
	)
	return err
}

// ── Aggregate Stats ─────────────────────────────────────

// GetLearnerStats snapshots the metrics badge requirements are checked
// against. A course counts as completed only when every published lesson
// in it has a completed progress row for this learner.
func (s *SQLStore) GetLearnerStats(learnerID int64) (*LearnerStats, error) {
	stats := &LearnerStats{}

	err := s.db.QueryRow(
		`SELECT xp, level, current_streak, longest_streak FROM learners WHERE id = $1`,
		learnerID,
	).Scan(&stats.XP, &stats.Level, &stats.CurrentStreak, &stats.LongestStreak)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get learner stats: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT
		    COUNT(*) FILTER (WHERE is_completed),
		    COUNT(*) FILTER (WHERE quiz_score >= 70),
		    COUNT(*) FILTER (WHERE quiz_score = 100)
		 FROM progress WHERE learner_id = $1`,
		learnerID,
	).Scan(&stats.LessonsCompleted, &stats.QuizzesPassed, &stats.PerfectQuizzes)
	if err != nil {
		return nil, fmt.Errorf("count progress: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM courses c
		 WHERE c.published
		   AND EXISTS (SELECT 1 FROM lessons l WHERE l.course_id = c.id AND l.published)
		   AND NOT EXISTS (
		       SELECT 1 FROM lessons l
		       LEFT JOIN progress p ON p.lesson_id = l.id AND p.learner_id = $1 AND p.is_completed
		       WHERE l.course_id = c.id AND l.published AND p.id IS NULL
		   )`,
		learnerID,
	).Scan(&stats.CoursesCompleted)
	if err != nil {
		return nil, fmt.Errorf("count completed courses: %w", err)
	}

	return stats, nil
}

// ── Badge Awards ────────────────────────────────────────

func (s *SQLStore) GetAwardedCodes(learnerID int64) (map[string]bool, error) {
	rows, err := s.db.Query(
		`SELECT badge_code FROM badge_awards WHERE learner_id = $1`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("get awarded codes: %w", err)
	}
	defer rows.Close()

	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes[code] = true
	}
	return codes, rows.Err()
}

// AwardBadge inserts the award row and reports whether this call created
// it. ON CONFLICT DO NOTHING makes duplicate awards a no-op.
func (s *SQLStore) AwardBadge(learnerID int64, code string) (bool, error) {
	result, err := s.db.Exec(
		`INSERT INTO badge_awards (learner_id, badge_code) VALUES ($1, $2)
		 ON CONFLICT (learner_id, badge_code) DO NOTHING`,
		learnerID, code,
	)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (s *SQLStore) ListAwards(learnerID int64) ([]Award, error) {
	rows, err := s.db.Query(
		`SELECT badge_code, earned_at FROM badge_awards
		 WHERE learner_id = $1 ORDER BY earned_at`,
		learnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list awards: %w", err)
	}
	defer rows.Close()

	var awards []Award
	for rows.Next() {
		var a Award
		if err := rows.Scan(&a.Code, &a.EarnedAt); err != nil {
			return nil, err
		}
		awards = append(awards, a)
	}
	return awards, rows.Err()
}
