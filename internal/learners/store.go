package learners

import (
	"database/sql"
	"fmt"

	"github.com/moussahe/schoolaris-backend/internal/models"
)

// SQLStore persists learner profiles. XP, level, and streak columns on
// the learner row are owned by the gamification store and never written
// here.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CreateLearner(parentID int64, name string, gradeLevel int) (*models.Learner, error) {
	learner := &models.Learner{
		ParentID:   parentID,
		Name:       name,
		GradeLevel: gradeLevel,
		Level:      1,
	}

	err := s.db.QueryRow(
		`INSERT INTO learners (parent_id, name, grade_level)
		 VALUES ($1, $2, $3)
		 RETURNING id, xp, level, current_streak, longest_streak, created_at, updated_at`,
		parentID, name, gradeLevel,
	).Scan(&learner.ID, &learner.XP, &learner.Level, &learner.CurrentStreak,
		&learner.LongestStreak, &learner.CreatedAt, &learner.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create learner: %w", err)
	}
	return learner, nil
}

func (s *SQLStore) ListLearners(parentID int64) ([]models.Learner, error) {
	rows, err := s.db.Query(
		`SELECT id, parent_id, name, grade_level, xp, level,
		        current_streak, longest_streak, last_activity_at, created_at, updated_at
		 FROM learners WHERE parent_id = $1 ORDER BY created_at`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list learners: %w", err)
	}
	defer rows.Close()

	var learners []models.Learner
	for rows.Next() {
		var l models.Learner
		if err := rows.Scan(&l.ID, &l.ParentID, &l.Name, &l.GradeLevel, &l.XP, &l.Level,
			&l.CurrentStreak, &l.LongestStreak, &l.LastActivityAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		learners = append(learners, l)
	}
	return learners, rows.Err()
}

func (s *SQLStore) GetLearner(learnerID int64) (*models.Learner, error) {
	var l models.Learner
	err := s.db.QueryRow(
		`SELECT id, parent_id, name, grade_level, xp, level,
		        current_streak, longest_streak, last_activity_at, created_at, updated_at
		 FROM learners WHERE id = $1`,
		learnerID,
	).Scan(&l.ID, &l.ParentID, &l.Name, &l.GradeLevel, &l.XP, &l.Level,
		&l.CurrentStreak, &l.LongestStreak, &l.LastActivityAt, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get learner: %w", err)
	}
	return &l, nil
}
