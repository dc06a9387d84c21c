package alerts

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/moussahe/schoolaris-backend/internal/models"
)

// SQLStore persists parent-facing alerts.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Create inserts the alert and fills in its generated fields. The uuid
// reference is the public identifier handed to clients; the serial id
// stays internal.
func (s *SQLStore) Create(alert *models.Alert) error {
	alert.Reference = uuid.NewString()

	metadata := alert.Metadata
	if metadata == "" {
		metadata = "{}"
	}

	err := s.db.QueryRow(
		`INSERT INTO alerts (reference, learner_id, alert_type, priority, title, message, metadata, action_link)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		alert.Reference, alert.LearnerID, alert.AlertType, alert.Priority,
		alert.Title, alert.Message, metadata, alert.ActionLink,
	).Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// ListUnread returns the unread alerts across every learner the parent
// owns, newest first.
func (s *SQLStore) ListUnread(parentID int64) ([]models.Alert, error) {
	rows, err := s.db.Query(
		`SELECT a.id, a.reference, a.learner_id, a.alert_type, a.priority,
		        a.title, a.message, a.metadata, a.action_link, a.read, a.created_at
		 FROM alerts a
		 JOIN learners l ON l.id = a.learner_id
		 WHERE l.parent_id = $1 AND NOT a.read
		 ORDER BY a.created_at DESC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Reference, &a.LearnerID, &a.AlertType, &a.Priority,
			&a.Title, &a.Message, &a.Metadata, &a.ActionLink, &a.Read, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkRead acknowledges one alert. The parent-id join doubles as the
// ownership check: a reference belonging to someone else's learner
// matches zero rows and comes back as not found.
func (s *SQLStore) MarkRead(reference string, parentID int64) error {
	result, err := s.db.Exec(
		`UPDATE alerts a SET read = TRUE
		 FROM learners l
		 WHERE a.reference = $1 AND l.id = a.learner_id AND l.parent_id = $2`,
		reference, parentID,
	)
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}
