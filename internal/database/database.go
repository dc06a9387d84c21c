package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func Connect() (*sql.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "schoolaris_user")
	password := getEnv("DB_PASSWORD", "schoolaris_password")
	dbname := getEnv("DB_NAME", "schoolaris")
	sslmode := getEnv("DB_SSLMODE", "disable")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func Migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS learners (
		id               BIGSERIAL PRIMARY KEY,
		parent_id        BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name             VARCHAR(255) NOT NULL,
		grade_level      INT NOT NULL CHECK (grade_level >= 1 AND grade_level <= 12),
		xp               INT NOT NULL DEFAULT 0,
		level            INT NOT NULL DEFAULT 1,
		current_streak   INT NOT NULL DEFAULT 0,
		longest_streak   INT NOT NULL DEFAULT 0,
		last_activity_at TIMESTAMP WITH TIME ZONE,
		created_at       TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at       TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_learners_parent ON learners(parent_id);

	CREATE TABLE IF NOT EXISTS courses (
		id          BIGSERIAL PRIMARY KEY,
		subject     VARCHAR(50) NOT NULL,
		grade_level INT NOT NULL,
		title       VARCHAR(255) NOT NULL,
		published   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_courses_subject ON courses(subject, grade_level);

	CREATE TABLE IF NOT EXISTS lessons (
		id          BIGSERIAL PRIMARY KEY,
		course_id   BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		title       VARCHAR(255) NOT NULL,
		subject     VARCHAR(50) NOT NULL,
		grade_level INT NOT NULL,
		published   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_lessons_course ON lessons(course_id, published);

	CREATE TABLE IF NOT EXISTS progress (
		id               BIGSERIAL PRIMARY KEY,
		learner_id       BIGINT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		lesson_id        BIGINT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
		is_completed     BOOLEAN NOT NULL DEFAULT FALSE,
		quiz_score       INT,
		time_spent       INT NOT NULL DEFAULT 0,
		last_accessed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(learner_id, lesson_id)
	);

	CREATE INDEX IF NOT EXISTS idx_progress_learner ON progress(learner_id, last_accessed_at DESC);

	CREATE TABLE IF NOT EXISTS badge_awards (
		id         BIGSERIAL PRIMARY KEY,
		learner_id BIGINT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		badge_code VARCHAR(50) NOT NULL,
		earned_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(learner_id, badge_code)
	);

	CREATE INDEX IF NOT EXISTS idx_badge_awards_learner ON badge_awards(learner_id);

	CREATE TABLE IF NOT EXISTS weak_areas (
		id            BIGSERIAL PRIMARY KEY,
		learner_id    BIGINT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		subject       VARCHAR(50) NOT NULL,
		topic         VARCHAR(255) NOT NULL,
		category      VARCHAR(20) NOT NULL DEFAULT 'concept',
		grade_level   INT NOT NULL,
		error_count   INT NOT NULL DEFAULT 1,
		attempt_count INT NOT NULL DEFAULT 1,
		is_resolved   BOOLEAN NOT NULL DEFAULT FALSE,
		last_error_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		resolved_at   TIMESTAMP WITH TIME ZONE,
		UNIQUE(learner_id, subject, topic)
	);

	CREATE INDEX IF NOT EXISTS idx_weak_areas_learner ON weak_areas(learner_id, is_resolved);

	CREATE TABLE IF NOT EXISTS alerts (
		id          BIGSERIAL PRIMARY KEY,
		reference   UUID UNIQUE NOT NULL,
		learner_id  BIGINT NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
		alert_type  VARCHAR(50) NOT NULL,
		priority    VARCHAR(20) NOT NULL DEFAULT 'medium',
		title       VARCHAR(255) NOT NULL,
		message     TEXT NOT NULL,
		metadata    JSONB NOT NULL DEFAULT '{}',
		action_link VARCHAR(255),
		read        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_learner ON alerts(learner_id, read, created_at DESC);
	`

	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Idempotent column additions for databases created before these
	// fields existed.
	alterStatements := []string{
		`ALTER TABLE weak_areas ADD COLUMN IF NOT EXISTS category VARCHAR(20) NOT NULL DEFAULT 'concept'`,
		`ALTER TABLE weak_areas ADD COLUMN IF NOT EXISTS attempt_count INT NOT NULL DEFAULT 1`,
		`ALTER TABLE alerts ADD COLUMN IF NOT EXISTS action_link VARCHAR(255)`,
		`ALTER TABLE alerts ADD COLUMN IF NOT EXISTS metadata JSONB NOT NULL DEFAULT '{}'`,
		`ALTER TABLE learners ADD COLUMN IF NOT EXISTS last_activity_at TIMESTAMP WITH TIME ZONE`,
	}

	for _, stmt := range alterStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("alter table failed: %w", err)
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
