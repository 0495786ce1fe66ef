package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS completions (
	id BIGSERIAL PRIMARY KEY,
	course_id TEXT NOT NULL,
	lesson_id TEXT NOT NULL,
	learner TEXT NOT NULL,
	steps INTEGER NOT NULL DEFAULT 0,
	solution TEXT NOT NULL DEFAULT '',
	completed_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_completions_course ON completions(course_id, completed_at);
CREATE INDEX IF NOT EXISTS idx_completions_learner ON completions(course_id, learner);

CREATE TABLE IF NOT EXISTS courses (
	id TEXT PRIMARY KEY,
	doc TEXT NOT NULL,
	updated_at TIMESTAMPTZ DEFAULT NOW()
);
`

// PostgresStore persists progress in PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects using dsn, falling back to DATABASE_URL
func OpenPostgres(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: connection required (set dsn in config or DATABASE_URL env)")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres store: failed to connect: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres store: failed to create schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// RecordCompletion saves a finished lesson
func (s *PostgresStore) RecordCompletion(ctx context.Context, c Completion) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO completions (course_id, lesson_id, learner, steps, solution) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		c.CourseID, c.LessonID, c.Learner, c.Steps, c.Solution).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres store: insert failed: %w", err)
	}
	return id, nil
}

// Completions returns completions for a course, newest first
func (s *PostgresStore) Completions(ctx context.Context, courseID string, limit int) ([]Completion, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, course_id, lesson_id, learner, steps, solution, completed_at
		FROM completions WHERE course_id = $1 ORDER BY completed_at DESC LIMIT $2`
	args := []interface{}{courseID, limit}
	if courseID == "" {
		query = `SELECT id, course_id, lesson_id, learner, steps, solution, completed_at
			FROM completions ORDER BY completed_at DESC LIMIT $1`
		args = []interface{}{limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres store: query failed: %w", err)
	}
	defer rows.Close()

	return scanCompletions(rows)
}

// CompletedLessons returns the lesson IDs a learner has finished in a course
func (s *PostgresStore) CompletedLessons(ctx context.Context, courseID, learner string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT lesson_id FROM completions WHERE course_id = $1 AND learner = $2`,
		courseID, learner)
	if err != nil {
		return nil, fmt.Errorf("postgres store: query failed: %w", err)
	}
	defer rows.Close()

	var lessons []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		lessons = append(lessons, id)
	}
	return lessons, rows.Err()
}

// SaveCourseDoc stores a generated course JSON document by ID
func (s *PostgresStore) SaveCourseDoc(ctx context.Context, id string, doc []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, doc, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		id, string(doc))
	if err != nil {
		return fmt.Errorf("postgres store: save course failed: %w", err)
	}
	return nil
}

// CourseDoc retrieves a stored course JSON document
func (s *PostgresStore) CourseDoc(ctx context.Context, id string) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM courses WHERE id = $1`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("postgres store: course %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: load course failed: %w", err)
	}
	return []byte(doc), nil
}

// Close releases the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
