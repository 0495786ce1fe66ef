package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS completions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	course_id TEXT NOT NULL,
	lesson_id TEXT NOT NULL,
	learner TEXT NOT NULL,
	steps INTEGER NOT NULL DEFAULT 0,
	solution TEXT NOT NULL DEFAULT '',
	completed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_completions_course ON completions(course_id, completed_at);
CREATE INDEX IF NOT EXISTS idx_completions_learner ON completions(course_id, learner);

CREATE TABLE IF NOT EXISTS courses (
	id TEXT PRIMARY KEY,
	doc TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore persists progress in a local SQLite database
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: failed to connect: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// RecordCompletion saves a finished lesson
func (s *SQLiteStore) RecordCompletion(ctx context.Context, c Completion) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO completions (course_id, lesson_id, learner, steps, solution) VALUES (?, ?, ?, ?, ?)`,
		c.CourseID, c.LessonID, c.Learner, c.Steps, c.Solution)
	if err != nil {
		return 0, fmt.Errorf("sqlite store: insert failed: %w", err)
	}
	return result.LastInsertId()
}

// Completions returns completions for a course, newest first
func (s *SQLiteStore) Completions(ctx context.Context, courseID string, limit int) ([]Completion, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, course_id, lesson_id, learner, steps, solution, completed_at
		FROM completions WHERE course_id = ? ORDER BY completed_at DESC LIMIT ?`
	args := []interface{}{courseID, limit}
	if courseID == "" {
		query = `SELECT id, course_id, lesson_id, learner, steps, solution, completed_at
			FROM completions ORDER BY completed_at DESC LIMIT ?`
		args = []interface{}{limit}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: query failed: %w", err)
	}
	defer rows.Close()

	return scanCompletions(rows)
}

// CompletedLessons returns the lesson IDs a learner has finished in a course
func (s *SQLiteStore) CompletedLessons(ctx context.Context, courseID, learner string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT lesson_id FROM completions WHERE course_id = ? AND learner = ?`,
		courseID, learner)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: query failed: %w", err)
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
func (s *SQLiteStore) SaveCourseDoc(ctx context.Context, id string, doc []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, doc, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		id, string(doc))
	if err != nil {
		return fmt.Errorf("sqlite store: save course failed: %w", err)
	}
	return nil
}

// CourseDoc retrieves a stored course JSON document
func (s *SQLiteStore) CourseDoc(ctx context.Context, id string) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM courses WHERE id = ?`, id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlite store: course %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: load course failed: %w", err)
	}
	return []byte(doc), nil
}

// Close releases the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func scanCompletions(rows *sql.Rows) ([]Completion, error) {
	var completions []Completion
	for rows.Next() {
		var c Completion
		if err := rows.Scan(&c.ID, &c.CourseID, &c.LessonID, &c.Learner, &c.Steps, &c.Solution, &c.CompletedAt); err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}
