// Package store persists learner progress and generated courses.
package store

import (
	"context"
	"fmt"
	"time"
)

// Completion records a learner finishing a lesson
type Completion struct {
	ID          int64     `json:"id"`
	CourseID    string    `json:"courseId"`
	LessonID    string    `json:"lessonId"`
	Learner     string    `json:"learner"`  // session identifier, not an account
	Steps       int       `json:"steps"`    // number of steps in the plan that was completed
	Solution    string    `json:"solution"` // final buffer text at completion
	CompletedAt time.Time `json:"completedAt"`
}

// Store persists completions and course documents
type Store interface {
	// RecordCompletion saves a finished lesson
	RecordCompletion(ctx context.Context, c Completion) (int64, error)

	// Completions returns completions for a course, newest first.
	// An empty courseID returns all completions.
	Completions(ctx context.Context, courseID string, limit int) ([]Completion, error)

	// CompletedLessons returns the lesson IDs a learner has finished in a course
	CompletedLessons(ctx context.Context, courseID, learner string) ([]string, error)

	// SaveCourseDoc stores a generated course JSON document by ID
	SaveCourseDoc(ctx context.Context, id string, doc []byte) error

	// CourseDoc retrieves a stored course JSON document
	CourseDoc(ctx context.Context, id string) ([]byte, error)

	// Close releases database resources
	Close() error
}

// Options configures a store opened by driver name
type Options struct {
	Driver string // "sqlite" or "postgres"
	Path   string // SQLite database path
	DSN    string // Postgres connection string
}

// Open creates a Store for the configured driver
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case "", "sqlite":
		path := opts.Path
		if path == "" {
			path = "./stepwise.db"
		}
		return OpenSQLite(path)
	case "postgres":
		return OpenPostgres(opts.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
