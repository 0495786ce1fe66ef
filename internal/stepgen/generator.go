package stepgen

import (
	"context"

	course "github.com/stepwise/stepwise"
	"github.com/stepwise/stepwise/internal/guide"
)

// Generator produces courses and per-lesson step plans from prompts.
// Implementations must return validated values: a Course that passed
// boundary validation, and step plans already stripped of comment-only
// entries.
type Generator interface {
	// GenerateCourse builds a complete course from a topic prompt
	GenerateCourse(ctx context.Context, prompt string) (*course.Course, error)

	// GenerateSteps builds a step plan for a single lesson's solution code
	GenerateSteps(ctx context.Context, lesson *course.Lesson) ([]guide.Step, error)

	// Name identifies the generator for logs and errors
	Name() string

	// Close releases backend resources
	Close() error
}
