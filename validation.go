package course

import (
	"fmt"
	"strings"
)

// ValidationError reports a course payload that failed boundary validation,
// with enough context to point at the offending lesson and field.
type ValidationError struct {
	CourseID string // Course identifier, if known
	Lesson   int    // 1-based lesson number, 0 for course-level errors
	Field    string // Offending field
	Message  string // What is wrong
	Hint     string // Helpful suggestion
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.CourseID != "" {
		fmt.Fprintf(&b, "course %q: ", e.CourseID)
	}
	if e.Lesson > 0 {
		fmt.Fprintf(&b, "lesson %d: ", e.Lesson)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString(" (hint: " + e.Hint + ")")
	}
	return b.String()
}

// WithHint adds a helpful hint to the error.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}
