// Package course defines the course and lesson model for stepwise and the
// boundary validation applied to generated payloads before they enter the
// rest of the system.
package course

import (
	"encoding/json"
	"strings"

	"github.com/stepwise/stepwise/internal/guide"
)

// Course is a multi-lesson interactive coding course.
type Course struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Prompt      string   `json:"prompt,omitempty"` // prompt the course was generated from
	Lessons     []Lesson `json:"lessons"`
}

// Lesson is one unit of a course: instructional text, starting boilerplate,
// a reference solution, and optionally a pre-generated step plan.
type Lesson struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Brief        string       `json:"brief,omitempty"` // markdown shown above the editor
	StartCode    string       `json:"startCode,omitempty"`
	SolutionCode string       `json:"solutionCode"`
	Steps        []guide.Step `json:"steps,omitempty"`
}

// ParseCourse decodes and validates a course payload. Generated JSON is
// loosely shaped, so every payload goes through Validate before it is
// trusted; a failure here is the step-source failure kind, not a crash.
func ParseCourse(data []byte) (*Course, error) {
	var c Course
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &ValidationError{Field: "course", Message: "payload is not valid JSON: " + err.Error()}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the course for the fields the workspace depends on and
// fills in derivable ones (IDs from titles). Lesson step plans are filtered
// here so downstream code never sees comment-only steps.
func (c *Course) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return &ValidationError{Field: "title", Message: "course title is required"}
	}
	if c.ID == "" {
		c.ID = Slug(c.Title)
	}
	if len(c.Lessons) == 0 {
		return (&ValidationError{CourseID: c.ID, Field: "lessons", Message: "course has no lessons"}).
			WithHint("a generated course needs at least one lesson; retry the generation")
	}

	seen := make(map[string]bool, len(c.Lessons))
	for i := range c.Lessons {
		l := &c.Lessons[i]
		if strings.TrimSpace(l.Title) == "" {
			return &ValidationError{CourseID: c.ID, Lesson: i + 1, Field: "title", Message: "lesson title is required"}
		}
		if l.ID == "" {
			l.ID = Slug(l.Title)
		}
		if seen[l.ID] {
			return (&ValidationError{CourseID: c.ID, Lesson: i + 1, Field: "id", Message: "duplicate lesson id " + l.ID}).
				WithHint("lesson titles must be distinct within a course")
		}
		seen[l.ID] = true
		if strings.TrimSpace(l.SolutionCode) == "" {
			return &ValidationError{CourseID: c.ID, Lesson: i + 1, Field: "solutionCode", Message: "lesson has no reference solution"}
		}
		l.Steps = guide.FilterSteps(l.Steps)
	}
	return nil
}

// Lesson returns the lesson with the given id, or false.
func (c *Course) Lesson(id string) (*Lesson, bool) {
	for i := range c.Lessons {
		if c.Lessons[i].ID == id {
			return &c.Lessons[i], true
		}
	}
	return nil, false
}

// StepPlan returns the lesson's step plan, synthesizing one from the
// reference solution when no generated steps are available.
func (l *Lesson) StepPlan() []guide.Step {
	if len(l.Steps) > 0 {
		return guide.FilterSteps(l.Steps)
	}
	return guide.SynthesizeSteps(l.SolutionCode)
}

// Slug converts a title into a URL- and file-safe identifier.
func Slug(title string) string {
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
