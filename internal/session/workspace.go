// Package session manages per-connection learner state: the open lesson,
// the editor buffer, and the step tracker driving guidance.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	course "github.com/stepwise/stepwise"
	"github.com/stepwise/stepwise/internal/guide"
	"github.com/stepwise/stepwise/internal/store"
)

// Layout holds the editor geometry used to compute scroll targets
type Layout struct {
	LineHeight     int
	TopPadding     int
	ViewportHeight int
	AdvanceNotice  time.Duration // how long the client shows the advancement toast
}

// Guidance is what the client renders after every workspace action
type Guidance struct {
	CourseID     string `json:"courseId,omitempty"`
	LessonID     string `json:"lessonId,omitempty"`
	LearnerMode  bool   `json:"learnerMode"`
	StepIndex    int    `json:"stepIndex"`
	TotalSteps   int    `json:"totalSteps"`
	Code         string `json:"code,omitempty"`        // next code to type
	Explanation  string `json:"explanation,omitempty"` // rendered HTML
	InsertLine   int    `json:"insertLine"`
	ScrollOffset int    `json:"scrollOffset"`
	Advanced     bool   `json:"advanced"`
	AdvanceMs    int    `json:"advanceMs,omitempty"` // toast duration when Advanced
	Completed    bool   `json:"completed"`
	Buffer       string `json:"buffer,omitempty"` // set when the server owns the buffer (selectLesson, reset)
}

// Workspace holds one learner's session state
type Workspace struct {
	mu sync.Mutex

	catalog *course.Catalog
	store   store.Store // may be nil
	layout  Layout
	learner string // session identifier

	course      *course.Course
	lesson      *course.Lesson
	tracker     *guide.Tracker
	buffer      string
	learnerMode bool
}

// NewWorkspace creates a workspace for one connection
func NewWorkspace(catalog *course.Catalog, st store.Store, layout Layout, learner string) *Workspace {
	return &Workspace{
		catalog:     catalog,
		store:       st,
		layout:      layout,
		learner:     learner,
		learnerMode: true,
	}
}

// HandleAction processes a workspace action and returns guidance for the client
func (w *Workspace) HandleAction(ctx context.Context, action string, data map[string]interface{}) (*Guidance, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch action {
	case "selectLesson":
		return w.handleSelectLesson(data)
	case "bufferChange":
		return w.handleBufferChange(ctx, data)
	case "learnerMode":
		return w.handleLearnerMode(data)
	case "reset":
		return w.handleReset()
	default:
		return nil, fmt.Errorf("unknown workspace action: %s", action)
	}
}

func (w *Workspace) handleSelectLesson(data map[string]interface{}) (*Guidance, error) {
	courseID, ok := data["courseId"].(string)
	if !ok {
		return nil, fmt.Errorf("missing courseId")
	}
	lessonID, ok := data["lessonId"].(string)
	if !ok {
		return nil, fmt.Errorf("missing lessonId")
	}

	c, ok := w.catalog.Get(courseID)
	if !ok {
		return nil, fmt.Errorf("unknown course: %s", courseID)
	}
	l, ok := c.Lesson(lessonID)
	if !ok {
		return nil, fmt.Errorf("unknown lesson: %s", lessonID)
	}

	w.course = c
	w.lesson = l
	w.tracker = guide.NewTracker(l.StepPlan())
	w.buffer = l.StartCode

	g := w.guidance(guide.Result{StepIndex: w.tracker.Index()})
	g.Buffer = w.buffer
	return g, nil
}

func (w *Workspace) handleBufferChange(ctx context.Context, data map[string]interface{}) (*Guidance, error) {
	code, ok := data["code"].(string)
	if !ok {
		return nil, fmt.Errorf("missing code")
	}

	w.buffer = code

	if w.tracker == nil {
		return nil, fmt.Errorf("no lesson selected")
	}
	if !w.learnerMode {
		return w.guidance(guide.Result{StepIndex: w.tracker.Index()}), nil
	}

	result := w.tracker.Evaluate(code)
	if result.Completed {
		w.recordCompletion(ctx)
	}

	return w.guidance(result), nil
}

func (w *Workspace) handleLearnerMode(data map[string]interface{}) (*Guidance, error) {
	enabled, ok := data["enabled"].(bool)
	if !ok {
		return nil, fmt.Errorf("missing enabled")
	}

	w.learnerMode = enabled

	if w.tracker == nil {
		return &Guidance{LearnerMode: w.learnerMode}, nil
	}

	// Progress does not survive the toggle: switching guidance back on
	// starts the lesson over from its starting code.
	if enabled {
		w.tracker.Reset()
		w.buffer = w.lesson.StartCode

		g := w.guidance(guide.Result{StepIndex: 0})
		g.Buffer = w.buffer
		return g, nil
	}

	return w.guidance(guide.Result{StepIndex: w.tracker.Index()}), nil
}

func (w *Workspace) handleReset() (*Guidance, error) {
	if w.lesson == nil {
		return nil, fmt.Errorf("no lesson selected")
	}

	w.tracker.Reset()
	w.buffer = w.lesson.StartCode

	g := w.guidance(guide.Result{StepIndex: 0})
	g.Buffer = w.buffer
	return g, nil
}

// guidance builds the client payload from the current workspace state.
// Callers hold the lock.
func (w *Workspace) guidance(result guide.Result) *Guidance {
	g := &Guidance{
		CourseID:    w.course.ID,
		LessonID:    w.lesson.ID,
		LearnerMode: w.learnerMode,
		StepIndex:   result.StepIndex,
		TotalSteps:  len(w.tracker.Steps()),
		Advanced:    result.Advanced,
		Completed:   result.Completed,
	}
	if result.Advanced {
		g.AdvanceMs = int(w.layout.AdvanceNotice / time.Millisecond)
	}

	step, active := w.tracker.Current()
	if !active || !w.learnerMode {
		return g
	}

	g.Code = step.Code
	g.Explanation = course.RenderMarkdown(step.Explanation)
	g.InsertLine = guide.InsertLine(w.buffer, step)
	g.ScrollOffset = guide.ScrollOffset(g.InsertLine,
		w.layout.LineHeight, w.layout.TopPadding, w.layout.ViewportHeight)
	return g
}

// recordCompletion persists a finished lesson. Persistence failures are
// logged, never surfaced to the learner. Callers hold the lock.
func (w *Workspace) recordCompletion(ctx context.Context) {
	if w.store == nil {
		return
	}

	_, err := w.store.RecordCompletion(ctx, store.Completion{
		CourseID: w.course.ID,
		LessonID: w.lesson.ID,
		Learner:  w.learner,
		Steps:    len(w.tracker.Steps()),
		Solution: w.buffer,
	})
	if err != nil {
		log.Printf("[Session] Failed to record completion for %s/%s: %v",
			w.course.ID, w.lesson.ID, err)
	}
}

// Buffer returns the current editor buffer
func (w *Workspace) Buffer() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer
}

// LearnerMode reports whether step guidance is active
func (w *Workspace) LearnerMode() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.learnerMode
}
