package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	course "github.com/stepwise/stepwise"
	"github.com/stepwise/stepwise/internal/guide"
	"github.com/stepwise/stepwise/internal/stepgen"
	"github.com/stepwise/stepwise/internal/store"
)

// maxRequestBodySize limits the size of incoming request bodies (1MB)
const maxRequestBodySize = 1 << 20

// defaultCompletionLimit is the default pagination limit when none is specified
const defaultCompletionLimit = 100

// APIHandler handles REST API requests.
type APIHandler struct {
	catalog   *course.Catalog
	store     store.Store       // may be nil
	generator stepgen.Generator // may be nil
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(catalog *course.Catalog, st store.Store, gen stepgen.Generator) *APIHandler {
	return &APIHandler{
		catalog:   catalog,
		store:     st,
		generator: gen,
	}
}

// ServeHTTP routes API requests.
// Paths: /api/courses, /api/courses/{id}, /api/courses/{id}/lessons/{lid}/steps,
// /api/generate, /api/completions
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/")

	switch {
	case path == "courses":
		h.handleCourses(w, r)
	case strings.HasPrefix(path, "courses/"):
		h.handleCourse(w, r, strings.TrimPrefix(path, "courses/"))
	case path == "generate":
		h.handleGenerate(w, r)
	case path == "completions":
		h.handleCompletions(w, r)
	default:
		writeError(w, http.StatusNotFound, "unknown API path")
	}
}

// courseSummary is the list-view shape of a course.
type courseSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Lessons     int    `json:"lessons"`
}

// handleCourses lists the catalog.
func (h *APIHandler) handleCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	courses := h.catalog.List()
	summaries := make([]courseSummary, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, courseSummary{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Lessons:     len(c.Lessons),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  summaries,
		"count": len(summaries),
	})
}

// handleCourse serves one course or one lesson's step plan.
func (h *APIHandler) handleCourse(w http.ResponseWriter, r *http.Request, rest string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	parts := strings.Split(rest, "/")
	c, ok := h.catalog.Get(parts[0])
	if !ok {
		writeError(w, http.StatusNotFound, "course not found: "+parts[0])
		return
	}

	switch {
	case len(parts) == 1:
		writeJSON(w, http.StatusOK, c)

	case len(parts) == 4 && parts[1] == "lessons" && parts[3] == "steps":
		lesson, ok := c.Lesson(parts[2])
		if !ok {
			writeError(w, http.StatusNotFound, "lesson not found: "+parts[2])
			return
		}
		steps := h.lessonSteps(r, c, lesson)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data":  steps,
			"count": len(steps),
		})

	default:
		writeError(w, http.StatusNotFound, "unknown API path")
	}
}

// lessonSteps returns the lesson's step plan, asking the generator to fill
// in a missing plan before falling back to one synthesized from the
// solution. Generated plans are saved back so the next request skips the
// model call.
func (h *APIHandler) lessonSteps(r *http.Request, c *course.Course, lesson *course.Lesson) []guide.Step {
	if len(lesson.Steps) > 0 || h.generator == nil {
		return lesson.StepPlan()
	}

	steps, err := h.generator.GenerateSteps(r.Context(), lesson)
	if err != nil {
		log.Printf("[API] Step generation failed for %s/%s, synthesizing: %v", c.ID, lesson.ID, err)
		return lesson.StepPlan()
	}

	lesson.Steps = steps
	if err := h.catalog.Save(c); err != nil {
		log.Printf("[API] Failed to save generated steps for %s: %v", c.ID, err)
	}
	return steps
}

// generateRequest is the POST /api/generate body.
type generateRequest struct {
	Prompt string `json:"prompt"`
}

// handleGenerate creates a course from a prompt and registers it.
func (h *APIHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "course generation is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	c, err := h.generator.GenerateCourse(r.Context(), req.Prompt)
	if err != nil {
		log.Printf("[API] Generation failed: %v", err)
		writeError(w, generateStatus(err), stepgen.UserFriendlyMessage(err))
		return
	}

	if err := h.catalog.Save(c); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.archiveCourse(r, c)

	writeJSON(w, http.StatusCreated, c)
}

// archiveCourse keeps a copy of the generated document in the store.
// Failures are logged, the catalog copy is authoritative.
func (h *APIHandler) archiveCourse(r *http.Request, c *course.Course) {
	if h.store == nil {
		return
	}
	doc, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := h.store.SaveCourseDoc(r.Context(), c.ID, doc); err != nil {
		log.Printf("[API] Failed to archive course %s: %v", c.ID, err)
	}
}

// generateStatus maps generation failures to HTTP status codes.
func generateStatus(err error) int {
	switch {
	case isCircuitOpen(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func isCircuitOpen(err error) bool {
	var circuitErr *stepgen.CircuitOpenError
	return errors.As(err, &circuitErr)
}

// handleCompletions lists recorded completions.
func (h *APIHandler) handleCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage is not configured")
		return
	}

	courseID := r.URL.Query().Get("course")
	limit := parseIntParam(r, "limit", defaultCompletionLimit)

	completions, err := h.store.Completions(r.Context(), courseID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if completions == nil {
		completions = []store.Completion{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  completions,
		"count": len(completions),
	})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Error encoding JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		log.Printf("[API] Error encoding error response: %v", err)
	}
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
