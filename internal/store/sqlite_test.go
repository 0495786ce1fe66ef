package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRecordAndListCompletions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.RecordCompletion(ctx, Completion{
		CourseID: "go-basics",
		LessonID: "hello",
		Learner:  "sess-1",
		Steps:    4,
		Solution: "package main\n\nfunc main() {}\n",
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero completion ID")
	}

	completions, err := s.Completions(ctx, "go-basics", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(completions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(completions))
	}

	c := completions[0]
	if c.CourseID != "go-basics" || c.LessonID != "hello" || c.Learner != "sess-1" || c.Steps != 4 {
		t.Errorf("unexpected completion: %+v", c)
	}
	if c.Solution != "package main\n\nfunc main() {}\n" {
		t.Errorf("expected solution to round trip, got %q", c.Solution)
	}
	if c.CompletedAt.IsZero() {
		t.Error("expected completed_at to be set")
	}
}

func TestSQLiteCompletionsFiltersByCourse(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.RecordCompletion(ctx, Completion{CourseID: "go-basics", LessonID: "hello", Learner: "sess-1"})
	s.RecordCompletion(ctx, Completion{CourseID: "sql-intro", LessonID: "select", Learner: "sess-1"})

	completions, err := s.Completions(ctx, "go-basics", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(completions) != 1 {
		t.Fatalf("expected 1 completion for go-basics, got %d", len(completions))
	}

	// Empty course ID returns everything
	all, err := s.Completions(ctx, "", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 completions total, got %d", len(all))
	}
}

func TestSQLiteCompletedLessons(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.RecordCompletion(ctx, Completion{CourseID: "go-basics", LessonID: "hello", Learner: "sess-1"})
	s.RecordCompletion(ctx, Completion{CourseID: "go-basics", LessonID: "hello", Learner: "sess-1"}) // repeat
	s.RecordCompletion(ctx, Completion{CourseID: "go-basics", LessonID: "loops", Learner: "sess-1"})
	s.RecordCompletion(ctx, Completion{CourseID: "go-basics", LessonID: "funcs", Learner: "sess-2"})

	lessons, err := s.CompletedLessons(ctx, "go-basics", "sess-1")
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(lessons) != 2 {
		t.Fatalf("expected 2 distinct lessons, got %d: %v", len(lessons), lessons)
	}
}

func TestSQLiteCourseDocRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := []byte(`{"title":"Go Basics","lessons":[]}`)
	if err := s.SaveCourseDoc(ctx, "go-basics", doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := s.CourseDoc(ctx, "go-basics")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(loaded) != string(doc) {
		t.Errorf("round trip mismatch: %q", loaded)
	}

	// Upsert replaces the document
	doc2 := []byte(`{"title":"Go Basics v2","lessons":[]}`)
	if err := s.SaveCourseDoc(ctx, "go-basics", doc2); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	loaded, err = s.CourseDoc(ctx, "go-basics")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(loaded) != string(doc2) {
		t.Errorf("expected updated doc, got %q", loaded)
	}
}

func TestSQLiteCourseDocNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.CourseDoc(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing course")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "oracle"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
