package course

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Catalog is the set of course documents found in a directory. Files are
// plain .json course payloads; anything under directories starting with "_"
// or "." is ignored.
type Catalog struct {
	rootDir string

	mu      sync.RWMutex
	courses map[string]*Course
}

// NewCatalog creates a catalog rooted at dir. Call Discover to populate it.
func NewCatalog(dir string) *Catalog {
	return &Catalog{
		rootDir: dir,
		courses: make(map[string]*Course),
	}
}

// Discover scans the root directory for .json course files. Files that fail
// to parse are skipped with a warning so one bad document does not take the
// whole catalog down.
func (cat *Catalog) Discover() error {
	cat.mu.Lock()
	defer cat.mu.Unlock()

	cat.courses = make(map[string]*Course)

	err := filepath.WalkDir(cat.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			if path != cat.rootDir && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		c, err := ParseCourse(data)
		if err != nil {
			log.Printf("Warning: Failed to parse %s: %v", path, err)
			return nil // Continue with other files
		}

		cat.courses[c.ID] = c
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk courses directory: %w", err)
	}
	return nil
}

// Reload re-parses a single course file, used by the file watcher.
func (cat *Catalog) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c, err := ParseCourse(data)
	if err != nil {
		return err
	}

	cat.mu.Lock()
	cat.courses[c.ID] = c
	cat.mu.Unlock()
	return nil
}

// Get returns a course by id.
func (cat *Catalog) Get(id string) (*Course, bool) {
	cat.mu.RLock()
	defer cat.mu.RUnlock()
	c, ok := cat.courses[id]
	return c, ok
}

// List returns all courses sorted by title.
func (cat *Catalog) List() []*Course {
	cat.mu.RLock()
	defer cat.mu.RUnlock()

	out := make([]*Course, 0, len(cat.courses))
	for _, c := range cat.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Save writes a course document into the catalog directory and registers it.
func (cat *Catalog) Save(c *Course) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal course: %w", err)
	}

	if err := os.MkdirAll(cat.rootDir, 0755); err != nil {
		return fmt.Errorf("failed to create courses directory: %w", err)
	}

	path := filepath.Join(cat.rootDir, c.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write course file: %w", err)
	}

	cat.mu.Lock()
	cat.courses[c.ID] = c
	cat.mu.Unlock()
	return nil
}

// Dir returns the catalog's root directory.
func (cat *Catalog) Dir() string {
	return cat.rootDir
}
