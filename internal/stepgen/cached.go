package stepgen

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	course "github.com/stepwise/stepwise"
	"github.com/stepwise/stepwise/internal/cache"
	"github.com/stepwise/stepwise/internal/guide"
)

// CachedGenerator wraps a Generator with payload caching so repeated prompts
// do not burn model quota. Stale entries are served while a background
// refresh runs.
type CachedGenerator struct {
	inner Generator
	cache cache.Cache
	ttl   time.Duration
	stale time.Duration
}

// NewCachedGenerator wraps gen with a cache. ttl controls expiry; entries
// become stale (served while refreshing) at half the ttl.
func NewCachedGenerator(gen Generator, c cache.Cache, ttl time.Duration) *CachedGenerator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedGenerator{
		inner: gen,
		cache: c,
		ttl:   ttl,
		stale: ttl / 2,
	}
}

func (g *CachedGenerator) Name() string {
	return g.inner.Name()
}

func (g *CachedGenerator) Close() error {
	return g.inner.Close()
}

// GenerateCourse returns a cached course for the prompt when available
func (g *CachedGenerator) GenerateCourse(ctx context.Context, prompt string) (*course.Course, error) {
	key := cacheKey("course", prompt)

	if data, found, isStale := g.cache.Get(key); found {
		var c course.Course
		if err := json.Unmarshal(data, &c); err == nil {
			if isStale {
				go g.refreshCourse(prompt, key)
			}
			return &c, nil
		}
		// Undecodable entry, drop it and regenerate
		g.cache.Invalidate(key)
	}

	c, err := g.inner.GenerateCourse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	g.store(key, c)
	return c, nil
}

// GenerateSteps returns a cached step plan for the lesson when available.
// The key covers the solution code, so edited lessons regenerate.
func (g *CachedGenerator) GenerateSteps(ctx context.Context, lesson *course.Lesson) ([]guide.Step, error) {
	key := cacheKey("steps", lesson.ID+"\x00"+lesson.SolutionCode)

	if data, found, _ := g.cache.Get(key); found {
		var steps []guide.Step
		if err := json.Unmarshal(data, &steps); err == nil && len(steps) > 0 {
			return steps, nil
		}
		g.cache.Invalidate(key)
	}

	steps, err := g.inner.GenerateSteps(ctx, lesson)
	if err != nil {
		return nil, err
	}

	g.store(key, steps)
	return steps, nil
}

// refreshCourse re-generates a stale course in the background
func (g *CachedGenerator) refreshCourse(prompt, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := g.inner.GenerateCourse(ctx, prompt)
	if err != nil {
		log.Printf("[StepGen] Background refresh failed: %v", err)
		return
	}
	g.store(key, c)
}

func (g *CachedGenerator) store(key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	g.cache.SetWithStale(key, data, g.stale, g.ttl)
}

func cacheKey(kind, material string) string {
	sum := sha256.Sum256([]byte(material))
	return kind + ":" + hex.EncodeToString(sum[:16])
}
