package stepgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	course "github.com/stepwise/stepwise"
	"github.com/stepwise/stepwise/internal/guide"
)

const generatorName = "gemini"

// GeminiGenerator generates courses using Google's Gemini API
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	retry   RetryConfig
	circuit *CircuitBreaker
}

// GeminiOptions configures a GeminiGenerator
type GeminiOptions struct {
	APIKey  string
	Model   string        // Model name (default: gemini-2.0-flash)
	Timeout time.Duration // Per-call timeout (default: 60s)
	Retry   RetryConfig
	Circuit CircuitBreakerConfig
}

// NewGeminiGenerator creates a generator backed by the Gemini API
func NewGeminiGenerator(opts GeminiOptions) (*GeminiGenerator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	// Only an entirely zero config means "unset". MaxAttempts of 0 with
	// delays filled in is an explicit request to disable retries.
	if opts.Retry == (RetryConfig{}) {
		opts.Retry = DefaultRetryConfig()
	}
	if opts.Circuit.FailureThreshold == 0 {
		opts.Circuit = DefaultCircuitBreakerConfig()
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:  client,
		model:   opts.Model,
		timeout: opts.Timeout,
		retry:   opts.Retry,
		circuit: NewCircuitBreaker(generatorName, opts.Circuit),
	}, nil
}

// Name identifies the generator
func (g *GeminiGenerator) Name() string {
	return generatorName
}

// GenerateCourse builds a complete course from a topic prompt
func (g *GeminiGenerator) GenerateCourse(ctx context.Context, prompt string) (*course.Course, error) {
	start := time.Now()

	raw, err := g.call(ctx, coursePrompt(prompt))
	if err != nil {
		return nil, err
	}

	c, err := course.ParseCourse(raw)
	if err != nil {
		return nil, &PayloadError{Generator: generatorName, Reason: "course rejected", Err: err}
	}
	// Keep the prompt with the course so it can be regenerated later
	c.Prompt = prompt

	log.Printf("[StepGen] Generated course %q (%d lessons) in %v", c.ID, len(c.Lessons), time.Since(start))
	return c, nil
}

// GenerateSteps builds a step plan for a single lesson's solution code
func (g *GeminiGenerator) GenerateSteps(ctx context.Context, lesson *course.Lesson) ([]guide.Step, error) {
	raw, err := g.call(ctx, stepsPrompt(lesson))
	if err != nil {
		return nil, err
	}

	var steps []guide.Step
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil, &PayloadError{Generator: generatorName, Reason: "steps are not a JSON array", Err: err}
	}

	steps = guide.FilterSteps(steps)
	if len(steps) == 0 {
		return nil, &PayloadError{Generator: generatorName, Reason: "no substantive steps in model output"}
	}

	return steps, nil
}

// Close satisfies Generator. The genai client holds no connections that
// need explicit teardown.
func (g *GeminiGenerator) Close() error {
	return nil
}

// call sends a prompt through the circuit breaker and retry loop, returning
// the model's JSON payload with any markdown fences stripped
func (g *GeminiGenerator) call(ctx context.Context, prompt string) ([]byte, error) {
	return g.circuit.Execute(ctx, func(ctx context.Context) ([]byte, error) {
		return WithRetry(ctx, g.retry, func(ctx context.Context) ([]byte, error) {
			callCtx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()

			contents := []*genai.Content{
				genai.NewContentFromText(prompt, genai.RoleUser),
			}
			result, err := g.client.Models.GenerateContent(callCtx,
				g.model,
				contents,
				&genai.GenerateContentConfig{
					ResponseMIMEType: "application/json",
					Temperature:      genai.Ptr[float32](0.4),
				},
			)
			if err != nil {
				return nil, NewGenerationError(generatorName, "generate content", err)
			}

			text := result.Text()
			if strings.TrimSpace(text) == "" {
				return nil, &PayloadError{Generator: generatorName, Reason: "empty model response"}
			}

			return []byte(stripFences(text)), nil
		})
	})
}

// stripFences removes a surrounding markdown code fence if the model added
// one despite the JSON response type
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func coursePrompt(topic string) string {
	var b strings.Builder
	b.WriteString("You write interactive coding courses. Produce a course on the topic below.\n\n")
	b.WriteString("Respond with ONLY a JSON object, no prose, matching this shape:\n")
	b.WriteString(`{
  "title": "course title",
  "description": "one paragraph, markdown allowed",
  "lessons": [
    {
      "title": "lesson title",
      "brief": "what the learner will build, markdown allowed",
      "startCode": "code the editor opens with; include the line <!-- Write code here --> where new code belongs",
      "solutionCode": "the complete working solution",
      "steps": [
        {
          "code": "one line or small block the learner should type next",
          "explanation": "why this code, one or two sentences",
          "context": "the exact existing line the new code goes after, or empty"
        }
      ]
    }
  ]
}`)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- 3 to 6 lessons, each small enough to finish in minutes.\n")
	b.WriteString("- Every step's code must appear verbatim in that lesson's solutionCode.\n")
	b.WriteString("- Steps must be in the order the learner should type them.\n")
	b.WriteString("- Do not emit steps that are only comments.\n\n")
	b.WriteString("Topic: ")
	b.WriteString(topic)
	return b.String()
}

func stepsPrompt(lesson *course.Lesson) string {
	var b strings.Builder
	b.WriteString("You break a code solution into typing steps for a learner.\n\n")
	b.WriteString("Respond with ONLY a JSON array, no prose, of objects with keys ")
	b.WriteString(`"code", "explanation", "context"`)
	b.WriteString(". Each code value must appear verbatim in the solution. ")
	b.WriteString("context is the exact existing line the code goes after, or empty. ")
	b.WriteString("Skip lines that are only comments.\n\n")
	b.WriteString("Lesson: ")
	b.WriteString(lesson.Title)
	b.WriteString("\n\nStarting code:\n")
	b.WriteString(lesson.StartCode)
	b.WriteString("\n\nSolution:\n")
	b.WriteString(lesson.SolutionCode)
	return b.String()
}
