package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/stepwise/stepwise/internal/stepgen"
)

// GenerateCommand implements the generate command.
// Usage: stepwise generate "<prompt>" [flags]
func GenerateCommand(args []string) error {
	opts, positional := parseFlags(args)
	if len(positional) == 0 {
		return fmt.Errorf("usage: stepwise generate \"<prompt>\" [flags]\n\n" +
			"Flags:\n" +
			"  --config=<path>   Config file path\n" +
			"  --dir=<path>      Courses directory (default from config)\n\n" +
			"Examples:\n" +
			"  stepwise generate \"Intro to Go slices\"\n" +
			"  stepwise generate \"SQL joins for beginners\" --dir=./courses")
	}

	prompt := strings.TrimSpace(strings.Join(positional, " "))
	if prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	gen, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}
	if gen == nil {
		return fmt.Errorf("course generation requires an API key (set ai.api_key or GEMINI_API_KEY)")
	}
	defer closeQuietly("generator", gen.Close)

	catalog, err := openCatalog(cfg, opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	fmt.Printf("🤖 Generating course for: %s\n", prompt)

	c, err := gen.GenerateCourse(ctx, prompt)
	if err != nil {
		return fmt.Errorf("generation failed: %s", stepgen.UserFriendlyMessage(err))
	}

	if err := catalog.Save(c); err != nil {
		return fmt.Errorf("failed to save course: %w", err)
	}

	fmt.Printf("\n✅ Course %q saved as %s.json\n", c.Title, c.ID)
	fmt.Printf("\nLessons:\n")
	for i, l := range c.Lessons {
		fmt.Printf("  %d. %-30s %d step(s)\n", i+1, l.Title, len(l.StepPlan()))
	}
	return nil
}
