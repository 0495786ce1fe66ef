package commands

import (
	"fmt"
)

// CoursesCommand implements the courses command, listing the catalog.
// Usage: stepwise courses [directory] [flags]
func CoursesCommand(args []string) error {
	opts, positional := parseFlags(args)
	if len(positional) > 0 {
		opts.dir = positional[0]
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	catalog, err := openCatalog(cfg, opts)
	if err != nil {
		return err
	}

	courses := catalog.List()

	if opts.format == "json" {
		return outputJSON(courses)
	}

	rows := make([]map[string]interface{}, 0, len(courses))
	for _, c := range courses {
		steps := 0
		for i := range c.Lessons {
			steps += len(c.Lessons[i].StepPlan())
		}
		rows = append(rows, map[string]interface{}{
			"id":      c.ID,
			"title":   c.Title,
			"lessons": len(c.Lessons),
			"steps":   steps,
		})
	}
	return outputTable([]string{"id", "title", "lessons", "steps"}, rows)
}

// StepsCommand implements the steps command, printing a lesson's step plan.
// Usage: stepwise steps <course> <lesson> [flags]
func StepsCommand(args []string) error {
	opts, positional := parseFlags(args)
	if len(positional) > 0 && opts.course == "" {
		opts.course = positional[0]
	}
	if len(positional) > 1 && opts.lesson == "" {
		opts.lesson = positional[1]
	}
	if opts.course == "" || opts.lesson == "" {
		return fmt.Errorf("usage: stepwise steps <course> <lesson> [flags]\n\n" +
			"Flags:\n" +
			"  --format=<table|json>  Output format (default: table)\n" +
			"  --config=<path>        Config file path\n" +
			"  --dir=<path>           Courses directory (default from config)\n\n" +
			"Examples:\n" +
			"  stepwise steps go-basics hello\n" +
			"  stepwise steps go-basics hello --format=json")
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	catalog, err := openCatalog(cfg, opts)
	if err != nil {
		return err
	}

	c, ok := catalog.Get(opts.course)
	if !ok {
		return fmt.Errorf("course %q not found", opts.course)
	}
	l, ok := c.Lesson(opts.lesson)
	if !ok {
		return fmt.Errorf("lesson %q not found in course %q", opts.lesson, opts.course)
	}

	steps := l.StepPlan()

	if opts.format == "json" {
		return outputJSON(steps)
	}

	rows := make([]map[string]interface{}, 0, len(steps))
	for i, s := range steps {
		rows = append(rows, map[string]interface{}{
			"step":        i + 1,
			"code":        s.Code,
			"explanation": s.Explanation,
		})
	}
	fmt.Printf("%s / %s\n\n", c.Title, l.Title)
	return outputTable([]string{"step", "code", "explanation"}, rows)
}
