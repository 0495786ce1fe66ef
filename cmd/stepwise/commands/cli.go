package commands

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	course "github.com/stepwise/stepwise"
	"github.com/stepwise/stepwise/internal/cache"
	"github.com/stepwise/stepwise/internal/config"
	"github.com/stepwise/stepwise/internal/stepgen"
	"github.com/stepwise/stepwise/internal/store"
)

// defaultTimeout is the default context timeout for CLI operations
const defaultTimeout = 2 * time.Minute

// maxColumnWidth is the maximum width for table columns before truncation
const maxColumnWidth = 50

// cliOptions holds parsed command-line flags
type cliOptions struct {
	format string // Output format: table, json
	config string // Config file path
	dir    string // Courses directory override
	course string // Course ID
	lesson string // Lesson ID
	out    string // Output file path
	limit  int    // Result limit
	yes    bool   // Skip confirmation
}

// parseFlags parses --key=value command-line flags
func parseFlags(args []string) (cliOptions, []string) {
	opts := cliOptions{format: "table"}
	var positional []string

	for _, arg := range args {
		if arg == "-y" || arg == "--yes" {
			opts.yes = true
			continue
		}

		if !strings.HasPrefix(arg, "--") {
			positional = append(positional, arg)
			continue
		}

		// Remove leading --
		arg = strings.TrimPrefix(arg, "--")

		// Split on first =
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := parts[0]
		value := parts[1]

		switch key {
		case "format":
			switch value {
			case "table", "json":
				opts.format = value
			default:
				// Invalid format - keep default and log warning
				log.Printf("warning: invalid format %q, using default 'table'", value)
			}
		case "config":
			opts.config = value
		case "dir":
			opts.dir = value
		case "course":
			opts.course = value
		case "lesson":
			opts.lesson = value
		case "out":
			opts.out = value
		case "limit":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				log.Printf("warning: invalid limit %q, ignoring", value)
				continue
			}
			opts.limit = n
		default:
			log.Printf("warning: unknown flag --%s", key)
		}
	}

	return opts, positional
}

// loadConfig loads configuration from --config or the working directory
func loadConfig(opts cliOptions) (*config.Config, error) {
	if opts.config != "" {
		cfg, err := config.Load(opts.config)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	return config.LoadFromDir(".")
}

// openCatalog discovers the course catalog for the configured directory
func openCatalog(cfg *config.Config, opts cliOptions) (*course.Catalog, error) {
	dir := opts.dir
	if dir == "" {
		dir = cfg.Courses.GetDir()
	}

	catalog := course.NewCatalog(dir)
	if err := catalog.Discover(); err != nil {
		return nil, fmt.Errorf("failed to discover courses: %w", err)
	}
	return catalog, nil
}

// buildGenerator constructs the configured course generator, or nil when
// no API key is available.
func buildGenerator(cfg *config.Config) (stepgen.Generator, error) {
	apiKey := cfg.AI.GetAPIKey()
	if apiKey == "" {
		return nil, nil
	}

	gen, err := stepgen.NewGeminiGenerator(stepgen.GeminiOptions{
		APIKey:  apiKey,
		Model:   cfg.AI.GetModel(),
		Timeout: cfg.AI.GetTimeout(),
		Retry: stepgen.RetryConfig{
			MaxAttempts:  cfg.AI.GetRetryMaxRetries(),
			InitialDelay: cfg.AI.GetRetryBaseDelay(),
			MaxDelay:     cfg.AI.GetRetryMaxDelay(),
			Multiplier:   2.0,
		},
	})
	if err != nil {
		return nil, err
	}

	if cfg.AI.IsCacheEnabled() {
		return stepgen.NewCachedGenerator(gen, cache.NewMemoryCache(), cfg.AI.GetCacheTTL()), nil
	}
	return gen, nil
}

// openStore opens the configured completion store
func openStore(cfg *config.Config) (store.Store, error) {
	return store.Open(store.Options{
		Driver: cfg.Storage.GetDriver(),
		Path:   cfg.Storage.GetPath(),
		DSN:    cfg.Storage.GetDSN(),
	})
}

// closeQuietly closes a resource and logs on failure
func closeQuietly(name string, close func() error) {
	if err := close(); err != nil {
		log.Printf("warning: failed to close %s: %v", name, err)
	}
}

// outputJSON outputs data as JSON
func outputJSON(data interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// truncateString truncates a string to maxColumnWidth with ellipsis if needed
func truncateString(s string) string {
	if len(s) > maxColumnWidth {
		return s[:maxColumnWidth-3] + "..."
	}
	return s
}

// outputTable outputs rows as a formatted table with the given column order
func outputTable(columns []string, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		fmt.Println("No items found.")
		return nil
	}

	// Calculate column widths
	widths := make(map[string]int)
	for _, col := range columns {
		widths[col] = len(col)
	}
	for _, row := range rows {
		for col, val := range row {
			str := truncateString(fmt.Sprintf("%v", val))
			if len(str) > widths[col] {
				widths[col] = len(str)
			}
		}
	}

	// Print header
	var header strings.Builder
	var separator strings.Builder
	for i, col := range columns {
		if i > 0 {
			header.WriteString(" | ")
			separator.WriteString("-+-")
		}
		header.WriteString(fmt.Sprintf("%-*s", widths[col], col))
		separator.WriteString(strings.Repeat("-", widths[col]))
	}
	fmt.Println(header.String())
	fmt.Println(separator.String())

	// Print rows
	for _, row := range rows {
		var line strings.Builder
		for i, col := range columns {
			if i > 0 {
				line.WriteString(" | ")
			}
			val := ""
			if v, ok := row[col]; ok {
				val = truncateString(fmt.Sprintf("%v", v))
			}
			line.WriteString(fmt.Sprintf("%-*s", widths[col], val))
		}
		fmt.Println(line.String())
	}

	fmt.Printf("\n%d item(s)\n", len(rows))
	return nil
}
