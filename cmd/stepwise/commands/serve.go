package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	course "github.com/stepwise/stepwise"
	"github.com/stepwise/stepwise/internal/config"
	"github.com/stepwise/stepwise/internal/server"
)

// ServeCommand implements the serve command.
func ServeCommand(args []string) error {
	// Parse arguments
	dir := "."
	var configPath string
	var port string
	var host string
	var watch *bool

	// Parse flags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--watch" || arg == "-w" {
			watchVal := true
			watch = &watchVal
		} else if arg == "--no-watch" {
			watchVal := false
			watch = &watchVal
		} else if arg == "--port" || arg == "-p" {
			if i+1 < len(args) {
				port = args[i+1]
				i++
			}
		} else if arg == "--host" {
			if i+1 < len(args) {
				host = args[i+1]
				i++
			}
		} else if arg == "--config" || arg == "-c" {
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		} else if !strings.HasPrefix(arg, "-") {
			// Positional argument (courses directory)
			dir = arg
		}
	}

	// Check if directory exists
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", dir)
	}

	// Get absolute path
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Load configuration
	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		fmt.Printf("📝 Using config: %s\n", configPath)
	} else {
		// Try to load from directory
		cfg, err = config.LoadFromDir(absDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// CLI flags override config
	if port != "" {
		portInt, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid port: %s", port)
		}
		cfg.Server.Port = portInt
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if watch != nil {
		cfg.Features.HotReload = *watch
	}
	if cfg.Courses.Dir == "" {
		cfg.Courses.Dir = absDir
	}

	fmt.Printf("🎓 Stepwise Course Server\n\n")
	fmt.Printf("Serving: %s\n", cfg.Courses.GetDir())

	// Discover courses
	catalog := course.NewCatalog(cfg.Courses.GetDir())
	if err := catalog.Discover(); err != nil {
		return fmt.Errorf("failed to discover courses: %w", err)
	}

	fmt.Printf("\nCourses discovered:\n")
	for _, c := range catalog.List() {
		fmt.Printf("  %-30s %d lesson(s)\n", c.Title, len(c.Lessons))
	}
	if len(catalog.List()) == 0 {
		fmt.Printf("  (none yet - use the generate command or POST /api/generate)\n")
	}

	// Open completion store
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeQuietly("store", st.Close)

	// Build the course generator if an API key is configured
	gen, err := buildGenerator(cfg)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}
	if gen != nil {
		defer closeQuietly("generator", gen.Close)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("\n🌐 Server running at http://%s\n", addr)
	if gen != nil {
		fmt.Printf("🤖 Course generation enabled (%s)\n", cfg.AI.GetModel())
	} else {
		fmt.Printf("🤖 Course generation disabled (no API key configured)\n")
	}
	if cfg.API != nil && cfg.API.IsAuthEnabled() {
		fmt.Printf("🔐 API authentication enabled\n")
	}
	if cfg.Features.HotReload {
		fmt.Printf("👀 Watch mode enabled - course files auto-reload on changes\n")
	}
	fmt.Printf("⚡ Gzip compression enabled\n")
	fmt.Printf("Press Ctrl+C to stop\n\n")

	// Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, catalog, st, gen)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Println("Server stopped.")
	return nil
}

func init() {
	log.SetFlags(0) // Remove timestamp from logs
}
