// Command stepwise serves and generates interactive coding courses.
package main

import (
	"fmt"
	"os"

	"github.com/stepwise/stepwise/cmd/stepwise/commands"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "serve":
		err = commands.ServeCommand(args)
	case "generate":
		err = commands.GenerateCommand(args)
	case "courses":
		err = commands.CoursesCommand(args)
	case "steps":
		err = commands.StepsCommand(args)
	case "version":
		fmt.Printf("stepwise version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("stepwise - AI-generated interactive coding courses")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  stepwise serve [directory]        Start the course server")
	fmt.Println("  stepwise generate <prompt>        Generate a course from a topic")
	fmt.Println("  stepwise courses [directory]      List courses in the catalog")
	fmt.Println("  stepwise steps <course> <lesson>  Print a lesson's step plan")
	fmt.Println("  stepwise version                  Show version")
	fmt.Println("  stepwise help                     Show this help")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  stepwise serve                          # Serve courses from ./courses")
	fmt.Println("  stepwise serve --port 8080 --watch      # Custom port with live reload")
	fmt.Println("  stepwise generate \"intro to Go slices\"  # Generate and save a course")
	fmt.Println("  stepwise courses --format=json          # Machine-readable catalog listing")
	fmt.Println("  stepwise steps go-basics hello          # Show the typing plan for a lesson")
}
