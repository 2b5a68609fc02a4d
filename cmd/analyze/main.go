// Command analyze prints quick, human-readable summaries of the level
// catalogs in the project's configs directory. For each level it shows the
// grid, the start and goal, the straight-line distance between them, the
// decorations and the permitted commands, and flags goals that are further
// away than the command queue can reach.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/trainprogram/game/config"
	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

func main() {
	catalogDir := "configs"
	if len(os.Args) > 1 {
		catalogDir = os.Args[1]
	}

	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, _ := filepath.Glob(filepath.Join(catalogDir, pattern))
		files = append(files, matches...)
	}
	sort.Strings(files)

	if len(files) == 0 {
		fmt.Printf("No catalogs found in %s, analyzing the built-in levels\n", catalogDir)
		printCatalog(os.Stdout, engine.DefaultCatalog())
		return
	}

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		if err := analyzeCatalog(os.Stdout, file); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func analyzeCatalog(w io.Writer, path string) error {
	catalog, err := config.LoadCatalogFile(path)
	if err != nil {
		return err
	}
	printCatalog(w, catalog)
	return nil
}

func printCatalog(w io.Writer, catalog *engine.Catalog) {
	fmt.Fprintf(w, "Name: %s\n", catalog.Name)
	if catalog.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", catalog.Description)
	}
	fmt.Fprintf(w, "Levels: %d\n", catalog.Len())

	longest := 0
	for _, level := range catalog.Levels {
		summary := engine.SummarizeLevel(level)
		if summary.Distance > longest {
			longest = summary.Distance
		}
		fmt.Fprintln(w)
		printSummary(w, summary)
	}

	fmt.Fprintf(w, "\nLongest start-to-goal distance: %d\n", longest)
}

func printSummary(w io.Writer, s engine.LevelSummary) {
	fmt.Fprintf(w, "Level %d: %s\n", s.ID, s.Name)
	fmt.Fprintf(w, "  Grid Size: %d x %d\n", s.GridSize, s.GridSize)
	fmt.Fprintf(w, "  Start: %s facing %s\n", s.Start, s.StartDirection)
	if s.GoalDecoration != "" {
		fmt.Fprintf(w, "  Goal: %s (%s)\n", s.Goal, s.GoalDecoration)
	} else {
		fmt.Fprintf(w, "  Goal: %s\n", s.Goal)
	}
	fmt.Fprintf(w, "  Distance: %d\n", s.Distance)
	fmt.Fprintf(w, "  Decorations: %d\n", s.DecorationCount)

	names := make([]string, len(s.PermittedCommands))
	for i, cmd := range s.PermittedCommands {
		names[i] = string(cmd)
	}
	fmt.Fprintf(w, "  Commands: %s\n", strings.Join(names, ", "))

	if s.FitsInQueue {
		fmt.Fprintf(w, "  ✅ Goal is within %d cells\n", engine.MaxQueueLength)
	} else {
		fmt.Fprintf(w, "  ⚠️  WARNING: goal is %d cells away but the queue holds %d commands\n", s.Distance, engine.MaxQueueLength)
	}
}
