// Command validate provides a small CLI that validates level catalog files
// (*.json, *.yaml, *.yml) in the ../configs directory, or in the directory
// given as the first argument. It checks:
//   - File structure against the catalog JSON Schema
//   - Level consistency (unique ids, grid bounds, known directions, commands and decorations)
//   - Movement: the train can move at all, and a level without turns has its goal straight ahead
//   - Queue fit: the goal can be reached within the command queue
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/trainprogram/game/config"
	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors holds the problems found; Info holds the summary lines shown for
// valid files.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

// validateCatalog loads and validates a single catalog file. Schema and
// consistency problems stop validation; movement problems are reported per level.
func validateCatalog(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
		Info:   []string{},
	}

	catalog, err := config.LoadCatalogFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, level := range catalog.Levels {
		for _, problem := range checkLevel(level) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Level %d (%s): %s", level.ID, level.Name, problem))
		}
	}

	if result.Valid {
		result.Info = append(result.Info, fmt.Sprintf("✓ Name: %s", catalog.Name))
		result.Info = append(result.Info, fmt.Sprintf("✓ Levels: %d", catalog.Len()))
		for _, level := range catalog.Levels {
			result.Info = append(result.Info, fmt.Sprintf("✓ Level %d: %s (%dx%d, at least %d commands)",
				level.ID, level.Name, level.GridSize, level.GridSize, minimumCommands(level)))
		}
	}

	return result
}

// checkLevel reports movement problems that make a level impossible to clear
func checkLevel(level engine.Level) []string {
	var problems []string

	if !level.IsPermitted(engine.CmdAdvance) {
		return append(problems, "advance is not permitted, the train can never move")
	}

	canTurn := level.IsPermitted(engine.CmdTurnLeft) || level.IsPermitted(engine.CmdTurnRight)
	if !canTurn && turnsNeeded(level) > 0 {
		problems = append(problems, fmt.Sprintf("goal %s is not straight ahead of %s facing %s and turning is not permitted",
			level.Goal, level.Start, level.StartDirection))
	}

	if n := minimumCommands(level); n > engine.MaxQueueLength {
		problems = append(problems, fmt.Sprintf("goal needs at least %d commands but the queue holds %d", n, engine.MaxQueueLength))
	}

	return problems
}

// turnsNeeded is the least number of quarter turns before the train can
// reach the goal: 0 when it is straight ahead, 1 when it lies to a side and
// 2 when any part of it lies behind.
func turnsNeeded(level engine.Level) int {
	dx := level.Goal.X - level.Start.X
	dy := level.Goal.Y - level.Start.Y

	// Project the offset onto the facing direction and its perpendicular
	ahead := engine.Advance(engine.Position{}, level.StartDirection)
	forward := dx*ahead.X + dy*ahead.Y
	side := dx*ahead.Y - dy*ahead.X

	switch {
	case forward < 0:
		return 2
	case side != 0:
		return 1
	default:
		return 0
	}
}

// minimumCommands is a lower bound on the program length that clears the level
func minimumCommands(level engine.Level) int {
	return engine.ManhattanDistance(level.Start, level.Goal) + turnsNeeded(level)
}

// catalogFiles lists the catalog files in dir in name order
func catalogFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main scans the catalog directory and validates each file, printing a
// concise report and exiting with non-zero status if any are invalid.
func main() {
	catalogDir := "../configs"
	if len(os.Args) > 1 {
		catalogDir = os.Args[1]
	}

	files, err := catalogFiles(catalogDir)
	if err != nil {
		fmt.Printf("Error finding catalog files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No catalog files found in %s\n", catalogDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateCatalog(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Info {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All catalogs are valid!")
	} else {
		fmt.Println("❌ Some catalogs have errors")
		os.Exit(1)
	}
}
