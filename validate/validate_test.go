package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

const validCatalog = `{
	"name": "Test Catalog",
	"description": "Test catalog",
	"levels": [
		{
			"id": 1,
			"name": "Straight",
			"grid_size": 4,
			"start": {"x": 0, "y": 3},
			"start_direction": "north",
			"goal": {"x": 0, "y": 0},
			"decorations": [{"position": {"x": 0, "y": 0}, "decoration": "park"}],
			"permitted_commands": ["advance"]
		},
		{
			"id": 2,
			"name": "Corner",
			"grid_size": 4,
			"start": {"x": 0, "y": 3},
			"start_direction": "north",
			"goal": {"x": 3, "y": 0},
			"permitted_commands": ["advance", "turn_right"]
		}
	]
}`

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}
	return path
}

func hasMessage(messages []string, substr string) bool {
	for _, msg := range messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestValidateCatalog_Valid(t *testing.T) {
	path := writeCatalog(t, "test.json", validCatalog)

	result := validateCatalog(path)
	if !result.Valid {
		t.Fatalf("Expected valid catalog, but got errors: %v", result.Errors)
	}

	if result.File != "test.json" {
		t.Errorf("Expected file name test.json, got %s", result.File)
	}

	if !hasMessage(result.Info, "Levels: 2") {
		t.Errorf("Expected level count in info, got %v", result.Info)
	}
	if !hasMessage(result.Info, "Level 2: Corner (4x4, at least 7 commands)") {
		t.Errorf("Expected level line in info, got %v", result.Info)
	}
}

func TestValidateCatalog_YAML(t *testing.T) {
	content := `name: yaml catalog
levels:
  - id: 1
    name: Two Cells
    grid_size: 3
    start: {x: 1, y: 2}
    start_direction: north
    goal: {x: 1, y: 0}
    permitted_commands: [advance]
`
	result := validateCatalog(writeCatalog(t, "test.yaml", content))
	if !result.Valid {
		t.Errorf("Expected valid YAML catalog, got errors: %v", result.Errors)
	}
}

func TestValidateCatalog_InvalidJSON(t *testing.T) {
	result := validateCatalog(writeCatalog(t, "bad.json", `{"name": "test", invalid json}`))
	if result.Valid {
		t.Error("Expected invalid catalog due to bad JSON")
	}
	if len(result.Errors) == 0 {
		t.Error("Expected an error message")
	}
}

func TestValidateCatalog_MissingFile(t *testing.T) {
	result := validateCatalog("/non/existent/file.json")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !hasMessage(result.Errors, "not found") {
		t.Errorf("Expected not found error, got %v", result.Errors)
	}
}

func TestValidateCatalog_SchemaViolation(t *testing.T) {
	content := strings.Replace(validCatalog, `"start_direction": "north"`, `"start_direction": "up"`, 1)

	result := validateCatalog(writeCatalog(t, "bad_direction.json", content))
	if result.Valid {
		t.Error("Expected invalid catalog for unknown direction")
	}
}

func TestValidateCatalog_Unreachable(t *testing.T) {
	content := strings.Replace(validCatalog, `"permitted_commands": ["advance", "turn_right"]`, `"permitted_commands": ["advance"]`, 1)

	result := validateCatalog(writeCatalog(t, "no_turns.json", content))
	if result.Valid {
		t.Fatal("Expected invalid catalog when the goal needs a turn")
	}
	if !hasMessage(result.Errors, "Level 2 (Corner): goal (3,0) is not straight ahead") {
		t.Errorf("Expected straight ahead error, got %v", result.Errors)
	}
	if len(result.Info) != 0 {
		t.Errorf("Expected no info for invalid catalog, got %v", result.Info)
	}
}

func TestCheckLevel(t *testing.T) {
	base := engine.Level{
		ID:                1,
		Name:              "Test",
		GridSize:          20,
		Start:             engine.Position{X: 0, Y: 0},
		StartDirection:    engine.East,
		Goal:              engine.Position{X: 5, Y: 0},
		PermittedCommands: []engine.Command{engine.CmdAdvance},
	}

	tests := []struct {
		name     string
		modify   func(l *engine.Level)
		problem  string
		problems int
	}{
		{"straight ahead", func(l *engine.Level) {}, "", 0},
		{"cannot move", func(l *engine.Level) { l.PermittedCommands = []engine.Command{engine.CmdTurnLeft} }, "never move", 1},
		{"goal behind", func(l *engine.Level) { l.StartDirection = engine.West }, "not straight ahead", 1},
		{"goal behind with turns", func(l *engine.Level) {
			l.StartDirection = engine.West
			l.PermittedCommands = engine.AllCommands()
		}, "", 0},
		{"too far", func(l *engine.Level) { l.Goal = engine.Position{X: 13, Y: 0} }, "queue holds 12", 1},
		{"fills the queue", func(l *engine.Level) {
			l.Goal = engine.Position{X: 0, Y: 11}
			l.PermittedCommands = engine.AllCommands()
		}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := base
			tt.modify(&level)

			problems := checkLevel(level)
			if len(problems) != tt.problems {
				t.Fatalf("Expected %d problems, got %v", tt.problems, problems)
			}
			if tt.problems > 0 && !hasMessage(problems, tt.problem) {
				t.Errorf("Expected %q in problems, got %v", tt.problem, problems)
			}
		})
	}
}

func TestTurnsNeeded(t *testing.T) {
	tests := []struct {
		direction engine.Direction
		goal      engine.Position
		expected  int
	}{
		{engine.North, engine.Position{X: 2, Y: 0}, 0},
		{engine.North, engine.Position{X: 4, Y: 0}, 1},
		{engine.North, engine.Position{X: 4, Y: 2}, 1},
		{engine.North, engine.Position{X: 2, Y: 4}, 2},
		{engine.East, engine.Position{X: 4, Y: 2}, 0},
		{engine.East, engine.Position{X: 0, Y: 0}, 2},
		{engine.South, engine.Position{X: 2, Y: 4}, 0},
		{engine.West, engine.Position{X: 0, Y: 4}, 1},
	}

	for _, tt := range tests {
		level := engine.Level{
			Start:          engine.Position{X: 2, Y: 2},
			StartDirection: tt.direction,
			Goal:           tt.goal,
		}
		if got := turnsNeeded(level); got != tt.expected {
			t.Errorf("turnsNeeded(%s, goal %s) = %d, want %d", tt.direction, tt.goal, got, tt.expected)
		}
	}
}

func TestMinimumCommands_DefaultCatalog(t *testing.T) {
	expected := []int{2, 4, 8, 4, 7}

	catalog := engine.DefaultCatalog()
	for i, level := range catalog.Levels {
		if got := minimumCommands(level); got != expected[i] {
			t.Errorf("Level %d: expected %d, got %d", level.ID, expected[i], got)
		}
		if problems := checkLevel(level); len(problems) != 0 {
			t.Errorf("Level %d: unexpected problems %v", level.ID, problems)
		}
	}
}

func TestCatalogFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.json", "c.yml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	files, err := catalogFiles(dir)
	if err != nil {
		t.Fatalf("catalogFiles failed: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	if strings.Join(names, ",") != "a.json,b.yaml,c.yml" {
		t.Errorf("Unexpected files: %v", names)
	}
}

func TestRepositoryCatalogs(t *testing.T) {
	files, err := catalogFiles("../configs")
	if err != nil {
		t.Fatalf("catalogFiles failed: %v", err)
	}
	if len(files) == 0 {
		t.Skip("Skipping test - configs directory not found")
	}

	for _, file := range files {
		if result := validateCatalog(file); !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}
