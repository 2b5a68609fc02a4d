package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
	"github.com/wricardo/mcp-training/trainprogram/game/service"
)

var vehicleArrows = map[engine.Direction]string{
	engine.North: "^",
	engine.East:  ">",
	engine.South: "v",
	engine.West:  "<",
}

// Formatting helpers

func formatSessionList(count int, sessions []service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", count)
	for _, s := range sessions {
		fmt.Fprintf(&b, "- %s (Catalog: %s", s.ID, s.CatalogID)
		if s.State != nil {
			fmt.Fprintf(&b, ", Level: %d/%d, Screen: %s, Cleared: %d",
				s.State.CurrentLevelIndex+1, s.State.LevelCount,
				s.State.ScreenPhase, len(s.State.ClearedLevelIDs))
		}
		fmt.Fprintf(&b, ", Accessed: %s)\n", s.LastAccessedAt.Format("15:04:05"))
	}
	return b.String()
}

func formatCatalogList(catalogs []service.CatalogInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Available Catalogs (%d):\n\n", len(catalogs))
	for _, info := range catalogs {
		fmt.Fprintf(&b, "- %s: %s (%d levels)", info.CatalogID, info.Name, info.LevelCount)
		if info.Description != "" {
			fmt.Fprintf(&b, " - %s", info.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatIntentResult(name string, result *service.IntentResult) string {
	var b strings.Builder
	if !result.Applied {
		fmt.Fprintf(&b, "%s was not applied: it is not allowed on the current screen.\n\n", name)
	}
	b.WriteString(formatState(result.State))
	return b.String()
}

func formatState(view *service.StateView) string {
	if view == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s | Screen: %s", view.SessionID, view.ScreenPhase)
	if view.ScreenPhase == engine.PhasePlaying {
		fmt.Fprintf(&b, " | Stage: %s", view.PlaySubPhase)
	}
	fmt.Fprintf(&b, " | Skin: %s\n", view.Skin)

	switch view.ScreenPhase {
	case engine.PhaseTitle:
		b.WriteString("Title screen. Use go_to_level_select to choose a level.\n")
		return b.String()
	case engine.PhaseLevelSelect:
		b.WriteString(formatLevelList(view))
		return b.String()
	}

	if view.Level == nil {
		return b.String()
	}
	level := view.Level

	fmt.Fprintf(&b, "Level %d/%d: %s\n", view.CurrentLevelIndex+1, view.LevelCount, level.Name)
	light := "off"
	if view.Pose.LightOn {
		light = "on"
	}
	fmt.Fprintf(&b, "Train: %s facing %s, light %s\n", view.Pose.Position, view.Pose.Direction, light)
	fmt.Fprintf(&b, "Goal: %s", level.Goal)
	if view.Summary != nil && view.Summary.GoalDecoration != "" {
		fmt.Fprintf(&b, " (%s)", view.Summary.GoalDecoration)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Allowed: %s\n", joinCommands(view.PermittedCommands))
	fmt.Fprintf(&b, "Queue (%d/%d): %s\n\n", len(view.Queue), engine.MaxQueueLength, joinCommands(view.Queue))

	b.WriteString(formatGrid(level, view.Pose))

	if len(view.Trace) > 0 {
		b.WriteString("\n")
		b.WriteString(formatTrace(view.Trace, view.Cursor))
	}

	switch view.Outcome {
	case "success":
		b.WriteString("\nLevel cleared! Use next_level or retry.\n")
	case "failure":
		b.WriteString("\nThe train did not stop on the goal. Use retry.\n")
	}

	if view.PlaybackActive {
		b.WriteString("\nPlayback in progress...\n")
	}
	if level.Hint != "" && view.PlaySubPhase == engine.SubPhaseProgramming {
		fmt.Fprintf(&b, "\nHint: %s\n", level.Hint)
	}

	return b.String()
}

func formatLevelList(view *service.StateView) string {
	var b strings.Builder
	b.WriteString("Levels:\n")
	for _, level := range view.Levels {
		mark := " "
		if level.Cleared {
			mark = "x"
		}
		fmt.Fprintf(&b, "  [%s] %d. %s\n", mark, level.Index, level.Name)
	}
	b.WriteString("Use start_level with the level index.\n")
	return b.String()
}

// formatGrid draws the level with the train at pose
func formatGrid(level *engine.Level, pose engine.Pose) string {
	var b strings.Builder
	for y := 0; y < level.GridSize; y++ {
		for x := 0; x < level.GridSize; x++ {
			b.WriteString(cellChar(level, pose, engine.Position{X: x, Y: y}))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func cellChar(level *engine.Level, pose engine.Pose, p engine.Position) string {
	if p == pose.Position {
		if arrow, ok := vehicleArrows[pose.Direction]; ok {
			return arrow
		}
		return "T"
	}
	if p == level.Goal {
		return "G"
	}
	if _, ok := level.DecorationAt(p); ok {
		return "*"
	}
	return "."
}

// formatTrace lists the steps of a run; steps after the cursor are not shown yet
func formatTrace(trace []engine.ExecutionStep, cursor int) string {
	var b strings.Builder
	shown := cursor + 1
	if shown > len(trace) {
		shown = len(trace)
	}
	fmt.Fprintf(&b, "Run: step %d/%d\n", shown, len(trace))
	for i := 0; i < shown; i++ {
		step := trace[i]
		marker := " "
		if i == cursor {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %d. %-12s %s -> %s", marker, i+1, step.Command, step.PoseBefore.Position, step.PoseAfter.Position)
		if step.RejectedOutOfBounds {
			b.WriteString(" (blocked by edge)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func joinCommands(commands []engine.Command) string {
	if len(commands) == 0 {
		return "(empty)"
	}
	names := make([]string, len(commands))
	for i, cmd := range commands {
		names[i] = string(cmd)
	}
	return strings.Join(names, ", ")
}
