package engine

import (
	"fmt"
)

// ValidateLevel validates a single level definition for correctness and playability
func ValidateLevel(level Level) error {
	if level.ID <= 0 {
		return fmt.Errorf("level validation: id must be positive, got %d", level.ID)
	}
	if level.Name == "" {
		return fmt.Errorf("level %d validation: name is required", level.ID)
	}

	if level.GridSize < MinGridSize || level.GridSize > MaxGridSize {
		return fmt.Errorf("level %d validation: grid_size must be between %d and %d, got %d",
			level.ID, MinGridSize, MaxGridSize, level.GridSize)
	}

	if !InBounds(level.Start, level.GridSize) {
		return fmt.Errorf("level %d validation: start %s is outside the %dx%d grid",
			level.ID, level.Start, level.GridSize, level.GridSize)
	}
	if !InBounds(level.Goal, level.GridSize) {
		return fmt.Errorf("level %d validation: goal %s is outside the %dx%d grid",
			level.ID, level.Goal, level.GridSize, level.GridSize)
	}
	if level.Start == level.Goal {
		return fmt.Errorf("level %d validation: goal must differ from start %s", level.ID, level.Start)
	}
	if !level.StartDirection.Valid() {
		return fmt.Errorf("level %d validation: invalid start_direction %q", level.ID, level.StartDirection)
	}

	if len(level.PermittedCommands) == 0 {
		return fmt.Errorf("level %d validation: permitted_commands must not be empty", level.ID)
	}
	seen := make(map[Command]bool, len(level.PermittedCommands))
	for _, cmd := range level.PermittedCommands {
		if !cmd.Valid() {
			return fmt.Errorf("level %d validation: unknown permitted command %q", level.ID, cmd)
		}
		if seen[cmd] {
			return fmt.Errorf("level %d validation: permitted command %q listed twice", level.ID, cmd)
		}
		seen[cmd] = true
	}

	decorated := make(map[Position]bool, len(level.Decorations))
	for _, d := range level.Decorations {
		if !d.Decoration.Valid() {
			return fmt.Errorf("level %d validation: unknown decoration %q at %s", level.ID, d.Decoration, d.Position)
		}
		if !InBounds(d.Position, level.GridSize) {
			return fmt.Errorf("level %d validation: decoration at %s is outside the grid", level.ID, d.Position)
		}
		if decorated[d.Position] {
			return fmt.Errorf("level %d validation: cell %s decorated twice", level.ID, d.Position)
		}
		decorated[d.Position] = true
	}

	return nil
}

// ValidateCatalog validates every level and checks that level ids are unique
func ValidateCatalog(catalog *Catalog) error {
	if catalog == nil {
		return fmt.Errorf("catalog validation: catalog is nil")
	}
	if catalog.Name == "" {
		return fmt.Errorf("catalog validation: name is required")
	}
	if len(catalog.Levels) == 0 {
		return fmt.Errorf("catalog validation: at least one level is required")
	}

	ids := make(map[int]bool, len(catalog.Levels))
	for i, level := range catalog.Levels {
		if err := ValidateLevel(level); err != nil {
			return fmt.Errorf("catalog validation: level #%d: %w", i+1, err)
		}
		if ids[level.ID] {
			return fmt.Errorf("catalog validation: duplicate level id %d", level.ID)
		}
		ids[level.ID] = true
	}

	return nil
}

// Len returns the number of levels
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Levels)
}

// Level returns the level at index and whether the index is valid
func (c *Catalog) Level(index int) (Level, bool) {
	if index < 0 || index >= c.Len() {
		return Level{}, false
	}
	return c.Levels[index], true
}

// IsPermitted reports whether the level offers cmd to the player
func (l Level) IsPermitted(cmd Command) bool {
	for _, c := range l.PermittedCommands {
		if c == cmd {
			return true
		}
	}
	return false
}

// DecorationAt returns the decoration on cell p, if any
func (l Level) DecorationAt(p Position) (Decoration, bool) {
	for _, d := range l.Decorations {
		if d.Position == p {
			return d.Decoration, true
		}
	}
	return "", false
}

// LevelSummary is a quick, human-readable description of a level
type LevelSummary struct {
	ID                int       `json:"id"`
	Name              string    `json:"name"`
	GridSize          int       `json:"grid_size"`
	Start             Position  `json:"start"`
	StartDirection    Direction `json:"start_direction"`
	Goal              Position  `json:"goal"`
	GoalDecoration    string    `json:"goal_decoration,omitempty"`
	Distance          int       `json:"distance"`
	DecorationCount   int       `json:"decoration_count"`
	PermittedCommands []Command `json:"permitted_commands"`
	FitsInQueue       bool      `json:"fits_in_queue"`
}

// SummarizeLevel computes summary figures for a level. FitsInQueue only compares
// the straight-line distance to the queue capacity; it does not search for a program.
func SummarizeLevel(level Level) LevelSummary {
	summary := LevelSummary{
		ID:                level.ID,
		Name:              level.Name,
		GridSize:          level.GridSize,
		Start:             level.Start,
		StartDirection:    level.StartDirection,
		Goal:              level.Goal,
		Distance:          ManhattanDistance(level.Start, level.Goal),
		DecorationCount:   len(level.Decorations),
		PermittedCommands: append([]Command(nil), level.PermittedCommands...),
	}
	if d, ok := level.DecorationAt(level.Goal); ok {
		summary.GoalDecoration = d.Label()
	}
	summary.FitsInQueue = summary.Distance <= MaxQueueLength
	return summary
}

// DefaultCatalog returns the built-in classic catalog
func DefaultCatalog() *Catalog {
	basic := []Command{CmdAdvance, CmdTurnLeft, CmdTurnRight}
	all := AllCommands()

	return &Catalog{
		Name:        "classic",
		Description: "Five introductory levels on a 5x5 grid",
		Levels: []Level{
			{
				ID:             1,
				Name:           "First Drive",
				GridSize:       5,
				Start:          Position{X: 2, Y: 3},
				StartDirection: North,
				Goal:           Position{X: 2, Y: 1},
				Decorations: []CellDecoration{
					{Position: Position{X: 2, Y: 3}, Decoration: Station},
					{Position: Position{X: 2, Y: 1}, Decoration: Fruit},
				},
				PermittedCommands: []Command{CmdAdvance},
				Hint:              "Press advance two times!",
			},
			{
				ID:             2,
				Name:           "Let's Turn",
				GridSize:       5,
				Start:          Position{X: 1, Y: 3},
				StartDirection: North,
				Goal:           Position{X: 3, Y: 2},
				Decorations: []CellDecoration{
					{Position: Position{X: 1, Y: 3}, Decoration: Station},
					{Position: Position{X: 3, Y: 2}, Decoration: Park},
				},
				PermittedCommands: basic,
				Hint:              "Move ahead, then turn right!",
			},
			{
				ID:             3,
				Name:           "The Faraway Park",
				GridSize:       5,
				Start:          Position{X: 0, Y: 4},
				StartDirection: North,
				Goal:           Position{X: 3, Y: 0},
				Decorations: []CellDecoration{
					{Position: Position{X: 0, Y: 4}, Decoration: Station},
					{Position: Position{X: 3, Y: 0}, Decoration: FireStation},
					{Position: Position{X: 2, Y: 2}, Decoration: Crossing},
				},
				PermittedCommands: basic,
				Hint:              "Mix advancing and turning!",
			},
			{
				ID:             4,
				Name:           "Sound the Horn",
				GridSize:       5,
				Start:          Position{X: 0, Y: 2},
				StartDirection: East,
				Goal:           Position{X: 4, Y: 2},
				Decorations: []CellDecoration{
					{Position: Position{X: 0, Y: 2}, Decoration: Station},
					{Position: Position{X: 2, Y: 2}, Decoration: Crossing},
					{Position: Position{X: 4, Y: 2}, Decoration: Police},
				},
				PermittedCommands: all,
				Hint:              "Sound the horn at the crossing!",
			},
			{
				ID:             5,
				Name:           "Lights On, Let's Go",
				GridSize:       5,
				Start:          Position{X: 2, Y: 4},
				StartDirection: North,
				Goal:           Position{X: 0, Y: 0},
				Decorations: []CellDecoration{
					{Position: Position{X: 2, Y: 4}, Decoration: Station},
					{Position: Position{X: 0, Y: 0}, Decoration: Park},
					{Position: Position{X: 2, Y: 2}, Decoration: Crossing},
					{Position: Position{X: 4, Y: 1}, Decoration: FireStation},
				},
				PermittedCommands: all,
				Hint:              "Turn on the light before the crossing!",
			},
		},
	}
}
