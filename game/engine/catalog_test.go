package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createValidCatalog() *Catalog {
	level := createTestLevel()
	second := createTestLevel()
	second.ID = 2
	second.Name = "Second"
	second.PermittedCommands = []Command{CmdAdvance, CmdTurnLeft, CmdTurnRight}

	return &Catalog{
		Name:        "Test Catalog",
		Description: "A valid test catalog",
		Levels:      []Level{level, second},
	}
}

func TestValidateCatalog_ValidCatalog(t *testing.T) {
	assert.NoError(t, ValidateCatalog(createValidCatalog()))
}

func TestValidateCatalog_DefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	require.NoError(t, ValidateCatalog(catalog))
	assert.Equal(t, 5, catalog.Len())
	for _, level := range catalog.Levels {
		_, ok := level.DecorationAt(level.Goal)
		assert.True(t, ok, "level %d: goal cell should be decorated", level.ID)
	}
}

func TestValidateCatalog_Errors(t *testing.T) {
	tests := []struct {
		name     string
		modifier func(*Catalog)
		expected string
	}{
		{"missing name", func(c *Catalog) { c.Name = "" }, "name is required"},
		{"no levels", func(c *Catalog) { c.Levels = nil }, "at least one level"},
		{"duplicate id", func(c *Catalog) { c.Levels[1].ID = 1 }, "duplicate level id 1"},
		{"zero id", func(c *Catalog) { c.Levels[0].ID = 0 }, "id must be positive"},
		{"missing level name", func(c *Catalog) { c.Levels[0].Name = "" }, "name is required"},
		{"grid too small", func(c *Catalog) { c.Levels[0].GridSize = 1 }, "grid_size must be between"},
		{"grid too large", func(c *Catalog) { c.Levels[0].GridSize = 51 }, "grid_size must be between"},
		{"start out of bounds", func(c *Catalog) { c.Levels[0].Start = Position{X: 5, Y: 0} }, "start (5,0) is outside"},
		{"goal out of bounds", func(c *Catalog) { c.Levels[0].Goal = Position{X: -1, Y: 0} }, "goal (-1,0) is outside"},
		{"goal equals start", func(c *Catalog) { c.Levels[0].Goal = c.Levels[0].Start }, "goal must differ from start"},
		{"bad direction", func(c *Catalog) { c.Levels[0].StartDirection = "up" }, "invalid start_direction"},
		{"no commands", func(c *Catalog) { c.Levels[0].PermittedCommands = nil }, "permitted_commands must not be empty"},
		{"unknown command", func(c *Catalog) { c.Levels[0].PermittedCommands = []Command{"jump"} }, "unknown permitted command"},
		{"duplicate command", func(c *Catalog) {
			c.Levels[0].PermittedCommands = []Command{CmdAdvance, CmdAdvance}
		}, "listed twice"},
		{"unknown decoration", func(c *Catalog) {
			c.Levels[0].Decorations = []CellDecoration{{Position: Position{X: 1, Y: 1}, Decoration: "castle"}}
		}, "unknown decoration"},
		{"decoration out of bounds", func(c *Catalog) {
			c.Levels[0].Decorations = []CellDecoration{{Position: Position{X: 9, Y: 1}, Decoration: Park}}
		}, "outside the grid"},
		{"decoration twice", func(c *Catalog) {
			c.Levels[0].Decorations = []CellDecoration{
				{Position: Position{X: 1, Y: 1}, Decoration: Park},
				{Position: Position{X: 1, Y: 1}, Decoration: Police},
			}
		}, "decorated twice"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			catalog := createValidCatalog()
			test.modifier(catalog)
			err := ValidateCatalog(catalog)
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.expected)
		})
	}
}

func TestValidateCatalog_Nil(t *testing.T) {
	assert.Error(t, ValidateCatalog(nil))
}

func TestCatalog_Lookup(t *testing.T) {
	catalog := createValidCatalog()

	_, ok := catalog.Level(-1)
	assert.False(t, ok)
	_, ok = catalog.Level(2)
	assert.False(t, ok)

	level, ok := catalog.Level(1)
	require.True(t, ok)
	assert.Equal(t, 2, level.ID)

	var empty *Catalog
	assert.Zero(t, empty.Len())
}

func TestLevel_IsPermitted(t *testing.T) {
	level := createTestLevel()
	assert.True(t, level.IsPermitted(CmdAdvance))
	assert.False(t, level.IsPermitted(CmdSignal))
}

func TestLevel_DecorationAt(t *testing.T) {
	level := createTestLevel()

	decoration, ok := level.DecorationAt(Position{X: 2, Y: 1})
	require.True(t, ok)
	assert.Equal(t, Fruit, decoration)

	_, ok = level.DecorationAt(Position{X: 0, Y: 0})
	assert.False(t, ok)
}

func TestSummarizeLevel(t *testing.T) {
	level, _ := DefaultCatalog().Level(2)
	summary := SummarizeLevel(level)

	assert.Equal(t, 7, summary.Distance)
	assert.Equal(t, "fire station", summary.GoalDecoration)
	assert.Equal(t, 3, summary.DecorationCount)
	assert.True(t, summary.FitsInQueue)
}
