package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestLevel returns the 5x5 level used by the scenario tests:
// start (2,3) facing north, goal (2,1)
func createTestLevel() Level {
	return Level{
		ID:             1,
		Name:           "Test Level",
		GridSize:       5,
		Start:          Position{X: 2, Y: 3},
		StartDirection: North,
		Goal:           Position{X: 2, Y: 1},
		Decorations: []CellDecoration{
			{Position: Position{X: 2, Y: 1}, Decoration: Fruit},
		},
		PermittedCommands: []Command{CmdAdvance},
	}
}

func TestExecute_ReachesGoal(t *testing.T) {
	level := createTestLevel()
	trace := Execute([]Command{CmdAdvance, CmdAdvance}, level)

	require.Len(t, trace, 2)
	assert.Equal(t, Position{X: 2, Y: 1}, trace[1].PoseAfter.Position)
	assert.True(t, CheckSuccess(trace, level))
}

func TestExecute_StopsShort(t *testing.T) {
	level := createTestLevel()
	trace := Execute([]Command{CmdAdvance}, level)

	require.Len(t, trace, 1)
	assert.Equal(t, Position{X: 2, Y: 2}, trace[0].PoseAfter.Position)
	assert.False(t, CheckSuccess(trace, level), "stopping short of the goal must fail")
}

func TestExecute_OutOfBounds(t *testing.T) {
	level := createTestLevel()
	level.Start = Position{X: 0, Y: 0}
	trace := Execute([]Command{CmdAdvance}, level)

	require.Len(t, trace, 1)
	step := trace[0]
	assert.True(t, step.RejectedOutOfBounds)
	assert.Equal(t, Position{X: 0, Y: 0}, step.PoseBefore.Position)
	assert.Equal(t, Position{X: 0, Y: 0}, step.PoseAfter.Position)
	assert.Equal(t, North, step.PoseAfter.Direction)
}

func TestExecute_TurnThenMove(t *testing.T) {
	level := createTestLevel()
	level.Start = Position{X: 1, Y: 3}
	level.Goal = Position{X: 3, Y: 2}
	trace := Execute([]Command{CmdAdvance, CmdTurnRight, CmdAdvance}, level)

	require.Len(t, trace, 3)
	assert.Equal(t, Position{X: 1, Y: 2}, trace[0].PoseAfter.Position)
	assert.Equal(t, East, trace[1].PoseAfter.Direction)
	assert.Equal(t, Position{X: 1, Y: 2}, trace[1].PoseAfter.Position, "turning must not move")
	assert.Equal(t, Position{X: 2, Y: 2}, trace[2].PoseAfter.Position)
	assert.False(t, CheckSuccess(trace, level))

	trace = Execute([]Command{CmdAdvance, CmdTurnRight, CmdAdvance, CmdAdvance}, level)
	assert.True(t, CheckSuccess(trace, level))
}

func TestExecute_TraceLengthMatchesCommands(t *testing.T) {
	level := createTestLevel()
	programs := [][]Command{
		nil,
		{},
		{CmdSignal},
		{CmdAdvance, CmdAdvance, CmdAdvance, CmdAdvance, CmdAdvance, CmdAdvance},
		AllCommands(),
		{CmdTurnLeft, CmdTurnLeft, CmdToggleLight, CmdToggleLight, CmdSignal, Command("bogus")},
	}

	for _, program := range programs {
		trace := Execute(program, level)
		require.Len(t, trace, len(program), "program %v", program)
		for i, step := range trace {
			assert.Equal(t, program[i], step.Command, "program %v step %d", program, i)
			if i > 0 {
				assert.Equal(t, trace[i-1].PoseAfter, step.PoseBefore, "program %v step %d", program, i)
			}
		}
	}
}

func TestExecute_Deterministic(t *testing.T) {
	level := createTestLevel()
	program := []Command{CmdAdvance, CmdTurnLeft, CmdToggleLight, CmdAdvance, CmdAdvance, CmdAdvance, CmdSignal}

	first := Execute(program, level)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, Execute(program, level), "run %d", i)
	}
}

func TestExecute_OnlyAdvanceIsRejected(t *testing.T) {
	level := createTestLevel()
	level.Start = Position{X: 0, Y: 0}
	level.StartDirection = West

	trace := Execute([]Command{CmdSignal, CmdToggleLight, CmdTurnLeft, CmdTurnRight, CmdAdvance}, level)
	require.Len(t, trace, 5)
	for _, step := range trace[:4] {
		assert.False(t, step.RejectedOutOfBounds, "%s must never be rejected", step.Command)
	}
	assert.True(t, trace[4].RejectedOutOfBounds, "advance west from (0,0)")
}

func TestExecute_SignalAndLight(t *testing.T) {
	level := createTestLevel()
	trace := Execute([]Command{CmdSignal, CmdToggleLight, CmdToggleLight}, level)

	require.Len(t, trace, 3)
	assert.Equal(t, trace[0].PoseBefore, trace[0].PoseAfter, "signal must not change the pose")
	assert.True(t, trace[1].PoseAfter.LightOn)
	assert.Equal(t, level.Start, trace[1].PoseAfter.Position)
	assert.Equal(t, level.StartDirection, trace[1].PoseAfter.Direction)
	assert.False(t, trace[2].PoseAfter.LightOn)
}

func TestExecute_IgnoresPermittedCommands(t *testing.T) {
	// Level 1 only offers advance; other commands still execute
	level := createTestLevel()
	trace := Execute([]Command{CmdTurnRight, CmdToggleLight}, level)

	require.Len(t, trace, 2)
	assert.Equal(t, East, trace[0].PoseAfter.Direction)
	assert.True(t, trace[1].PoseAfter.LightOn)
}

func TestCheckSuccess_EmptyTrace(t *testing.T) {
	for _, level := range DefaultCatalog().Levels {
		assert.False(t, CheckSuccess(nil, level), "level %d", level.ID)
		assert.False(t, CheckSuccess([]ExecutionStep{}, level), "level %d", level.ID)
	}
}

func TestCheckSuccess_IgnoresDirectionAndLight(t *testing.T) {
	level := createTestLevel()
	trace := Execute([]Command{CmdAdvance, CmdAdvance, CmdTurnLeft, CmdToggleLight}, level)
	assert.True(t, CheckSuccess(trace, level))
}

func TestFinalPoseAndCountRejected(t *testing.T) {
	level := createTestLevel()
	assert.Equal(t, StartPose(level), FinalPose(nil, level))

	trace := Execute([]Command{CmdAdvance, CmdAdvance, CmdAdvance, CmdAdvance, CmdAdvance}, level)
	assert.Equal(t, Position{X: 2, Y: 0}, FinalPose(trace, level).Position)
	assert.Equal(t, 2, CountRejected(trace))
}
