package engine

// StartPose returns the pose a vehicle has before any command of the level runs
func StartPose(level Level) Pose {
	return Pose{
		Position:  level.Start,
		Direction: level.StartDirection,
		LightOn:   false,
	}
}

// Execute runs commands against level and returns one step per command.
// Commands outside the level's permitted set are still executed; hiding them
// is left to the presentation layer.
func Execute(commands []Command, level Level) []ExecutionStep {
	steps := make([]ExecutionStep, 0, len(commands))
	current := StartPose(level)

	for _, cmd := range commands {
		before := current
		rejected := false

		switch cmd {
		case CmdAdvance:
			next := Advance(current.Position, current.Direction)
			if InBounds(next, level.GridSize) {
				current.Position = next
			} else {
				rejected = true
			}
		case CmdTurnLeft:
			current.Direction = TurnLeft(current.Direction)
		case CmdTurnRight:
			current.Direction = TurnRight(current.Direction)
		case CmdSignal:
			// observable event only
		case CmdToggleLight:
			current.LightOn = !current.LightOn
		}

		steps = append(steps, ExecutionStep{
			Command:             cmd,
			PoseBefore:          before,
			PoseAfter:           current,
			RejectedOutOfBounds: rejected,
		})
	}

	return steps
}

// CheckSuccess reports whether the last step of trace ends on the level's goal.
// Direction and light state are ignored.
func CheckSuccess(trace []ExecutionStep, level Level) bool {
	if len(trace) == 0 {
		return false
	}
	return trace[len(trace)-1].PoseAfter.Position == level.Goal
}

// FinalPose returns the pose after the last step, or the level start pose for an empty trace
func FinalPose(trace []ExecutionStep, level Level) Pose {
	if len(trace) == 0 {
		return StartPose(level)
	}
	return trace[len(trace)-1].PoseAfter
}

// CountRejected counts the advance commands that were blocked by the grid edge
func CountRejected(trace []ExecutionStep) int {
	count := 0
	for _, step := range trace {
		if step.RejectedOutOfBounds {
			count++
		}
	}
	return count
}
