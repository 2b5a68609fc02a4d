package engine

import "fmt"

// Permits reports whether intent's precondition holds in state s. Transition
// treats an intent that is not permitted as a no-op.
func Permits(s SessionState, catalog *Catalog, intent Intent) bool {
	switch in := intent.(type) {
	case StartLevel:
		return in.Index >= 0 && in.Index < catalog.Len()
	case AddCommand:
		return len(s.Queue) < MaxQueueLength
	case RemoveCommand:
		return in.Index >= 0 && in.Index < len(s.Queue)
	case Run, Retry:
		_, ok := catalog.Level(s.CurrentLevelIndex)
		return ok
	case AdvanceStep:
		return s.PlaySubPhase == SubPhaseExecuting && s.Cursor+1 < len(s.Trace)
	case FinalizeExecution:
		if _, ok := catalog.Level(s.CurrentLevelIndex); !ok {
			return false
		}
		return s.PlaySubPhase == SubPhaseExecuting
	}
	return true
}

// Transition applies intent to s and returns the resulting state. It never
// modifies s or catalog, and returns s unchanged when the intent's
// precondition does not hold.
func Transition(s SessionState, catalog *Catalog, intent Intent) SessionState {
	if !Permits(s, catalog, intent) {
		return s
	}

	switch in := intent.(type) {
	case GoToTitle:
		s.ScreenPhase = PhaseTitle

	case GoToLevelSelect:
		s.ScreenPhase = PhaseLevelSelect

	case StartLevel:
		level, _ := catalog.Level(in.Index)
		s = enterLevel(s, in.Index, level)

	case AddCommand:
		queue := make([]Command, len(s.Queue), len(s.Queue)+1)
		copy(queue, s.Queue)
		s.Queue = append(queue, in.Command)

	case RemoveCommand:
		queue := make([]Command, 0, len(s.Queue)-1)
		queue = append(queue, s.Queue[:in.Index]...)
		s.Queue = append(queue, s.Queue[in.Index+1:]...)

	case ClearQueue:
		s.Queue = []Command{}

	case Run:
		level, _ := catalog.Level(s.CurrentLevelIndex)
		s.Trace = Execute(s.Queue, level)
		s.Cursor = NotStarted
		s.Pose = StartPose(level)
		s.PlaySubPhase = SubPhaseExecuting

	case AdvanceStep:
		s.Cursor++
		s.Pose = s.Trace[s.Cursor].PoseAfter

	case FinalizeExecution:
		level, _ := catalog.Level(s.CurrentLevelIndex)
		if CheckSuccess(s.Trace, level) {
			s.ClearedLevelIDs = withCleared(s.ClearedLevelIDs, level.ID)
			s.ScreenPhase = PhaseSuccess
		} else {
			s.ScreenPhase = PhaseFailure
		}
		s.PlaySubPhase = SubPhaseDone

	case Retry:
		level, _ := catalog.Level(s.CurrentLevelIndex)
		s = enterLevel(s, s.CurrentLevelIndex, level)

	case NextLevel:
		next := s.CurrentLevelIndex + 1
		if level, ok := catalog.Level(next); ok {
			s = enterLevel(s, next, level)
		} else {
			s.ScreenPhase = PhaseLevelSelect
		}

	case SelectVehicleSkin:
		s.Skin = in.Skin

	default:
		// Intent is sealed; reaching this means a new intent type was added without a case.
		panic(fmt.Sprintf("engine: unhandled intent %T", intent))
	}

	return s
}

// Apply folds intents over s in order
func Apply(s SessionState, catalog *Catalog, intents ...Intent) SessionState {
	for _, intent := range intents {
		s = Transition(s, catalog, intent)
	}
	return s
}

// enterLevel resets the play fields for level at index
func enterLevel(s SessionState, index int, level Level) SessionState {
	s.ScreenPhase = PhasePlaying
	s.PlaySubPhase = SubPhaseProgramming
	s.CurrentLevelIndex = index
	s.Queue = []Command{}
	s.Trace = []ExecutionStep{}
	s.Cursor = NotStarted
	s.Pose = StartPose(level)
	return s
}
