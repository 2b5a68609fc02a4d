package engine

import "sort"

// ScreenPhase selects which screen the presentation layer shows
type ScreenPhase string

const (
	PhaseTitle       ScreenPhase = "title"
	PhaseLevelSelect ScreenPhase = "level_select"
	PhasePlaying     ScreenPhase = "playing"
	PhaseSuccess     ScreenPhase = "success"
	PhaseFailure     ScreenPhase = "failure"
)

// PlaySubPhase is the gameplay stage inside the playing screen. It is kept
// unchanged when the screen moves on to success or failure.
type PlaySubPhase string

const (
	SubPhaseProgramming PlaySubPhase = "programming"
	SubPhaseExecuting   PlaySubPhase = "executing"
	SubPhaseDone        PlaySubPhase = "done"
)

// NotStarted is the playback cursor value before the first step is shown
const NotStarted = -1

// SessionState is the complete mutable state of one game session. Values are
// never modified in place: Transition returns a new SessionState and copies
// the queue, trace and cleared list before changing them.
type SessionState struct {
	ScreenPhase       ScreenPhase     `json:"screen_phase"`
	PlaySubPhase      PlaySubPhase    `json:"play_sub_phase"`
	CurrentLevelIndex int             `json:"current_level_index"`
	Queue             []Command       `json:"queue"`
	Trace             []ExecutionStep `json:"trace"`
	Cursor            int             `json:"cursor"`
	Pose              Pose            `json:"pose"`
	ClearedLevelIDs   []int           `json:"cleared_level_ids"`
	Skin              VehicleSkin     `json:"skin"`
}

// NewSessionState creates the state a session starts with: the title screen,
// level 0 loaded and nothing cleared.
func NewSessionState(catalog *Catalog) SessionState {
	s := SessionState{
		ScreenPhase:       PhaseTitle,
		PlaySubPhase:      SubPhaseProgramming,
		CurrentLevelIndex: 0,
		Queue:             []Command{},
		Trace:             []ExecutionStep{},
		Cursor:            NotStarted,
		ClearedLevelIDs:   []int{},
		Skin:              DefaultSkin,
	}
	if level, ok := catalog.Level(0); ok {
		s.Pose = StartPose(level)
	}
	return s
}

// IsCleared reports whether the level with the given id has been cleared
func (s SessionState) IsCleared(levelID int) bool {
	for _, id := range s.ClearedLevelIDs {
		if id == levelID {
			return true
		}
	}
	return false
}

// QueueFull reports whether the command queue is at capacity
func (s SessionState) QueueFull() bool {
	return len(s.Queue) >= MaxQueueLength
}

// CurrentStep returns the step the cursor points at, or nil before playback starts
func (s SessionState) CurrentStep() *ExecutionStep {
	if s.Cursor < 0 || s.Cursor >= len(s.Trace) {
		return nil
	}
	step := s.Trace[s.Cursor]
	return &step
}

// PlaybackFinished reports whether the cursor has reached the last step of the trace
func (s SessionState) PlaybackFinished() bool {
	return s.Cursor+1 >= len(s.Trace)
}

// withCleared returns a sorted copy of ids that contains id. ids is returned
// as is when it already holds id.
func withCleared(ids []int, id int) []int {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	out := make([]int, 0, len(ids)+1)
	out = append(out, ids...)
	out = append(out, id)
	sort.Ints(out)
	return out
}
