package service

import (
	"time"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string     `json:"id"`
	CatalogID      string     `json:"catalog_id"`
	CatalogName    string     `json:"catalog_name"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	State          *StateView `json:"state"`
}

// StateView is a session state enriched with the fields a client needs to
// draw it without consulting the catalog
type StateView struct {
	SessionID string `json:"session_id"`
	engine.SessionState

	Level             *engine.Level         `json:"level,omitempty"`
	LevelCount        int                   `json:"level_count"`
	QueueRemaining    int                   `json:"queue_remaining"`
	CurrentStep       *engine.ExecutionStep `json:"current_step,omitempty"`
	PermittedCommands []engine.Command      `json:"permitted_commands"`
	Levels            []LevelStatus         `json:"levels"`
	Summary           *engine.LevelSummary  `json:"summary,omitempty"`
	Outcome           string                `json:"outcome,omitempty"`
	PlaybackActive    bool                  `json:"playback_active"`
}

// LevelStatus is one entry of the level select screen
type LevelStatus struct {
	Index   int    `json:"index"`
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Cleared bool   `json:"cleared"`
}

// IntentResult is the response to a dispatched intent
type IntentResult struct {
	Applied bool       `json:"applied"`
	State   *StateView `json:"state"`
}

// CatalogInfo provides information about a level catalog
type CatalogInfo struct {
	Filename    string `json:"filename"`
	CatalogID   string `json:"catalog_id"` // The identifier to use for session creation
	Name        string `json:"name"`       // Display name
	Description string `json:"description"`
	LevelCount  int    `json:"level_count"`
}

// Events sent to a Notifier during background playback
const (
	EventSignal           = "signal"
	EventPlaybackFinished = "playback_finished"
)

// SignalEvent is sent when playback reveals a signal step
type SignalEvent struct {
	Step     int             `json:"step"`
	Position engine.Position `json:"position"`
}

// PlaybackFinishedEvent is sent when a background playback finalizes its run
type PlaybackFinishedEvent struct {
	LevelID int    `json:"level_id"`
	Outcome string `json:"outcome"`
}

// NewStateView derives a view of state for a session playing catalog
func NewStateView(sessionID string, state engine.SessionState, catalog *engine.Catalog, playbackActive bool) *StateView {
	view := &StateView{
		SessionID:         sessionID,
		SessionState:      state,
		LevelCount:        catalog.Len(),
		QueueRemaining:    engine.MaxQueueLength - len(state.Queue),
		CurrentStep:       state.CurrentStep(),
		PermittedCommands: []engine.Command{},
		Levels:            make([]LevelStatus, 0, catalog.Len()),
		PlaybackActive:    playbackActive,
	}

	if level, ok := catalog.Level(state.CurrentLevelIndex); ok {
		view.Level = &level
		view.PermittedCommands = level.PermittedCommands
		summary := engine.SummarizeLevel(level)
		view.Summary = &summary
	}

	for i := 0; i < catalog.Len(); i++ {
		level := catalog.Levels[i]
		view.Levels = append(view.Levels, LevelStatus{
			Index:   i,
			ID:      level.ID,
			Name:    level.Name,
			Cleared: state.IsCleared(level.ID),
		})
	}

	view.Outcome = outcome(state.ScreenPhase)

	return view
}

// outcome names the result shown on the success and failure screens
func outcome(phase engine.ScreenPhase) string {
	switch phase {
	case engine.PhaseSuccess:
		return "success"
	case engine.PhaseFailure:
		return "failure"
	}
	return ""
}
