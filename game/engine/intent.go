package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownIntent  = errors.New("unknown intent")
	ErrInvalidCommand = errors.New("invalid command")
	ErrInvalidSkin    = errors.New("invalid vehicle skin")
	ErrMissingIndex   = errors.New("intent requires an index")
)

// IntentKind names an intent on the wire
type IntentKind string

const (
	KindGoToTitle         IntentKind = "go_to_title"
	KindGoToLevelSelect   IntentKind = "go_to_level_select"
	KindStartLevel        IntentKind = "start_level"
	KindAddCommand        IntentKind = "add_command"
	KindRemoveCommand     IntentKind = "remove_command"
	KindClearQueue        IntentKind = "clear_queue"
	KindRun               IntentKind = "run"
	KindAdvanceStep       IntentKind = "advance_step"
	KindFinalizeExecution IntentKind = "finalize_execution"
	KindRetry             IntentKind = "retry"
	KindNextLevel         IntentKind = "next_level"
	KindSelectVehicleSkin IntentKind = "select_vehicle_skin"
)

// Intent is a request to change the session state. The set of intents is
// closed: only the types in this package implement it.
type Intent interface {
	Kind() IntentKind
	isIntent()
}

type (
	// GoToTitle shows the title screen
	GoToTitle struct{}
	// GoToLevelSelect shows the level selection screen
	GoToLevelSelect struct{}
	// StartLevel loads the level at Index and starts programming it
	StartLevel struct{ Index int }
	// AddCommand appends Command to the queue
	AddCommand struct{ Command Command }
	// RemoveCommand drops the queue element at Index
	RemoveCommand struct{ Index int }
	// ClearQueue empties the queue
	ClearQueue struct{}
	// Run executes the queue and starts playback
	Run struct{}
	// AdvanceStep moves the playback cursor one step forward
	AdvanceStep struct{}
	// FinalizeExecution evaluates the run
	FinalizeExecution struct{}
	// Retry returns to programming the current level with an empty queue
	Retry struct{}
	// NextLevel starts the following level, or returns to level select after the last one
	NextLevel struct{}
	// SelectVehicleSkin changes the cosmetic skin
	SelectVehicleSkin struct{ Skin VehicleSkin }
)

func (GoToTitle) Kind() IntentKind         { return KindGoToTitle }
func (GoToLevelSelect) Kind() IntentKind   { return KindGoToLevelSelect }
func (StartLevel) Kind() IntentKind        { return KindStartLevel }
func (AddCommand) Kind() IntentKind        { return KindAddCommand }
func (RemoveCommand) Kind() IntentKind     { return KindRemoveCommand }
func (ClearQueue) Kind() IntentKind        { return KindClearQueue }
func (Run) Kind() IntentKind               { return KindRun }
func (AdvanceStep) Kind() IntentKind       { return KindAdvanceStep }
func (FinalizeExecution) Kind() IntentKind { return KindFinalizeExecution }
func (Retry) Kind() IntentKind             { return KindRetry }
func (NextLevel) Kind() IntentKind         { return KindNextLevel }
func (SelectVehicleSkin) Kind() IntentKind { return KindSelectVehicleSkin }

func (GoToTitle) isIntent()         {}
func (GoToLevelSelect) isIntent()   {}
func (StartLevel) isIntent()        {}
func (AddCommand) isIntent()        {}
func (RemoveCommand) isIntent()     {}
func (ClearQueue) isIntent()        {}
func (Run) isIntent()               {}
func (AdvanceStep) isIntent()       {}
func (FinalizeExecution) isIntent() {}
func (Retry) isIntent()             {}
func (NextLevel) isIntent()         {}
func (SelectVehicleSkin) isIntent() {}

// IntentEnvelope is the JSON form of an intent used by the REST, WebSocket and MCP transports
type IntentEnvelope struct {
	Type    string `json:"type"`
	Index   *int   `json:"index,omitempty"`
	Command string `json:"command,omitempty"`
	Skin    string `json:"skin,omitempty"`
}

// Action names from the first version of the game client
var legacyIntentNames = map[string]IntentKind{
	"go_title":        KindGoToTitle,
	"go_level_select": KindGoToLevelSelect,
	"clear_commands":  KindClearQueue,
	"execute":         KindRun,
	"next_step":       KindAdvanceStep,
	"execution_done":  KindFinalizeExecution,
	"select_train":    KindSelectVehicleSkin,
	"select_skin":     KindSelectVehicleSkin,
}

// ParseIntentKind normalizes a kind name such as "NEXT_STEP" or "advance-step"
func ParseIntentKind(s string) (IntentKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	switch kind := IntentKind(name); kind {
	case KindGoToTitle, KindGoToLevelSelect, KindStartLevel, KindAddCommand,
		KindRemoveCommand, KindClearQueue, KindRun, KindAdvanceStep,
		KindFinalizeExecution, KindRetry, KindNextLevel, KindSelectVehicleSkin:
		return kind, nil
	}
	if kind, ok := legacyIntentNames[name]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s)
}

// DecodeIntent converts an envelope into a typed Intent, validating its arguments
func DecodeIntent(env IntentEnvelope) (Intent, error) {
	kind, err := ParseIntentKind(env.Type)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindGoToTitle:
		return GoToTitle{}, nil
	case KindGoToLevelSelect:
		return GoToLevelSelect{}, nil
	case KindStartLevel:
		if env.Index == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingIndex, kind)
		}
		return StartLevel{Index: *env.Index}, nil
	case KindAddCommand:
		cmd, err := ParseCommand(env.Command)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
		}
		return AddCommand{Command: cmd}, nil
	case KindRemoveCommand:
		if env.Index == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingIndex, kind)
		}
		return RemoveCommand{Index: *env.Index}, nil
	case KindClearQueue:
		return ClearQueue{}, nil
	case KindRun:
		return Run{}, nil
	case KindAdvanceStep:
		return AdvanceStep{}, nil
	case KindFinalizeExecution:
		return FinalizeExecution{}, nil
	case KindRetry:
		return Retry{}, nil
	case KindNextLevel:
		return NextLevel{}, nil
	case KindSelectVehicleSkin:
		skin, err := ParseVehicleSkin(env.Skin)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSkin, err)
		}
		return SelectVehicleSkin{Skin: skin}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, env.Type)
}

// EncodeIntent converts an Intent into its envelope form
func EncodeIntent(intent Intent) IntentEnvelope {
	env := IntentEnvelope{Type: string(intent.Kind())}
	switch in := intent.(type) {
	case StartLevel:
		idx := in.Index
		env.Index = &idx
	case RemoveCommand:
		idx := in.Index
		env.Index = &idx
	case AddCommand:
		env.Command = string(in.Command)
	case SelectVehicleSkin:
		env.Skin = string(in.Skin)
	}
	return env
}
