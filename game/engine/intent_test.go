package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestParseIntentKind(t *testing.T) {
	tests := []struct {
		input string
		want  IntentKind
	}{
		{"run", KindRun},
		{"ADVANCE_STEP", KindAdvanceStep},
		{"advance-step", KindAdvanceStep},
		{" start_level ", KindStartLevel},
		{"go_title", KindGoToTitle},
		{"go_level_select", KindGoToLevelSelect},
		{"clear_commands", KindClearQueue},
		{"execute", KindRun},
		{"next_step", KindAdvanceStep},
		{"execution_done", KindFinalizeExecution},
		{"select_train", KindSelectVehicleSkin},
		{"select_skin", KindSelectVehicleSkin},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParseIntentKind(test.input)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}

	_, err := ParseIntentKind("fly")
	assert.ErrorIs(t, err, ErrUnknownIntent)
}

func TestDecodeIntent(t *testing.T) {
	tests := []struct {
		name string
		env  IntentEnvelope
		want Intent
	}{
		{"title", IntentEnvelope{Type: "go_to_title"}, GoToTitle{}},
		{"level select", IntentEnvelope{Type: "go_to_level_select"}, GoToLevelSelect{}},
		{"start level", IntentEnvelope{Type: "start_level", Index: intPtr(2)}, StartLevel{Index: 2}},
		{"add command", IntentEnvelope{Type: "add_command", Command: "advance"}, AddCommand{Command: CmdAdvance}},
		{"add command alias", IntentEnvelope{Type: "add_command", Command: "left"}, AddCommand{Command: CmdTurnLeft}},
		{"remove command", IntentEnvelope{Type: "remove_command", Index: intPtr(0)}, RemoveCommand{Index: 0}},
		{"clear", IntentEnvelope{Type: "clear_queue"}, ClearQueue{}},
		{"run", IntentEnvelope{Type: "run"}, Run{}},
		{"advance", IntentEnvelope{Type: "advance_step"}, AdvanceStep{}},
		{"finalize", IntentEnvelope{Type: "finalize_execution"}, FinalizeExecution{}},
		{"retry", IntentEnvelope{Type: "retry"}, Retry{}},
		{"next", IntentEnvelope{Type: "next_level"}, NextLevel{}},
		{"skin", IntentEnvelope{Type: "select_vehicle_skin", Skin: "Nozomi"}, SelectVehicleSkin{Skin: Nozomi}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := DecodeIntent(test.env)
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestDecodeIntent_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  IntentEnvelope
		want error
	}{
		{"unknown type", IntentEnvelope{Type: "teleport"}, ErrUnknownIntent},
		{"empty type", IntentEnvelope{}, ErrUnknownIntent},
		{"start without index", IntentEnvelope{Type: "start_level"}, ErrMissingIndex},
		{"remove without index", IntentEnvelope{Type: "remove_command"}, ErrMissingIndex},
		{"bad command", IntentEnvelope{Type: "add_command", Command: "jump"}, ErrInvalidCommand},
		{"missing command", IntentEnvelope{Type: "add_command"}, ErrInvalidCommand},
		{"bad skin", IntentEnvelope{Type: "select_vehicle_skin", Skin: "maglev"}, ErrInvalidSkin},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeIntent(test.env)
			assert.ErrorIs(t, err, test.want)
		})
	}
}

func TestEncodeIntent_JSON(t *testing.T) {
	data, err := json.Marshal(EncodeIntent(StartLevel{Index: 0}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"start_level","index":0}`, string(data))

	data, err = json.Marshal(EncodeIntent(AddCommand{Command: CmdToggleLight}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"add_command","command":"toggle_light"}`, string(data))

	data, err = json.Marshal(EncodeIntent(Run{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"run"}`, string(data))
}

func TestEncodeIntent_DecodesBack(t *testing.T) {
	intents := []Intent{
		GoToTitle{}, GoToLevelSelect{}, StartLevel{Index: 4}, AddCommand{Command: CmdSignal},
		RemoveCommand{Index: 3}, ClearQueue{}, Run{}, AdvanceStep{}, FinalizeExecution{},
		Retry{}, NextLevel{}, SelectVehicleSkin{Skin: Komachi},
	}
	for _, intent := range intents {
		got, err := DecodeIntent(EncodeIntent(intent))
		require.NoError(t, err, intent.Kind())
		assert.Equal(t, intent, got)
	}
}
