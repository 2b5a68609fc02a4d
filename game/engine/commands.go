package engine

import (
	"fmt"
	"strings"
)

var commandLabels = map[Command]string{
	CmdAdvance:     "advance one cell",
	CmdTurnLeft:    "turn left",
	CmdTurnRight:   "turn right",
	CmdSignal:      "sound the horn",
	CmdToggleLight: "toggle the light",
}

// Older clients send the names used by the first version of the game
var commandAliases = map[string]Command{
	"forward": CmdAdvance,
	"left":    CmdTurnLeft,
	"right":   CmdTurnRight,
	"horn":    CmdSignal,
	"light":   CmdToggleLight,
}

var decorationLabels = map[Decoration]string{
	Station:     "station",
	Fruit:       "fruit stand",
	Crossing:    "railroad crossing",
	FireStation: "fire station",
	Police:      "police station",
	Park:        "park",
}

// AllCommands returns every command in canonical order
func AllCommands() []Command {
	return []Command{CmdAdvance, CmdTurnLeft, CmdTurnRight, CmdSignal, CmdToggleLight}
}

// Valid reports whether c is a known command
func (c Command) Valid() bool {
	_, ok := commandLabels[c]
	return ok
}

// Label returns a human readable description of the command
func (c Command) Label() string {
	return commandLabels[c]
}

// ParseCommand converts user input into a Command, accepting legacy aliases
func ParseCommand(s string) (Command, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	if c := Command(name); c.Valid() {
		return c, nil
	}
	if c, ok := commandAliases[name]; ok {
		return c, nil
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// AllSkins returns the selectable vehicle skins
func AllSkins() []VehicleSkin {
	return []VehicleSkin{Nozomi, Komachi, Hayabusa, Kagayaki}
}

// Valid reports whether s is a known skin
func (s VehicleSkin) Valid() bool {
	for _, skin := range AllSkins() {
		if s == skin {
			return true
		}
	}
	return false
}

// ParseVehicleSkin validates a skin name
func ParseVehicleSkin(s string) (VehicleSkin, error) {
	skin := VehicleSkin(strings.ToLower(strings.TrimSpace(s)))
	if !skin.Valid() {
		return "", fmt.Errorf("unknown vehicle skin %q", s)
	}
	return skin, nil
}

// Valid reports whether d is a known decoration
func (d Decoration) Valid() bool {
	_, ok := decorationLabels[d]
	return ok
}

// Label returns the display name of the decoration
func (d Decoration) Label() string {
	return decorationLabels[d]
}
