package engine

import "fmt"

// Direction is the facing of the vehicle on the grid
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Command is a single instruction a player can place in the queue
type Command string

const (
	CmdAdvance     Command = "advance"
	CmdTurnLeft    Command = "turn_left"
	CmdTurnRight   Command = "turn_right"
	CmdSignal      Command = "signal"
	CmdToggleLight Command = "toggle_light"
)

// Decoration is a cosmetic tag placed on a grid cell
type Decoration string

const (
	Station     Decoration = "station"
	Fruit       Decoration = "fruit"
	Crossing    Decoration = "crossing"
	FireStation Decoration = "firestation"
	Police      Decoration = "police"
	Park        Decoration = "park"
)

// VehicleSkin selects how the vehicle is drawn. It has no effect on simulation.
type VehicleSkin string

const (
	Nozomi   VehicleSkin = "nozomi"
	Komachi  VehicleSkin = "komachi"
	Hayabusa VehicleSkin = "hayabusa"
	Kagayaki VehicleSkin = "kagayaki"

	DefaultSkin = Kagayaki
)

const (
	// MaxQueueLength is the capacity of the command queue
	MaxQueueLength = 12

	// Validation constants
	MinGridSize = 2
	MaxGridSize = 50
)

// Position represents x,y grid coordinates; (0,0) is the top-left cell
type Position struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String renders the position as (x,y)
func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Pose is the complete simulated state of the vehicle at one instant
type Pose struct {
	Position  Position  `json:"position"`
	Direction Direction `json:"direction"`
	LightOn   bool      `json:"light_on"`
}

// ExecutionStep records the effect of one command of a run
type ExecutionStep struct {
	Command             Command `json:"command"`
	PoseBefore          Pose    `json:"pose_before"`
	PoseAfter           Pose    `json:"pose_after"`
	RejectedOutOfBounds bool    `json:"rejected_out_of_bounds"`
}

// CellDecoration places a decoration on a cell
type CellDecoration struct {
	Position   Position   `json:"position" yaml:"position"`
	Decoration Decoration `json:"decoration" yaml:"decoration"`
}

// Level is one entry of a catalog
type Level struct {
	ID                int              `json:"id" yaml:"id"`
	Name              string           `json:"name" yaml:"name"`
	GridSize          int              `json:"grid_size" yaml:"grid_size"`
	Start             Position         `json:"start" yaml:"start"`
	StartDirection    Direction        `json:"start_direction" yaml:"start_direction"`
	Goal              Position         `json:"goal" yaml:"goal"`
	Decorations       []CellDecoration `json:"decorations,omitempty" yaml:"decorations,omitempty"`
	PermittedCommands []Command        `json:"permitted_commands" yaml:"permitted_commands"`
	Hint              string           `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Catalog is the ordered, read-only set of levels a session plays through
type Catalog struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Levels      []Level `json:"levels" yaml:"levels"`
}
