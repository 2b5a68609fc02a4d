package engine

// GameEngine holds one session's state and applies intents through
// Transition. It is not safe for concurrent use; callers serialize intents.
type GameEngine struct {
	state   SessionState
	catalog *Catalog
}

// NewEngine creates a new game engine for the provided catalog
func NewEngine(catalog *Catalog) (*GameEngine, error) {
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}

	return &GameEngine{
		catalog: catalog,
		state:   NewSessionState(catalog),
	}, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in catalog
func NewEngineWithDefaults() *GameEngine {
	catalog := DefaultCatalog()
	return &GameEngine{
		catalog: catalog,
		state:   NewSessionState(catalog),
	}
}

// GetState returns the current session state
func (e *GameEngine) GetState() SessionState {
	return e.state
}

// CurrentLevel returns the level the session is on
func (e *GameEngine) CurrentLevel() (Level, bool) {
	return e.catalog.Level(e.state.CurrentLevelIndex)
}

// Dispatch applies intent and reports whether its precondition held
func (e *GameEngine) Dispatch(intent Intent) (SessionState, bool) {
	applied := Permits(e.state, e.catalog, intent)
	e.state = Transition(e.state, e.catalog, intent)
	return e.state, applied
}

func (e *GameEngine) apply(intent Intent) SessionState {
	state, _ := e.Dispatch(intent)
	return state
}

// GoToTitle shows the title screen
func (e *GameEngine) GoToTitle() SessionState { return e.apply(GoToTitle{}) }

// GoToLevelSelect shows the level selection screen
func (e *GameEngine) GoToLevelSelect() SessionState { return e.apply(GoToLevelSelect{}) }

// StartLevel starts the level at index
func (e *GameEngine) StartLevel(index int) SessionState {
	return e.apply(StartLevel{Index: index})
}

// AddCommand appends cmd to the queue
func (e *GameEngine) AddCommand(cmd Command) SessionState {
	return e.apply(AddCommand{Command: cmd})
}

// RemoveCommand removes the queue element at index
func (e *GameEngine) RemoveCommand(index int) SessionState {
	return e.apply(RemoveCommand{Index: index})
}

// ClearQueue empties the queue
func (e *GameEngine) ClearQueue() SessionState { return e.apply(ClearQueue{}) }

// Run executes the queue against the current level
func (e *GameEngine) Run() SessionState { return e.apply(Run{}) }

// AdvanceStep moves playback one step forward
func (e *GameEngine) AdvanceStep() SessionState { return e.apply(AdvanceStep{}) }

// FinalizeExecution evaluates the current run
func (e *GameEngine) FinalizeExecution() SessionState { return e.apply(FinalizeExecution{}) }

// Retry restarts the current level
func (e *GameEngine) Retry() SessionState { return e.apply(Retry{}) }

// NextLevel moves on to the following level
func (e *GameEngine) NextLevel() SessionState { return e.apply(NextLevel{}) }

// SelectVehicleSkin changes the vehicle skin
func (e *GameEngine) SelectVehicleSkin(skin VehicleSkin) SessionState {
	return e.apply(SelectVehicleSkin{Skin: skin})
}

// PlayThrough runs the queue, advances playback to the last step and finalizes,
// as a stepper with zero delay would.
func (e *GameEngine) PlayThrough() SessionState {
	e.state = PlayThrough(Transition(e.state, e.catalog, Run{}), e.catalog)
	return e.state
}

// PlayThrough advances an executing state to the end of its trace and
// finalizes it. States that are not executing are returned unchanged.
func PlayThrough(s SessionState, catalog *Catalog) SessionState {
	if s.PlaySubPhase != SubPhaseExecuting {
		return s
	}
	for Permits(s, catalog, AdvanceStep{}) {
		s = Transition(s, catalog, AdvanceStep{})
	}
	return Transition(s, catalog, FinalizeExecution{})
}
