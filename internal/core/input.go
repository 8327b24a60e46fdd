package core

// Action represents a semantic client action, abstracted from physical key presses.
type Action int

const (
	ActionNone    Action = iota
	ActionUp             // W, Up arrow - move paddle up
	ActionDown           // S, Down arrow - move paddle down
	ActionReady          // R - ready up in a lobby or ready check
	ActionStart          // Enter - player 1 starts from a lobby or ready check
	ActionServe          // Space - serve the ball
	ActionRematch        // M - ask for a rematch
	ActionHelp           // ? - toggle the full help
	ActionQuit           // Q, Ctrl+C - leave
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionReady:
		return "Ready"
	case ActionStart:
		return "Start"
	case ActionServe:
		return "Serve"
	case ActionRematch:
		return "Rematch"
	case ActionHelp:
		return "Help"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// InputFrame collects the actions triggered between two client frames.
type InputFrame struct {
	// Actions maps action types to whether they were triggered this frame.
	Actions map[Action]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	return f.Actions[a]
}

// Direction folds Up and Down into -1, 0 or 1. Table y grows downwards.
func (f InputFrame) Direction() float64 {
	var d float64
	if f.Has(ActionUp) {
		d--
	}
	if f.Has(ActionDown) {
		d++
	}
	return d
}

// Clear resets all actions for the next frame.
func (f *InputFrame) Clear() {
	clear(f.Actions)
}
