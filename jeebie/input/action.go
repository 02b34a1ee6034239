package input

import "github.com/valerio/go-jeebie-color/jeebie/memory"

// Action is something a key can be bound to.
type Action int

const (
	// Game Boy hardware controls
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features
	EmulatorDebugToggle
	EmulatorSnapshot
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorSaveState
	EmulatorLoadState
	EmulatorReset
	EmulatorQuit

	// Audio debugging
	AudioToggleChannel1
	AudioToggleChannel2
	AudioToggleChannel3
	AudioToggleChannel4
	AudioSoloChannel1
	AudioSoloChannel2
	AudioSoloChannel3
	AudioSoloChannel4
	AudioUnmuteAll
)

var actionNames = map[Action]string{
	GBButtonA:           "A",
	GBButtonB:           "B",
	GBButtonStart:       "Start",
	GBButtonSelect:      "Select",
	GBDPadUp:            "Up",
	GBDPadDown:          "Down",
	GBDPadLeft:          "Left",
	GBDPadRight:         "Right",
	EmulatorDebugToggle: "toggle debug panel",
	EmulatorSnapshot:    "snapshot",
	EmulatorPauseToggle: "pause",
	EmulatorStepFrame:   "step frame",
	EmulatorSaveState:   "save state",
	EmulatorLoadState:   "load state",
	EmulatorReset:       "reset",
	EmulatorQuit:        "quit",
	AudioToggleChannel1: "toggle channel 1",
	AudioToggleChannel2: "toggle channel 2",
	AudioToggleChannel3: "toggle channel 3",
	AudioToggleChannel4: "toggle channel 4",
	AudioSoloChannel1:   "solo channel 1",
	AudioSoloChannel2:   "solo channel 2",
	AudioSoloChannel3:   "solo channel 3",
	AudioSoloChannel4:   "solo channel 4",
	AudioUnmuteAll:      "unmute all channels",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

var joypadKeys = map[Action]memory.JoypadKey{
	GBButtonA:      memory.JoypadA,
	GBButtonB:      memory.JoypadB,
	GBButtonStart:  memory.JoypadStart,
	GBButtonSelect: memory.JoypadSelect,
	GBDPadUp:       memory.JoypadUp,
	GBDPadDown:     memory.JoypadDown,
	GBDPadLeft:     memory.JoypadLeft,
	GBDPadRight:    memory.JoypadRight,
}

// JoypadKey maps a Game Boy control to its joypad key.
func (a Action) JoypadKey() (memory.JoypadKey, bool) {
	key, ok := joypadKeys[a]
	return key, ok
}

// IsGameInput reports whether a drives the emulated joypad.
func (a Action) IsGameInput() bool {
	_, ok := joypadKeys[a]
	return ok
}

// EventType is the edge of an input event.
type EventType int

const (
	Press   EventType = iota // key went down
	Release                  // key went up
)

// Event is an action with its edge, as produced by backends.
type Event struct {
	Action Action
	Type   EventType
}
