package input

// DefaultKeyMap binds key names to actions. Backends translate their own
// key events to these names.
var DefaultKeyMap = map[string]Action{
	// Game Boy controls
	"z":         GBButtonA,
	"x":         GBButtonB,
	"Enter":     GBButtonStart,
	"Backspace": GBButtonSelect,
	"Up":        GBDPadUp,
	"Down":      GBDPadDown,
	"Left":      GBDPadLeft,
	"Right":     GBDPadRight,

	// WASD
	"w": GBDPadUp,
	"s": GBDPadDown,
	"a": GBDPadLeft,
	"d": GBDPadRight,

	// Emulator controls
	"Space":  EmulatorPauseToggle,
	"p":      EmulatorPauseToggle,
	"o":      EmulatorStepFrame,
	"F5":     EmulatorSaveState,
	"F7":     EmulatorLoadState,
	"F8":     EmulatorReset,
	"F10":    EmulatorDebugToggle,
	"F12":    EmulatorSnapshot,
	"Escape": EmulatorQuit,
	"q":      EmulatorQuit,

	// Audio debug controls
	"1": AudioToggleChannel1,
	"2": AudioToggleChannel2,
	"3": AudioToggleChannel3,
	"4": AudioToggleChannel4,
	"!": AudioSoloChannel1,
	"@": AudioSoloChannel2,
	"#": AudioSoloChannel3,
	"$": AudioSoloChannel4,
	"0": AudioUnmuteAll,
}

// GetDefaultMapping returns the default action for a key, if one exists
func GetDefaultMapping(key string) (Action, bool) {
	act, ok := DefaultKeyMap[key]
	return act, ok
}
