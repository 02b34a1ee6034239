package backend

import (
	"github.com/valerio/go-jeebie-color/jeebie/debug"
	"github.com/valerio/go-jeebie-color/jeebie/input"
	"github.com/valerio/go-jeebie-color/jeebie/video"
)

// Backend represents a complete emulator platform (rendering + input).
// Backends are responsible for:
// - Rendering frames to their specific output
// - Translating platform-specific input events to input.Events
// - Handling backend-specific features (snapshots, debug panels)
type Backend interface {
	// Init configures the backend. Required before calling Update.
	Init(config Config) error

	// Update renders frame and returns the input events collected since
	// the previous call.
	Update(frame *video.FrameBuffer) ([]input.Event, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// Config holds configuration for backends
type Config struct {
	Title     string
	ShowDebug bool          // backends may ignore unsupported features
	Debug     DebugProvider // optional source for debug panels
}

// DebugProvider exposes emulator state to debug panels.
type DebugProvider interface {
	CPUState() debug.CPUState
	Channels() [4]debug.ChannelState
	Disassembly(count int) []string
}
