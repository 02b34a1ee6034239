package input

import (
	"time"

	"github.com/valerio/go-jeebie-color/jeebie/memory"
)

const (
	// debounceDuration is the minimum time between two presses of the same
	// emulator action
	debounceDuration = 300 * time.Millisecond
)

// Buttons is whatever owns the emulated joypad.
type Buttons interface {
	SetButton(key memory.JoypadKey, pressed bool)
}

// Manager routes input events: Game Boy controls go straight to the
// joypad, everything else to the callbacks registered with On.
type Manager struct {
	buttons       Buttons
	handlers      map[Action][]func()
	lastTriggered map[Action]time.Time
	now           func() time.Time
}

func NewManager(buttons Buttons) *Manager {
	return &Manager{
		buttons:       buttons,
		handlers:      make(map[Action][]func()),
		lastTriggered: make(map[Action]time.Time),
		now:           time.Now,
	}
}

// On registers a callback for presses of act.
func (m *Manager) On(act Action, callback func()) {
	m.handlers[act] = append(m.handlers[act], callback)
}

// Trigger handles one event. Joypad keys are never debounced; emulator
// actions only fire on a press, at most once per debounceDuration.
func (m *Manager) Trigger(evt Event) {
	if key, ok := evt.Action.JoypadKey(); ok {
		if m.buttons != nil {
			m.buttons.SetButton(key, evt.Type == Press)
		}
		return
	}

	if evt.Type != Press {
		return
	}

	now := m.now()
	if last, ok := m.lastTriggered[evt.Action]; ok && now.Sub(last) < debounceDuration {
		return
	}
	m.lastTriggered[evt.Action] = now

	for _, callback := range m.handlers[evt.Action] {
		callback()
	}
}

// TriggerAll handles events in order.
func (m *Manager) TriggerAll(events []Event) {
	for _, evt := range events {
		m.Trigger(evt)
	}
}
