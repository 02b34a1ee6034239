package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-jeebie-color/jeebie/backend"
	"github.com/valerio/go-jeebie-color/jeebie/backend/terminal/render"
	"github.com/valerio/go-jeebie-color/jeebie/input"
	"github.com/valerio/go-jeebie-color/jeebie/video"
)

const (
	gameWidth  = video.FramebufferWidth
	gameHeight = render.TextRows

	minTermWidth  = gameWidth + 2
	minTermHeight = gameHeight + 3

	logCapacity    = 200
	disasmLines    = 8
	rightPanelSkip = 2
)

// keyTimeout is how long a game key stays down after its last key event.
// Terminals only report presses (and autorepeat), never releases.
const keyTimeout = 100 * time.Millisecond

// Backend renders to the terminal with tcell, two pixel rows per text row.
type Backend struct {
	screen    tcell.Screen
	config    backend.Config
	logBuffer *render.LogBuffer
	logLevel  *slog.LevelVar

	quit       atomic.Bool
	eventQueue []input.Event

	keyStates  map[input.Action]time.Time // last event time of each held game key
	activeKeys map[input.Action]bool      // game keys reported pressed last frame
	now        func() time.Time
}

// New creates a terminal backend on the process's terminal.
func New() *Backend {
	return NewWithScreen(nil)
}

// NewWithScreen creates a backend drawing on screen, which Init will
// initialize. A nil screen means the real terminal.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{
		screen:   screen,
		logLevel: new(slog.LevelVar),
		now:      time.Now,
	}
}

// Init takes over the terminal and redirects slog to the log panel.
func (t *Backend) Init(config backend.Config) error {
	t.config = config
	t.keyStates = make(map[input.Action]time.Time)
	t.activeKeys = make(map[input.Action]bool)

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	t.logBuffer = render.NewLogBuffer(logCapacity)
	t.logLevel.Set(slog.LevelInfo)
	if config.ShowDebug {
		t.logLevel.Set(slog.LevelDebug)
	}
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, t.logLevel)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	go t.handleSignals()

	slog.Info("Terminal backend initialized", "title", config.Title)
	return nil
}

// Update polls the terminal, draws frame and returns the collected events.
func (t *Backend) Update(frame *video.FrameBuffer) ([]input.Event, error) {
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := t.gameKeyEvents(now)
	events = append(events, t.eventQueue...)
	t.eventQueue = nil

	if t.quit.Load() {
		events = append(events, input.Event{Action: input.EmulatorQuit, Type: input.Press})
		return events, nil
	}

	t.render(frame)
	t.screen.Show()
	return events, nil
}

// Cleanup gives the terminal back.
func (t *Backend) Cleanup() error {
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// HandleAction processes actions the backend implements itself.
func (t *Backend) HandleAction(act input.Action) {
	if act == input.EmulatorDebugToggle {
		t.config.ShowDebug = !t.config.ShowDebug
		slog.Info("Debug panel toggled", "enabled", t.config.ShowDebug)
	}
}

func (t *Backend) handleSignals() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-signals
	t.quit.Store(true)
}

// gameKeyEvents turns the timestamps of game key events into press and
// release edges.
func (t *Backend) gameKeyEvents(now time.Time) []input.Event {
	var events []input.Event
	active := make(map[input.Action]bool)

	for act, last := range t.keyStates {
		if now.Sub(last) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}
		active[act] = true
		if !t.activeKeys[act] {
			events = append(events, input.Event{Action: act, Type: input.Press})
		}
	}

	for act := range t.activeKeys {
		if !active[act] {
			events = append(events, input.Event{Action: act, Type: input.Release})
		}
	}

	t.activeKeys = active
	return events
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	if ev.Key() == tcell.KeyCtrlC {
		t.quit.Store(true)
		return
	}

	name := keyName(ev)
	act, ok := input.GetDefaultMapping(name)
	if !ok {
		return
	}

	if !act.IsGameInput() {
		t.eventQueue = append(t.eventQueue, input.Event{Action: act, Type: input.Press})
		return
	}

	// directions are exclusive: a new one releases the others
	if isDirection(act) {
		for _, d := range []input.Action{input.GBDPadUp, input.GBDPadDown, input.GBDPadLeft, input.GBDPadRight} {
			delete(t.keyStates, d)
		}
	}
	t.keyStates[act] = now
}

func isDirection(act input.Action) bool {
	switch act {
	case input.GBDPadUp, input.GBDPadDown, input.GBDPadLeft, input.GBDPadRight:
		return true
	}
	return false
}

var specialKeyNames = map[tcell.Key]string{
	tcell.KeyEnter:      "Enter",
	tcell.KeyBackspace:  "Backspace",
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyEscape:     "Escape",
	tcell.KeyF5:         "F5",
	tcell.KeyF7:         "F7",
	tcell.KeyF8:         "F8",
	tcell.KeyF10:        "F10",
	tcell.KeyF12:        "F12",
}

// keyName converts a tcell key event to a name from input.DefaultKeyMap.
func keyName(ev *tcell.EventKey) string {
	if ev.Key() != tcell.KeyRune {
		return specialKeyNames[ev.Key()]
	}
	if ev.Rune() == ' ' {
		return "Space"
	}
	return string(ev.Rune())
}

func (t *Backend) render(frame *video.FrameBuffer) {
	t.screen.Clear()
	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		render.DrawText(t.screen, 0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	render.DrawText(t.screen, 1, 0, gameWidth, t.config.Title, titleStyle)
	if frame != nil {
		render.DrawFrame(t.screen, frame, 1, 1)
	}

	help := "arrows/wasd z x enter backspace | space pause | F5/F7 state | F10 debug | F12 snapshot | 1-4 mute, !@#$ solo, 0 unmute | q quit"
	render.DrawText(t.screen, 1, gameHeight+1, termWidth-1, help, tcell.StyleDefault.Foreground(tcell.ColorGray))

	panelX := gameWidth + rightPanelSkip + 1
	panelWidth := termWidth - panelX
	y := 1
	if t.config.ShowDebug && t.config.Debug != nil && panelWidth > 0 {
		y = t.drawDebug(panelX, y, panelWidth)
	}
	if panelWidth > 0 {
		t.drawLogs(panelX, y, panelWidth, termHeight-1)
	}
}

func (t *Backend) drawDebug(x, y, width int) int {
	headerStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	textStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	dbg := t.config.Debug

	render.DrawText(t.screen, x, y, width, "CPU", headerStyle)
	y++
	for _, line := range dbg.CPUState().Lines() {
		render.DrawText(t.screen, x, y, width, line, textStyle)
		y++
	}

	y++
	render.DrawText(t.screen, x, y, width, "APU", headerStyle)
	y++
	for i, ch := range dbg.Channels() {
		status := "off"
		if ch.Enabled {
			status = "on "
		}
		render.DrawText(t.screen, x, y, width, fmt.Sprintf("ch%d %s vol %2d", i+1, status, ch.Volume), textStyle)
		y++
	}

	y++
	render.DrawText(t.screen, x, y, width, "Code", headerStyle)
	y++
	for i, line := range dbg.Disassembly(disasmLines) {
		style := textStyle
		if i == 0 {
			style = style.Reverse(true)
		}
		render.DrawText(t.screen, x, y, width, line, style)
		y++
	}
	return y + 1
}

func (t *Backend) drawLogs(x, y, width, bottom int) {
	if y >= bottom {
		return
	}

	styles := map[slog.Level]tcell.Style{
		slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
		slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
		slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}

	// newest at the bottom
	logs := t.logBuffer.GetRecent(bottom-y, t.logLevel.Level())
	for i, entry := range logs {
		row := bottom - 1 - i
		render.DrawText(t.screen, x, row, width, render.FormatLogEntry(entry), styles[entry.Level])
	}
}
