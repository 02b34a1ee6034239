package jeebie

import (
	"fmt"
	"log/slog"
	"math/bits"
	"time"

	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/audio"
	"github.com/valerio/go-jeebie-color/jeebie/cpu"
	"github.com/valerio/go-jeebie-color/jeebie/interrupt"
	"github.com/valerio/go-jeebie-color/jeebie/memory"
	"github.com/valerio/go-jeebie-color/jeebie/serial"
	"github.com/valerio/go-jeebie-color/jeebie/state"
	"github.com/valerio/go-jeebie-color/jeebie/timing"
	"github.com/valerio/go-jeebie-color/jeebie/video"
)

// stateMagic opens every save state.
var stateMagic = [4]byte{'G', 'B', 'C', 'S'}

// Post-boot internal divider values, DIV is the upper byte.
const (
	dmgDividerSeed = 0xABCC
	cgbDividerSeed = 0x267C
)

// Emulator owns one of each component and drives them from a single
// master tick of 4 dots.
type Emulator struct {
	cfg config

	irq    *interrupt.Controller
	timer  *memory.Timer
	serial *serial.LogSink
	joypad *memory.Joypad
	wram   *memory.WorkRAM
	gpu    *video.GPU
	apu    *audio.APU
	cpu    *cpu.CPU
	bus    *Bus

	cgb bool
	// carry is the remainder of Advance, in tick-nanoseconds
	carry uint64
	ticks uint64

	// power-on snapshot taken with the null cartridge inserted
	resetState []byte
}

// New creates an emulator with no cartridge, powered on in monochrome mode.
func New(opts ...Option) *Emulator {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Emulator{cfg: cfg}
	e.irq = interrupt.New()
	e.bus = newBus()
	e.timer = memory.NewTimer(e.irq)
	e.serial = serial.NewLogSink(e.irq, cfg.serialOpts...)
	e.joypad = memory.NewJoypad(e.irq)
	e.wram = memory.NewWorkRAM()
	e.gpu = video.NewGpu(e.irq, e.bus)
	e.apu = audio.New(
		audio.WithSampleRate(cfg.sampleRate),
		audio.WithBufferFrames(cfg.bufferFrames),
		audio.WithGain(cfg.gain),
	)
	e.cpu = cpu.New(e.bus, e.irq)

	e.bus.cart = memory.NewCartridge()
	e.bus.gpu = e.gpu
	e.bus.apu = e.apu
	e.bus.cpu = e.cpu
	e.bus.timer = e.timer
	e.bus.serial = e.serial
	e.bus.joypad = e.joypad
	e.bus.wram = e.wram
	e.bus.irq = e.irq

	e.powerOn(false)
	e.resetState = e.GetState()
	return e
}

// LoadCartridge validates a ROM image and restarts the machine with it. On
// error the running cartridge and all state are left untouched.
func (e *Emulator) LoadCartridge(data []byte) error {
	cart, err := memory.NewCartridgeWithData(data, e.cfg.clock)
	if err != nil {
		slog.Warn("Rejected cartridge", "error", err)
		return fmt.Errorf("load cartridge: %w", err)
	}

	// the reset snapshot was taken with the null mapper
	e.bus.cart = memory.NewCartridge()
	if err := e.applyState(e.resetState); err != nil {
		return fmt.Errorf("restore power-on state: %w", err)
	}

	e.bus.cart = cart
	e.powerOn(cart.CGBSupported() && !e.cfg.forceDMG)

	slog.Info("Loaded cartridge", "title", cart.Title(), "mapper", cart.Kind(),
		"rom", cart.ROMSize(), "ram", cart.RAMSize(), "cgb", e.cgb, "battery", cart.HasBattery())
	return nil
}

// powerOn puts every component in the state the boot ROM leaves behind, or
// at address 0 with the boot ROM mapped when one matching the mode is set.
func (e *Emulator) powerOn(cgb bool) {
	boot := e.bootROMFor(cgb)
	e.cgb = cgb

	e.irq.Write(addr.IE, 0x00)
	seed := uint16(dmgDividerSeed)
	if cgb {
		seed = cgbDividerSeed
	}
	if boot != nil {
		seed = 0
		e.irq.Write(addr.IF, 0x00)
	} else {
		e.irq.Write(addr.IF, uint8(addr.VBlankInterrupt))
	}
	e.timer.SetSeed(seed)
	e.serial.Reset()
	e.wram.SetCGB(cgb)
	e.gpu.Reset(cgb)
	e.apu.Reset(boot == nil)
	e.cpu.Reset(cgb, boot != nil)

	e.bus.bootROM = boot
	e.bus.bootEnabled = boot != nil
	e.bus.dma = 0xFF
	e.carry = 0
	e.ticks = 0
}

func (e *Emulator) bootROMFor(cgb bool) []byte {
	rom := e.cfg.bootROM
	switch {
	case rom == nil:
		return nil
	case cgb && len(rom) == cgbBootROMSize, !cgb && len(rom) == dmgBootROMSize:
		return rom
	}
	slog.Warn("Boot ROM does not match the hardware mode, starting without it", "size", len(rom), "cgb", cgb)
	return nil
}

// Tick advances the machine by one master tick and reports whether an
// instruction completed on it. In double speed the CPU, timer and serial
// port run twice while the PPU and APU run once.
func (e *Emulator) Tick() bool {
	done := e.clockCPU()
	if e.cpu.DoubleSpeed() {
		done = e.clockCPU() || done
	}
	e.gpu.Clock()
	e.apu.Clock()
	e.ticks++
	return done
}

// clockCPU runs one CPU-rate clock. A general purpose HDMA holds the CPU
// until the transfer ends.
func (e *Emulator) clockCPU() bool {
	done := false
	if !e.gpu.DMAActive() {
		done = e.cpu.Clock()
	}
	e.timer.Clock()
	e.serial.Clock()
	return done
}

// RunUntilFrame runs until the PPU completes a frame. With the LCD off no
// frame ever completes, so it stops after one frame's worth of ticks.
func (e *Emulator) RunUntilFrame() {
	start := e.gpu.FrameCount()
	for range timing.TicksPerFrame {
		e.Tick()
		if e.gpu.FrameCount() != start {
			return
		}
	}
}

// Advance runs as many ticks as fit in d of emulated time, carrying the
// fraction over to the next call. Returns the ticks run.
func (e *Emulator) Advance(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	var ticks uint64
	ticks, e.carry = ticksFor(d, e.carry)
	for range ticks {
		e.Tick()
	}
	return int(ticks)
}

// ticksFor converts d plus a carried fraction (in tick-nanoseconds) into
// whole ticks and the new fraction. The product is computed in 128 bits,
// so no positive duration overflows.
func ticksFor(d time.Duration, carry uint64) (uint64, uint64) {
	hi, lo := bits.Mul64(uint64(d), timing.TicksPerSecond)
	lo, c := bits.Add64(lo, carry, 0)
	hi += c
	return bits.Div64(hi, lo, uint64(time.Second))
}

// OnFrame registers the callback receiving each completed frame.
func (e *Emulator) OnFrame(fn func(*video.FrameBuffer)) { e.gpu.OnFrame(fn) }

// OnAudio registers the callback receiving interleaved stereo samples.
func (e *Emulator) OnAudio(fn func([]int16)) { e.apu.OnBuffer(fn) }

// SetButton updates a joypad key. Pressing a key also wakes a stopped CPU.
func (e *Emulator) SetButton(key memory.JoypadKey, pressed bool) {
	e.joypad.Set(key, pressed)
	if pressed {
		e.cpu.Resume()
	}
}

// ExportSave returns the battery backed RAM (and clock) of the cartridge,
// nil when it has no battery.
func (e *Emulator) ExportSave() []byte { return e.bus.cart.ExportSave() }

func (e *Emulator) ImportSave(data []byte) error {
	if err := e.bus.cart.ImportSave(data); err != nil {
		return fmt.Errorf("import save: %w", err)
	}
	return nil
}

func (e *Emulator) GetCurrentFrame() *video.FrameBuffer { return e.gpu.GetCurrentFrame() }
func (e *Emulator) FrameCount() uint64                  { return e.gpu.FrameCount() }
func (e *Emulator) Cartridge() *memory.Cartridge        { return e.bus.cart }
func (e *Emulator) CGB() bool                           { return e.cgb }
func (e *Emulator) APU() *audio.APU                     { return e.apu }
func (e *Emulator) CPU() *cpu.CPU                       { return e.cpu }

// Bus exposes the address space for inspection. Reads have no side effects.
func (e *Emulator) Bus() *Bus { return e.bus }

// Cycles returns the master ticks run since power on.
func (e *Emulator) Cycles() uint64 { return e.ticks }

// components lists every stateful part in save-state order.
func (e *Emulator) components() []state.Stateful {
	return []state.Stateful{e.irq, e.timer, e.serial, e.joypad, e.wram, e.bus.cart, e.gpu, e.apu, e.cpu, e.bus}
}

// GetState serializes the whole machine.
func (e *Emulator) GetState() []byte {
	w := state.NewWriter()
	w.Raw(stateMagic[:])
	w.Bool(e.cgb)
	w.U64(e.carry)
	w.U64(e.ticks)
	for _, c := range e.components() {
		w.Component(c)
	}
	return w.Bytes()
}

// SetState restores a state produced by GetState. A state that fails to
// apply is rolled back, leaving the machine as it was.
func (e *Emulator) SetState(data []byte) error {
	backup := e.GetState()
	if err := e.applyState(data); err != nil {
		if rerr := e.applyState(backup); rerr != nil {
			panic(fmt.Sprintf("restoring backup state: %v", rerr))
		}
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

func (e *Emulator) applyState(data []byte) error {
	r := state.NewReader(data)
	var magic [4]byte
	r.Raw(magic[:])
	if r.Err() == nil && magic != stateMagic {
		return state.ErrBadMagic
	}
	cgb := r.Bool()
	carry := r.U64()
	ticks := r.U64()
	if err := r.Err(); err != nil {
		return err
	}

	e.cgb = cgb
	e.carry = carry % uint64(time.Second)
	e.ticks = ticks
	e.wram.SetCGB(cgb)
	for _, c := range e.components() {
		r.Component(c)
	}
	return r.Finish()
}
