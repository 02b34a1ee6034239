package cpu

import (
	"fmt"
	"log/slog"

	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// Bus is the CPU's view of the address space.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Interrupts is the part of the interrupt controller the CPU drives.
type Interrupts interface {
	Pending() (addr.Interrupt, bool)
	Acknowledge(i addr.Interrupt)
}

// Flag is one of the 4 possible flags used in the flag register (high part of AF)
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// dispatchTicks is the cost of servicing an interrupt: two wait states, two
// pushes and the jump.
const dispatchTicks = 5

// CPU is the main struct holding SM83 state
type CPU struct {
	// registers
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	// metadata
	interruptsEnabled bool
	eiPending         bool // EI delay: interrupts enable after next instruction
	currentOpcode     uint16
	stopped           bool
	halted            bool
	locked            bool // an illegal opcode hangs the CPU until reset
	cycles            uint64

	// haltBug makes the next opcode fetch skip the PC increment, so the
	// byte after HALT is read twice. Set by HALT with IME=0 and an
	// interrupt already pending.
	haltBug bool

	// remaining ticks of the instruction executed on the last boundary
	remaining int

	// CGB speed switch
	cgb         bool
	doubleSpeed bool
	speedArmed  bool

	bus Bus
	irq Interrupts
}

// New returns a CPU wired to bus and irq, with DMG post-boot registers.
func New(bus Bus, irq Interrupts) *CPU {
	c := &CPU{bus: bus, irq: irq}
	c.Reset(false, false)
	return c
}

// Reset loads the register values the boot ROM leaves behind. With a boot
// ROM mapped, execution starts from 0 with cleared registers instead.
func (c *CPU) Reset(cgb, bootROM bool) {
	*c = CPU{bus: c.bus, irq: c.irq, cgb: cgb}
	if bootROM {
		return
	}

	if cgb {
		c.setAF(0x1180)
		c.setBC(0x0000)
		c.setDE(0xFF56)
		c.setHL(0x000D)
	} else {
		c.setAF(0x01B0)
		c.setBC(0x0013)
		c.setDE(0x00D8)
		c.setHL(0x014D)
	}
	c.sp = 0xFFFE
	c.pc = 0x0100
}

// Clock advances the CPU by one master tick. The whole instruction runs on
// its first tick and the following ticks only count down its length.
// Returns true on the tick an instruction (or interrupt dispatch) completes.
func (c *CPU) Clock() bool {
	c.cycles++
	if c.remaining > 0 {
		c.remaining--
		return c.remaining == 0
	}

	c.remaining = c.step() - 1
	return c.remaining == 0
}

// step runs one instruction boundary and returns its length in ticks.
func (c *CPU) step() int {
	interrupt, pending := c.irq.Pending()

	if c.stopped || c.locked {
		return 1
	}

	if c.halted {
		// IE & IF wakes the CPU even with IME off; it just won't dispatch.
		if !pending {
			return 1
		}
		c.halted = false
	}

	if c.interruptsEnabled && pending {
		c.eiPending = false
		return c.dispatch(interrupt)
	}

	delayedEI := c.eiPending

	instruction := c.fetch()
	ticks := instruction(c) / 4

	if delayedEI && c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	return ticks
}

// dispatch services i: clears its request, disables IME and calls its vector.
func (c *CPU) dispatch(i addr.Interrupt) int {
	c.irq.Acknowledge(i)
	c.interruptsEnabled = false
	c.pushStack(c.pc)
	c.pc = i.Vector()
	return dispatchTicks
}

// fetch reads the opcode at PC and returns its handler. A 0xCB prefix is
// consumed here so CB handlers only see their operands.
func (c *CPU) fetch() Opcode {
	op := c.bus.Read(c.pc)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.pc++
	}

	if op == 0xCB {
		cb := c.bus.Read(c.pc)
		c.pc++
		c.currentOpcode = bit.Combine(0xCB, cb)
		return opcodesCB[cb]
	}

	c.currentOpcode = uint16(op)
	return opcodes[op]
}

// halt suspends fetch until an interrupt is pending. With IME off and an
// interrupt already pending the CPU doesn't halt and triggers the halt bug.
func (c *CPU) halt() {
	if _, pending := c.irq.Pending(); pending && !c.interruptsEnabled {
		c.haltBug = true
		return
	}
	c.halted = true
}

// stop performs the speed switch when armed through KEY1, otherwise it
// stops the CPU until a key is pressed.
func (c *CPU) stop() {
	if c.cgb && c.speedArmed {
		c.doubleSpeed = !c.doubleSpeed
		c.speedArmed = false
		return
	}
	c.stopped = true
}

// illegal hangs the CPU, as the unused opcodes do on hardware.
func (c *CPU) illegal() int {
	slog.Warn("CPU locked up on illegal opcode", "opcode", fmt.Sprintf("0x%02X", c.currentOpcode), "pc", fmt.Sprintf("0x%04X", c.pc-1))
	c.locked = true
	return 4
}

// Resume leaves STOP mode. Called on joypad input.
func (c *CPU) Resume() { c.stopped = false }

// DoubleSpeed reports whether the CPU runs at twice the PPU rate.
func (c *CPU) DoubleSpeed() bool { return c.doubleSpeed }

// ReadKEY1 returns the speed switch register. Reads 0xFF on DMG.
func (c *CPU) ReadKEY1() uint8 {
	if !c.cgb {
		return 0xFF
	}
	return 0x7E | bit.Bool(c.doubleSpeed)<<7 | bit.Bool(c.speedArmed)
}

// WriteKEY1 arms (or disarms) the speed switch performed by the next STOP.
func (c *CPU) WriteKEY1(value uint8) {
	if !c.cgb {
		return
	}
	c.speedArmed = bit.IsSet(0, value)
}

// readImmediate returns the byte at PC and advances it
func (c *CPU) readImmediate() uint8 {
	n := c.bus.Read(c.pc)
	c.pc++
	return n
}

// readImmediateWord returns the little endian word at PC and advances it by 2
func (c *CPU) readImmediateWord() uint16 {
	low := c.readImmediate()
	high := c.readImmediate()
	return bit.Combine(high, low)
}

// readSignedImmediate returns the byte at PC as a signed offset
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit will return 1 if the passed flag is set, 0 otherwise
func (c CPU) flagToBit(flag Flag) uint8 {
	return bit.Bool(c.isSetFlag(flag))
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if !condition {
		c.resetFlag(flag)
		return
	}
	c.setFlag(flag)
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// F register lower 4 bits must be 0
	c.f = bit.Low(value) & 0xF0
}

func (c CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

func (c *CPU) WriteState(w *state.Writer) {
	for _, r := range []uint8{c.a, c.f, c.b, c.c, c.d, c.e, c.h, c.l} {
		w.U8(r)
	}
	w.U16(c.sp)
	w.U16(c.pc)
	w.Bool(c.interruptsEnabled)
	w.Bool(c.eiPending)
	w.U16(c.currentOpcode)
	w.Bool(c.stopped)
	w.Bool(c.halted)
	w.Bool(c.locked)
	w.Bool(c.haltBug)
	w.U64(c.cycles)
	w.Int(c.remaining)
	w.Bool(c.cgb)
	w.Bool(c.doubleSpeed)
	w.Bool(c.speedArmed)
}

func (c *CPU) ReadState(r *state.Reader) {
	for _, reg := range []*uint8{&c.a, &c.f, &c.b, &c.c, &c.d, &c.e, &c.h, &c.l} {
		*reg = r.U8()
	}
	c.f &= 0xF0
	c.sp = r.U16()
	c.pc = r.U16()
	c.interruptsEnabled = r.Bool()
	c.eiPending = r.Bool()
	c.currentOpcode = r.U16()
	c.stopped = r.Bool()
	c.halted = r.Bool()
	c.locked = r.Bool()
	c.haltBug = r.Bool()
	c.cycles = r.U64()
	c.remaining = r.Int()
	c.cgb = r.Bool()
	c.doubleSpeed = r.Bool()
	c.speedArmed = r.Bool()
}

// Debug getter methods for register display
func (c *CPU) GetA() uint8       { return c.a }
func (c *CPU) GetF() uint8       { return c.f }
func (c *CPU) GetB() uint8       { return c.b }
func (c *CPU) GetC() uint8       { return c.c }
func (c *CPU) GetD() uint8       { return c.d }
func (c *CPU) GetE() uint8       { return c.e }
func (c *CPU) GetH() uint8       { return c.h }
func (c *CPU) GetL() uint8       { return c.l }
func (c *CPU) GetSP() uint16     { return c.sp }
func (c *CPU) GetPC() uint16     { return c.pc }
func (c *CPU) GetCycles() uint64 { return c.cycles }

// Interrupt state getters
func (c *CPU) GetIME() bool    { return c.interruptsEnabled }
func (c *CPU) IsHalted() bool  { return c.halted }
func (c *CPU) IsStopped() bool { return c.stopped }

// GetFlagString returns a human-readable representation of the flag register
func (c *CPU) GetFlagString() string {
	flags := []byte("----")
	for i, f := range []Flag{zeroFlag, subFlag, halfCarryFlag, carryFlag} {
		if c.isSetFlag(f) {
			flags[i] = "ZNHC"[i]
		}
	}
	return string(flags)
}
