package memory

import (
	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/interrupt"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// tacLookup maps TAC input clock select (bits 1–0) to the bit position
// of the 16‑bit internal divider (systemCounter) used as the timer’s
// clock source. The timer increments on falling edges of this selected
// bit when the timer is enabled (TAC bit 2 = 1).
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacLookup = [4]uint8{9, 3, 5, 7}

// cyclesPerClock is how many divider increments happen per machine cycle.
const cyclesPerClock = 4

// Timer encapsulates the DIV/TIMA/TMA/TAC behavior.
type Timer struct {
	systemCounter uint16 // DIV is the upper 8 bits
	lastTimerBit  bool
	timaOverflow  int // cycles left before TIMA is reloaded from TMA

	tima uint8
	tma  uint8
	tac  uint8

	irq interrupt.Requester
}

func NewTimer(irq interrupt.Requester) *Timer {
	return &Timer{irq: irq}
}

// SetSeed sets the internal divider, used for post-boot DIV values.
func (t *Timer) SetSeed(seed uint16) {
	t.systemCounter = seed
	t.lastTimerBit = false
	t.timaOverflow = 0
}

// Clock advances the timer by one machine cycle.
func (t *Timer) Clock() {
	for range cyclesPerClock {
		t.step()
	}
}

func (t *Timer) step() {
	t.systemCounter++

	if t.timaOverflow > 0 {
		t.timaOverflow--
		if t.timaOverflow == 0 {
			t.tima = t.tma
			t.irq.RequestInterrupt(addr.TimerInterrupt)
		}
	}

	t.checkEdge()
}

// checkEdge increments TIMA on a falling edge of the selected divider bit.
// Resetting DIV or changing TAC can produce such an edge too.
func (t *Timer) checkEdge() {
	current := bit.IsSet(2, t.tac) && bit.IsSet16(tacLookup[t.tac&0x03], t.systemCounter)
	if t.lastTimerBit && !current {
		t.incrementTIMA()
	}
	t.lastTimerBit = current
}

func (t *Timer) incrementTIMA() {
	t.tima++
	if t.tima == 0 {
		t.timaOverflow = cyclesPerClock
	}
}

func (t *Timer) Read(address uint16) uint8 {
	switch address {
	case addr.DIV:
		return uint8(t.systemCounter >> 8)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	}
	return 0xFF
}

func (t *Timer) Write(address uint16, value uint8) {
	switch address {
	case addr.DIV:
		t.systemCounter = 0
		t.checkEdge()
	case addr.TIMA:
		// a write during the reload delay cancels the reload
		t.tima = value
		t.timaOverflow = 0
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value & 0x07
		t.checkEdge()
	}
}

func (t *Timer) WriteState(w *state.Writer) {
	w.U16(t.systemCounter)
	w.Bool(t.lastTimerBit)
	w.Int(t.timaOverflow)
	w.U8(t.tima)
	w.U8(t.tma)
	w.U8(t.tac)
}

func (t *Timer) ReadState(r *state.Reader) {
	t.systemCounter = r.U16()
	t.lastTimerBit = r.Bool()
	t.timaOverflow = r.Int()
	t.tima = r.U8()
	t.tma = r.U8()
	t.tac = r.U8()
}
