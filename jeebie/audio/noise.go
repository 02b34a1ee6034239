package audio

import (
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// noise outputs the low bit of a 15 bit LFSR, inverted.
type noise struct {
	enabled bool
	dac     bool

	shift       uint8
	shortMode   bool // 7 bit LFSR
	divisorCode uint8
	timer       int
	lfsr        uint16

	length   lengthCounter
	envelope envelope
}

func newNoise() noise {
	return noise{length: lengthCounter{max: noiseLength}, lfsr: lfsrInitialValue}
}

// period returns the T-cycles between LFSR clocks.
func (c *noise) period() int {
	divisor := 8
	if c.divisorCode != 0 {
		divisor = int(c.divisorCode) * 16
	}
	return divisor << c.shift
}

func (c *noise) step(cycles int) {
	c.timer -= cycles
	for c.timer <= 0 {
		c.timer += c.period()
		c.clockLFSR()
	}
}

// clockLFSR shifts right, feeding bit0 XOR bit1 into bit 14 (and bit 6 in
// short mode).
func (c *noise) clockLFSR() {
	feedback := (c.lfsr ^ c.lfsr>>1) & 1
	c.lfsr = c.lfsr>>1 | feedback<<14
	if c.shortMode {
		c.lfsr = c.lfsr&^(1<<6) | feedback<<6
	}
}

func (c *noise) output() uint8 {
	if !c.enabled || !c.dac || c.lfsr&1 != 0 {
		return 0
	}
	return c.envelope.volume
}

func (c *noise) writeLength(value uint8) {
	c.length.count = int(value & 0x3F)
}

func (c *noise) writeEnvelope(value uint8) {
	c.envelope.write(value)
	c.dac = dacEnabled(value)
	if !c.dac {
		c.enabled = false
	}
}

func (c *noise) writePolynomial(value uint8) {
	c.shift = value >> 4
	c.shortMode = bit.IsSet(3, value)
	c.divisorCode = value & 0x07
}

func (c *noise) writeControl(value uint8) {
	c.length.enabled = bit.IsSet(6, value)
	if bit.IsSet(7, value) {
		c.enabled = c.dac
		c.length.trigger()
		c.timer = c.period()
		c.lfsr = lfsrInitialValue
		c.envelope.trigger()
	}
}

func (c *noise) clockLength() {
	if c.length.clock() {
		c.enabled = false
	}
}

func (c *noise) writeState(w *state.Writer) {
	w.Bool(c.enabled)
	w.Bool(c.dac)
	w.U8(c.shift)
	w.Bool(c.shortMode)
	w.U8(c.divisorCode)
	w.Int(c.timer)
	w.U16(c.lfsr)
	c.length.writeState(w)
	c.envelope.writeState(w)
}

func (c *noise) readState(r *state.Reader) {
	c.enabled = r.Bool()
	c.dac = r.Bool()
	c.shift = r.U8() & 0x0F
	c.shortMode = r.Bool()
	c.divisorCode = r.U8() & 0x07
	c.timer = max(r.Int(), 0)
	c.lfsr = r.U16() & 0x7FFF
	c.length.readState(r)
	c.envelope.readState(r)
}
