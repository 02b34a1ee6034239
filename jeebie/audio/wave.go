package audio

import (
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// wave plays 32 4-bit samples from wave RAM.
type wave struct {
	enabled bool
	dac     bool

	// 0 mutes, 1-3 shift the sample right by 0, 1 or 2
	outputLevel uint8
	period      uint16
	timer       int
	position    int

	ram    [waveRAMSize]uint8
	length lengthCounter
}

func newWave() wave {
	return wave{length: lengthCounter{max: waveLength}}
}

func (c *wave) step(cycles int) {
	c.timer -= cycles
	for c.timer <= 0 {
		c.timer += int(2048-c.period) * 2
		c.position = (c.position + 1) & 31
	}
}

func (c *wave) sample() uint8 {
	b := c.ram[c.position/2]
	if c.position%2 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

func (c *wave) output() uint8 {
	if !c.enabled || !c.dac || c.outputLevel == 0 {
		return 0
	}
	return c.sample() >> (c.outputLevel - 1)
}

// ramIndex resolves a wave RAM access. While the channel plays, every
// access goes to the byte holding the current sample.
func (c *wave) ramIndex(offset uint16) int {
	if c.enabled {
		return c.position / 2
	}
	return int(offset)
}

func (c *wave) readRAM(offset uint16) uint8 {
	return c.ram[c.ramIndex(offset)]
}

func (c *wave) writeRAM(offset uint16, value uint8) {
	c.ram[c.ramIndex(offset)] = value
}

func (c *wave) writeDAC(value uint8) {
	c.dac = bit.IsSet(7, value)
	if !c.dac {
		c.enabled = false
	}
}

func (c *wave) writeLength(value uint8) {
	c.length.count = int(value)
}

func (c *wave) writeOutputLevel(value uint8) {
	c.outputLevel = (value >> 5) & 0x03
}

func (c *wave) writePeriodLow(value uint8) {
	c.period = setPeriodLow(c.period, value)
}

func (c *wave) writeControl(value uint8) {
	c.period = setPeriodHigh(c.period, value)
	c.length.enabled = bit.IsSet(6, value)
	if bit.IsSet(7, value) {
		c.enabled = c.dac
		c.length.trigger()
		c.timer = int(2048-c.period) * 2
		c.position = 0
	}
}

func (c *wave) clockLength() {
	if c.length.clock() {
		c.enabled = false
	}
}

func (c *wave) writeState(w *state.Writer) {
	w.Bool(c.enabled)
	w.Bool(c.dac)
	w.U8(c.outputLevel)
	w.U16(c.period)
	w.Int(c.timer)
	w.Int(c.position)
	w.Raw(c.ram[:])
	c.length.writeState(w)
}

func (c *wave) readState(r *state.Reader) {
	c.enabled = r.Bool()
	c.dac = r.Bool()
	c.outputLevel = r.U8() & 0x03
	c.period = r.U16() & maxPeriod
	c.timer = max(r.Int(), 0)
	c.position = r.Int() & 31
	r.Raw(c.ram[:])
	c.length.readState(r)
}
