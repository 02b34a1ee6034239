package audio

import (
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// pulse is a square wave channel. Channel 1 adds a frequency sweep.
type pulse struct {
	enabled bool
	dac     bool

	duty     uint8
	dutyStep int
	period   uint16
	// T-cycles until the next duty step
	timer int

	length   lengthCounter
	envelope envelope

	hasSweep     bool
	sweepPeriod  uint8
	sweepNegate  bool
	sweepShift   uint8
	sweepTimer   uint8
	sweepEnabled bool
	shadow       uint16
}

func newPulse(hasSweep bool) pulse {
	return pulse{hasSweep: hasSweep, length: lengthCounter{max: pulseLength}}
}

func (p *pulse) reloadTimer() {
	p.timer = int(2048-p.period) * 4
}

func (p *pulse) step(cycles int) {
	p.timer -= cycles
	for p.timer <= 0 {
		p.timer += int(2048-p.period) * 4
		p.dutyStep = (p.dutyStep + 1) & 7
	}
}

// output returns the current digital level, 0-15.
func (p *pulse) output() uint8 {
	if !p.enabled || !p.dac {
		return 0
	}
	if dutyPatterns[p.duty]>>(7-p.dutyStep)&1 == 0 {
		return 0
	}
	return p.envelope.volume
}

func (p *pulse) writeSweep(value uint8) {
	p.sweepPeriod = (value >> 4) & 0x07
	p.sweepNegate = bit.IsSet(3, value)
	p.sweepShift = value & 0x07
}

func (p *pulse) writeLength(value uint8) {
	p.duty = value >> 6
	p.length.count = int(value & 0x3F)
}

func (p *pulse) writeEnvelope(value uint8) {
	p.envelope.write(value)
	p.dac = dacEnabled(value)
	if !p.dac {
		p.enabled = false
	}
}

func (p *pulse) writePeriodLow(value uint8) {
	p.period = setPeriodLow(p.period, value)
}

func (p *pulse) writeControl(value uint8) {
	p.period = setPeriodHigh(p.period, value)
	p.length.enabled = bit.IsSet(6, value)
	if bit.IsSet(7, value) {
		p.trigger()
	}
}

func (p *pulse) trigger() {
	p.enabled = p.dac
	p.length.trigger()
	p.reloadTimer()
	p.envelope.trigger()

	if p.hasSweep {
		p.shadow = p.period
		p.sweepTimer = p.sweepReload()
		p.sweepEnabled = p.sweepPeriod != 0 || p.sweepShift != 0
		if p.sweepShift != 0 {
			p.sweepTarget()
		}
	}
}

func (p *pulse) sweepReload() uint8 {
	if p.sweepPeriod == 0 {
		return 8
	}
	return p.sweepPeriod
}

// sweepTarget computes the next period from the shadow register and
// silences the channel when it overflows 11 bits.
func (p *pulse) sweepTarget() uint16 {
	delta := p.shadow >> p.sweepShift
	target := p.shadow + delta
	if p.sweepNegate {
		target = p.shadow - delta
	}
	if target > maxPeriod {
		p.enabled = false
	}
	return target
}

func (p *pulse) clockSweep() {
	if !p.hasSweep {
		return
	}
	if p.sweepTimer > 0 {
		p.sweepTimer--
	}
	if p.sweepTimer > 0 {
		return
	}
	p.sweepTimer = p.sweepReload()
	if !p.sweepEnabled || p.sweepPeriod == 0 {
		return
	}

	target := p.sweepTarget()
	if target <= maxPeriod && p.sweepShift != 0 {
		p.shadow = target
		p.period = target
		// the new period is checked again, without being applied
		p.sweepTarget()
	}
}

func (p *pulse) clockLength() {
	if p.length.clock() {
		p.enabled = false
	}
}

func (p *pulse) writeState(w *state.Writer) {
	w.Bool(p.enabled)
	w.Bool(p.dac)
	w.U8(p.duty)
	w.Int(p.dutyStep)
	w.U16(p.period)
	w.Int(p.timer)
	p.length.writeState(w)
	p.envelope.writeState(w)
	w.U8(p.sweepPeriod)
	w.Bool(p.sweepNegate)
	w.U8(p.sweepShift)
	w.U8(p.sweepTimer)
	w.Bool(p.sweepEnabled)
	w.U16(p.shadow)
}

func (p *pulse) readState(r *state.Reader) {
	p.enabled = r.Bool()
	p.dac = r.Bool()
	p.duty = r.U8() & 0x03
	p.dutyStep = r.Int() & 7
	p.period = r.U16() & maxPeriod
	p.timer = max(r.Int(), 0)
	p.length.readState(r)
	p.envelope.readState(r)
	p.sweepPeriod = r.U8() & 0x07
	p.sweepNegate = r.Bool()
	p.sweepShift = r.U8() & 0x07
	p.sweepTimer = r.U8()
	p.sweepEnabled = r.Bool()
	p.shadow = r.U16()
}
