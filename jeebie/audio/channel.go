package audio

import (
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// lengthCounter counts up from the written length to max. When enabled and
// max is reached the channel is silenced.
type lengthCounter struct {
	enabled bool
	count   int
	max     int
}

// clock advances the counter and reports whether it just expired.
func (l *lengthCounter) clock() bool {
	if !l.enabled || l.count >= l.max {
		return false
	}
	l.count++
	return l.count == l.max
}

// trigger restarts an expired counter at full length.
func (l *lengthCounter) trigger() {
	if l.count >= l.max {
		l.count = 0
	}
}

func (l *lengthCounter) writeState(w *state.Writer) {
	w.Bool(l.enabled)
	w.Int(l.count)
}

func (l *lengthCounter) readState(r *state.Reader) {
	l.enabled = r.Bool()
	l.count = r.Int()
}

// envelope steps the channel volume once per period envelope clocks.
type envelope struct {
	initial  uint8
	increase bool
	period   uint8
	volume   uint8
	timer    uint8
}

// write decodes NRx2.
func (e *envelope) write(value uint8) {
	e.initial = value >> 4
	e.increase = bit.IsSet(3, value)
	e.period = value & 0x07
}

func (e *envelope) trigger() {
	e.volume = e.initial
	e.timer = e.period
}

func (e *envelope) clock() {
	if e.period == 0 {
		return
	}
	if e.timer > 0 {
		e.timer--
	}
	if e.timer > 0 {
		return
	}
	e.timer = e.period
	if e.increase && e.volume < 15 {
		e.volume++
	} else if !e.increase && e.volume > 0 {
		e.volume--
	}
}

func (e *envelope) writeState(w *state.Writer) {
	w.U8(e.initial)
	w.Bool(e.increase)
	w.U8(e.period)
	w.U8(e.volume)
	w.U8(e.timer)
}

func (e *envelope) readState(r *state.Reader) {
	e.initial = r.U8()
	e.increase = r.Bool()
	e.period = r.U8()
	e.volume = r.U8() & 0x0F
	e.timer = r.U8()
}

// dacEnabled reports whether NRx2 leaves the DAC powered: any of the
// initial volume or direction bits set.
func dacEnabled(nrx2 uint8) bool {
	return nrx2&0xF8 != 0
}

// setPeriodLow and setPeriodHigh update the 11 bit period from NRx3/NRx4.
func setPeriodLow(period uint16, value uint8) uint16 {
	return period&0x700 | uint16(value)
}

func setPeriodHigh(period uint16, value uint8) uint16 {
	return period&0xFF | uint16(value&0x07)<<8
}
