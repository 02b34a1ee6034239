package memory

import (
	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/interrupt"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// JoypadKey represents a key on the joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

func (k JoypadKey) String() string {
	switch k {
	case JoypadRight:
		return "Right"
	case JoypadLeft:
		return "Left"
	case JoypadUp:
		return "Up"
	case JoypadDown:
		return "Down"
	case JoypadA:
		return "A"
	case JoypadB:
		return "B"
	case JoypadSelect:
		return "Select"
	case JoypadStart:
		return "Start"
	}
	return "Unknown"
}

// Joypad backs the P1 register.
//
// P1 is just a selector: bits 4-5 pick which button group is mapped onto
// bits 0-3.
//   - if bit 4 is 0, bits 0-3 are the 4 d-pad directions
//   - if bit 5 is 0, bits 0-3 are A, B, Select, Start
//   - if both are 0, the groups are ANDed
//   - if neither is, bits 0-3 read as 0x0F
//
// 1 is released, 0 is pressed. Bits 6-7 always read as 1.
type Joypad struct {
	buttons uint8
	dpad    uint8
	selectP uint8

	irq interrupt.Requester
}

func NewJoypad(irq interrupt.Requester) *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
		selectP: 0x30,
		irq:     irq,
	}
}

func (j *Joypad) Read() uint8 {
	result := uint8(0xC0) | j.selectP
	selectDpad := !bit.IsSet(4, j.selectP)
	selectButtons := !bit.IsSet(5, j.selectP)

	switch {
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad
	case selectButtons:
		result |= j.buttons
	case selectDpad:
		result |= j.dpad
	default:
		result |= 0x0F
	}
	return result
}

// Write sets the selection bits, the only writable part of P1.
func (j *Joypad) Write(value uint8) {
	j.selectP = value & 0x30
}

// Set updates a key and requests the joypad interrupt on a press.
func (j *Joypad) Set(key JoypadKey, pressed bool) {
	group, index := &j.dpad, uint8(key)
	if key >= JoypadA {
		group, index = &j.buttons, uint8(key-JoypadA)
	}

	was := bit.IsSet(index, *group)
	*group = bit.SetTo(index, *group, !pressed)
	if was && pressed {
		j.irq.RequestInterrupt(addr.JoypadInterrupt)
	}
}

// Press updates the joypad state when a key is pressed
func (j *Joypad) Press(key JoypadKey) { j.Set(key, true) }

// Release updates the joypad state when a key is released
func (j *Joypad) Release(key JoypadKey) { j.Set(key, false) }

func (j *Joypad) WriteState(w *state.Writer) {
	w.U8(j.buttons)
	w.U8(j.dpad)
	w.U8(j.selectP)
}

func (j *Joypad) ReadState(r *state.Reader) {
	j.buttons = r.U8()
	j.dpad = r.U8()
	j.selectP = r.U8()
}
