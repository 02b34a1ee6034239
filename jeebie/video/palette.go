package video

import (
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// dmgShades maps a 2-bit shade from BGP/OBP0/OBP1 to its display color.
var dmgShades = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// dmgColor resolves a color index through a monochrome palette register.
func dmgColor(palette uint8, index int) GBColor {
	shade := (palette >> (uint(index) * 2)) & 0x03
	return dmgShades[shade]
}

// ColorPalette is one of the two CGB palette memories: 8 palettes of 4
// colors, each color a little endian BGR555 word. It is reached through a
// specification register (index and auto-increment) and a data register.
type ColorPalette struct {
	data          [64]uint8
	index         uint8
	autoIncrement bool
}

func (p *ColorPalette) ReadSpec() uint8 {
	return 0x40 | p.index | bit.Bool(p.autoIncrement)<<7
}

func (p *ColorPalette) WriteSpec(value uint8) {
	p.index = value & 0x3F
	p.autoIncrement = bit.IsSet(7, value)
}

func (p *ColorPalette) ReadData() uint8 {
	return p.data[p.index]
}

// WriteData stores value at the current index, then advances the index
// when auto-increment is set. Reads never advance it.
func (p *ColorPalette) WriteData(value uint8) {
	p.data[p.index] = value
	if p.autoIncrement {
		p.index = (p.index + 1) & 0x3F
	}
}

// Color converts color index of palette to RGBA, expanding each 5 bit
// channel to 8 bits.
func (p *ColorPalette) Color(palette uint8, index int) GBColor {
	offset := int(palette&0x07)*8 + index*2
	raw := uint16(p.data[offset]) | uint16(p.data[offset+1])<<8

	r := expand5(raw & 0x1F)
	g := expand5((raw >> 5) & 0x1F)
	b := expand5((raw >> 10) & 0x1F)
	return GBColor(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | 0xFF)
}

func expand5(c uint16) uint8 {
	return uint8(c<<3 | c>>2)
}

// fill sets every byte of the palette memory, used for the power-on white.
func (p *ColorPalette) fill(value uint8) {
	for i := range p.data {
		p.data[i] = value
	}
}

func (p *ColorPalette) WriteState(w *state.Writer) {
	w.Raw(p.data[:])
	w.U8(p.index)
	w.Bool(p.autoIncrement)
}

func (p *ColorPalette) ReadState(r *state.Reader) {
	r.Raw(p.data[:])
	p.index = r.U8() & 0x3F
	p.autoIncrement = r.Bool()
}
