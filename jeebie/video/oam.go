package video

import (
	"cmp"
	"slices"

	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

const (
	spriteCount       = 40
	maxSpritesPerLine = 10
	// OAM scan looks at 2 entries per clock, 40 entries in 20 clocks.
	spritesPerClock = 2
)

// Sprite represents a single object in OAM (0xFE00-0xFE9F).
type Sprite struct {
	Y         int   // screen Y of the top row (OAM value - 16)
	X         int   // screen X of the leftmost column (OAM value - 8)
	TileIndex uint8 // tile number in the 0x8000 area
	Flags     uint8 // attribute byte
	OAMIndex  int   // 0-39

	// parsed attribute flags
	PaletteOBP1 bool  // DMG: false = OBP0, true = OBP1
	FlipX       bool  // horizontally flip the sprite
	FlipY       bool  // vertically flip the sprite
	BehindBG    bool  // BG colors 1-3 are drawn over the sprite
	Bank        int   // CGB: VRAM bank of the tile data
	CGBPalette  uint8 // CGB: OBJ palette 0-7
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
	s.Bank = int(bit.Bool(bit.IsSet(3, s.Flags)))
	s.CGBPalette = s.Flags & 0x07
}

// OAM holds the 40 sprite entries and the per-line sprite buffer that the
// OAM scan fills.
type OAM struct {
	data [spriteCount * 4]uint8

	line      [maxSpritesPerLine]Sprite
	lineCount int
	// next entry the scan looks at
	scanIndex int
}

func (o *OAM) Read(offset uint16) uint8 {
	return o.data[offset]
}

func (o *OAM) Write(offset uint16, value uint8) {
	o.data[offset] = value
}

// Sprite decodes the entry at index (0-39).
func (o *OAM) Sprite(index int) Sprite {
	base := index * 4
	sprite := Sprite{
		Y:         int(o.data[base]) - 16,
		X:         int(o.data[base+1]) - 8,
		TileIndex: o.data[base+2],
		Flags:     o.data[base+3],
		OAMIndex:  index,
	}
	sprite.parseFlags()
	return sprite
}

// Sprites returns all 40 entries. Useful for debug tools.
func (o *OAM) Sprites() []Sprite {
	result := make([]Sprite, spriteCount)
	for i := range spriteCount {
		result[i] = o.Sprite(i)
	}
	return result
}

// startScan empties the line buffer at the start of mode 2.
func (o *OAM) startScan() {
	o.lineCount = 0
	o.scanIndex = 0
}

// scanStep evaluates the next two entries against scanline, keeping at most
// 10 sprites whose rows cover it.
func (o *OAM) scanStep(scanline, height int) {
	for range spritesPerClock {
		if o.scanIndex >= spriteCount {
			return
		}
		index := o.scanIndex
		o.scanIndex++

		if o.lineCount >= maxSpritesPerLine {
			continue
		}
		y := int(o.data[index*4]) - 16
		if y <= scanline && scanline < y+height {
			o.line[o.lineCount] = o.Sprite(index)
			o.lineCount++
		}
	}
}

// orderByX applies monochrome priority: lower X first, OAM order on ties.
// The scan already produced OAM order, which is what color mode uses.
func (o *OAM) orderByX() {
	slices.SortStableFunc(o.line[:o.lineCount], func(a, b Sprite) int {
		return cmp.Compare(a.X, b.X)
	})
}

// LineSprites returns the sprites selected for the current line, in
// priority order once the scan is complete.
func (o *OAM) LineSprites() []Sprite {
	return o.line[:o.lineCount]
}

func (o *OAM) WriteState(w *state.Writer) {
	w.Raw(o.data[:])
	w.Int(o.scanIndex)
	w.Int(o.lineCount)
	for i := range o.lineCount {
		s := o.line[i]
		w.U16(uint16(int16(s.Y)))
		w.U16(uint16(int16(s.X)))
		w.U8(s.TileIndex)
		w.U8(s.Flags)
		w.U8(uint8(s.OAMIndex))
	}
}

func (o *OAM) ReadState(r *state.Reader) {
	r.Raw(o.data[:])
	o.scanIndex = r.Int()
	o.lineCount = r.Int()
	if o.lineCount < 0 || o.lineCount > maxSpritesPerLine || o.scanIndex < 0 || o.scanIndex > spriteCount {
		r.Fail(state.ErrOutOfRange)
		o.lineCount = 0
		return
	}
	for i := range o.lineCount {
		s := Sprite{
			Y:         int(int16(r.U16())),
			X:         int(int16(r.U16())),
			TileIndex: r.U8(),
			Flags:     r.U8(),
			OAMIndex:  int(r.U8()),
		}
		s.parseFlags()
		o.line[i] = s
	}
}
