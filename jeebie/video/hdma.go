package video

import (
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

const (
	hdmaBlockSize = 16
	hdmaMaxBlocks = 128
	// general purpose DMA moves a 16 byte block in 8 ticks
	gdmaBytesPerTick = 2
)

// SourceReader is what HDMA reads its source bytes through: the bus, so
// that ROM, cartridge RAM and work RAM are all valid sources.
type SourceReader interface {
	Read(address uint16) uint8
}

// HDMA is the CGB VRAM transfer engine. General purpose transfers run to
// completion while the CPU is held; H-blank transfers copy one block at the
// start of every H-blank.
type HDMA struct {
	source      uint16
	destination uint16
	// blocks left to copy
	blocks int
	// bytes of the current block already copied by a general transfer
	progress int

	active bool
	hblank bool
}

func (h *HDMA) writeSourceHigh(value uint8) {
	h.source = bit.Combine(value, bit.Low(h.source))
}

func (h *HDMA) writeSourceLow(value uint8) {
	h.source = bit.Combine(bit.High(h.source), value&0xF0)
}

func (h *HDMA) writeDestHigh(value uint8) {
	h.destination = bit.Combine(value&0x1F, bit.Low(h.destination))
}

func (h *HDMA) writeDestLow(value uint8) {
	h.destination = bit.Combine(bit.High(h.destination), value&0xF0)
}

// readControl returns HDMA5: the remaining length with bit 7 clear while a
// transfer runs, 0xFF once it completed, bit 7 set with the remaining
// length after an H-blank transfer was cancelled.
func (h *HDMA) readControl() uint8 {
	remaining := uint8(h.blocks-1) & 0x7F
	if h.active {
		return remaining
	}
	return 0x80 | remaining
}

// writeControl starts a transfer, or cancels a running H-blank one when
// bit 7 is clear.
func (h *HDMA) writeControl(value uint8) {
	if h.active && h.hblank && !bit.IsSet(7, value) {
		h.active = false
		return
	}

	h.blocks = int(value&0x7F) + 1
	h.progress = 0
	h.hblank = bit.IsSet(7, value)
	h.active = true
}

// generalActive reports whether a general purpose transfer holds the CPU.
func (h *HDMA) generalActive() bool {
	return h.active && !h.hblank
}

// copyHDMAByte moves one byte into the selected VRAM bank and advances both
// addresses.
func (g *GPU) copyHDMAByte() {
	h := &g.hdma
	value := g.source.Read(h.source)
	g.vram[g.vbk][h.destination&0x1FFF] = value
	h.source++
	h.destination = (h.destination + 1) & 0x1FFF
}

// stepGeneralDMA copies the bytes a general transfer moves in one tick.
func (g *GPU) stepGeneralDMA() {
	h := &g.hdma
	for range gdmaBytesPerTick {
		g.copyHDMAByte()
		h.progress++
		if h.progress == hdmaBlockSize {
			h.progress = 0
			h.blocks--
			if h.blocks == 0 {
				h.active = false
				return
			}
		}
	}
}

// hblankDMA copies one block at the start of an H-blank.
func (g *GPU) hblankDMA() {
	h := &g.hdma
	if !h.active || !h.hblank {
		return
	}
	for range hdmaBlockSize {
		g.copyHDMAByte()
	}
	h.blocks--
	if h.blocks == 0 {
		h.active = false
	}
}

func (h *HDMA) WriteState(w *state.Writer) {
	w.U16(h.source)
	w.U16(h.destination)
	w.Int(h.blocks)
	w.Int(h.progress)
	w.Bool(h.active)
	w.Bool(h.hblank)
}

func (h *HDMA) ReadState(r *state.Reader) {
	h.source = r.U16()
	h.destination = r.U16()
	h.blocks = r.Int()
	h.progress = r.Int()
	h.active = r.Bool()
	h.hblank = r.Bool()

	if h.blocks < 0 || h.blocks > hdmaMaxBlocks || (h.active && h.blocks == 0) ||
		h.progress < 0 || h.progress >= hdmaBlockSize {
		r.Fail(state.ErrOutOfRange)
	}
}
