package memory

import (
	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

const (
	wramBankSize  = 0x1000
	wramBankCount = 8
	hramSize      = 0x7F
)

// WorkRAM is the internal RAM: 0xC000-0xCFFF is always bank 0, 0xD000-0xDFFF
// is bank 1 on monochrome units and bank 1-7 (SVBK) in color mode.
// It also holds high RAM at 0xFF80-0xFFFE.
type WorkRAM struct {
	wram [wramBankCount * wramBankSize]uint8
	hram [hramSize]uint8
	svbk uint8
	cgb  bool
}

func NewWorkRAM() *WorkRAM {
	return &WorkRAM{svbk: 1}
}

// SetCGB toggles SVBK banking. Monochrome mode always maps bank 1.
func (m *WorkRAM) SetCGB(cgb bool) {
	m.cgb = cgb
	m.svbk = 1
}

func (m *WorkRAM) bank() int {
	if !m.cgb || m.svbk == 0 {
		return 1
	}
	return int(m.svbk)
}

func (m *WorkRAM) offset(address uint16) int {
	if address <= addr.WRAMBank0End {
		return int(address - addr.WRAMStart)
	}
	return m.bank()*wramBankSize + int(address-addr.WRAMBank0End-1)
}

// Read serves 0xC000-0xDFFF.
func (m *WorkRAM) Read(address uint16) uint8 {
	return m.wram[m.offset(address)]
}

func (m *WorkRAM) Write(address uint16, value uint8) {
	m.wram[m.offset(address)] = value
}

func (m *WorkRAM) ReadHRAM(address uint16) uint8 {
	return m.hram[address-addr.HRAMStart]
}

func (m *WorkRAM) WriteHRAM(address uint16, value uint8) {
	m.hram[address-addr.HRAMStart] = value
}

// ReadSVBK returns the bank select register, 0xFF outside color mode.
func (m *WorkRAM) ReadSVBK() uint8 {
	if !m.cgb {
		return 0xFF
	}
	return m.svbk | 0xF8
}

func (m *WorkRAM) WriteSVBK(value uint8) {
	if m.cgb {
		m.svbk = value & 0x07
	}
}

func (m *WorkRAM) WriteState(w *state.Writer) {
	w.Raw(m.wram[:])
	w.Raw(m.hram[:])
	w.U8(m.svbk)
}

func (m *WorkRAM) ReadState(r *state.Reader) {
	r.Raw(m.wram[:])
	r.Raw(m.hram[:])
	m.svbk = r.U8()
	if m.svbk > 0x07 {
		r.Fail(state.ErrOutOfRange)
	}
}
