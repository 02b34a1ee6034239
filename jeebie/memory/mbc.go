package memory

import (
	"errors"
	"fmt"

	"github.com/valerio/go-jeebie-color/jeebie/state"
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// ErrSaveSize is returned when a battery save does not match the cartridge RAM layout.
var ErrSaveSize = errors.New("memory: battery save size mismatch")

// Kind identifies a mapper variant. It is stored in save states so a state
// can only be restored onto the same kind of cartridge.
type Kind uint8

const (
	KindNone Kind = iota
	KindMBC1
	KindMBC2
	KindMBC3
	KindMBC5
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ROM"
	case KindMBC1:
		return "MBC1"
	case KindMBC2:
		return "MBC2"
	case KindMBC3:
		return "MBC3"
	case KindMBC5:
		return "MBC5"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MBC is a memory bank controller. Addresses are CPU addresses:
// ReadROM serves 0x0000-0x3FFF, ReadBankedROM 0x4000-0x7FFF, RAM 0xA000-0xBFFF
// and WriteControl receives all writes to 0x0000-0x7FFF.
type MBC interface {
	ReadROM(address uint16) uint8
	ReadBankedROM(address uint16) uint8
	ReadRAM(address uint16) uint8
	WriteRAM(address uint16, value uint8)
	WriteControl(address uint16, value uint8)
	ExportSave() []byte
	ImportSave(data []byte) error
	Kind() Kind
	state.Stateful
}

// banks holds the ROM and RAM arrays shared by every mapper. Bank numbers
// wrap around the available bank count.
type banks struct {
	rom []uint8
	ram []uint8
}

func (b *banks) romBanks() int { return len(b.rom) / romBankSize }

func (b *banks) readROMBank(bank int, address uint16) uint8 {
	n := b.romBanks()
	if n == 0 {
		return 0xFF
	}
	bank %= n
	return b.rom[bank*romBankSize+int(address&0x3FFF)]
}

func (b *banks) ramOffset(bank int, address uint16) (int, bool) {
	if len(b.ram) == 0 {
		return 0, false
	}
	off := bank*ramBankSize + int(address&0x1FFF)
	return off % len(b.ram), true
}

func (b *banks) readRAMBank(bank int, address uint16) uint8 {
	off, ok := b.ramOffset(bank, address)
	if !ok {
		return 0xFF
	}
	return b.ram[off]
}

func (b *banks) writeRAMBank(bank int, address uint16, value uint8) {
	if off, ok := b.ramOffset(bank, address); ok {
		b.ram[off] = value
	}
}

func (b *banks) exportRAM() []byte {
	out := make([]byte, len(b.ram))
	copy(out, b.ram)
	return out
}

func (b *banks) importRAM(data []byte) error {
	if len(data) != len(b.ram) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSaveSize, len(data), len(b.ram))
	}
	copy(b.ram, data)
	return nil
}

func ramEnableValue(value uint8) bool {
	return value&0x0F == 0x0A
}

// NoMBC maps 32KiB of ROM directly, with up to 8KiB of always enabled RAM.
type NoMBC struct {
	banks
}

func NewNoMBC(rom []uint8, ramSize int) *NoMBC {
	return &NoMBC{banks{rom: rom, ram: make([]uint8, ramSize)}}
}

// NewNullMBC returns a mapper with no ROM or RAM. Every read returns 0xFF.
func NewNullMBC() *NoMBC {
	return NewNoMBC(nil, 0)
}

func (m *NoMBC) Kind() Kind { return KindNone }

func (m *NoMBC) ReadROM(address uint16) uint8       { return m.readROMBank(0, address) }
func (m *NoMBC) ReadBankedROM(address uint16) uint8 { return m.readROMBank(1, address) }
func (m *NoMBC) ReadRAM(address uint16) uint8       { return m.readRAMBank(0, address) }

func (m *NoMBC) WriteRAM(address uint16, value uint8) { m.writeRAMBank(0, address, value) }

func (m *NoMBC) WriteControl(address uint16, value uint8) {}

func (m *NoMBC) ExportSave() []byte           { return m.exportRAM() }
func (m *NoMBC) ImportSave(data []byte) error { return m.importRAM(data) }

func (m *NoMBC) WriteState(w *state.Writer) { w.Block(m.ram) }
func (m *NoMBC) ReadState(r *state.Reader)  { r.Block(m.ram) }

// MBC1 supports up to 2MiB ROM and 32KiB RAM.
//   - 0x0000-0x1FFF: RAM enable (0x0A in the low nibble)
//   - 0x2000-0x3FFF: bank1, 5 bit ROM bank, 0 selects 1
//   - 0x4000-0x5FFF: bank2, 2 bits used as ROM bits 5-6 or RAM bank
//   - 0x6000-0x7FFF: mode, 1 applies bank2 to the 0x0000 region and RAM
type MBC1 struct {
	banks
	bank1      uint8
	bank2      uint8
	mode       uint8
	ramEnabled bool
}

func NewMBC1(rom []uint8, ramSize int) *MBC1 {
	return &MBC1{banks: banks{rom: rom, ram: make([]uint8, ramSize)}, bank1: 1}
}

func (m *MBC1) Kind() Kind { return KindMBC1 }

func (m *MBC1) ReadROM(address uint16) uint8 {
	bank := 0
	if m.mode == 1 {
		bank = int(m.bank2) << 5
	}
	return m.readROMBank(bank, address)
}

func (m *MBC1) ReadBankedROM(address uint16) uint8 {
	return m.readROMBank(int(m.bank2)<<5|int(m.bank1), address)
}

func (m *MBC1) ramBank() int {
	if m.mode == 1 {
		return int(m.bank2)
	}
	return 0
}

func (m *MBC1) ReadRAM(address uint16) uint8 {
	if !m.ramEnabled {
		return 0xFF
	}
	return m.readRAMBank(m.ramBank(), address)
}

func (m *MBC1) WriteRAM(address uint16, value uint8) {
	if m.ramEnabled {
		m.writeRAMBank(m.ramBank(), address, value)
	}
}

func (m *MBC1) WriteControl(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = ramEnableValue(value)
	case address <= 0x3FFF:
		m.bank1 = value & 0x1F
		if m.bank1 == 0 {
			m.bank1 = 1
		}
	case address <= 0x5FFF:
		m.bank2 = value & 0x03
	case address <= 0x7FFF:
		m.mode = value & 0x01
	}
}

func (m *MBC1) ExportSave() []byte           { return m.exportRAM() }
func (m *MBC1) ImportSave(data []byte) error { return m.importRAM(data) }

func (m *MBC1) WriteState(w *state.Writer) {
	w.U8(m.bank1)
	w.U8(m.bank2)
	w.U8(m.mode)
	w.Bool(m.ramEnabled)
	w.Block(m.ram)
}

func (m *MBC1) ReadState(r *state.Reader) {
	m.bank1 = r.U8()
	m.bank2 = r.U8()
	m.mode = r.U8()
	m.ramEnabled = r.Bool()
	r.Block(m.ram)
}

// MBC2 supports up to 256KiB ROM and has 512 half-bytes of built-in RAM.
// In 0x0000-0x3FFF, address bit 8 selects between RAM enable (0) and the
// 4 bit ROM bank register (1). RAM is mirrored across 0xA000-0xBFFF.
type MBC2 struct {
	banks
	romBank    uint8
	ramEnabled bool
}

const mbc2RAMSize = 512

func NewMBC2(rom []uint8) *MBC2 {
	return &MBC2{banks: banks{rom: rom, ram: make([]uint8, mbc2RAMSize)}, romBank: 1}
}

func (m *MBC2) Kind() Kind { return KindMBC2 }

func (m *MBC2) ReadROM(address uint16) uint8 { return m.readROMBank(0, address) }

func (m *MBC2) ReadBankedROM(address uint16) uint8 {
	return m.readROMBank(int(m.romBank), address)
}

func (m *MBC2) ReadRAM(address uint16) uint8 {
	if !m.ramEnabled {
		return 0xFF
	}
	return m.ram[address&0x1FF] | 0xF0
}

func (m *MBC2) WriteRAM(address uint16, value uint8) {
	if m.ramEnabled {
		m.ram[address&0x1FF] = value & 0x0F
	}
}

func (m *MBC2) WriteControl(address uint16, value uint8) {
	if address > 0x3FFF {
		return
	}
	if address&0x0100 == 0 {
		m.ramEnabled = ramEnableValue(value)
		return
	}
	m.romBank = value & 0x0F
	if m.romBank == 0 {
		m.romBank = 1
	}
}

func (m *MBC2) ExportSave() []byte           { return m.exportRAM() }
func (m *MBC2) ImportSave(data []byte) error { return m.importRAM(data) }

func (m *MBC2) WriteState(w *state.Writer) {
	w.U8(m.romBank)
	w.Bool(m.ramEnabled)
	w.Block(m.ram)
}

func (m *MBC2) ReadState(r *state.Reader) {
	m.romBank = r.U8()
	m.ramEnabled = r.Bool()
	r.Block(m.ram)
}

// MBC5 supports up to 8MiB ROM through a 9 bit bank number and 128KiB RAM.
// Bank 0 written to the ROM bank register selects bank 1, like the other
// mappers do.
type MBC5 struct {
	banks
	romBank    uint16
	ramBank    uint8
	ramEnabled bool
	rumble     bool
}

func NewMBC5(rom []uint8, ramSize int, rumble bool) *MBC5 {
	return &MBC5{banks: banks{rom: rom, ram: make([]uint8, ramSize)}, romBank: 1, rumble: rumble}
}

func (m *MBC5) Kind() Kind { return KindMBC5 }

func (m *MBC5) ReadROM(address uint16) uint8 { return m.readROMBank(0, address) }

func (m *MBC5) ReadBankedROM(address uint16) uint8 {
	bank := m.romBank
	if bank == 0 {
		bank = 1
	}
	return m.readROMBank(int(bank), address)
}

func (m *MBC5) ReadRAM(address uint16) uint8 {
	if !m.ramEnabled {
		return 0xFF
	}
	return m.readRAMBank(int(m.ramBank), address)
}

func (m *MBC5) WriteRAM(address uint16, value uint8) {
	if m.ramEnabled {
		m.writeRAMBank(int(m.ramBank), address, value)
	}
}

func (m *MBC5) WriteControl(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = ramEnableValue(value)
	case address <= 0x2FFF:
		m.romBank = m.romBank&0x100 | uint16(value)
	case address <= 0x3FFF:
		m.romBank = m.romBank&0xFF | uint16(value&0x01)<<8
	case address <= 0x5FFF:
		// rumble cartridges wire bit 3 to the motor
		if m.rumble {
			m.ramBank = value & 0x07
		} else {
			m.ramBank = value & 0x0F
		}
	}
}

func (m *MBC5) ExportSave() []byte           { return m.exportRAM() }
func (m *MBC5) ImportSave(data []byte) error { return m.importRAM(data) }

func (m *MBC5) WriteState(w *state.Writer) {
	w.U16(m.romBank)
	w.U8(m.ramBank)
	w.Bool(m.ramEnabled)
	w.Block(m.ram)
}

func (m *MBC5) ReadState(r *state.Reader) {
	m.romBank = r.U16()
	m.ramBank = r.U8()
	m.ramEnabled = r.Bool()
	r.Block(m.ram)
}
