package memory

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

const titleLength = 16

const (
	titleAddress          = 0x134
	cgbFlagAddress        = 0x143
	cartridgeTypeAddress  = 0x147
	romSizeAddress        = 0x148
	ramSizeAddress        = 0x149
	headerChecksumAddress = 0x14D
	headerEnd             = 0x150
)

var (
	ErrROMTooSmall       = errors.New("memory: rom image smaller than the cartridge header")
	ErrHeaderChecksum    = errors.New("memory: header checksum mismatch")
	ErrUnsupportedMapper = errors.New("memory: unsupported cartridge type")
)

// ramSizes maps the header RAM size code to bytes.
var ramSizes = map[uint8]int{
	0x00: 0,
	0x01: 0x800,
	0x02: 0x2000,
	0x03: 0x8000,
	0x04: 0x20000,
	0x05: 0x10000,
}

type cartType struct {
	kind    Kind
	ram     bool
	battery bool
	rtc     bool
	rumble  bool
}

var cartTypes = map[uint8]cartType{
	0x00: {kind: KindNone},
	0x08: {kind: KindNone, ram: true},
	0x09: {kind: KindNone, ram: true, battery: true},
	0x01: {kind: KindMBC1},
	0x02: {kind: KindMBC1, ram: true},
	0x03: {kind: KindMBC1, ram: true, battery: true},
	0x05: {kind: KindMBC2},
	0x06: {kind: KindMBC2, battery: true},
	0x0F: {kind: KindMBC3, rtc: true, battery: true},
	0x10: {kind: KindMBC3, rtc: true, ram: true, battery: true},
	0x11: {kind: KindMBC3},
	0x12: {kind: KindMBC3, ram: true},
	0x13: {kind: KindMBC3, ram: true, battery: true},
	0x19: {kind: KindMBC5},
	0x1A: {kind: KindMBC5, ram: true},
	0x1B: {kind: KindMBC5, ram: true, battery: true},
	0x1C: {kind: KindMBC5, rumble: true},
	0x1D: {kind: KindMBC5, ram: true, rumble: true},
	0x1E: {kind: KindMBC5, ram: true, battery: true, rumble: true},
}

// Cartridge is a validated ROM image and the mapper serving it.
type Cartridge struct {
	title    string
	cgbFlag  uint8
	cartType uint8
	info     cartType
	romSize  int
	ramSize  int
	mbc      MBC
}

// NewCartridge returns an empty cartridge backed by the null mapper.
func NewCartridge() *Cartridge {
	return &Cartridge{title: "(none)", mbc: NewNullMBC()}
}

// HeaderChecksum computes the checksum stored at 0x14D.
func HeaderChecksum(data []byte) uint8 {
	var x uint8
	for _, b := range data[titleAddress:headerChecksumAddress] {
		x = x - b - 1
	}
	return x
}

// NewCartridgeWithData validates a ROM image and selects its mapper. The
// image is copied. clock drives the MBC3 real-time clock, nil means the host clock.
func NewCartridgeWithData(data []byte, clock Clock) (*Cartridge, error) {
	if len(data) < headerEnd {
		return nil, fmt.Errorf("%w: %d bytes", ErrROMTooSmall, len(data))
	}
	if sum := HeaderChecksum(data); sum != data[headerChecksumAddress] {
		return nil, fmt.Errorf("%w: computed 0x%02X, header has 0x%02X", ErrHeaderChecksum, sum, data[headerChecksumAddress])
	}

	typ := data[cartridgeTypeAddress]
	info, ok := cartTypes[typ]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedMapper, typ)
	}

	romSize := 0x8000 << (data[romSizeAddress] & 0x0F)
	if len(data) > romSize {
		romSize = len(data)
	}
	romSize = (romSize + romBankSize - 1) / romBankSize * romBankSize
	rom := make([]byte, romSize)
	for i := copy(rom, data); i < len(rom); i++ {
		rom[i] = 0xFF
	}

	ramSize := 0
	if info.ram {
		ramSize = ramSizes[data[ramSizeAddress]]
	}

	c := &Cartridge{
		title:    cleanGameboyTitle(data[titleAddress : titleAddress+titleLength]),
		cgbFlag:  data[cgbFlagAddress],
		cartType: typ,
		info:     info,
		romSize:  romSize,
		ramSize:  ramSize,
	}

	switch info.kind {
	case KindNone:
		if info.ram && ramSize == 0 {
			ramSize = ramBankSize
		}
		c.mbc = NewNoMBC(rom, ramSize)
	case KindMBC1:
		c.mbc = NewMBC1(rom, ramSize)
	case KindMBC2:
		c.ramSize = mbc2RAMSize
		c.mbc = NewMBC2(rom)
	case KindMBC3:
		c.mbc = NewMBC3(rom, ramSize, info.rtc, clock)
	case KindMBC5:
		c.mbc = NewMBC5(rom, ramSize, info.rumble)
	}

	slog.Debug("Parsed cartridge header", "title", c.title, "type", fmt.Sprintf("0x%02X", typ),
		"mapper", info.kind, "rom", romSize, "ram", c.ramSize, "cgb", c.CGBSupported())
	return c, nil
}

func (c *Cartridge) Title() string { return c.title }
func (c *Cartridge) Kind() Kind    { return c.mbc.Kind() }
func (c *Cartridge) MBC() MBC      { return c.mbc }
func (c *Cartridge) ROMSize() int  { return c.romSize }
func (c *Cartridge) RAMSize() int  { return c.ramSize }

// CGBSupported reports whether the header flags color support (0x80 or 0xC0).
func (c *Cartridge) CGBSupported() bool { return c.cgbFlag&0x80 != 0 }

// CGBOnly reports whether the cartridge refuses to run on a monochrome unit.
func (c *Cartridge) CGBOnly() bool { return c.cgbFlag == 0xC0 }

func (c *Cartridge) HasBattery() bool { return c.info.battery }

// Read serves 0x0000-0x7FFF and 0xA000-0xBFFF.
func (c *Cartridge) Read(address uint16) uint8 {
	switch {
	case address <= addr.ROMBank0End:
		return c.mbc.ReadROM(address)
	case address <= addr.ROMBankNEnd:
		return c.mbc.ReadBankedROM(address)
	case address >= addr.ExtRAMStart && address <= addr.ExtRAMEnd:
		return c.mbc.ReadRAM(address)
	}
	return 0xFF
}

func (c *Cartridge) Write(address uint16, value uint8) {
	switch {
	case address <= addr.ROMBankNEnd:
		c.mbc.WriteControl(address, value)
	case address >= addr.ExtRAMStart && address <= addr.ExtRAMEnd:
		c.mbc.WriteRAM(address, value)
	}
}

// ExportSave returns battery backed data, or nil when the cartridge has none.
func (c *Cartridge) ExportSave() []byte {
	if !c.info.battery {
		return nil
	}
	return c.mbc.ExportSave()
}

func (c *Cartridge) ImportSave(data []byte) error {
	return c.mbc.ImportSave(data)
}

// WriteState stores the mapper kind ahead of the mapper registers so a
// state cannot be applied to a different cartridge layout.
func (c *Cartridge) WriteState(w *state.Writer) {
	w.U8(uint8(c.mbc.Kind()))
	c.mbc.WriteState(w)
}

func (c *Cartridge) ReadState(r *state.Reader) {
	if k := Kind(r.U8()); r.Err() == nil && k != c.mbc.Kind() {
		r.Fail(fmt.Errorf("%w: state has %v, cartridge is %v", state.ErrMapperMismatch, k, c.mbc.Kind()))
		return
	}
	c.mbc.ReadState(r)
}
