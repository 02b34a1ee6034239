package jeebie

import (
	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/audio"
	"github.com/valerio/go-jeebie-color/jeebie/cpu"
	"github.com/valerio/go-jeebie-color/jeebie/interrupt"
	"github.com/valerio/go-jeebie-color/jeebie/memory"
	"github.com/valerio/go-jeebie-color/jeebie/serial"
	"github.com/valerio/go-jeebie-color/jeebie/state"
	"github.com/valerio/go-jeebie-color/jeebie/video"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// oamDMALength is the number of bytes an OAM DMA copies.
const oamDMALength = 0xA0

// Bus routes CPU (and HDMA) accesses to the component owning each address.
// It is the only place components meet.
type Bus struct {
	regionMap [256]memRegion

	cart   *memory.Cartridge
	gpu    *video.GPU
	apu    *audio.APU
	cpu    *cpu.CPU
	timer  *memory.Timer
	serial *serial.LogSink
	joypad *memory.Joypad
	wram   *memory.WorkRAM
	irq    *interrupt.Controller

	bootROM     []byte
	bootEnabled bool
	dma         uint8
}

func newBus() *Bus {
	b := &Bus{dma: 0xFF}
	initRegionMap(b)
	return b
}

func initRegionMap(b *Bus) {
	for i := 0x00; i <= 0x7F; i++ {
		b.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		b.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		b.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		b.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		b.regionMap[i] = regionEcho
	}
	// OAM: 0xFE00-0xFE9F, unusable: 0xFEA0-0xFEFF
	b.regionMap[0xFE] = regionOAM
	// IO, HRAM and IE
	b.regionMap[0xFF] = regionIO
}

// inBootROM reports whether address is served by the mapped boot ROM. The
// color boot ROM leaves a hole at 0x100-0x1FF for the cartridge header.
func (b *Bus) inBootROM(address uint16) bool {
	if !b.bootEnabled {
		return false
	}
	if address <= addr.BootROMEnd {
		return int(address) < len(b.bootROM)
	}
	return address >= addr.CGBBootROMFrom && address <= addr.CGBBootROMEnd && int(address) < len(b.bootROM)
}

func (b *Bus) Read(address uint16) uint8 {
	if b.inBootROM(address) {
		return b.bootROM[address]
	}

	switch b.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		return b.cart.Read(address)
	case regionVRAM:
		return b.gpu.Read(address)
	case regionWRAM:
		return b.wram.Read(address)
	case regionOAM:
		if address <= addr.OAMEnd {
			return b.gpu.Read(address)
		}
		return 0xFF
	case regionIO:
		return b.readIO(address)
	}
	// echo RAM is left unmapped
	return 0xFF
}

func (b *Bus) Write(address uint16, value uint8) {
	switch b.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		b.cart.Write(address, value)
	case regionVRAM:
		b.gpu.Write(address, value)
	case regionWRAM:
		b.wram.Write(address, value)
	case regionOAM:
		if address <= addr.OAMEnd {
			b.gpu.Write(address, value)
		}
	case regionIO:
		b.writeIO(address, value)
	}
}

func (b *Bus) readIO(address uint16) uint8 {
	switch {
	case address == addr.IE:
		return b.irq.Read(address)
	case address >= addr.HRAMStart:
		return b.wram.ReadHRAM(address)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return b.apu.ReadRegister(address)
	case address >= addr.DIV && address <= addr.TAC:
		return b.timer.Read(address)
	}

	switch address {
	case addr.P1:
		return b.joypad.Read()
	case addr.SB, addr.SC:
		return b.serial.Read(address)
	case addr.IF:
		return b.irq.Read(address)
	case addr.DMA:
		return b.dma
	case addr.LCDC, addr.STAT, addr.SCY, addr.SCX, addr.LY, addr.LYC,
		addr.BGP, addr.OBP0, addr.OBP1, addr.WY, addr.WX,
		addr.VBK, addr.HDMA1, addr.HDMA2, addr.HDMA3, addr.HDMA4, addr.HDMA5,
		addr.BCPS, addr.BCPD, addr.OCPS, addr.OCPD:
		return b.gpu.Read(address)
	case addr.KEY1:
		return b.cpu.ReadKEY1()
	case addr.SVBK:
		return b.wram.ReadSVBK()
	}
	return 0xFF
}

func (b *Bus) writeIO(address uint16, value uint8) {
	switch {
	case address == addr.IE:
		b.irq.Write(address, value)
		return
	case address >= addr.HRAMStart:
		b.wram.WriteHRAM(address, value)
		return
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		b.apu.WriteRegister(address, value)
		return
	case address >= addr.DIV && address <= addr.TAC:
		b.timer.Write(address, value)
		return
	}

	switch address {
	case addr.P1:
		b.joypad.Write(value)
	case addr.SB, addr.SC:
		b.serial.Write(address, value)
	case addr.IF:
		b.irq.Write(address, value)
	case addr.DMA:
		b.oamDMA(value)
	case addr.LCDC, addr.STAT, addr.SCY, addr.SCX, addr.LY, addr.LYC,
		addr.BGP, addr.OBP0, addr.OBP1, addr.WY, addr.WX,
		addr.VBK, addr.HDMA1, addr.HDMA2, addr.HDMA3, addr.HDMA4, addr.HDMA5,
		addr.BCPS, addr.BCPD, addr.OCPS, addr.OCPD:
		b.gpu.Write(address, value)
	case addr.KEY1:
		b.cpu.WriteKEY1(value)
	case addr.BOOT:
		if value != 0 {
			b.bootEnabled = false
		}
	case addr.SVBK:
		b.wram.WriteSVBK(value)
	}
}

// oamDMA copies 160 bytes from value<<8 into OAM. The copy completes at
// write time. Sources above work RAM read through its echo.
func (b *Bus) oamDMA(value uint8) {
	b.dma = value
	source := uint16(value) << 8
	if source >= addr.EchoStart {
		source -= addr.EchoStart - addr.WRAMStart
	}
	for i := range uint16(oamDMALength) {
		b.gpu.WriteOAM(i, b.Read(source+i))
	}
}

func (b *Bus) WriteState(w *state.Writer) {
	w.Bool(b.bootEnabled)
	w.U8(b.dma)
}

func (b *Bus) ReadState(r *state.Reader) {
	b.bootEnabled = r.Bool() && len(b.bootROM) > 0
	b.dma = r.U8()
}
