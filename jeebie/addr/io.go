package addr

// memory regions
const (
	BootROMEnd     uint16 = 0x00FF
	CGBBootROMFrom uint16 = 0x0200
	CGBBootROMEnd  uint16 = 0x08FF
	ROMBank0End    uint16 = 0x3FFF
	ROMBankNStart  uint16 = 0x4000
	ROMBankNEnd    uint16 = 0x7FFF
	VRAMStart      uint16 = 0x8000
	VRAMEnd        uint16 = 0x9FFF
	ExtRAMStart    uint16 = 0xA000
	ExtRAMEnd      uint16 = 0xBFFF
	WRAMStart      uint16 = 0xC000
	WRAMBank0End   uint16 = 0xCFFF
	WRAMEnd        uint16 = 0xDFFF
	EchoStart      uint16 = 0xE000
	EchoEnd        uint16 = 0xFDFF
	OAMStart       uint16 = 0xFE00
	OAMEnd         uint16 = 0xFE9F
	UnusableStart  uint16 = 0xFEA0
	UnusableEnd    uint16 = 0xFEFF
	IOStart        uint16 = 0xFF00
	IOEnd          uint16 = 0xFF7F
	HRAMStart      uint16 = 0xFF80
	HRAMEnd        uint16 = 0xFFFE
)

// tile data and tile maps
const (
	// TileData0 holds tiles 0-255 with unsigned indexing.
	TileData0 uint16 = 0x8000
	// TileData1 is where signed indexing places tiles -128..-1.
	TileData1 uint16 = 0x8800
	// TileData2 is the base for signed indexing (tile 0).
	TileData2 uint16 = 0x9000

	TileMap0 uint16 = 0x9800
	TileMap1 uint16 = 0x9C00
)

// joypad and serial
const (
	// P1 selects and reads the joypad matrix.
	P1 uint16 = 0xFF00
	// SB holds the byte being shifted out, and the byte received once done.
	SB uint16 = 0xFF01
	// SC starts a transfer (bit 7) and selects the clock source (bit 0).
	SC uint16 = 0xFF02
)

// timers
const (
	DIV  uint16 = 0xFF04
	TIMA uint16 = 0xFF05
	TMA  uint16 = 0xFF06
	TAC  uint16 = 0xFF07
)

// interrupts
const (
	IF uint16 = 0xFF0F
	IE uint16 = 0xFFFF
)

// audio
const (
	AudioStart uint16 = 0xFF10
	AudioEnd   uint16 = 0xFF3F

	NR10 uint16 = 0xFF10 // ch1 sweep
	NR11 uint16 = 0xFF11 // ch1 duty, length
	NR12 uint16 = 0xFF12 // ch1 envelope
	NR13 uint16 = 0xFF13 // ch1 period low
	NR14 uint16 = 0xFF14 // ch1 trigger, length enable, period high

	NR21 uint16 = 0xFF16
	NR22 uint16 = 0xFF17
	NR23 uint16 = 0xFF18
	NR24 uint16 = 0xFF19

	NR30 uint16 = 0xFF1A // ch3 DAC
	NR31 uint16 = 0xFF1B
	NR32 uint16 = 0xFF1C // ch3 output level
	NR33 uint16 = 0xFF1D
	NR34 uint16 = 0xFF1E

	NR41 uint16 = 0xFF20
	NR42 uint16 = 0xFF21
	NR43 uint16 = 0xFF22 // ch4 clock shift, width, divisor
	NR44 uint16 = 0xFF23

	NR50 uint16 = 0xFF24 // master volume
	NR51 uint16 = 0xFF25 // panning
	NR52 uint16 = 0xFF26 // power, channel status

	WaveRAMStart uint16 = 0xFF30
	WaveRAMEnd   uint16 = 0xFF3F
)

// lcd
const (
	LCDC uint16 = 0xFF40
	STAT uint16 = 0xFF41
	SCY  uint16 = 0xFF42
	SCX  uint16 = 0xFF43
	LY   uint16 = 0xFF44
	LYC  uint16 = 0xFF45
	// DMA copies 160 bytes from value<<8 into OAM.
	DMA  uint16 = 0xFF46
	BGP  uint16 = 0xFF47
	OBP0 uint16 = 0xFF48
	OBP1 uint16 = 0xFF49
	WY   uint16 = 0xFF4A
	WX   uint16 = 0xFF4B
)

// color mode only
const (
	// KEY1 arms (bit 0) and reports (bit 7) the double speed switch.
	KEY1 uint16 = 0xFF4D
	// VBK selects the VRAM bank.
	VBK uint16 = 0xFF4F
	// BOOT unmaps the boot ROM on any non-zero write.
	BOOT uint16 = 0xFF50

	HDMA1 uint16 = 0xFF51 // source high
	HDMA2 uint16 = 0xFF52 // source low
	HDMA3 uint16 = 0xFF53 // destination high
	HDMA4 uint16 = 0xFF54 // destination low
	HDMA5 uint16 = 0xFF55 // length, mode, start

	BCPS uint16 = 0xFF68
	BCPD uint16 = 0xFF69
	OCPS uint16 = 0xFF6A
	OCPD uint16 = 0xFF6B

	// SVBK selects work RAM bank 1-7 at 0xD000.
	SVBK uint16 = 0xFF70
)

// Interrupt is a bit mask for one of the five interrupt sources.
type Interrupt uint8

const (
	VBlankInterrupt  Interrupt = 1 << 0
	LCDSTATInterrupt Interrupt = 1 << 1
	TimerInterrupt   Interrupt = 1 << 2
	SerialInterrupt  Interrupt = 1 << 3
	JoypadInterrupt  Interrupt = 1 << 4
)

// InterruptMask covers every implemented interrupt bit.
const InterruptMask uint8 = 0x1F

// Vector returns the handler address for the interrupt.
func (i Interrupt) Vector() uint16 {
	v := uint16(0x40)
	for m := i; m > 1; m >>= 1 {
		v += 8
	}
	return v
}

func (i Interrupt) String() string {
	switch i {
	case VBlankInterrupt:
		return "VBlank"
	case LCDSTATInterrupt:
		return "STAT"
	case TimerInterrupt:
		return "Timer"
	case SerialInterrupt:
		return "Serial"
	case JoypadInterrupt:
		return "Joypad"
	}
	return "Unknown"
}
