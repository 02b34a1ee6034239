package video

import (
	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/bit"
	"github.com/valerio/go-jeebie-color/jeebie/interrupt"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

// GpuMode is the PPU mode as reported in the low bits of STAT.
type GpuMode uint8

const (
	HBlankMode  GpuMode = 0
	VBlankMode  GpuMode = 1
	OAMScanMode GpuMode = 2
	DrawMode    GpuMode = 3
)

func (m GpuMode) String() string {
	switch m {
	case HBlankMode:
		return "HBlank"
	case VBlankMode:
		return "VBlank"
	case OAMScanMode:
		return "OAMScan"
	case DrawMode:
		return "Draw"
	}
	return "Unknown"
}

// Timings are in dots, 4 per clock.
const (
	dotsPerClock    = 4
	oamScanDots     = 80
	scanlineDots    = 456
	visibleLines    = 144
	linesPerFrame   = 154
	pixelsPerClock  = 4
	vramBankSize    = 0x2000
	frameDots       = scanlineDots * linesPerFrame
	ClocksPerFrame  = frameDots / dotsPerClock
	ClocksPerLine   = scanlineDots / dotsPerClock
	defaultBGPValue = 0xFC
)

// LCDC (LCD Control) Register bit values
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
// Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (DMG: BG and window off; CGB: BG loses priority)
type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect    lcdcFlag = 6
	windowDisplayEnable    lcdcFlag = 5
	bgWindowTileDataSelect lcdcFlag = 4
	bgTileMapDisplaySelect lcdcFlag = 3
	spriteSize             lcdcFlag = 2
	spriteDisplayEnable    lcdcFlag = 1
	bgDisplay              lcdcFlag = 0
)

// STAT interrupt sources, bits 3-6.
const (
	statHBlankSource  = 3
	statVBlankSource  = 4
	statOAMSource     = 5
	statLYCSource     = 6
	statCoincidence   = 2
	statWritableMask  = 0x78
	statUnusedBitMask = 0x80
)

// GPU is the pixel processing unit. It is clocked once per master tick and
// advances 4 dots per clock.
type GPU struct {
	vram [2][vramBankSize]uint8
	vbk  uint8
	oam  OAM
	cgb  bool

	lcdc uint8
	stat uint8
	scy  uint8
	scx  uint8
	ly   uint8
	lyc  uint8
	wy   uint8
	wx   uint8
	bgp  uint8
	obp0 uint8
	obp1 uint8

	bgPalette  ColorPalette
	objPalette ColorPalette
	hdma       HDMA

	mode GpuMode
	// dots elapsed on the current line
	dots int
	// next pixel the compositor draws on this line
	pixelX int
	// internal window line counter, advances only on lines showing the window
	windowLine  int
	windowShown bool
	// combined STAT interrupt line, interrupts fire on its rising edge
	statLine bool

	framebuffer *FrameBuffer
	lastFrame   *FrameBuffer
	frames      uint64
	onFrame     func(*FrameBuffer)

	irq    interrupt.Requester
	source SourceReader
}

// NewGpu returns a PPU with the LCD on at the start of a frame.
func NewGpu(irq interrupt.Requester, source SourceReader) *GPU {
	g := &GPU{irq: irq, source: source}
	g.Reset(false)
	return g
}

// Reset restores power-on state. cgb selects color mode, which enables
// the VRAM bank, color palettes and HDMA.
func (g *GPU) Reset(cgb bool) {
	*g = GPU{irq: g.irq, source: g.source, onFrame: g.onFrame, cgb: cgb}
	g.framebuffer = NewFrameBuffer()
	g.lastFrame = NewFrameBuffer()
	g.lcdc = 0x91
	g.bgp = defaultBGPValue
	g.obp0 = 0xFF
	g.obp1 = 0xFF
	g.bgPalette.fill(0xFF)
	g.setMode(OAMScanMode)
}

// OnFrame registers the callback invoked with each completed frame on
// V-blank entry. The frame is never written to afterwards.
func (g *GPU) OnFrame(fn func(*FrameBuffer)) {
	g.onFrame = fn
}

// GetCurrentFrame returns the last completed frame.
func (g *GPU) GetCurrentFrame() *FrameBuffer { return g.lastFrame }

func (g *GPU) FrameCount() uint64 { return g.frames }
func (g *GPU) Mode() GpuMode      { return g.mode }
func (g *GPU) Line() uint8        { return g.ly }
func (g *GPU) OAM() *OAM          { return &g.oam }

// DMAActive reports whether a general purpose HDMA is holding the CPU.
func (g *GPU) DMAActive() bool { return g.hdma.generalActive() }

func (g *GPU) isSet(flag lcdcFlag) bool {
	return bit.IsSet(uint8(flag), g.lcdc)
}

func (g *GPU) spriteHeight() int {
	if g.isSet(spriteSize) {
		return 16
	}
	return 8
}

// Clock advances the PPU by one master tick.
func (g *GPU) Clock() {
	if g.hdma.generalActive() {
		g.stepGeneralDMA()
	}

	if !g.isSet(lcdDisplayEnable) {
		return
	}

	g.dots += dotsPerClock

	switch g.mode {
	case OAMScanMode:
		g.oam.scanStep(int(g.ly), g.spriteHeight())
		if g.dots == oamScanDots {
			if !g.cgb {
				g.oam.orderByX()
			}
			g.pixelX = 0
			g.setMode(DrawMode)
		}
	case DrawMode:
		for range pixelsPerClock {
			g.renderPixel(g.pixelX)
			g.pixelX++
		}
		if g.pixelX >= FramebufferWidth {
			g.setMode(HBlankMode)
			g.hblankDMA()
		}
	case HBlankMode, VBlankMode:
		if g.dots == scanlineDots {
			g.nextLine()
		}
	}
}

// nextLine moves to the following scanline, entering V-blank after line
// 143 and wrapping to line 0 after 153.
func (g *GPU) nextLine() {
	g.dots = 0
	if g.windowShown {
		g.windowLine++
		g.windowShown = false
	}
	g.ly++

	switch {
	case int(g.ly) == visibleLines:
		g.setMode(VBlankMode)
		g.irq.RequestInterrupt(addr.VBlankInterrupt)
		g.completeFrame()
	case int(g.ly) == linesPerFrame:
		g.ly = 0
		g.windowLine = 0
		g.setMode(OAMScanMode)
	case int(g.ly) < visibleLines:
		g.setMode(OAMScanMode)
	default:
		g.updateStat()
	}
}

// completeFrame hands the finished buffer out and starts a fresh one, so
// the consumer owns the frame it received.
func (g *GPU) completeFrame() {
	done := g.framebuffer
	g.framebuffer = NewFrameBuffer()
	g.lastFrame = done
	g.frames++
	if g.onFrame != nil {
		g.onFrame(done)
	}
}

func (g *GPU) setMode(mode GpuMode) {
	g.mode = mode
	if mode == OAMScanMode {
		g.oam.startScan()
	}
	g.updateStat()
}

// updateStat recomputes the STAT interrupt line and requests the interrupt
// only when it goes from low to high.
func (g *GPU) updateStat() {
	line := false
	if g.isSet(lcdDisplayEnable) {
		switch g.mode {
		case HBlankMode:
			line = bit.IsSet(statHBlankSource, g.stat)
		case VBlankMode:
			line = bit.IsSet(statVBlankSource, g.stat)
		case OAMScanMode:
			line = bit.IsSet(statOAMSource, g.stat)
		}
		if g.ly == g.lyc && bit.IsSet(statLYCSource, g.stat) {
			line = true
		}
	}

	if line && !g.statLine {
		g.irq.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	g.statLine = line
}

func (g *GPU) readStat() uint8 {
	value := statUnusedBitMask | g.stat&statWritableMask
	if !g.isSet(lcdDisplayEnable) {
		return value
	}
	if g.ly == g.lyc {
		value = bit.Set(statCoincidence, value)
	}
	return value | uint8(g.mode)
}

func (g *GPU) writeLCDC(value uint8) {
	wasOn := g.isSet(lcdDisplayEnable)
	g.lcdc = value
	isOn := g.isSet(lcdDisplayEnable)

	switch {
	case wasOn && !isOn:
		g.ly = 0
		g.dots = 0
		g.windowLine = 0
		g.windowShown = false
		g.mode = HBlankMode
		g.statLine = false
	case !wasOn && isOn:
		g.ly = 0
		g.dots = 0
		g.setMode(OAMScanMode)
	}
}

// Read serves VRAM, OAM and the LCD registers.
func (g *GPU) Read(address uint16) uint8 {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		return g.vram[g.vbk][address-addr.VRAMStart]
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		return g.oam.Read(address - addr.OAMStart)
	}

	switch address {
	case addr.LCDC:
		return g.lcdc
	case addr.STAT:
		return g.readStat()
	case addr.SCY:
		return g.scy
	case addr.SCX:
		return g.scx
	case addr.LY:
		return g.ly
	case addr.LYC:
		return g.lyc
	case addr.BGP:
		return g.bgp
	case addr.OBP0:
		return g.obp0
	case addr.OBP1:
		return g.obp1
	case addr.WY:
		return g.wy
	case addr.WX:
		return g.wx
	}

	if !g.cgb {
		return 0xFF
	}

	switch address {
	case addr.VBK:
		return 0xFE | g.vbk
	case addr.HDMA5:
		return g.hdma.readControl()
	case addr.BCPS:
		return g.bgPalette.ReadSpec()
	case addr.BCPD:
		return g.bgPalette.ReadData()
	case addr.OCPS:
		return g.objPalette.ReadSpec()
	case addr.OCPD:
		return g.objPalette.ReadData()
	}
	// HDMA1-4 are write only
	return 0xFF
}

func (g *GPU) Write(address uint16, value uint8) {
	switch {
	case address >= addr.VRAMStart && address <= addr.VRAMEnd:
		g.vram[g.vbk][address-addr.VRAMStart] = value
		return
	case address >= addr.OAMStart && address <= addr.OAMEnd:
		g.oam.Write(address-addr.OAMStart, value)
		return
	}

	switch address {
	case addr.LCDC:
		g.writeLCDC(value)
		return
	case addr.STAT:
		g.stat = value & statWritableMask
		g.updateStat()
		return
	case addr.SCY:
		g.scy = value
		return
	case addr.SCX:
		g.scx = value
		return
	case addr.LY:
		// read only
		return
	case addr.LYC:
		g.lyc = value
		g.updateStat()
		return
	case addr.BGP:
		g.bgp = value
		return
	case addr.OBP0:
		g.obp0 = value
		return
	case addr.OBP1:
		g.obp1 = value
		return
	case addr.WY:
		g.wy = value
		return
	case addr.WX:
		g.wx = value
		return
	}

	if !g.cgb {
		return
	}

	switch address {
	case addr.VBK:
		g.vbk = value & 0x01
	case addr.HDMA1:
		g.hdma.writeSourceHigh(value)
	case addr.HDMA2:
		g.hdma.writeSourceLow(value)
	case addr.HDMA3:
		g.hdma.writeDestHigh(value)
	case addr.HDMA4:
		g.hdma.writeDestLow(value)
	case addr.HDMA5:
		g.hdma.writeControl(value)
	case addr.BCPS:
		g.bgPalette.WriteSpec(value)
	case addr.BCPD:
		g.bgPalette.WriteData(value)
	case addr.OCPS:
		g.objPalette.WriteSpec(value)
	case addr.OCPD:
		g.objPalette.WriteData(value)
	}
}

// WriteOAM stores a byte copied by OAM DMA, bypassing any access checks.
func (g *GPU) WriteOAM(offset uint16, value uint8) {
	g.oam.Write(offset, value)
}

func (g *GPU) WriteState(w *state.Writer) {
	w.Bool(g.cgb)
	w.Raw(g.vram[0][:])
	w.Raw(g.vram[1][:])
	w.U8(g.vbk)
	g.oam.WriteState(w)

	for _, r := range []uint8{g.lcdc, g.stat, g.scy, g.scx, g.ly, g.lyc, g.wy, g.wx, g.bgp, g.obp0, g.obp1} {
		w.U8(r)
	}
	g.bgPalette.WriteState(w)
	g.objPalette.WriteState(w)
	g.hdma.WriteState(w)

	w.U8(uint8(g.mode))
	w.Int(g.dots)
	w.Int(g.pixelX)
	w.Int(g.windowLine)
	w.Bool(g.windowShown)
	w.Bool(g.statLine)
	w.U64(g.frames)

	// the frame being drawn, so a restore mid-frame completes it identically
	for _, px := range g.framebuffer.buffer {
		w.U32(px)
	}
}

func (g *GPU) ReadState(r *state.Reader) {
	g.cgb = r.Bool()
	r.Raw(g.vram[0][:])
	r.Raw(g.vram[1][:])
	g.vbk = r.U8() & 0x01
	g.oam.ReadState(r)

	for _, reg := range []*uint8{&g.lcdc, &g.stat, &g.scy, &g.scx, &g.ly, &g.lyc, &g.wy, &g.wx, &g.bgp, &g.obp0, &g.obp1} {
		*reg = r.U8()
	}
	g.bgPalette.ReadState(r)
	g.objPalette.ReadState(r)
	g.hdma.ReadState(r)

	g.mode = GpuMode(r.U8() & 0x03)
	g.dots = r.Int()
	g.pixelX = r.Int()
	g.windowLine = r.Int()
	g.windowShown = r.Bool()
	g.statLine = r.Bool()
	g.frames = r.U64()

	if !g.validTiming() {
		r.Fail(state.ErrOutOfRange)
	}

	g.framebuffer = NewFrameBuffer()
	for i := range g.framebuffer.buffer {
		g.framebuffer.buffer[i] = r.U32()
	}
}

// validTiming reports whether the restored dot counter, scanline and pixel
// position are ones Clock can reach. Clock compares dots for equality, so
// any other value would never end the line.
func (g *GPU) validTiming() bool {
	if g.dots < 0 || g.dots >= scanlineDots || g.dots%dotsPerClock != 0 {
		return false
	}
	if int(g.ly) >= linesPerFrame || g.windowLine < 0 || g.windowLine > visibleLines {
		return false
	}
	if g.pixelX < 0 || g.pixelX > FramebufferWidth {
		return false
	}
	switch g.mode {
	case OAMScanMode:
		return g.dots < oamScanDots
	case DrawMode:
		return g.pixelX < FramebufferWidth
	}
	return true
}
