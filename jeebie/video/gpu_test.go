package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-jeebie-color/jeebie/addr"
	"github.com/valerio/go-jeebie-color/jeebie/state"
)

type irqRecorder struct {
	requests []addr.Interrupt
}

func (r *irqRecorder) RequestInterrupt(i addr.Interrupt) {
	r.requests = append(r.requests, i)
}

func (r *irqRecorder) count(i addr.Interrupt) int {
	n := 0
	for _, req := range r.requests {
		if req == i {
			n++
		}
	}
	return n
}

// flatSource is a 64KiB HDMA source.
type flatSource [0x10000]uint8

func (s *flatSource) Read(address uint16) uint8 { return s[address] }

func newTestGPU(cgb bool) (*GPU, *irqRecorder, *flatSource) {
	irq := &irqRecorder{}
	source := &flatSource{}
	g := NewGpu(irq, source)
	g.Reset(cgb)
	// identity palette: color index n shows shade n
	g.Write(addr.BGP, 0xE4)
	return g, irq, source
}

func clock(g *GPU, n int) {
	for range n {
		g.Clock()
	}
}

// renderFrame runs until the next frame completes and returns it.
func renderFrame(g *GPU) *FrameBuffer {
	frames := g.FrameCount()
	for g.FrameCount() == frames {
		g.Clock()
	}
	return g.GetCurrentFrame()
}

// fillTile writes a tile with every pixel set to colorIndex.
func fillTile(g *GPU, bank, dataOffset, colorIndex int) {
	var low, high uint8
	if colorIndex&1 != 0 {
		low = 0xFF
	}
	if colorIndex&2 != 0 {
		high = 0xFF
	}
	for row := range 8 {
		g.vram[bank][dataOffset+row*2] = low
		g.vram[bank][dataOffset+row*2+1] = high
	}
}

func TestScanlineModeSequence(t *testing.T) {
	g, _, _ := newTestGPU(false)

	steps := []struct {
		clocks int
		mode   GpuMode
		line   uint8
	}{
		{19, OAMScanMode, 0},
		{1, DrawMode, 0},
		{39, DrawMode, 0},
		{1, HBlankMode, 0},
		{53, HBlankMode, 0},
		{1, OAMScanMode, 1},
	}

	for _, step := range steps {
		clock(g, step.clocks)
		assert.Equal(t, step.mode, g.Mode(), "line %d", g.Line())
		assert.Equal(t, step.line, g.Line())
		assert.Equal(t, uint8(step.mode), g.Read(addr.STAT)&0x03)
	}
}

func TestFrameTiming(t *testing.T) {
	g, irq, _ := newTestGPU(false)
	var frames []*FrameBuffer
	g.OnFrame(func(fb *FrameBuffer) { frames = append(frames, fb) })

	clock(g, visibleLines*ClocksPerLine-1)
	assert.Empty(t, frames)
	assert.Equal(t, uint8(143), g.Line())

	g.Clock()
	require.Len(t, frames, 1, "callback fires on V-blank entry")
	assert.Equal(t, VBlankMode, g.Mode())
	assert.Equal(t, uint8(144), g.Line())
	assert.Equal(t, 1, irq.count(addr.VBlankInterrupt))

	clock(g, ClocksPerFrame-1)
	assert.Len(t, frames, 1)
	g.Clock()
	require.Len(t, frames, 2, "70224 dots per frame")
	assert.Equal(t, 2, irq.count(addr.VBlankInterrupt))
	assert.NotSame(t, frames[0], frames[1], "every frame gets a fresh buffer")

	clock(g, 3*ClocksPerFrame)
	assert.Len(t, frames, 5)
	assert.Equal(t, uint64(5), g.FrameCount())
	assert.Same(t, frames[4], g.GetCurrentFrame())
}

func TestVBlankLines(t *testing.T) {
	g, _, _ := newTestGPU(false)
	renderFrame(g)

	for line := 144; line < 154; line++ {
		assert.Equal(t, uint8(line), g.Line())
		assert.Equal(t, VBlankMode, g.Mode())
		clock(g, ClocksPerLine)
	}
	assert.Equal(t, uint8(0), g.Line())
	assert.Equal(t, OAMScanMode, g.Mode())
}

func TestSTATInterruptEdges(t *testing.T) {
	tests := []struct {
		desc string
		stat uint8
		lyc  uint8
		want int
	}{
		{"no sources", 0x00, 5, 0},
		{"H-blank fires once per visible line", 0x08, 5, 144},
		{"V-blank fires once per frame", 0x10, 5, 1},
		{"OAM scan fires once per visible line", 0x20, 5, 144},
		{"LY=LYC fires once per frame", 0x40, 5, 1},
		{"LYC during V-blank", 0x40, 150, 1},
		{"line held high by H-blank hides the LYC edge", 0x48, 5, 143},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			g, irq, _ := newTestGPU(false)
			g.Write(addr.LYC, tt.lyc)
			g.Write(addr.STAT, tt.stat)
			irq.requests = nil

			clock(g, ClocksPerFrame)
			assert.Equal(t, tt.want, irq.count(addr.LCDSTATInterrupt))
		})
	}
}

func TestLYCWriteTriggersImmediately(t *testing.T) {
	g, irq, _ := newTestGPU(false)
	g.Write(addr.STAT, 0x40)
	g.Write(addr.LYC, 3)
	clock(g, 3*ClocksPerLine+10)
	require.Equal(t, 1, irq.count(addr.LCDSTATInterrupt))
	assert.Equal(t, uint8(0x04), g.Read(addr.STAT)&0x04, "coincidence flag")

	g.Write(addr.LYC, 9)
	assert.Equal(t, uint8(0), g.Read(addr.STAT)&0x04)
	g.Write(addr.LYC, 3)
	assert.Equal(t, 2, irq.count(addr.LCDSTATInterrupt), "matching write is a new rising edge")
}

func TestSTATReadMask(t *testing.T) {
	g, _, _ := newTestGPU(false)
	g.Write(addr.LYC, 1)
	g.Write(addr.STAT, 0xFF)
	assert.Equal(t, uint8(0xFA), g.Read(addr.STAT), "bit 7 set, writable bits kept, mode 2")
}

func TestLCDOff(t *testing.T) {
	g, irq, _ := newTestGPU(false)
	clock(g, 5*ClocksPerLine+30)
	require.Equal(t, uint8(5), g.Line())

	g.Write(addr.LCDC, 0x11)
	assert.Equal(t, uint8(0), g.Line())
	assert.Equal(t, uint8(0x80), g.Read(addr.STAT), "mode 0 while off")

	clock(g, 2*ClocksPerFrame)
	assert.Equal(t, uint8(0), g.Line())
	assert.Equal(t, uint64(0), g.FrameCount())
	assert.Equal(t, 0, irq.count(addr.VBlankInterrupt))

	g.Write(addr.LCDC, 0x91)
	assert.Equal(t, OAMScanMode, g.Mode())
	clock(g, visibleLines*ClocksPerLine)
	assert.Equal(t, uint64(1), g.FrameCount())
}

func TestCGBRegistersOnDMG(t *testing.T) {
	g, _, _ := newTestGPU(false)
	for _, address := range []uint16{addr.VBK, addr.HDMA5, addr.BCPS, addr.BCPD, addr.OCPS, addr.OCPD} {
		g.Write(address, 0x01)
		assert.Equal(t, uint8(0xFF), g.Read(address), "0x%04X", address)
	}

	g.Write(0x8000, 0x42)
	assert.Equal(t, uint8(0x42), g.vram[0][0], "VBK write ignored")
}

func TestVRAMBanks(t *testing.T) {
	g, _, _ := newTestGPU(true)
	g.Write(0x8000, 0x11)
	g.Write(addr.VBK, 0x01)
	assert.Equal(t, uint8(0xFF), g.Read(addr.VBK))
	assert.Equal(t, uint8(0x00), g.Read(0x8000))
	g.Write(0x8000, 0x22)

	g.Write(addr.VBK, 0xFE)
	assert.Equal(t, uint8(0xFE), g.Read(addr.VBK))
	assert.Equal(t, uint8(0x11), g.Read(0x8000))
	assert.Equal(t, uint8(0x22), g.vram[1][0])
}

func TestGPUState(t *testing.T) {
	g, _, source := newTestGPU(true)
	fillTile(g, 0, 16, 2)
	g.vram[0][tileMap0Offset+33] = 1
	g.Write(addr.SCX, 3)
	g.Write(addr.BCPS, 0x80)
	for i := range 8 {
		g.Write(addr.BCPD, uint8(i*31))
	}
	for i := range 64 {
		source[0xC000+i] = uint8(i)
	}
	g.Write(addr.HDMA1, 0xC0)
	g.Write(addr.HDMA2, 0x00)
	g.Write(addr.HDMA3, 0x10)
	g.Write(addr.HDMA4, 0x00)
	g.Write(addr.HDMA5, 0x83)

	// stop in the middle of a line while the H-blank transfer is running
	clock(g, 9*ClocksPerLine+37)

	w := state.NewWriter()
	g.WriteState(w)

	restored, _, _ := newTestGPU(false)
	restored.source = source
	r := state.NewReader(w.Bytes())
	restored.ReadState(r)
	require.NoError(t, r.Finish())

	for range ClocksPerFrame {
		g.Clock()
		restored.Clock()
	}
	assert.Equal(t, g.GetCurrentFrame().ToSlice(), restored.GetCurrentFrame().ToSlice())
	assert.Equal(t, g.vram, restored.vram)
	assert.Equal(t, g.Read(addr.STAT), restored.Read(addr.STAT))
	assert.Equal(t, g.Line(), restored.Line())
	assert.Equal(t, g.hdma, restored.hdma)
}

func TestGPUStateTruncated(t *testing.T) {
	g, _, _ := newTestGPU(false)
	w := state.NewWriter()
	g.WriteState(w)

	r := state.NewReader(w.Bytes()[:w.Len()-1])
	g.ReadState(r)
	assert.ErrorIs(t, r.Finish(), state.ErrTruncated)
}

func TestGPUStateRejectsTiming(t *testing.T) {
	tests := []struct {
		name   string
		modify func(g *GPU)
	}{
		{"negative dots", func(g *GPU) { g.dots = -4 }},
		{"dots past the line", func(g *GPU) { g.dots = scanlineDots }},
		{"dots off the clock grid", func(g *GPU) { g.dots = 6 }},
		{"line past the frame", func(g *GPU) { g.ly = linesPerFrame }},
		{"pixel past the line", func(g *GPU) { g.pixelX = FramebufferWidth + 4 }},
		{"oam scan past its dots", func(g *GPU) { g.mode, g.dots = OAMScanMode, oamScanDots }},
		{"drawing a finished line", func(g *GPU) { g.mode, g.dots, g.pixelX = DrawMode, 200, FramebufferWidth }},
		{"window line below the screen", func(g *GPU) { g.windowLine = visibleLines + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _ := newTestGPU(true)
			tt.modify(g)
			w := state.NewWriter()
			g.WriteState(w)

			restored, _, _ := newTestGPU(true)
			r := state.NewReader(w.Bytes())
			restored.ReadState(r)
			assert.ErrorIs(t, r.Finish(), state.ErrOutOfRange)
		})
	}
}

func TestGPUStateAcceptsLineBoundaries(t *testing.T) {
	g, _, _ := newTestGPU(true)
	// every position the PPU reaches by running restores cleanly
	for _, n := range []int{ClocksPerFrame - 1, ClocksPerFrame + ClocksPerLine - 1, 3*ClocksPerLine + 60} {
		clock(g, n)
		w := state.NewWriter()
		g.WriteState(w)

		restored, _, _ := newTestGPU(true)
		r := state.NewReader(w.Bytes())
		restored.ReadState(r)
		require.NoError(t, r.Finish())
		assert.Equal(t, g.Line(), restored.Line())
	}
}
