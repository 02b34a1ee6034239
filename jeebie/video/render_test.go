package video

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/go-jeebie-color/jeebie/addr"
)

type pixelCheck struct {
	x, y int
	want GBColor
}

func TestBackgroundRendering(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(g *GPU)
		pixels []pixelCheck
	}{
		{
			name: "unsigned tile addressing",
			setup: func(g *GPU) {
				g.Write(addr.LCDC, 0x91)
				fillTile(g, 0, 0, 1)
			},
			pixels: []pixelCheck{{0, 0, LightGreyColor}, {159, 143, LightGreyColor}},
		},
		{
			name: "signed tile addressing uses 0x9000 for tile 0",
			setup: func(g *GPU) {
				g.Write(addr.LCDC, 0x81)
				fillTile(g, 0, 0, 3)
				fillTile(g, 0, 0x1000, 2)
			},
			pixels: []pixelCheck{{0, 0, DarkGreyColor}, {100, 100, DarkGreyColor}},
		},
		{
			name: "signed tile addressing with negative index",
			setup: func(g *GPU) {
				g.Write(addr.LCDC, 0x81)
				g.vram[0][tileMap0Offset] = 0x80
				fillTile(g, 0, 0x0800, 3)
			},
			pixels: []pixelCheck{{0, 0, BlackColor}, {7, 7, BlackColor}, {8, 0, WhiteColor}},
		},
		{
			name: "second BG tile map",
			setup: func(g *GPU) {
				g.Write(addr.LCDC, 0x99)
				g.vram[0][tileMap1Offset] = 1
				fillTile(g, 0, 16, 3)
			},
			pixels: []pixelCheck{{0, 0, BlackColor}, {8, 0, WhiteColor}},
		},
		{
			name: "palette remaps color indexes",
			setup: func(g *GPU) {
				g.Write(addr.LCDC, 0x91)
				g.Write(addr.BGP, 0x1B)
				fillTile(g, 0, 0, 0)
			},
			pixels: []pixelCheck{{0, 0, BlackColor}},
		},
		{
			name: "scroll X",
			setup: func(g *GPU) {
				g.Write(addr.LCDC, 0x91)
				g.Write(addr.SCX, 4)
				g.vram[0][tileMap0Offset] = 1
				fillTile(g, 0, 16, 3)
			},
			pixels: []pixelCheck{{0, 0, BlackColor}, {3, 0, BlackColor}, {4, 0, WhiteColor}},
		},
		{
			name: "scroll Y wraps around the map",
			setup: func(g *GPU) {
				g.Write(addr.LCDC, 0x91)
				g.Write(addr.SCY, 252)
				g.vram[0][tileMap0Offset+31*32] = 1
				fillTile(g, 0, 16, 3)
			},
			pixels: []pixelCheck{{0, 0, BlackColor}, {0, 3, BlackColor}, {0, 4, WhiteColor}},
		},
		{
			name: "BG disabled on DMG draws white",
			setup: func(g *GPU) {
				g.Write(addr.LCDC, 0x90)
				fillTile(g, 0, 0, 3)
			},
			pixels: []pixelCheck{{0, 0, WhiteColor}, {80, 80, WhiteColor}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _ := newTestGPU(false)
			tt.setup(g)
			frame := renderFrame(g)
			for _, p := range tt.pixels {
				assert.Equal(t, p.want, frame.GetPixel(p.x, p.y), "pixel (%d, %d)", p.x, p.y)
			}
		})
	}
}

func TestWindowRendering(t *testing.T) {
	g, _, _ := newTestGPU(false)
	g.Write(addr.LCDC, 0xF1)
	g.Write(addr.WX, 87)
	g.Write(addr.WY, 10)
	fillTile(g, 0, 0, 1)
	fillTile(g, 0, 32, 3)
	fillTile(g, 0, 48, 2)
	for i := range 32 {
		g.vram[0][tileMap1Offset+i] = 2
		g.vram[0][tileMap1Offset+32+i] = 3
	}

	frame := renderFrame(g)

	checks := []pixelCheck{
		{79, 10, LightGreyColor},
		{80, 9, LightGreyColor},
		{80, 10, BlackColor},
		{159, 17, BlackColor},
		{80, 18, DarkGreyColor},
	}
	for _, p := range checks {
		assert.Equal(t, p.want, frame.GetPixel(p.x, p.y), "pixel (%d, %d)", p.x, p.y)
	}
}

func TestWindowLineCounterSkipsHiddenLines(t *testing.T) {
	g, _, _ := newTestGPU(false)
	g.Write(addr.LCDC, 0xF1)
	g.Write(addr.WX, 7)
	fillTile(g, 0, 32, 3)
	fillTile(g, 0, 48, 2)
	for i := range 32 {
		g.vram[0][tileMap1Offset+i] = 2
		g.vram[0][tileMap1Offset+32+i] = 3
	}

	// window off for lines 4-19, it resumes with its 5th line
	clock(g, 4*ClocksPerLine)
	g.Write(addr.LCDC, 0xD1)
	clock(g, 16*ClocksPerLine)
	g.Write(addr.LCDC, 0xF1)
	frame := renderFrame(g)

	assert.Equal(t, BlackColor, frame.GetPixel(0, 3))
	assert.Equal(t, BlackColor, frame.GetPixel(0, 23))
	assert.Equal(t, DarkGreyColor, frame.GetPixel(0, 24))
}

// setSprite writes an OAM entry with screen coordinates.
func setSprite(g *GPU, index, x, y int, tile, flags uint8) {
	base := uint16(index * 4)
	g.oam.Write(base, uint8(y+16))
	g.oam.Write(base+1, uint8(x+8))
	g.oam.Write(base+2, tile)
	g.oam.Write(base+3, flags)
}

// setupSprites prepares tiles and palettes shared by the sprite tests:
// tile 1 is color 3, tile 2 is color 1, tile 3 has its left half color 1 and
// its right half transparent. Color 1 shows light grey (DMG) or red (CGB),
// color 3 black or blue.
func setupSprites(g *GPU) {
	g.Write(addr.LCDC, 0x93)
	g.Write(addr.OBP0, 0xE4)
	fillTile(g, 0, 16, 3)
	fillTile(g, 0, 32, 1)
	for row := range 8 {
		g.vram[0][48+row*2] = 0xF0
		g.vram[0][48+row*2+1] = 0x00
	}

	g.Write(addr.OCPS, 0x80)
	for _, b := range []uint8{0x00, 0x00, 0x1F, 0x00, 0x00, 0x00, 0x00, 0x7C} {
		g.Write(addr.OCPD, b)
	}
}

const (
	redColor  GBColor = 0xFF0000FF
	blueColor GBColor = 0x0000FFFF
)

type testSprite struct {
	x, y        int
	tile, flags uint8
}

func TestSpritePriority(t *testing.T) {
	tests := []struct {
		name    string
		sprites []testSprite
		x       int
		wantDMG GBColor
		wantCGB GBColor
	}{
		{
			name:    "lower X wins on DMG, OAM order on CGB",
			sprites: []testSprite{{20, 50, 1, 0}, {16, 50, 2, 0}},
			x:       20,
			wantDMG: LightGreyColor,
			wantCGB: blueColor,
		},
		{
			name:    "same X falls back to OAM order",
			sprites: []testSprite{{20, 50, 1, 0}, {20, 50, 2, 0}},
			x:       22,
			wantDMG: BlackColor,
			wantCGB: blueColor,
		},
		{
			name:    "later OAM entry with lower X",
			sprites: []testSprite{{30, 50, 2, 0}, {24, 50, 1, 0}},
			x:       30,
			wantDMG: BlackColor,
			wantCGB: redColor,
		},
		{
			name:    "transparent pixels let the next sprite through",
			sprites: []testSprite{{20, 50, 1, 0}, {16, 50, 3, 0}},
			x:       20,
			wantDMG: BlackColor,
			wantCGB: blueColor,
		},
		{
			name:    "opaque part of the winning sprite",
			sprites: []testSprite{{20, 50, 1, 0}, {16, 50, 3, 0}},
			x:       18,
			wantDMG: LightGreyColor,
			wantCGB: redColor,
		},
		{
			name:    "partially offscreen sprite",
			sprites: []testSprite{{-4, 50, 3, 0}},
			x:       0,
			wantDMG: WhiteColor,
			wantCGB: WhiteColor,
		},
		{
			name:    "horizontal flip",
			sprites: []testSprite{{-4, 50, 3, 0x20}},
			x:       0,
			wantDMG: LightGreyColor,
			wantCGB: redColor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, cgb := range []bool{false, true} {
				g, _, _ := newTestGPU(cgb)
				setupSprites(g)
				for i, s := range tt.sprites {
					setSprite(g, i, s.x, s.y, s.tile, s.flags)
				}

				want := tt.wantDMG
				if cgb {
					want = tt.wantCGB
				}
				assert.Equal(t, want, renderFrame(g).GetPixel(tt.x, 50), "cgb=%v", cgb)
			}
		})
	}
}

func TestSpriteBackgroundPriority(t *testing.T) {
	tests := []struct {
		name    string
		cgb     bool
		lcdc    uint8
		bgColor int
		bgAttr  uint8
		flags   uint8
		want    GBColor
	}{
		{"sprite over BG color 0", false, 0x93, 0, 0, 0x80, BlackColor},
		{"behind BG sprite hidden by BG colors 1-3", false, 0x93, 2, 0, 0x80, DarkGreyColor},
		{"sprite over BG colors 1-3", false, 0x93, 2, 0, 0, BlackColor},
		{"DMG BG disabled leaves sprites on white", false, 0x92, 2, 0, 0x80, BlackColor},
		{"sprites disabled", false, 0x91, 0, 0, 0, WhiteColor},
		{"CGB BG attribute priority", true, 0x93, 2, 0x80, 0, WhiteColor},
		{"CGB BG attribute priority over color 0", true, 0x93, 0, 0x80, 0, blueColor},
		{"CGB behind BG flag", true, 0x93, 1, 0, 0x80, WhiteColor},
		{"CGB LCDC bit 0 clear gives sprites priority", true, 0x92, 2, 0x80, 0x80, blueColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _ := newTestGPU(tt.cgb)
			setupSprites(g)
			g.Write(addr.LCDC, tt.lcdc)
			fillTile(g, 0, 0, tt.bgColor)
			for i := range 32 * 32 {
				g.vram[1][tileMap0Offset+i] = tt.bgAttr
			}
			setSprite(g, 0, 40, 50, 1, tt.flags)

			assert.Equal(t, tt.want, renderFrame(g).GetPixel(44, 52))
		})
	}
}

func TestTallSprites(t *testing.T) {
	tests := []struct {
		name  string
		flags uint8
		top   GBColor
		under GBColor
	}{
		{"8x16 uses the tile pair", 0, LightGreyColor, BlackColor},
		{"vertical flip swaps the halves", 0x40, BlackColor, LightGreyColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, _ := newTestGPU(false)
			setupSprites(g)
			g.Write(addr.LCDC, 0x97)
			fillTile(g, 0, 4*16, 1)
			fillTile(g, 0, 5*16, 3)
			// the low bit of the tile number is ignored
			setSprite(g, 0, 40, 50, 5, tt.flags)

			frame := renderFrame(g)
			assert.Equal(t, tt.top, frame.GetPixel(40, 50))
			assert.Equal(t, tt.under, frame.GetPixel(40, 58))
			assert.Equal(t, WhiteColor, frame.GetPixel(40, 66))
		})
	}
}

func TestCGBBackgroundAttributes(t *testing.T) {
	g, _, _ := newTestGPU(true)
	g.Write(addr.LCDC, 0x91)

	// palette 2 color 1 is green
	g.Write(addr.BCPS, 0x80|0x12)
	g.Write(addr.BCPD, 0xE0)
	g.Write(addr.BCPD, 0x03)

	// tile 0 in bank 1 has its left column color 1, bank 0 is empty
	for row := range 8 {
		g.vram[1][row*2] = 0x80
	}
	g.vram[1][tileMap0Offset] = 0x08 | 0x02
	g.vram[1][tileMap0Offset+1] = 0x08 | 0x02 | 0x20

	frame := renderFrame(g)
	green := GBColor(0x00FF00FF)
	assert.Equal(t, green, frame.GetPixel(0, 0), "bank 1 tile with palette 2")
	assert.Equal(t, WhiteColor, frame.GetPixel(1, 0))
	assert.Equal(t, green, frame.GetPixel(15, 0), "x flipped")
	assert.Equal(t, WhiteColor, frame.GetPixel(8, 0))
}
