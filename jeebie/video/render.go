package video

import "github.com/valerio/go-jeebie-color/jeebie/bit"

// tile map and tile data offsets relative to VRAM start
const (
	tileMap0Offset     = 0x1800
	tileMap1Offset     = 0x1C00
	signedTileBase     = 0x1000
	bytesPerTile       = 16
	tilesPerMapRow     = 32
	windowXOffset      = 7
	bgPriorityAttrBit  = 7
	bgFlipYAttrBit     = 6
	bgFlipXAttrBit     = 5
	bgBankAttrBit      = 3
	bgPaletteAttrMask  = 0x07
	spriteWidth        = 8
)

// bgPixel is the background or window pixel under a screen position.
type bgPixel struct {
	index    int  // color index before the palette, 0 is the backdrop
	priority bool // CGB attribute bit 7: BG over sprites
	color    GBColor
}

// renderPixel composes one pixel of the current line into the frame.
func (g *GPU) renderPixel(x int) {
	bg := g.backgroundPixel(x)
	color := bg.color

	if g.isSet(spriteDisplayEnable) {
		if sprite, index, ok := g.spritePixel(x); ok && !g.bgWins(bg, sprite) {
			color = g.spriteColor(sprite, index)
		}
	}

	g.framebuffer.SetPixel(x, int(g.ly), color)
}

// bgWins decides the BG/sprite priority for a non-transparent sprite pixel.
func (g *GPU) bgWins(bg bgPixel, sprite Sprite) bool {
	if bg.index == 0 {
		return false
	}
	if g.cgb && !g.isSet(bgDisplay) {
		// color mode: LCDC bit 0 clear makes sprites always win
		return false
	}
	return sprite.BehindBG || bg.priority
}

// backgroundPixel fetches the BG or window pixel at x on the current line.
func (g *GPU) backgroundPixel(x int) bgPixel {
	if !g.cgb && !g.isSet(bgDisplay) {
		return bgPixel{color: WhiteColor}
	}

	var mapOffset, px, py int
	if g.windowCovers(x) {
		mapOffset = tileMap0Offset
		if g.isSet(windowTileMapSelect) {
			mapOffset = tileMap1Offset
		}
		px = x + windowXOffset - int(g.wx)
		py = g.windowLine
		g.windowShown = true
	} else {
		mapOffset = tileMap0Offset
		if g.isSet(bgTileMapDisplaySelect) {
			mapOffset = tileMap1Offset
		}
		px = (x + int(g.scx)) & 0xFF
		py = (int(g.ly) + int(g.scy)) & 0xFF
	}

	mapIndex := mapOffset + (py/8)*tilesPerMapRow + px/8
	tileNumber := g.vram[0][mapIndex]

	var attr uint8
	if g.cgb {
		attr = g.vram[1][mapIndex]
	}

	row := py % 8
	if bit.IsSet(bgFlipYAttrBit, attr) {
		row = 7 - row
	}
	bank := int(bit.Bool(bit.IsSet(bgBankAttrBit, attr)))
	tile := g.tileRow(bank, g.tileDataOffset(tileNumber), row)

	var index int
	if bit.IsSet(bgFlipXAttrBit, attr) {
		index = tile.GetPixelFlipped(px % 8)
	} else {
		index = tile.GetPixel(px % 8)
	}

	pixel := bgPixel{index: index, priority: bit.IsSet(bgPriorityAttrBit, attr)}
	if g.cgb {
		pixel.color = g.bgPalette.Color(attr&bgPaletteAttrMask, index)
	} else {
		pixel.color = dmgColor(g.bgp, index)
	}
	return pixel
}

// windowCovers reports whether the window is drawn at x on this line.
func (g *GPU) windowCovers(x int) bool {
	if !g.isSet(windowDisplayEnable) {
		return false
	}
	return g.ly >= g.wy && x+windowXOffset >= int(g.wx)
}

// tileDataOffset resolves a BG/window tile number with the addressing mode
// selected by LCDC bit 4: unsigned from 0x8000 or signed around 0x9000.
func (g *GPU) tileDataOffset(tileNumber uint8) int {
	if g.isSet(bgWindowTileDataSelect) {
		return int(tileNumber) * bytesPerTile
	}
	return signedTileBase + int(int8(tileNumber))*bytesPerTile
}

// spritePixel returns the first sprite in priority order with a visible
// pixel at x. Sprite color 0 is transparent and lets lower sprites through.
func (g *GPU) spritePixel(x int) (Sprite, int, bool) {
	height := g.spriteHeight()
	line := int(g.ly)

	for _, sprite := range g.oam.LineSprites() {
		col := x - sprite.X
		if col < 0 || col >= spriteWidth {
			continue
		}

		row := line - sprite.Y
		if row < 0 || row >= height {
			// LCDC sprite size changed after the scan
			continue
		}
		if sprite.FlipY {
			row = height - 1 - row
		}
		tileIndex := sprite.TileIndex
		if height == 16 {
			tileIndex &= 0xFE
		}

		bank := 0
		if g.cgb {
			bank = sprite.Bank
		}
		tile := g.tileRow(bank, int(tileIndex)*bytesPerTile, row)

		var index int
		if sprite.FlipX {
			index = tile.GetPixelFlipped(col)
		} else {
			index = tile.GetPixel(col)
		}
		if index != 0 {
			return sprite, index, true
		}
	}
	return Sprite{}, 0, false
}

func (g *GPU) spriteColor(sprite Sprite, index int) GBColor {
	if g.cgb {
		return g.objPalette.Color(sprite.CGBPalette, index)
	}
	if sprite.PaletteOBP1 {
		return dmgColor(g.obp1, index)
	}
	return dmgColor(g.obp0, index)
}
