package video

import "github.com/valerio/go-jeebie-color/jeebie/bit"

// TileRow represents one row of a tile pattern (8 pixels).
//
// Tiles are 8x8 pixels, with 2 bits per pixel. Each row uses 2 bytes in a
// bit-plane format: the first byte holds bit 0 of every pixel, the second
// byte bit 1. Bit 7 is the leftmost pixel:
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Colors:      0 2 3 3 3 3 2 0
//
// A complete tile occupies 16 bytes in VRAM.
//
// Reference: https://gbdev.io/pandocs/Tile_Data.html
type TileRow struct {
	Low  byte
	High byte
}

// GetPixel extracts a color index (0-3) from the row.
// pixelX should be 0-7, where 0 is the leftmost pixel.
func (t TileRow) GetPixel(pixelX int) int {
	return t.pixel(uint8(7 - pixelX))
}

// GetPixelFlipped extracts a color index with horizontal flip applied.
func (t TileRow) GetPixelFlipped(pixelX int) int {
	return t.pixel(uint8(pixelX))
}

func (t TileRow) pixel(bitIndex uint8) int {
	pixel := 0
	if bit.IsSet(bitIndex, t.Low) {
		pixel |= 1
	}
	if bit.IsSet(bitIndex, t.High) {
		pixel |= 2
	}
	return pixel
}

// tileRow fetches row (0-15 for tall sprites) of the tile at dataOffset
// (relative to 0x8000) from the given VRAM bank.
func (g *GPU) tileRow(bank int, dataOffset int, row int) TileRow {
	offset := dataOffset + row*2
	return TileRow{
		Low:  g.vram[bank][offset],
		High: g.vram[bank][offset+1],
	}
}
