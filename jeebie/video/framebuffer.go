package video

// GBColor is a pixel in RGBA order, one byte per channel.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x989898FF
	DarkGreyColor  GBColor = 0x4C4C4CFF
	BlackColor     GBColor = 0x000000FF
)

// RGBA splits the color into its channels.
func (c GBColor) RGBA() (r, g, b, a uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// FrameBuffer holds one LCD frame. A completed frame is never written to
// again: the PPU starts every frame on a fresh buffer.
type FrameBuffer struct {
	buffer []uint32
}

// NewFrameBuffer creates a blank 160x144 frame buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		buffer: make([]uint32, FramebufferWidth*FramebufferHeight),
	}
}

func (fb *FrameBuffer) Width() int  { return FramebufferWidth }
func (fb *FrameBuffer) Height() int { return FramebufferHeight }

func (fb *FrameBuffer) GetPixel(x, y int) GBColor {
	return GBColor(fb.buffer[y*FramebufferWidth+x])
}

func (fb *FrameBuffer) SetPixel(x, y int, color GBColor) {
	fb.buffer[y*FramebufferWidth+x] = uint32(color)
}

// ToSlice returns the pixels row by row.
func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}
