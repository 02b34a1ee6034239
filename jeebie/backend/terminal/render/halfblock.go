package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-jeebie-color/jeebie/video"
)

// UpperHalfBlock draws the top pixel of a cell in the foreground color and
// the bottom pixel in the background color, so one text row holds two
// pixel rows.
const UpperHalfBlock = '▀'

// TextRows is how many terminal rows a frame takes.
const TextRows = (video.FramebufferHeight + 1) / 2

// Color converts a frame pixel to a true color terminal color.
func Color(c video.GBColor) tcell.Color {
	r, g, b, _ := c.RGBA()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// Cell returns the rune and style of the text cell at column x, text row
// row of frame.
func Cell(frame *video.FrameBuffer, x, row int) (rune, tcell.Style) {
	top := frame.GetPixel(x, row*2)
	bottom := top
	if row*2+1 < video.FramebufferHeight {
		bottom = frame.GetPixel(x, row*2+1)
	}
	return UpperHalfBlock, tcell.StyleDefault.Foreground(Color(top)).Background(Color(bottom))
}

// DrawFrame draws frame with its top left corner at (x0, y0).
func DrawFrame(screen tcell.Screen, frame *video.FrameBuffer, x0, y0 int) {
	for row := range TextRows {
		for x := range video.FramebufferWidth {
			ch, style := Cell(frame, x, row)
			screen.SetContent(x0+x, y0+row, ch, nil, style)
		}
	}
}

// DrawText writes text at (x, y), cut at maxWidth cells.
func DrawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	i := 0
	for _, ch := range text {
		if i >= maxWidth {
			return
		}
		screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}
