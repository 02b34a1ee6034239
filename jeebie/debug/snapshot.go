package debug

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/valerio/go-jeebie-color/jeebie/video"
)

// FrameImage converts a frame to an RGBA image. CGB colors come out as
// they are, DMG shades as their grey levels.
func FrameImage(frame *video.FrameBuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.Width(), frame.Height()))
	for i, pixel := range frame.ToSlice() {
		r, g, b, a := video.GBColor(pixel).RGBA()
		copy(img.Pix[i*4:], []byte{r, g, b, a})
	}
	return img
}

// SaveFramePNG writes frame to path as a 160x144 PNG.
func SaveFramePNG(frame *video.FrameBuffer, path string) error {
	if frame == nil {
		return fmt.Errorf("no frame to save")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, FrameImage(frame)); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return file.Close()
}

// SaveFramePNGToDir saves frame as <baseName>.png in directory (the working
// directory when empty) and returns the path written.
func SaveFramePNGToDir(frame *video.FrameBuffer, baseName, directory string) (string, error) {
	if directory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		directory = cwd
	}

	path := filepath.Join(directory, baseName+".png")
	if err := SaveFramePNG(frame, path); err != nil {
		return "", err
	}

	slog.Info("Snapshot saved", "path", path)
	return path, nil
}
