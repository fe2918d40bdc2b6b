package render

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// NormalizeImage rewrites the PNG at path so both dimensions are even and
// the width does not exceed maxWidth (zero disables the cap). Video encoders
// reject odd dimensions for yuv420p output, so odd axes grow by one pixel.
// Returns whether the file was rewritten.
func NormalizeImage(path string, maxWidth int) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	src, err := png.Decode(file)
	file.Close()
	if err != nil {
		return false, fmt.Errorf("decode png: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	targetWidth, targetHeight := targetDimensions(width, height, maxWidth)
	if targetWidth == width && targetHeight == height {
		return false, nil
	}
	if targetWidth < 2 || targetHeight < 2 {
		return false, fmt.Errorf("image %dx%d too small to normalize", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return false, err
	}
	if err := png.Encode(out, dst); err != nil {
		out.Close()
		os.Remove(tmp)
		return false, fmt.Errorf("encode png: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, err
	}
	return true, nil
}

// targetDimensions applies the width cap first, then forces both axes even.
func targetDimensions(width, height, maxWidth int) (int, int) {
	if maxWidth > 0 && width > maxWidth {
		height = height * maxWidth / width
		width = maxWidth
	}
	width += width % 2
	height += height % 2
	return width, height
}
