package panorama

import (
	"image"

	"github.com/kiesman99/panostitch/pkg/raster"
)

// BlackThreshold is the highest luminance still counted as padding.
const BlackThreshold = 4

// TrimBorders removes near-black padding from the bottom and right edges of
// img using BlackThreshold. When nothing is trimmed img itself is returned;
// otherwise the result is a new raster.
func TrimBorders(img *raster.RGB) *raster.RGB {
	return TrimBordersThreshold(img, BlackThreshold)
}

// TrimBordersThreshold is TrimBorders with an explicit luminance threshold.
//
// The bottom boundary is one past the lowest row holding a pixel brighter
// than threshold. The right boundary is found the same way over columns,
// looking only at rows above the bottom boundary. A boundary is dropped,
// keeping the full extent, if anything past it is brighter than threshold.
// Top and left edges are never trimmed.
func TrimBordersThreshold(img *raster.RGB, threshold uint8) *raster.RGB {
	if img == nil || img.Width() == 0 || img.Height() == 0 {
		return img
	}

	luma := img.Luma()
	w, h := luma.Rect.Dx(), luma.Rect.Dy()

	bright := func(x, y int) bool {
		return luma.Pix[y*luma.Stride+x] > threshold
	}
	rowBright := func(y, width int) bool {
		for x := 0; x < width; x++ {
			if bright(x, y) {
				return true
			}
		}
		return false
	}
	colBright := func(x, height int) bool {
		for y := 0; y < height; y++ {
			if bright(x, y) {
				return true
			}
		}
		return false
	}

	bottom := h
	for y := h - 1; y >= 0; y-- {
		if rowBright(y, w) {
			bottom = y + 1
			break
		}
	}
	for y := bottom; y < h; y++ {
		if rowBright(y, w) {
			bottom = h
			break
		}
	}

	right := w
	for x := w - 1; x >= 0; x-- {
		if colBright(x, bottom) {
			right = x + 1
			break
		}
	}
	for x := right; x < w; x++ {
		if colBright(x, bottom) {
			right = w
			break
		}
	}

	if bottom == h && right == w {
		return img
	}
	return img.Crop(image.Rect(0, 0, right, bottom).Add(img.Rect.Min))
}
