// Package raster provides the 3-channel RGB raster every panorama, tile and
// extracted view is normalized to.
package raster

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Depth is the number of bytes per pixel: R, G, B, no alpha.
const Depth = 3

// RGB is an in-memory image whose At method returns color.RGBA values with
// full opacity. Pix holds the pixels in R, G, B order, row-major.
type RGB struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewRGB returns a new black RGB raster with the given bounds.
func NewRGB(r image.Rectangle) *RGB {
	return &RGB{
		Pix:    make([]uint8, Depth*r.Dx()*r.Dy()),
		Stride: Depth * r.Dx(),
		Rect:   r,
	}
}

// New returns a black RGB raster of width x height anchored at (0,0).
func New(width, height int) *RGB {
	return NewRGB(image.Rect(0, 0, width, height))
}

func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

func (p *RGB) Bounds() image.Rectangle { return p.Rect }

func (p *RGB) Opaque() bool { return true }

// Width and Height are shorthands for Rect.Dx() and Rect.Dy().
func (p *RGB) Width() int  { return p.Rect.Dx() }
func (p *RGB) Height() int { return p.Rect.Dy() }

func (p *RGB) At(x, y int) color.Color {
	return p.RGBAAt(x, y)
}

func (p *RGB) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	return color.RGBA{s[0], s[1], s[2], 0xff}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*Depth
}

func (p *RGB) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	c1 := color.RGBAModel.Convert(c).(color.RGBA)
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	s[0], s[1], s[2] = c1.R, c1.G, c1.B
}

// SetRGB sets the pixel at (x, y) without going through color.Color.
func (p *RGB) SetRGB(x, y int, r, g, b uint8) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	s[0], s[1], s[2] = r, g, b
}

// SubImage returns a view of p visible through r. The returned value shares
// pixels with the original.
func (p *RGB) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &RGB{}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &RGB{
		Pix:    p.Pix[i:],
		Stride: p.Stride,
		Rect:   r,
	}
}

// Crop copies the region r (clipped to p's bounds) into a new raster anchored
// at (0,0). The result never shares memory with p.
func (p *RGB) Crop(r image.Rectangle) *RGB {
	r = r.Intersect(p.Rect)
	dst := New(r.Dx(), r.Dy())
	rowLen := r.Dx() * Depth
	for y := 0; y < r.Dy(); y++ {
		si := p.PixOffset(r.Min.X, r.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], p.Pix[si:si+rowLen])
	}
	return dst
}

// Clone returns a deep copy of p anchored at (0,0).
func (p *RGB) Clone() *RGB {
	return p.Crop(p.Rect)
}

// Paste copies src into p so that src's top-left pixel lands at off.
// Pixels falling outside p are dropped.
func (p *RGB) Paste(src *RGB, off image.Point) {
	dr := src.Rect.Sub(src.Rect.Min).Add(off).Intersect(p.Rect)
	if dr.Empty() {
		return
	}
	sp := dr.Min.Sub(off).Add(src.Rect.Min)
	rowLen := dr.Dx() * Depth
	for y := 0; y < dr.Dy(); y++ {
		di := p.PixOffset(dr.Min.X, dr.Min.Y+y)
		si := src.PixOffset(sp.X, sp.Y+y)
		copy(p.Pix[di:di+rowLen], src.Pix[si:si+rowLen])
	}
}

// ToRGBA converts p into an *image.RGBA with full opacity. The standard
// encoders take fast paths for *image.RGBA.
func (p *RGB) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, p.Width(), p.Height()))
	for y := 0; y < p.Height(); y++ {
		si := p.PixOffset(p.Rect.Min.X, p.Rect.Min.Y+y)
		di := y * dst.Stride
		for x := 0; x < p.Width(); x++ {
			dst.Pix[di+0] = p.Pix[si+0]
			dst.Pix[di+1] = p.Pix[si+1]
			dst.Pix[di+2] = p.Pix[si+2]
			dst.Pix[di+3] = 0xff
			si += Depth
			di += 4
		}
	}
	return dst
}

// Luma returns the single-channel luminance of p, anchored at (0,0).
func (p *RGB) Luma() *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, p.Width(), p.Height()))
	for y := 0; y < p.Height(); y++ {
		si := p.PixOffset(p.Rect.Min.X, p.Rect.Min.Y+y)
		di := y * dst.Stride
		for x := 0; x < p.Width(); x++ {
			r, g, b := uint32(p.Pix[si]), uint32(p.Pix[si+1]), uint32(p.Pix[si+2])
			// Same weights as color.GrayModel, on 8-bit inputs.
			dst.Pix[di+x] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 16)
			si += Depth
		}
	}
	return dst
}

// FromImage converts any image into an RGB raster anchored at (0,0).
// Alpha is dropped after compositing over black.
func FromImage(img image.Image) *RGB {
	b := img.Bounds()
	switch src := img.(type) {
	case *RGB:
		return src.Crop(b)
	case *image.RGBA:
		return fromRGBAPix(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), b.Dx(), b.Dy())
	case *image.NRGBA:
		if src.Opaque() {
			return fromRGBAPix(src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y), b.Dx(), b.Dy())
		}
	}

	// Everything else (YCbCr from JPEG, paletted PNG, VP8 WebP, ...) goes
	// through an RGBA scratch buffer.
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return fromRGBAPix(rgba.Pix, rgba.Stride, 0, b.Dx(), b.Dy())
}

func fromRGBAPix(pix []uint8, stride, start, width, height int) *RGB {
	dst := New(width, height)
	for y := 0; y < height; y++ {
		si := start + y*stride
		di := y * dst.Stride
		for x := 0; x < width; x++ {
			dst.Pix[di+0] = pix[si+0]
			dst.Pix[di+1] = pix[si+1]
			dst.Pix[di+2] = pix[si+2]
			si += 4
			di += Depth
		}
	}
	return dst
}
