// Package codec decodes tile and panorama bytes into RGB rasters and encodes
// rasters as JPEG, PNG or WebP.
package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	lossywebp "github.com/gen2brain/webp"
	"golang.org/x/image/webp"

	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/raster"
)

// Format is an output image format.
type Format int

const (
	FormatWebP Format = iota
	FormatJPEG
	FormatPNG
)

// Default encoder settings.
const (
	DefaultJPEGQuality = 90
	DefaultWebPQuality = 85
	DefaultWebPEffort  = 4
)

var formatNames = map[Format]string{
	FormatWebP: "webp",
	FormatJPEG: "jpeg",
	FormatPNG:  "png",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return "image/webp"
	}
}

// Extension returns the conventional file extension for f, with the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	default:
		return ".webp"
	}
}

// ParseFormat parses a format name. "jpg" is accepted as an alias of "jpeg".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "webp":
		return FormatWebP, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidParameter, "unknown format: %q", s)
}

// FormatFromPath infers the output format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// Options controls encoding. The zero value is not valid; start from
// DefaultOptions.
type Options struct {
	Format      Format
	JPEGQuality int // 1-100
	WebPQuality int // 1-100
	WebPEffort  int // 0-6
}

// DefaultOptions returns WebP output with the default quality settings.
func DefaultOptions() Options {
	return Options{
		Format:      FormatWebP,
		JPEGQuality: DefaultJPEGQuality,
		WebPQuality: DefaultWebPQuality,
		WebPEffort:  DefaultWebPEffort,
	}
}

// WithFormat returns a copy of o with the format replaced.
func (o Options) WithFormat(f Format) Options {
	o.Format = f
	return o
}

// Validate checks quality and effort ranges.
func (o Options) Validate() error {
	if _, ok := formatNames[o.Format]; !ok {
		return errors.New(errors.ErrCodeInvalidParameter, "unknown format: %v", o.Format)
	}
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		return errors.New(errors.ErrCodeInvalidParameter, "jpeg quality %d out of range [1, 100]", o.JPEGQuality)
	}
	if o.WebPQuality < 1 || o.WebPQuality > 100 {
		return errors.New(errors.ErrCodeInvalidParameter, "webp quality %d out of range [1, 100]", o.WebPQuality)
	}
	if o.WebPEffort < 0 || o.WebPEffort > 6 {
		return errors.New(errors.ErrCodeInvalidParameter, "webp effort %d out of range [0, 6]", o.WebPEffort)
	}
	return nil
}

// Encode writes img to w. The image is normalized to 3-channel RGB first.
//
// WebP is encoded lossy with WebPQuality and WebPEffort as the encoder's
// quality and method. WebPQuality 100 selects lossless output.
func Encode(w io.Writer, img image.Image, o Options) error {
	if err := o.Validate(); err != nil {
		return err
	}

	rgb, ok := img.(*raster.RGB)
	if !ok {
		rgb = raster.FromImage(img)
	}
	src := rgb.ToRGBA()

	var err error
	switch o.Format {
	case FormatJPEG:
		err = jpeg.Encode(w, src, &jpeg.Options{Quality: o.JPEGQuality})
	case FormatPNG:
		err = png.Encode(w, src)
	case FormatWebP:
		if o.WebPQuality == 100 {
			err = nativewebp.Encode(w, src, nil)
		} else {
			err = lossywebp.Encode(w, src, lossywebp.Options{
				Quality: o.WebPQuality,
				Method:  o.WebPEffort,
			})
		}
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", o.Format)
	}
	return nil
}

// EncodeBytes encodes img and returns the bytes.
func EncodeBytes(img image.Image, o Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save encodes img to path, creating parent directories as needed.
// An empty path writes to stdout.
func Save(path string, img image.Image, o Options) error {
	if path == "" {
		return Encode(os.Stdout, img, o)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := Encode(w, img, o); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

var (
	magicPNG  = []byte{0x89, 0x50, 0x4E, 0x47}
	magicJPEG = []byte{0xFF, 0xD8}
	magicRIFF = []byte("RIFF")
	magicWEBP = []byte("WEBP")
)

// Sniff reports the format of data from its magic bytes.
func Sniff(data []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(data, magicPNG):
		return FormatPNG, true
	case bytes.HasPrefix(data, magicJPEG):
		return FormatJPEG, true
	case len(data) >= 12 && bytes.Equal(data[:4], magicRIFF) && bytes.Equal(data[8:12], magicWEBP):
		return FormatWebP, true
	}
	return 0, false
}

// DefaultMaxPixels is the largest image Decode accepts: a zoom 5 panorama.
const DefaultMaxPixels = 16384 * 8192

// Decode detects the image format and decodes data into an RGB raster.
// Malformed or unrecognized input, or an image declaring more than
// DefaultMaxPixels pixels, yields an ErrCodeDecode error.
func Decode(data []byte) (*raster.RGB, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit is Decode with an explicit pixel budget, checked against the
// image header before any pixels are decoded. maxPixels <= 0 disables the
// check.
func DecodeLimit(data []byte, maxPixels int) (*raster.RGB, error) {
	format, ok := Sniff(data)
	if !ok {
		return nil, errors.New(errors.ErrCodeDecode, "unrecognized image format")
	}

	if maxPixels > 0 {
		cfg, err := decodeConfig(format, data)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s header", format)
		}
		if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
			return nil, errors.New(errors.ErrCodeDecode, "%s image is %dx%d, limit is %d pixels",
				format, cfg.Width, cfg.Height, maxPixels)
		}
	}

	var (
		img image.Image
		err error
	)
	r := bytes.NewReader(data)
	switch format {
	case FormatPNG:
		img, err = png.Decode(r)
	case FormatJPEG:
		img, err = jpeg.Decode(r)
	case FormatWebP:
		img, err = webp.Decode(r)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", format)
	}
	return raster.FromImage(img), nil
}

func decodeConfig(format Format, data []byte) (image.Config, error) {
	r := bytes.NewReader(data)
	switch format {
	case FormatPNG:
		return png.DecodeConfig(r)
	case FormatJPEG:
		return jpeg.DecodeConfig(r)
	default:
		return webp.DecodeConfig(r)
	}
}

// ReadFile reads and decodes an image file. I/O failures are returned as-is
// so callers can tell them apart from malformed input.
func ReadFile(path string) (*raster.RGB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
