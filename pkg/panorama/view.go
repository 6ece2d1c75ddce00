package panorama

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/raster"
	"github.com/kiesman99/panostitch/pkg/tile"
)

// View defaults.
const (
	DefaultFOV  = 90.0
	DefaultZoom = 3

	// MaxViewSize bounds each side of a resized view. It is the width of a
	// zoom 5 panorama.
	MaxViewSize = 16384
)

// Direction is a named heading relative to the panorama's origin.
type Direction int

const (
	Front Direction = iota
	Right
	Back
	Left
)

var directionNames = [...]string{"front", "right", "back", "left"}

// Directions lists every preset in clockwise order.
func Directions() []Direction {
	return []Direction{Front, Right, Back, Left}
}

// Heading returns the direction in degrees.
func (d Direction) Heading() float64 {
	return float64(d) * 90
}

func (d Direction) String() string {
	if d >= 0 && int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}

// ParseDirection parses "front", "right", "back" or "left".
func ParseDirection(s string) (Direction, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range directionNames {
		if n == name {
			return Direction(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidParameter, "unknown direction %q (expected front, right, back or left)", s)
}

// ViewConfig describes one perspective view of a panorama. Width and Height
// are either both zero, meaning the crop is returned at native resolution, or
// both positive.
type ViewConfig struct {
	Heading float64 `json:"heading"`
	FOV     float64 `json:"fov"`
	Pitch   float64 `json:"pitch"`
	Width   int     `json:"width,omitempty"`
	Height  int     `json:"height,omitempty"`
	// Zoom selects the panorama resolution when the view is extracted by
	// panorama id.
	Zoom int `json:"zoom"`
}

// NewViewConfig returns a level view at heading with the default field of
// view and zoom.
func NewViewConfig(heading float64) ViewConfig {
	return ViewConfig{Heading: heading, FOV: DefaultFOV, Zoom: DefaultZoom}
}

// ViewForDirection returns the default view facing d.
func ViewForDirection(d Direction) ViewConfig {
	return NewViewConfig(d.Heading())
}

// WithSize returns a copy of c resized to width x height on extraction.
func (c ViewConfig) WithSize(width, height int) ViewConfig {
	c.Width, c.Height = width, height
	return c
}

// HasSize reports whether a target size was requested.
func (c ViewConfig) HasSize() bool {
	return c.Width > 0 && c.Height > 0
}

// Validate checks every field against its domain.
func (c ViewConfig) Validate() error {
	if c.Heading < 0 || c.Heading >= 360 {
		return errors.New(errors.ErrCodeInvalidParameter, "heading %g out of range [0, 360)", c.Heading)
	}
	if c.FOV <= 0 || c.FOV > 180 {
		return errors.New(errors.ErrCodeInvalidParameter, "field of view %g out of range (0, 180]", c.FOV)
	}
	if c.Pitch < -90 || c.Pitch > 90 {
		return errors.New(errors.ErrCodeInvalidParameter, "pitch %g out of range [-90, 90]", c.Pitch)
	}
	if c.Width < 0 || c.Height < 0 || (c.Width == 0) != (c.Height == 0) {
		return errors.New(errors.ErrCodeInvalidParameter, "target size %dx%d must be both zero or both positive", c.Width, c.Height)
	}
	if c.Width > MaxViewSize || c.Height > MaxViewSize {
		return errors.New(errors.ErrCodeInvalidParameter, "target size %dx%d exceeds %d pixels per side", c.Width, c.Height, MaxViewSize)
	}
	return tile.ValidateZoom(c.Zoom)
}

// CropWindow maps c onto a width x height equirectangular raster. The window
// is centered on the heading and pitch, clamped to the raster without
// wrapping across the 0/360 seam, and never smaller than 1x1.
func CropWindow(c ViewConfig, width, height int) image.Rectangle {
	W, H := float64(width), float64(height)

	cx := int(c.Heading / 360 * W)
	cy := int((90 - c.Pitch) / 180 * H)

	aspect := 1.0
	if c.HasSize() {
		aspect = float64(c.Width) / float64(c.Height)
	}
	halfH := c.FOV / 2
	halfV := halfH / aspect

	cropW := int(c.FOV * W / 360)
	cropH := int(2 * halfV * H / 180)

	x0, x1 := clampSpan(cx-cropW/2, cropW, width)
	y0, y1 := clampSpan(cy-cropH/2, cropH, height)
	return image.Rect(x0, y0, x1, y1)
}

// clampSpan clamps [start, start+length) into [0, limit) keeping at least one
// pixel.
func clampSpan(start, length, limit int) (lo, hi int) {
	lo = max(start, 0)
	hi = min(lo+length, limit)
	if hi <= lo {
		lo = min(lo, limit-1)
		hi = lo + 1
	}
	return lo, hi
}

// ExtractView crops the view described by c out of pano and, when c has a
// target size, resamples it to exactly that size with a Lanczos filter.
// pano is never modified; the result owns its pixels.
func ExtractView(pano *raster.RGB, c ViewConfig) (*raster.RGB, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return extract(pano, c)
}

// ExtractViews extracts every view in configs from the same panorama. All
// configs are validated before any pixels are touched.
func ExtractViews(pano *raster.RGB, configs []ViewConfig) ([]*raster.RGB, error) {
	if len(configs) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyResult, "no views requested")
	}
	for i, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, err, "view %d", i)
		}
	}

	views := make([]*raster.RGB, len(configs))
	for i, c := range configs {
		v, err := extract(pano, c)
		if err != nil {
			return nil, err
		}
		views[i] = v
	}
	return views, nil
}

func extract(pano *raster.RGB, c ViewConfig) (*raster.RGB, error) {
	if pano == nil || pano.Width() == 0 || pano.Height() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "empty panorama")
	}

	r := CropWindow(c, pano.Width(), pano.Height()).Add(pano.Rect.Min)
	if !c.HasSize() {
		return pano.Crop(r), nil
	}

	crop := pano.SubImage(r)
	return raster.FromImage(imaging.Resize(crop, c.Width, c.Height, imaging.Lanczos)), nil
}
