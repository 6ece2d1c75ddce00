// Package tile enumerates the tile grid of a panorama and fetches its tiles
// with bounded concurrency and per-tile retry.
package tile

import (
	"fmt"

	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/raster"
)

// Zoom bounds and the native tile edge in pixels.
const (
	MinZoom = 1
	MaxZoom = 7

	DefaultSize = 512
)

// Address is the zero-based position of a tile in a panorama grid.
type Address struct {
	X int
	Y int
}

func (a Address) String() string {
	return fmt.Sprintf("(%d,%d)", a.X, a.Y)
}

// Request is an Address plus the locator the tile is fetched from.
type Request struct {
	Address
	URL string
}

// Result is a successfully fetched and decoded tile.
type Result struct {
	Address
	Image *raster.RGB
}

// ValidateZoom rejects zoom levels outside [MinZoom, MaxZoom].
func ValidateZoom(zoom int) error {
	if zoom < MinZoom || zoom > MaxZoom {
		return errors.New(errors.ErrCodeInvalidParameter, "zoom level %d out of range [%d, %d]", zoom, MinZoom, MaxZoom)
	}
	return nil
}

// GridDims returns the grid size in tiles: 2^zoom wide, 2^(zoom-1) high.
func GridDims(zoom int) (width, height int, err error) {
	if err := ValidateZoom(zoom); err != nil {
		return 0, 0, err
	}
	return 1 << zoom, 1 << (zoom - 1), nil
}

// Valid reports whether a lies inside the grid at zoom.
func (a Address) Valid(zoom int) bool {
	w, h, err := GridDims(zoom)
	return err == nil && a.X >= 0 && a.X < w && a.Y >= 0 && a.Y < h
}

// Enumerate lists every address of the grid in row-major order: (0,0) first,
// (width-1, height-1) last.
func Enumerate(zoom int) ([]Address, error) {
	w, h, err := GridDims(zoom)
	if err != nil {
		return nil, err
	}
	addrs := make([]Address, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			addrs = append(addrs, Address{X: x, Y: y})
		}
	}
	return addrs, nil
}

// Requests builds one Request per grid address of panoID at zoom.
func Requests(loc Locator, panoID string, zoom int) ([]Request, error) {
	addrs, err := Enumerate(zoom)
	if err != nil {
		return nil, err
	}
	reqs := make([]Request, len(addrs))
	for i, a := range addrs {
		reqs[i] = Request{Address: a, URL: loc.Locate(panoID, zoom, a.X, a.Y)}
	}
	return reqs, nil
}
