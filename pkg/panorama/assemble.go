// Package panorama assembles fetched tiles into an equirectangular panorama
// and derives perspective views and border-trimmed rasters from it.
package panorama

import (
	"image"

	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/raster"
	"github.com/kiesman99/panostitch/pkg/tile"
)

// Assemble pastes every tile of the zoom grid at offset
// (x*tileWidth, y*tileHeight) of a new raster. The input order does not
// matter. Each grid address must appear exactly once, and every tile must be
// exactly tileWidth by tileHeight.
func Assemble(results []tile.Result, zoom, tileWidth, tileHeight int) (*raster.RGB, error) {
	cols, rows, err := tile.GridDims(zoom)
	if err != nil {
		return nil, err
	}
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "tile size %dx%d must be positive", tileWidth, tileHeight)
	}
	if len(results) != cols*rows {
		return nil, errors.New(errors.ErrCodeIncomplete, "got %d tiles, zoom %d needs %d", len(results), zoom, cols*rows)
	}

	seen := make([]bool, cols*rows)
	for _, r := range results {
		if !r.Address.Valid(zoom) {
			return nil, errors.New(errors.ErrCodeIncomplete, "tile %s outside the %dx%d grid", r.Address, cols, rows)
		}
		i := r.Y*cols + r.X
		if seen[i] {
			return nil, errors.New(errors.ErrCodeIncomplete, "tile %s supplied twice", r.Address)
		}
		seen[i] = true

		if r.Image == nil {
			return nil, errors.New(errors.ErrCodeIncomplete, "tile %s has no image", r.Address)
		}
		if w, h := r.Image.Width(), r.Image.Height(); w != tileWidth || h != tileHeight {
			return nil, errors.New(errors.ErrCodeDimensionMismatch, "tile %s is %dx%d, expected %dx%d",
				r.Address, w, h, tileWidth, tileHeight)
		}
	}

	pano := raster.New(cols*tileWidth, rows*tileHeight)
	for _, r := range results {
		pano.Paste(r.Image, image.Pt(r.X*tileWidth, r.Y*tileHeight))
	}
	return pano, nil
}
