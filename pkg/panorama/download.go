package panorama

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/raster"
	"github.com/kiesman99/panostitch/pkg/tile"
)

// Downloader fetches whole panoramas by id and extracts views from them.
// It holds no per-download state and may be shared by concurrent callers.
type Downloader struct {
	fetcher *tile.Fetcher
	locator tile.Locator
	logger  *log.Logger
}

// NewDownloader creates a Downloader. A nil logger discards output.
func NewDownloader(f *tile.Fetcher, loc tile.Locator, logger *log.Logger) *Downloader {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Downloader{fetcher: f, locator: loc, logger: logger}
}

// Download fetches every tile of panoID at zoom and assembles them. The zoom
// and id are checked before any network I/O. On failure no panorama is
// returned.
func (d *Downloader) Download(ctx context.Context, panoID string, zoom int) (*raster.RGB, error) {
	if strings.TrimSpace(panoID) == "" {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "panorama id is empty")
	}
	reqs, err := tile.Requests(d.locator, panoID, zoom)
	if err != nil {
		return nil, err
	}

	logger := d.logger.With("pano", panoID, "zoom", zoom)
	logger.Debug("fetching tiles", "count", len(reqs))
	start := time.Now()

	results, err := d.fetcher.FetchAll(ctx, reqs)
	if err != nil {
		return nil, err
	}

	tw, th := d.fetcher.TileSize()
	pano, err := Assemble(results, zoom, tw, th)
	if err != nil {
		return nil, err
	}

	logger.Info("panorama downloaded",
		"size", pano.Rect.Size().String(),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return pano, nil
}

// View downloads panoID at c.Zoom and extracts one view.
func (d *Downloader) View(ctx context.Context, panoID string, c ViewConfig) (*raster.RGB, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	pano, err := d.Download(ctx, panoID, c.Zoom)
	if err != nil {
		return nil, err
	}
	return extract(pano, c)
}

// Views downloads panoID once, at the zoom of the first config, and extracts
// every view from it. Later configs' zoom values are validated but otherwise
// ignored.
func (d *Downloader) Views(ctx context.Context, panoID string, configs []ViewConfig) ([]*raster.RGB, error) {
	if len(configs) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyResult, "no views requested")
	}
	for i, c := range configs {
		if err := c.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, err, "view %d", i)
		}
	}

	pano, err := d.Download(ctx, panoID, configs[0].Zoom)
	if err != nil {
		return nil, err
	}
	return ExtractViews(pano, configs)
}
