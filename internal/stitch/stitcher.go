// Package stitch wires configuration into the tile pipeline and exposes the
// operations shared by the CLI and the HTTP server.
package stitch

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/kiesman99/panostitch/internal/config"
	"github.com/kiesman99/panostitch/pkg/codec"
	"github.com/kiesman99/panostitch/pkg/panorama"
	"github.com/kiesman99/panostitch/pkg/raster"
	"github.com/kiesman99/panostitch/pkg/tile"
)

// Options configures a Stitcher.
type Options struct {
	Config config.Config
	Logger *log.Logger
	// Progress is called after each tile of a download succeeds.
	Progress func(done, total int)
	// Transport overrides the HTTP tile client.
	Transport tile.Transport
}

// Stitcher downloads panoramas and renders views from them.
type Stitcher struct {
	downloader *panorama.Downloader
	logger     *log.Logger
}

// Result is an encoded image ready to be written out.
type Result struct {
	ImageData   []byte
	Width       int
	Height      int
	ContentType string
}

// New builds a Stitcher from opts. The configuration is validated first.
func New(opts Options) (*Stitcher, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	transport := opts.Transport
	if transport == nil {
		c := opts.Config.HTTP
		transport = tile.NewHTTPTransport(c.Timeout, c.UserAgent, c.Headers)
	}

	fc := opts.Config.FetchConfig()
	fc.Logger = logger
	fc.Progress = opts.Progress

	return &Stitcher{
		downloader: panorama.NewDownloader(tile.NewFetcher(transport, fc), opts.Config.Tile.URL, logger),
		logger:     logger,
	}, nil
}

// Panorama downloads panoID at zoom, optionally trimming black borders.
func (s *Stitcher) Panorama(ctx context.Context, panoID string, zoom int, trim bool) (*raster.RGB, error) {
	pano, err := s.downloader.Download(ctx, panoID, zoom)
	if err != nil {
		return nil, err
	}
	if trim {
		trimmed := panorama.TrimBorders(pano)
		if trimmed != pano {
			s.logger.Debug("trimmed black border",
				"from", pano.Rect.Size().String(), "to", trimmed.Rect.Size().String())
		}
		pano = trimmed
	}
	return pano, nil
}

// View downloads panoID and extracts one view.
func (s *Stitcher) View(ctx context.Context, panoID string, c panorama.ViewConfig) (*raster.RGB, error) {
	return s.downloader.View(ctx, panoID, c)
}

// Views downloads panoID once and extracts every view.
func (s *Stitcher) Views(ctx context.Context, panoID string, configs []panorama.ViewConfig) ([]*raster.RGB, error) {
	return s.downloader.Views(ctx, panoID, configs)
}

// Trim decodes an image, trims its black borders and returns the raster.
// Images declaring more than maxPixels pixels are rejected before decoding;
// maxPixels <= 0 accepts any size.
func Trim(data []byte, maxPixels int) (*raster.RGB, error) {
	img, err := codec.DecodeLimit(data, maxPixels)
	if err != nil {
		return nil, err
	}
	return panorama.TrimBorders(img), nil
}

// Encode encodes img with opts.
func Encode(img *raster.RGB, opts codec.Options) (*Result, error) {
	data, err := codec.EncodeBytes(img, opts)
	if err != nil {
		return nil, err
	}
	return &Result{
		ImageData:   data,
		Width:       img.Width(),
		Height:      img.Height(),
		ContentType: opts.Format.ContentType(),
	}, nil
}
