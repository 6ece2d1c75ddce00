package tile

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/kiesman99/panostitch/pkg/codec"
	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/raster"
)

// Fetch defaults.
const (
	DefaultConcurrency = 8
	DefaultMaxRetries  = 6
	DefaultRetryDelay  = 2 * time.Second
)

// Config configures a Fetcher. Zero fields take the defaults above; use a
// negative MaxRetries or RetryDelay to mean zero.
type Config struct {
	// Concurrency caps the number of tiles in flight for one FetchAll call.
	Concurrency int
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// RetryDelay is the fixed pause between attempts. There is no backoff.
	RetryDelay time.Duration
	// TileWidth and TileHeight are the expected decoded tile dimensions.
	TileWidth  int
	TileHeight int

	// Decode turns tile bytes into a raster. Defaults to codec.Decode.
	Decode func([]byte) (*raster.RGB, error)
	// Sleep pauses between attempts and returns early with ctx.Err() when
	// ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Progress, when set, is called after each tile succeeds.
	Progress func(done, total int)
	Logger   *log.Logger
}

func (c Config) withDefaults() Config {
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	switch {
	case c.RetryDelay == 0:
		c.RetryDelay = DefaultRetryDelay
	case c.RetryDelay < 0:
		c.RetryDelay = 0
	}
	if c.TileWidth <= 0 {
		c.TileWidth = DefaultSize
	}
	if c.TileHeight <= 0 {
		c.TileHeight = DefaultSize
	}
	if c.Decode == nil {
		c.Decode = codec.Decode
	}
	if c.Sleep == nil {
		c.Sleep = sleep
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchError is the terminal failure of one tile. Err is an
// errors.ErrCodeRetryExhausted error whose cause is the last attempt's
// transport, body-read or decode failure.
type FetchError struct {
	Address  Address
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("tile %s: %v", e.Address, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads and decodes the tiles of one panorama.
// A Fetcher is safe for concurrent use by multiple downloads.
type Fetcher struct {
	transport Transport
	cfg       Config
}

// NewFetcher creates a Fetcher that reads tiles through t.
func NewFetcher(t Transport, cfg Config) *Fetcher {
	return &Fetcher{transport: t, cfg: cfg.withDefaults()}
}

// TileSize returns the expected decoded tile dimensions.
func (f *Fetcher) TileSize() (width, height int) {
	return f.cfg.TileWidth, f.cfg.TileHeight
}

// MaxAttempts returns the total number of attempts made per tile.
func (f *Fetcher) MaxAttempts() int {
	return f.cfg.MaxRetries + 1
}

// FetchAll fetches every request with at most Concurrency tiles in flight.
// It returns one Result per request, in request order, or the first terminal
// tile error. The first failure cancels the remaining fetches; no partial
// result set is ever returned.
func (f *Fetcher) FetchAll(ctx context.Context, reqs []Request) ([]Result, error) {
	if len(reqs) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyResult, "no tiles requested")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)

	var (
		mu      sync.Mutex
		results = make(map[Address]*raster.RGB, len(reqs))
		done    atomic.Int64
		total   = len(reqs)
	)

	for _, req := range reqs {
		g.Go(func() error {
			img, err := f.fetch(gctx, req)
			if err != nil {
				return err
			}

			mu.Lock()
			results[req.Address] = img
			mu.Unlock()

			n := done.Add(1)
			if f.cfg.Progress != nil {
				f.cfg.Progress(int(n), total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(reqs))
	for _, req := range reqs {
		img, ok := results[req.Address]
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "tile %s missing after fetch", req.Address)
		}
		out = append(out, Result{Address: req.Address, Image: img})
	}
	return out, nil
}

// fetch runs the retry loop of a single tile:
// attempting(n) -> succeeded, or attempting(n) -> pause -> attempting(n+1),
// or attempting(MaxRetries+1) -> failed.
func (f *Fetcher) fetch(ctx context.Context, req Request) (*raster.RGB, error) {
	logger := f.cfg.Logger.With("tile", req.Address.String())
	maxAttempts := f.MaxAttempts()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := f.attempt(ctx, req)
		if err == nil {
			logger.Debug("tile fetched", "attempt", attempt)
			return img, nil
		}

		// A cancelled context surfaces as a transport failure from the
		// client; report the cancellation instead of retrying.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Retryable(err) {
			return nil, err
		}

		if attempt >= maxAttempts {
			logger.Warn("giving up on tile", "attempts", attempt, "err", err)
			return nil, &FetchError{
				Address:  req.Address,
				URL:      req.URL,
				Attempts: attempt,
				Err:      errors.Wrap(errors.ErrCodeRetryExhausted, err, "gave up after %d attempts", attempt),
			}
		}

		logger.Debug("retrying tile", "attempt", attempt, "delay", f.cfg.RetryDelay, "err", err)
		if err := f.cfg.Sleep(ctx, f.cfg.RetryDelay); err != nil {
			return nil, err
		}
	}
}

// attempt performs one fetch-and-decode. Wrong tile dimensions count as a
// decode failure.
func (f *Fetcher) attempt(ctx context.Context, req Request) (*raster.RGB, error) {
	data, err := f.transport.Get(ctx, req.URL)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeTransport, err, "GET %s", req.URL)
		}
		return nil, err
	}

	img, err := f.cfg.Decode(data)
	if err != nil {
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeDecode, err, "decode tile")
		}
		return nil, err
	}

	if img.Width() != f.cfg.TileWidth || img.Height() != f.cfg.TileHeight {
		return nil, errors.New(errors.ErrCodeDecode, "wrong tile size: got %dx%d, expected %dx%d",
			img.Width(), img.Height(), f.cfg.TileWidth, f.cfg.TileHeight)
	}
	return img, nil
}
