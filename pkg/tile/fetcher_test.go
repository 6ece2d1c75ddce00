package tile

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/panostitch/pkg/codec"
	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/raster"
)

const testTileSize = 8

func tileBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGB(x, y, 200, uint8(x*10), uint8(y*10))
		}
	}
	data, err := codec.EncodeBytes(img, codec.DefaultOptions().WithFormat(codec.FormatPNG))
	require.NoError(t, err)
	return data
}

// fakeTransport serves tiles from a function keyed by URL and records calls.
type fakeTransport struct {
	mu       sync.Mutex
	calls    map[string]int
	respond  func(url string, call int) ([]byte, error)
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	hold     time.Duration
}

func newFakeTransport(respond func(url string, call int) ([]byte, error)) *fakeTransport {
	return &fakeTransport{calls: map[string]int{}, respond: respond}
}

func (f *fakeTransport) Get(ctx context.Context, url string) ([]byte, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxSeen.Load()
		if n <= cur || f.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls[url]++
	call := f.calls[url]
	f.mu.Unlock()

	if f.hold > 0 {
		select {
		case <-time.After(f.hold):
		case <-ctx.Done():
			return nil, errors.Wrap(errors.ErrCodeTransport, ctx.Err(), "GET %s", url)
		}
	}
	return f.respond(url, call)
}

func (f *fakeTransport) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeTransport) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// noSleep records the pauses requested by the fetcher without waiting.
type noSleep struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (s *noSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.pauses = append(s.pauses, d)
	s.mu.Unlock()
	return ctx.Err()
}

func testConfig(s *noSleep) Config {
	return Config{
		TileWidth:  testTileSize,
		TileHeight: testTileSize,
		Sleep:      s.Sleep,
	}
}

func singleRequest() []Request {
	return []Request{{Address: Address{X: 0, Y: 0}, URL: "tile://0/0"}}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	good := tileBytes(t, testTileSize, testTileSize)

	for failures := 0; failures <= DefaultMaxRetries; failures++ {
		s := &noSleep{}
		tr := newFakeTransport(func(url string, call int) ([]byte, error) {
			if call <= failures {
				return nil, errors.New(errors.ErrCodeTransport, "connection reset")
			}
			return good, nil
		})

		results, err := NewFetcher(tr, testConfig(s)).FetchAll(context.Background(), singleRequest())
		require.NoError(t, err, "failures=%d", failures)
		require.Len(t, results, 1)
		assert.Equal(t, failures+1, tr.Calls("tile://0/0"), "attempts with %d failures", failures)
		assert.Len(t, s.pauses, failures)
		for _, d := range s.pauses {
			assert.Equal(t, DefaultRetryDelay, d)
		}
	}
}

func TestFetchRetriesBodyReadFailure(t *testing.T) {
	good := tileBytes(t, testTileSize, testTileSize)
	s := &noSleep{}
	tr := newFakeTransport(func(url string, call int) ([]byte, error) {
		if call <= 3 {
			return nil, errors.Wrap(errors.ErrCodeBodyRead, io.ErrUnexpectedEOF, "read %s", url)
		}
		return good, nil
	})

	results, err := NewFetcher(tr, testConfig(s)).FetchAll(context.Background(), singleRequest())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, testTileSize, results[0].Image.Width())
	assert.Equal(t, 4, tr.Calls("tile://0/0"))
	assert.Len(t, s.pauses, 3)
}

func TestFetchBodyReadExhaustion(t *testing.T) {
	tr := newFakeTransport(func(url string, _ int) ([]byte, error) {
		return nil, errors.Wrap(errors.ErrCodeBodyRead, io.ErrUnexpectedEOF, "read %s", url)
	})

	_, err := NewFetcher(tr, testConfig(&noSleep{})).FetchAll(context.Background(), singleRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeRetryExhausted))
	assert.True(t, errors.Is(err, errors.ErrCodeBodyRead), "last cause should be kept: %v", err)
	assert.Equal(t, DefaultMaxRetries+1, tr.Calls("tile://0/0"))
}

func TestFetchGivesUpAfterSevenAttempts(t *testing.T) {
	s := &noSleep{}
	tr := newFakeTransport(func(string, int) ([]byte, error) {
		return nil, errors.New(errors.ErrCodeTransport, "HTTP 503")
	})

	results, err := NewFetcher(tr, testConfig(s)).FetchAll(context.Background(), singleRequest())
	require.Error(t, err)
	assert.Nil(t, results)
	assert.Equal(t, 7, tr.Calls("tile://0/0"))

	var fe *FetchError
	require.True(t, stderrors.As(err, &fe), "expected *FetchError, got %T", err)
	assert.Equal(t, Address{X: 0, Y: 0}, fe.Address)
	assert.Equal(t, 7, fe.Attempts)
	assert.True(t, errors.Is(err, errors.ErrCodeRetryExhausted))
	assert.True(t, errors.Is(err, errors.ErrCodeTransport))
}

func TestFetchRetriesUndecodableTile(t *testing.T) {
	good := tileBytes(t, testTileSize, testTileSize)
	s := &noSleep{}
	tr := newFakeTransport(func(_ string, call int) ([]byte, error) {
		if call == 1 {
			return []byte("<html>busy</html>"), nil
		}
		return good, nil
	})

	_, err := NewFetcher(tr, testConfig(s)).FetchAll(context.Background(), singleRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Calls("tile://0/0"))
}

func TestFetchWrongSizeIsDecodeFailure(t *testing.T) {
	small := tileBytes(t, testTileSize/2, testTileSize)
	s := &noSleep{}
	tr := newFakeTransport(func(string, int) ([]byte, error) { return small, nil })

	cfg := testConfig(s)
	cfg.MaxRetries = 2
	_, err := NewFetcher(tr, cfg).FetchAll(context.Background(), singleRequest())
	require.Error(t, err)
	assert.Equal(t, 3, tr.Calls("tile://0/0"))
	assert.True(t, errors.Is(err, errors.ErrCodeDecode), "got %v", err)
}

func TestFetchNonRetryableStopsImmediately(t *testing.T) {
	s := &noSleep{}
	tr := newFakeTransport(func(string, int) ([]byte, error) {
		return nil, errors.New(errors.ErrCodeInternal, "broken")
	})

	_, err := NewFetcher(tr, testConfig(s)).FetchAll(context.Background(), singleRequest())
	require.Error(t, err)
	assert.Equal(t, 1, tr.Calls("tile://0/0"))
	assert.Empty(t, s.pauses)
}

func TestFetchRespectsConcurrencyLimit(t *testing.T) {
	good := tileBytes(t, testTileSize, testTileSize)
	tr := newFakeTransport(func(string, int) ([]byte, error) { return good, nil })
	tr.hold = 5 * time.Millisecond

	reqs, err := Requests(Template("tile://{panoid}/{z}/{x}/{y}"), "p", 4)
	require.NoError(t, err)

	var progressCalls atomic.Int32
	cfg := testConfig(&noSleep{})
	cfg.Concurrency = 3
	cfg.Progress = func(done, total int) {
		progressCalls.Add(1)
		assert.LessOrEqual(t, done, total)
	}

	results, err := NewFetcher(tr, cfg).FetchAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, len(reqs))
	for i, r := range results {
		assert.Equal(t, reqs[i].Address, r.Address, "results keep request order")
	}
	assert.LessOrEqual(t, int(tr.maxSeen.Load()), 3)
	assert.Equal(t, int32(len(reqs)), progressCalls.Load())
}

func TestFetchDefaultConcurrency(t *testing.T) {
	good := tileBytes(t, testTileSize, testTileSize)
	tr := newFakeTransport(func(string, int) ([]byte, error) { return good, nil })
	tr.hold = 5 * time.Millisecond

	reqs, err := Requests(Template("tile://{panoid}/{z}/{x}/{y}"), "p", 3)
	require.NoError(t, err)

	_, err = NewFetcher(tr, testConfig(&noSleep{})).FetchAll(context.Background(), reqs)
	require.NoError(t, err)
	assert.LessOrEqual(t, int(tr.maxSeen.Load()), DefaultConcurrency)
}

func TestFetchFailureCancelsSiblings(t *testing.T) {
	good := tileBytes(t, testTileSize, testTileSize)
	tr := newFakeTransport(func(url string, _ int) ([]byte, error) {
		if url == "tile://p/3/0/0" {
			return nil, errors.New(errors.ErrCodeInternal, "fatal")
		}
		return good, nil
	})
	tr.hold = time.Millisecond

	reqs, err := Requests(Template("tile://{panoid}/{z}/{x}/{y}"), "p", 3)
	require.NoError(t, err)

	cfg := testConfig(&noSleep{})
	cfg.Concurrency = 1
	results, err := NewFetcher(tr, cfg).FetchAll(context.Background(), reqs)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, errors.ErrCodeInternal), "first tile error is returned, got %v", err)
	assert.Less(t, tr.Total(), len(reqs), "remaining tiles are not fetched")
}

func TestFetchHonorsCancellation(t *testing.T) {
	tr := newFakeTransport(func(string, int) ([]byte, error) {
		return nil, errors.New(errors.ErrCodeTransport, "unreachable")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{TileWidth: testTileSize, TileHeight: testTileSize, RetryDelay: time.Hour}

	done := make(chan error, 1)
	go func() {
		_, err := NewFetcher(tr, cfg).FetchAll(ctx, singleRequest())
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("FetchAll did not return after cancellation")
	}
}

func TestFetchEmptyRequests(t *testing.T) {
	_, err := NewFetcher(newFakeTransport(nil), Config{}).FetchAll(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeEmptyResult))
}

func TestConfigDefaults(t *testing.T) {
	f := NewFetcher(nil, Config{})
	assert.Equal(t, 7, f.MaxAttempts())
	w, h := f.TileSize()
	assert.Equal(t, DefaultSize, w)
	assert.Equal(t, DefaultSize, h)

	f = NewFetcher(nil, Config{MaxRetries: -1})
	assert.Equal(t, 1, f.MaxAttempts())
}
