package codec

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/raster"
)

func gradient(w, h int) *raster.RGB {
	img := raster.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGB(x, y, uint8(x*7), uint8(y*11), uint8(x+y))
		}
	}
	return img
}

func TestLosslessRoundTrip(t *testing.T) {
	src := gradient(17, 9)

	for _, format := range []Format{FormatPNG, FormatWebP} {
		t.Run(format.String(), func(t *testing.T) {
			opts := DefaultOptions().WithFormat(format)
			opts.WebPQuality = 100
			data, err := EncodeBytes(src, opts)
			require.NoError(t, err)

			got, ok := Sniff(data)
			require.True(t, ok, "Sniff failed on encoded %s", format)
			assert.Equal(t, format, got)

			decoded, err := Decode(data)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(src.Pix, decoded.Pix), "%s round trip changed pixels", format)
		})
	}
}

func TestWebPQualitySelectsEncoding(t *testing.T) {
	src := gradient(64, 32)
	opts := DefaultOptions()

	lossless := opts
	lossless.WebPQuality = 100
	losslessData, err := EncodeBytes(src, lossless)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(prefix(losslessData, 40), []byte("VP8L")), "quality 100 should be lossless")

	for _, effort := range []int{0, 6} {
		lossy := opts
		lossy.WebPQuality = 20
		lossy.WebPEffort = effort
		data, err := EncodeBytes(src, lossy)
		require.NoError(t, err, "effort %d", effort)

		got, ok := Sniff(data)
		require.True(t, ok)
		assert.Equal(t, FormatWebP, got)
		assert.False(t, bytes.Contains(prefix(data, 40), []byte("VP8L")), "quality 20 should be lossy")

		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, 64, decoded.Width())
		assert.Equal(t, 32, decoded.Height())
	}
}

func prefix(data []byte, n int) []byte {
	return data[:min(n, len(data))]
}

// pngHeader returns the signature and IHDR chunk of a grayscale PNG declaring
// width x height, without any pixel data.
func pngHeader(width, height uint32) []byte {
	ihdr := make([]byte, 4+13)
	copy(ihdr, "IHDR")
	binary.BigEndian.PutUint32(ihdr[4:], width)
	binary.BigEndian.PutUint32(ihdr[8:], height)
	ihdr[12] = 8 // bit depth; color type, compression, filter and interlace are 0

	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(ihdr)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(ihdr))
	return buf.Bytes()
}

func TestDecodeRejectsOversizedImage(t *testing.T) {
	_, err := Decode(pngHeader(20000, 20000))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDecode), "got %v", err)
	assert.Contains(t, err.Error(), "20000x20000")

	data, err := EncodeBytes(gradient(4, 4), DefaultOptions().WithFormat(FormatPNG))
	require.NoError(t, err)

	_, err = DecodeLimit(data, 15)
	assert.True(t, errors.Is(err, errors.ErrCodeDecode), "4x4 over a 15 pixel budget: %v", err)

	img, err := DecodeLimit(data, 16)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width())

	_, err = DecodeLimit(data, 0)
	assert.NoError(t, err)
}

func TestJPEGKeepsDimensions(t *testing.T) {
	src := gradient(32, 16)
	opts := DefaultOptions().WithFormat(FormatJPEG)
	opts.JPEGQuality = 50

	data, err := EncodeBytes(src, opts)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 32, decoded.Width())
	assert.Equal(t, 16, decoded.Height())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := map[string][]byte{
		"empty":        nil,
		"text":         []byte("<html>rate limited</html>"),
		"truncatedPNG": append([]byte{0x89, 0x50, 0x4E, 0x47}, 0x00, 0x01),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeDecode), "got %v", err)
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	bad := []Options{
		{Format: FormatJPEG, JPEGQuality: 0, WebPQuality: 85, WebPEffort: 4},
		{Format: FormatWebP, JPEGQuality: 90, WebPQuality: 101, WebPEffort: 4},
		{Format: FormatWebP, JPEGQuality: 90, WebPQuality: 85, WebPEffort: 7},
		{Format: Format(42), JPEGQuality: 90, WebPQuality: 85, WebPEffort: 4},
	}
	for _, o := range bad {
		err := o.Validate()
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidParameter), "Validate(%+v) = %v", o, err)
	}
}

func TestParseFormat(t *testing.T) {
	got := map[string]Format{}
	for _, name := range []string{"webp", "JPG", "jpeg", " png "} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		got[name] = f
	}
	want := map[string]Format{"webp": FormatWebP, "JPG": FormatJPEG, "jpeg": FormatJPEG, " png ": FormatPNG}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseFormat mismatch (-want +got):\n%s", diff)
	}

	_, err := ParseFormat("gif")
	assert.Error(t, err)

	f, ok := FormatFromPath("out/front.jpg")
	assert.True(t, ok)
	assert.Equal(t, FormatJPEG, f)
	_, ok = FormatFromPath("out/front")
	assert.False(t, ok)
}

func TestSaveCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "pano.png")

	require.NoError(t, Save(path, gradient(4, 4), DefaultOptions().WithFormat(FormatPNG)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	f, ok := Sniff(data)
	assert.True(t, ok)
	assert.Equal(t, FormatPNG, f)

	img, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Width())
}
