package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kiesman99/panostitch/pkg/codec"
	"github.com/kiesman99/panostitch/pkg/tile"
)

// addOutputFlags registers the flags shared by every command writing an image.
func addOutputFlags(cmd *cobra.Command, outputHelp string) {
	cmd.Flags().StringP("output", "o", "", outputHelp)
	cmd.Flags().StringP("format", "f", "", "output format (webp|jpeg|png); inferred from the output extension when unset")
	cmd.Flags().IntP("quality", "q", 0, "JPEG/WebP quality 1-100 (default 90 for JPEG, 85 for WebP; WebP 100 is lossless)")
	cmd.Flags().Int("effort", codec.DefaultWebPEffort, "WebP effort 0-6")
}

// saveOptions resolves the encoder settings for path. An explicit --format
// wins over the extension; with neither, fallback is used.
func saveOptions(cmd *cobra.Command, path string, fallback codec.Format) (codec.Options, error) {
	opts := codec.DefaultOptions()
	opts.Format = fallback

	if name, _ := cmd.Flags().GetString("format"); name != "" {
		f, err := codec.ParseFormat(name)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	} else if f, ok := codec.FormatFromPath(path); ok {
		opts.Format = f
	}

	if cmd.Flags().Changed("quality") {
		q, _ := cmd.Flags().GetInt("quality")
		opts.JPEGQuality = q
		opts.WebPQuality = q
	}
	opts.WebPEffort, _ = cmd.Flags().GetInt("effort")

	return opts, opts.Validate()
}

// checkStdout refuses to write binary image data to a terminal.
func checkStdout(path string) error {
	if path == "" && term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("didn't specify output file and standard output is a terminal")
	}
	return nil
}

// suffixedPath inserts _suffix before the extension of path and forces ext,
// e.g. ("out/pano.jpg", "front", ".jpg") -> "out/pano_front.jpg".
func suffixedPath(path, suffix, ext string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + "_" + suffix + ext
}

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (width, height int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q must be WIDTHxHEIGHT", s)
	}
	width, err = strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in size %q: %v", s, err)
	}
	height, err = strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in size %q: %v", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", s)
	}
	return width, height, nil
}

// tileProgress returns a progress bar sized for the tile grid at zoom, and
// the fetcher callback driving it. Both are nil when hidden.
func tileProgress(cmd *cobra.Command, zoom int) (*progressbar.ProgressBar, func(done, total int)) {
	hide, _ := cmd.Flags().GetBool("no-progress")
	if hide || verbose {
		return nil, nil
	}
	w, h, err := tile.GridDims(zoom)
	if err != nil {
		return nil, nil
	}

	bar := progressbar.NewOptions(w*h,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("tiles"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
	return bar, func(int, int) { bar.Add(1) }
}
