package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kiesman99/panostitch/internal/stitch"
	"github.com/kiesman99/panostitch/pkg/codec"
)

var trimCmd = &cobra.Command{
	Use:   "trim <image>",
	Short: "Remove black borders from a stitched panorama",
	Long: `Remove near-black padding from the bottom and right edges of an image.
Top and left edges are never touched. No network access is needed.

Examples:
  panostitch trim pano.jpg                  # writes pano_trimmed.jpg
  panostitch trim pano.jpg -o clean.webp`,
	Args: cobra.ExactArgs(1),
	RunE: runTrim,
}

func init() {
	rootCmd.AddCommand(trimCmd)

	addOutputFlags(trimCmd, "output file (default: <image>_trimmed.<ext>)")
}

func runTrim(cmd *cobra.Command, args []string) error {
	input := args[0]
	output, _ := cmd.Flags().GetString("output")

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	// Keep the input's format unless told otherwise.
	fallback, ok := codec.Sniff(data)
	if !ok {
		fallback = codec.FormatWebP
	}
	if output == "" {
		ext := filepath.Ext(input)
		if _, known := codec.FormatFromPath(input); !known {
			ext = fallback.Extension()
		}
		output = suffixedPath(input, "trimmed", ext)
	}

	opts, err := saveOptions(cmd, output, fallback)
	if err != nil {
		return err
	}

	logger := loggerFromContext(cmd.Context())
	prog := newProgress(logger)

	// Local files are trusted; any size the machine can hold is fine.
	img, err := stitch.Trim(data, 0)
	if err != nil {
		return fmt.Errorf("trim %s: %w", input, err)
	}
	if err := codec.Save(output, img, opts); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	prog.done(fmt.Sprintf("Wrote %dx%d image to %s", img.Width(), img.Height(), output))
	return nil
}
