package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiesman99/panostitch/pkg/codec"
	"github.com/kiesman99/panostitch/pkg/panorama"
)

var downloadCmd = &cobra.Command{
	Use:   "download <pano-id>",
	Short: "Download and stitch a full panorama",
	Long: `Download every tile of a panorama at the given zoom level and stitch them
into one equirectangular image of 2^zoom x 2^(zoom-1) tiles.

Examples:
  # 4096x2048 panorama as WebP
  panostitch download CAoSLEFGMVFpcE1 --zoom 3 -o pano.webp

  # Highest resolution, black padding removed, JPEG quality 95
  panostitch download CAoSLEFGMVFpcE1 --zoom 5 --trim -q 95 -o pano.jpg

  # Write PNG to stdout
  panostitch download CAoSLEFGMVFpcE1 -f png > pano.png`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	downloadCmd.Flags().IntP("zoom", "z", panorama.DefaultZoom, "zoom level (1-7)")
	downloadCmd.Flags().Bool("trim", false, "remove black borders from the bottom and right edges")
	downloadCmd.Flags().Bool("no-progress", false, "hide the progress bar")
	addOutputFlags(downloadCmd, "output file (default: stdout)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	panoID := args[0]
	zoom, _ := cmd.Flags().GetInt("zoom")
	trim, _ := cmd.Flags().GetBool("trim")
	output, _ := cmd.Flags().GetString("output")

	if err := checkStdout(output); err != nil {
		return err
	}
	opts, err := saveOptions(cmd, output, codec.FormatWebP)
	if err != nil {
		return err
	}

	bar, onTile := tileProgress(cmd, zoom)
	st, _, err := newStitcher(cmd, onTile)
	if err != nil {
		return err
	}

	logger := loggerFromContext(cmd.Context())
	prog := newProgress(logger)

	pano, err := st.Panorama(cmd.Context(), panoID, zoom, trim)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("download %s: %w", panoID, err)
	}

	if err := codec.Save(output, pano, opts); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Format, err)
	}

	if output != "" {
		prog.done(fmt.Sprintf("Wrote %dx%d panorama to %s", pano.Width(), pano.Height(), output))
	}
	return nil
}
