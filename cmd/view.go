package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kiesman99/panostitch/pkg/codec"
	"github.com/kiesman99/panostitch/pkg/panorama"
)

var viewCmd = &cobra.Command{
	Use:   "view <pano-id>",
	Short: "Extract perspective views from a panorama",
	Long: `Extract one or more rectified views from a panorama.

A view is centered on --heading (0-360, 0 is the left edge of the panorama)
and --pitch (-90 looking down to 90 looking up) and spans --fov degrees
horizontally. Without --size the crop is written at native resolution.

With --direction, one view per named direction is written next to the output
path, e.g. -o out/pano.jpg --direction front,back writes out/pano_front.jpg
and out/pano_back.jpg. The panorama is downloaded only once.

Examples:
  panostitch view CAoSLEFGMVFpcE1 --heading 180 --fov 60 --size 800x600 -o south.jpg
  panostitch view CAoSLEFGMVFpcE1 --direction front,right,back,left --size 512x512 -o views/pano.webp`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().Float64("heading", 0, "view heading in degrees [0, 360)")
	viewCmd.Flags().Float64("fov", panorama.DefaultFOV, "horizontal field of view in degrees (0, 180]")
	viewCmd.Flags().Float64("pitch", 0, "view pitch in degrees [-90, 90]")
	viewCmd.Flags().String("size", "", "resize the view to WIDTHxHEIGHT")
	viewCmd.Flags().IntP("zoom", "z", panorama.DefaultZoom, "zoom level of the source panorama (1-7)")
	viewCmd.Flags().StringSliceP("direction", "d", nil, "preset directions (front,right,back,left); overrides --heading")
	viewCmd.Flags().Bool("no-progress", false, "hide the progress bar")
	addOutputFlags(viewCmd, "output file; with --direction, the base name for every view (required)")
	viewCmd.MarkFlagRequired("output")
}

// namedView pairs a view with the suffix of its output file.
type namedView struct {
	name string
	cfg  panorama.ViewConfig
}

// viewsFromFlags builds the requested views. Every view shares fov, pitch,
// size and zoom.
func viewsFromFlags(cmd *cobra.Command) ([]namedView, error) {
	flags := cmd.Flags()
	heading, _ := flags.GetFloat64("heading")
	fov, _ := flags.GetFloat64("fov")
	pitch, _ := flags.GetFloat64("pitch")
	zoom, _ := flags.GetInt("zoom")
	size, _ := flags.GetString("size")
	directions, _ := flags.GetStringSlice("direction")

	base := panorama.NewViewConfig(heading)
	base.FOV = fov
	base.Pitch = pitch
	base.Zoom = zoom
	if size != "" {
		w, h, err := parseSize(size)
		if err != nil {
			return nil, err
		}
		base = base.WithSize(w, h)
	}

	if len(directions) == 0 {
		if err := base.Validate(); err != nil {
			return nil, err
		}
		return []namedView{{cfg: base}}, nil
	}

	views := make([]namedView, 0, len(directions))
	seen := map[panorama.Direction]bool{}
	for _, name := range directions {
		d, err := panorama.ParseDirection(name)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true

		cfg := base
		cfg.Heading = d.Heading()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		views = append(views, namedView{name: d.String(), cfg: cfg})
	}
	return views, nil
}

func runView(cmd *cobra.Command, args []string) error {
	panoID := args[0]
	output, _ := cmd.Flags().GetString("output")

	views, err := viewsFromFlags(cmd)
	if err != nil {
		return err
	}
	opts, err := saveOptions(cmd, output, codec.FormatWebP)
	if err != nil {
		return err
	}

	bar, onTile := tileProgress(cmd, views[0].cfg.Zoom)
	st, _, err := newStitcher(cmd, onTile)
	if err != nil {
		return err
	}

	logger := loggerFromContext(cmd.Context())
	prog := newProgress(logger)

	configs := make([]panorama.ViewConfig, len(views))
	for i, v := range views {
		configs[i] = v.cfg
	}
	images, err := st.Views(cmd.Context(), panoID, configs)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("view %s: %w", panoID, err)
	}

	for i, img := range images {
		path := output
		if views[i].name != "" {
			path = suffixedPath(output, views[i].name, opts.Format.Extension())
		}
		if err := codec.Save(path, img, opts); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Debug("wrote view", "path", path, "heading", configs[i].Heading,
			"size", img.Rect.Size().String())
	}

	prog.done(fmt.Sprintf("Wrote %d view(s) of %s", len(images), panoID))
	return nil
}
