package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/panostitch/internal/config"
	"github.com/kiesman99/panostitch/internal/stitch"
)

// version is reported by `panostitch --version` and the health endpoint.
const version = "1.0.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "panostitch",
	Short: "Download Street View panoramas and cut perspective views from them",
	Long: `panostitch downloads the tiles of a Street View panorama, stitches them
into one equirectangular image and extracts rectified perspective views.

Tiles are fetched in parallel with a fixed number of retries per tile. A
download either produces the full panorama or fails; partial panoramas are
never written.

Examples:
  # Download a panorama at zoom level 4 as JPEG
  panostitch download CAoSLEFGMVFpcE1 --zoom 4 -o pano.jpg

  # Extract a 640x480 view looking east, tilted slightly upward
  panostitch view CAoSLEFGMVFpcE1 --heading 90 --pitch 10 --fov 75 --size 640x480 -o east.jpg

  # Extract the four cardinal views from one download
  panostitch view CAoSLEFGMVFpcE1 --direction front,right,back,left -o views/pano.webp

  # Remove black padding from an existing panorama
  panostitch trim pano.jpg -o pano_trimmed.jpg

  # Start HTTP server
  panostitch serve --port 8080`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := charmlog.InfoLevel
		if verbose {
			level = charmlog.DebugLevel
		}
		logger := newLogger(os.Stderr, level)
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", "path", f)
		}
		cmd.SetContext(withLogger(cmd.Context(), logger))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.panostitch.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	// Tile source
	flags.StringP("url", "u", "", "tile URL template with {panoid}, {z}, {x}, {y} placeholders")
	flags.IntP("tilesize", "t", 0, "tile size in pixels")

	// Fetching
	flags.Int("concurrency", 0, "maximum tiles downloaded in parallel")
	flags.Int("retries", 0, "retries per tile after the first attempt")
	flags.Duration("retry-delay", 0, "pause between attempts of one tile")

	// HTTP options
	flags.Duration("http-timeout", 0, "timeout of one tile request")
	flags.String("user-agent", "", "HTTP User-Agent header")

	// Bind flags to viper. Unset flags fall through to the config file,
	// the environment and finally the defaults.
	viper.BindPFlag(config.KeyTileURL, flags.Lookup("url"))
	viper.BindPFlag(config.KeyTileSize, flags.Lookup("tilesize"))
	viper.BindPFlag(config.KeyFetchConcurrency, flags.Lookup("concurrency"))
	viper.BindPFlag(config.KeyFetchRetries, flags.Lookup("retries"))
	viper.BindPFlag(config.KeyFetchRetryDelay, flags.Lookup("retry-delay"))
	viper.BindPFlag(config.KeyHTTPTimeout, flags.Lookup("http-timeout"))
	viper.BindPFlag(config.KeyHTTPUserAgent, flags.Lookup("user-agent"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".panostitch" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".panostitch")
	}

	// PANOSTITCH_FETCH_RETRY_DELAY=500ms sets fetch.retry-delay.
	viper.SetEnvPrefix("panostitch")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || cfgFile != "" {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

// newStitcher loads the configuration and builds a Stitcher logging through
// the command's logger.
func newStitcher(cmd *cobra.Command, progress func(done, total int)) (*stitch.Stitcher, config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, config.Config{}, err
	}

	st, err := stitch.New(stitch.Options{
		Config:   cfg,
		Logger:   loggerFromContext(cmd.Context()),
		Progress: progress,
	})
	if err != nil {
		return nil, config.Config{}, err
	}
	return st, cfg, nil
}
