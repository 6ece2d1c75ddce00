package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/panostitch/internal/config"
	"github.com/kiesman99/panostitch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the panorama API",
	Long: `Start an HTTP server that provides a REST API for panorama downloads,
view extraction and border trimming.

Examples:
  # Start server on default port 8080
  panostitch serve

  # Start server on custom port
  panostitch serve --port 3000

  # Start server with custom bind address, allowing 8 parallel downloads
  panostitch serve --bind 0.0.0.0 --port 8080 --max-downloads 8`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "", "bind address (default localhost)")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on (default 8080)")
	serveCmd.Flags().Duration("timeout", 0, "request timeout (default 2m)")
	serveCmd.Flags().Int("max-downloads", 0, "panorama downloads running at once (default 4)")

	// Bind flags to viper
	viper.BindPFlag(config.KeyServerBind, serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag(config.KeyServerPort, serveCmd.Flags().Lookup("port"))
	viper.BindPFlag(config.KeyServerTimeout, serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag(config.KeyServerDownloads, serveCmd.Flags().Lookup("max-downloads"))
}

func runServe(cmd *cobra.Command, args []string) error {
	st, cfg, err := newStitcher(cmd, nil)
	if err != nil {
		return err
	}

	logger := loggerFromContext(cmd.Context())
	addr := fmt.Sprintf("%s:%d", cfg.Server.Bind, cfg.Server.Port)

	apiServer := server.NewServer(version, st, int64(cfg.Server.MaxDownloads), logger)

	// Slow upstream tiles can hold a response until the request timeout;
	// leave headroom for writing the image.
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.NewRouter(apiServer, cfg.Server.Timeout),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout + 30*time.Second,
	}

	// Graceful shutdown
	go func() {
		<-cmd.Context().Done()

		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "err", err)
		}
	}()

	logger.Info("Starting panostitch server", "addr", addr)
	logger.Info("Health check", "url", fmt.Sprintf("http://%s/api/v1/health", addr))
	logger.Info("Panorama endpoint", "url", fmt.Sprintf("http://%s/api/v1/panoramas/{panoId}", addr))

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
