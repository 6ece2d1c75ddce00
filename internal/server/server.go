package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/kiesman99/panostitch/internal/api"
	"github.com/kiesman99/panostitch/internal/stitch"
	"github.com/kiesman99/panostitch/pkg/codec"
	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/panorama"
	"github.com/kiesman99/panostitch/pkg/raster"
	"github.com/kiesman99/panostitch/pkg/tile"
)

// Request body limits.
const (
	maxUploadSize   = 64 << 20 // trim endpoint image
	maxViewsBody    = 1 << 20  // views endpoint JSON
	maxViewsPerCall = 16
)

// Server implements the ServerInterface from the API package
type Server struct {
	startTime time.Time
	version   string
	stitcher  *stitch.Stitcher
	downloads *semaphore.Weighted
	logger    *log.Logger
}

// NewServer creates a new server instance. At most maxDownloads panorama
// downloads run at once across all requests.
func NewServer(version string, st *stitch.Stitcher, maxDownloads int64, logger *log.Logger) *Server {
	if maxDownloads <= 0 {
		maxDownloads = 1
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{
		startTime: time.Now(),
		version:   version,
		stitcher:  st,
		downloads: semaphore.NewWeighted(maxDownloads),
		logger:    logger,
	}
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// GetPanorama downloads and returns a full panorama
func (s *Server) GetPanorama(w http.ResponseWriter, r *http.Request, panoId string, params api.GetPanoramaParams) {
	requestID := requestIDFrom(r)

	opts, err := codecOptions(params.Format, params.Quality)
	if err != nil {
		s.handleError(w, r, err, requestID)
		return
	}
	zoom := valueOr(params.Zoom, panorama.DefaultZoom)
	if err := tile.ValidateZoom(zoom); err != nil {
		s.handleError(w, r, err, requestID)
		return
	}

	var pano *raster.RGB
	err = s.withDownload(r.Context(), func(ctx context.Context) error {
		var err error
		pano, err = s.stitcher.Panorama(ctx, panoId, zoom, valueOr(params.Trim, false))
		return err
	})
	if err != nil {
		s.handleError(w, r, err, requestID)
		return
	}

	s.writeImage(w, pano, opts, requestID)
}

// GetView downloads a panorama and returns one perspective view of it
func (s *Server) GetView(w http.ResponseWriter, r *http.Request, panoId string, params api.GetViewParams) {
	requestID := requestIDFrom(r)

	opts, err := codecOptions(params.Format, params.Quality)
	if err != nil {
		s.handleError(w, r, err, requestID)
		return
	}

	cfg := panorama.ViewConfig{
		Heading: params.Heading,
		FOV:     valueOr(params.Fov, panorama.DefaultFOV),
		Pitch:   valueOr(params.Pitch, 0),
		Width:   valueOr(params.Width, 0),
		Height:  valueOr(params.Height, 0),
		Zoom:    valueOr(params.Zoom, panorama.DefaultZoom),
	}
	if err := cfg.Validate(); err != nil {
		s.handleError(w, r, err, requestID)
		return
	}

	var view *raster.RGB
	err = s.withDownload(r.Context(), func(ctx context.Context) error {
		var err error
		view, err = s.stitcher.View(ctx, panoId, cfg)
		return err
	})
	if err != nil {
		s.handleError(w, r, err, requestID)
		return
	}

	s.writeImage(w, view, opts, requestID)
}

// CreateViews downloads a panorama once and renders every requested view
func (s *Server) CreateViews(w http.ResponseWriter, r *http.Request, panoId string) {
	requestID := requestIDFrom(r)

	var req api.CreateViewsJSONRequestBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxViewsBody)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "INVALID_BODY",
				"Request body too large", &requestID, nil)
			return
		}
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	opts, err := codecOptions(req.Format, req.Quality)
	if err != nil {
		s.handleError(w, r, err, requestID)
		return
	}

	zoom := valueOr(req.Zoom, panorama.DefaultZoom)
	configs, err := viewConfigs(req.Views, zoom)
	if err != nil {
		s.handleError(w, r, err, requestID)
		return
	}

	var views []*raster.RGB
	err = s.withDownload(r.Context(), func(ctx context.Context) error {
		var err error
		views, err = s.stitcher.Views(ctx, panoId, configs)
		return err
	})
	if err != nil {
		s.handleError(w, r, err, requestID)
		return
	}

	response := api.ViewsResponse{
		PanoId:    panoId,
		RequestId: &requestID,
		Zoom:      zoom,
		Views:     make([]api.RenderedView, len(views)),
	}
	for i, v := range views {
		res, err := stitch.Encode(v, opts)
		if err != nil {
			s.handleError(w, r, err, requestID)
			return
		}
		response.Views[i] = api.RenderedView{
			ContentType: res.ContentType,
			Data:        res.ImageData,
			Direction:   req.Views[i].Direction,
			Heading:     configs[i].Heading,
			Width:       res.Width,
			Height:      res.Height,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

// TrimImage trims black borders from an uploaded image. The output keeps the
// input's format unless one is requested.
func (s *Server) TrimImage(w http.ResponseWriter, r *http.Request, params api.TrimImageParams) {
	requestID := requestIDFrom(r)

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "INVALID_BODY",
			"Request body could not be read", &requestID, nil)
		return
	}

	if params.Format == nil {
		if f, ok := codec.Sniff(data); ok {
			name := api.ImageFormat(f.String())
			params.Format = &name
		}
	}
	opts, err := codecOptions(params.Format, nil)
	if err != nil {
		s.handleError(w, r, err, requestID)
		return
	}

	img, err := stitch.Trim(data, codec.DefaultMaxPixels)
	if err != nil {
		// A bad upload is the client's fault, not an upstream failure.
		if errors.Is(err, errors.ErrCodeDecode) {
			err = errors.Wrap(errors.ErrCodeInvalidParameter, err, "body is not a supported image")
		}
		s.handleError(w, r, err, requestID)
		return
	}

	s.writeImage(w, img, opts, requestID)
}

// withDownload runs fn while holding one download slot.
func (s *Server) withDownload(ctx context.Context, fn func(context.Context) error) error {
	if err := s.downloads.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.downloads.Release(1)
	return fn(ctx)
}

func viewConfigs(specs []api.ViewSpec, zoom int) ([]panorama.ViewConfig, error) {
	if len(specs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "views must not be empty")
	}
	if len(specs) > maxViewsPerCall {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "at most %d views per request, got %d", maxViewsPerCall, len(specs))
	}

	configs := make([]panorama.ViewConfig, len(specs))
	for i, spec := range specs {
		var cfg panorama.ViewConfig
		switch {
		case spec.Direction != nil:
			d, err := panorama.ParseDirection(*spec.Direction)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidParameter, err, "views[%d]", i)
			}
			cfg = panorama.ViewForDirection(d)
		case spec.Heading != nil:
			cfg = panorama.NewViewConfig(*spec.Heading)
		default:
			return nil, errors.New(errors.ErrCodeInvalidParameter, "views[%d]: direction or heading is required", i)
		}

		cfg.Zoom = zoom
		cfg.FOV = valueOr(spec.Fov, cfg.FOV)
		cfg.Pitch = valueOr(spec.Pitch, cfg.Pitch)
		cfg.Width = valueOr(spec.Width, 0)
		cfg.Height = valueOr(spec.Height, 0)
		configs[i] = cfg
	}
	return configs, nil
}

func codecOptions(format *api.ImageFormat, quality *int) (codec.Options, error) {
	opts := codec.DefaultOptions()
	if format != nil {
		f, err := codec.ParseFormat(string(*format))
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	if quality != nil {
		opts.JPEGQuality = *quality
		opts.WebPQuality = *quality
	}
	return opts, opts.Validate()
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Server) writeImage(w http.ResponseWriter, img *raster.RGB, opts codec.Options, requestID string) {
	res, err := stitch.Encode(img, opts)
	if err != nil {
		s.logger.Error("encoding response", "request_id", requestID, "err", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, string(errors.ErrCodeInternal),
			"Failed to encode image", &requestID, nil)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("X-Image-Width", strconv.Itoa(res.Width))
	w.Header().Set("X-Image-Height", strconv.Itoa(res.Height))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.ImageData)))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.ImageData); err != nil {
		s.logger.Warn("writing response", "request_id", requestID, "err", err)
	}
}

// statusFor maps a pipeline error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case stderrors.Is(err, context.Canceled):
		return 499, "CANCELED"
	case errors.Is(err, errors.ErrCodeInvalidParameter), errors.Is(err, errors.ErrCodeEmptyResult):
		return http.StatusBadRequest, string(errors.GetCode(err))
	}

	switch code := errors.GetCode(err); code {
	case errors.ErrCodeRetryExhausted,
		errors.ErrCodeTransport,
		errors.ErrCodeBodyRead,
		errors.ErrCodeDecode,
		errors.ErrCodeDimensionMismatch,
		errors.ErrCodeIncomplete:
		return http.StatusBadGateway, string(code)
	}
	return http.StatusInternalServerError, string(errors.ErrCodeInternal)
}

// handleError writes the response for a failed operation
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error, requestID string) {
	status, code := statusFor(err)

	var details map[string]interface{}
	var fe *tile.FetchError
	if stderrors.As(err, &fe) {
		details = map[string]interface{}{
			"tile":     fe.Address.String(),
			"url":      fe.URL,
			"attempts": fe.Attempts,
		}
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	logger := s.logger.With("request_id", requestID, "path", r.URL.Path, "status", status)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	} else {
		logger.Debug("request rejected", "err", err)
	}

	s.writeErrorResponse(w, status, code, message, &requestID, details)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	s.writeJSON(w, statusCode, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding JSON response", "err", err)
	}
}
