package tile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kiesman99/panostitch/pkg/errors"
)

// Transport retrieves the raw bytes behind a tile URL. Implementations must
// be safe for many concurrent calls.
//
// Connection and status failures are reported with errors.ErrCodeTransport,
// failures while reading the body with errors.ErrCodeBodyRead.
type Transport interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// HTTPTransport is a Transport backed by a shared *http.Client.
type HTTPTransport struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// NewHTTPTransport creates a transport with the given per-attempt timeout,
// User-Agent and extra request headers. The system proxy is respected.
func NewHTTPTransport(timeout time.Duration, userAgent string, headers map[string]string) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 16,
			},
		},
		userAgent: userAgent,
		headers:   headers,
	}
}

// Get downloads url.
func (t *HTTPTransport) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "build request")
	}

	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransport, err, "GET %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(errors.ErrCodeTransport, &StatusError{Code: resp.StatusCode}, "GET %s", url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBodyRead, err, "read %s", url)
	}
	return data, nil
}

// StatusError is a non-200 HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}
