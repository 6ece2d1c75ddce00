package tile

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiesman99/panostitch/pkg/errors"
)

func TestHTTPTransportGet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "panostitch-test" {
			t.Errorf("User-Agent = %q, expected panostitch-test", ua)
		}
		if ref := r.Header.Get("Referer"); ref != "https://example.com" {
			t.Errorf("Referer = %q", ref)
		}
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("tile-bytes"))
		default:
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}
	}))
	defer ts.Close()

	tr := NewHTTPTransport(5*time.Second, "panostitch-test", map[string]string{"Referer": "https://example.com"})

	data, err := tr.Get(context.Background(), ts.URL+"/ok")
	if err != nil {
		t.Fatalf("Get(/ok) error: %v", err)
	}
	if string(data) != "tile-bytes" {
		t.Errorf("Get(/ok) = %q", data)
	}

	_, err = tr.Get(context.Background(), ts.URL+"/missing")
	if !errors.Is(err, errors.ErrCodeTransport) {
		t.Fatalf("Get(/missing) error = %v, expected TRANSPORT_FAILURE", err)
	}
	var se *StatusError
	if !stderrors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Errorf("expected StatusError 503, got %v", err)
	}
}

func TestHTTPTransportUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	tr := NewHTTPTransport(time.Second, "", nil)
	if _, err := tr.Get(context.Background(), url); !errors.Is(err, errors.ErrCodeTransport) {
		t.Errorf("Get on closed server = %v, expected TRANSPORT_FAILURE", err)
	}
}

func TestHTTPTransportTruncatedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("0123456789"))
		w.(http.Flusher).Flush()

		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("Hijack: %v", err)
			return
		}
		conn.Close()
	}))
	defer ts.Close()

	tr := NewHTTPTransport(5*time.Second, "", nil)
	_, err := tr.Get(context.Background(), ts.URL)
	if !errors.Is(err, errors.ErrCodeBodyRead) {
		t.Fatalf("Get on truncated body = %v, expected BODY_READ_FAILURE", err)
	}
	if !errors.Retryable(err) {
		t.Errorf("body-read failure should be retryable")
	}
}
