package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
)

func csvServer(t *testing.T, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(sampleCSV))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testLoader(path, url string) *Loader {
	l := NewLoader(path, url, 5*time.Second)
	l.Logger, _ = log.NewTestLogger(log.LevelDebug)
	return l
}

func TestLoaderDownloadsWhenMissing(t *testing.T) {
	var hits int32
	srv := csvServer(t, http.StatusOK, &hits)
	path := filepath.Join(t.TempDir(), DefaultPath)

	l := testLoader(path, srv.URL)
	frame, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if frame.Len() != 3 {
		t.Errorf("Len() = %d, want 3", frame.Len())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	if string(data) != sampleCSV {
		t.Error("cached file is not the verbatim response body")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected 1 request, got %d", hits)
	}
}

func TestLoaderUsesCache(t *testing.T) {
	var hits int32
	srv := csvServer(t, http.StatusOK, &hits)
	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	l := testLoader(path, srv.URL)
	downloaded, err := l.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if downloaded {
		t.Error("Ensure reported a download for a cached file")
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Errorf("expected no requests, got %d", hits)
	}
}

func TestLoaderHTTPError(t *testing.T) {
	var hits int32
	srv := csvServer(t, http.StatusNotFound, &hits)
	path := filepath.Join(t.TempDir(), DefaultPath)

	l := testLoader(path, srv.URL)
	_, err := l.Load(context.Background())

	var de *errors.DownloadError
	if !errors.As(err, &de) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if de.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", de.StatusCode)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed download must not leave a cached file")
	}
}

func TestLoaderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	l := testLoader(filepath.Join(t.TempDir(), DefaultPath), url)
	_, err := l.Ensure(context.Background())

	var de *errors.DownloadError
	if !errors.As(err, &de) {
		t.Fatalf("expected DownloadError, got %v", err)
	}
	if de.Err == nil {
		t.Error("expected a transport cause")
	}
}
