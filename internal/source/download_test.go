package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"gar-go/internal/gar"
)

const downloadPayload = "0123456789abcdefghijklmnopqrstuv"

// rangeServer serves downloadPayload with Range support, optionally cutting
// the first plain request short to force a resume.
func rangeServer(t *testing.T, truncateFirst bool) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	first := true

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		cut := truncateFirst && first
		first = false
		mu.Unlock()

		if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
			var offset int
			if _, err := fmt.Sscanf(rangeHeader, "bytes=%d-", &offset); err != nil {
				t.Errorf("bad range header %q: %v", rangeHeader, err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if offset >= len(downloadPayload) {
				w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
				return
			}
			w.Header().Set("Content-Length", strconv.Itoa(len(downloadPayload)-offset))
			w.WriteHeader(http.StatusPartialContent)
			w.Write([]byte(downloadPayload[offset:]))
			return
		}

		w.Header().Set("Content-Length", strconv.Itoa(len(downloadPayload)))
		if cut {
			// Fewer bytes than promised; the client sees a broken transfer.
			w.Write([]byte(downloadPayload[:10]))
			return
		}
		w.Write([]byte(downloadPayload))
	}))
	t.Cleanup(server.Close)
	return server
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestDownload(t *testing.T) {
	ctx := context.Background()

	t.Run("whole file in one go", func(t *testing.T) {
		server := rangeServer(t, false)
		d := NewHTTPDownloader(gar.NewNopLogger())

		dest, err := d.Download(ctx, server.URL+"/gar_xml.zip", t.TempDir())
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if filepath.Base(dest) != "gar_xml.zip" {
			t.Errorf("dest = %s, want named after the url", dest)
		}
		if got := readFile(t, dest); got != downloadPayload {
			t.Errorf("downloaded %q, want the full payload", got)
		}
	})

	t.Run("broken transfer resumes with a range request", func(t *testing.T) {
		server := rangeServer(t, true)
		d := NewHTTPDownloader(gar.NewNopLogger())

		dest, err := d.Download(ctx, server.URL+"/gar_delta_xml.zip", t.TempDir())
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if got := readFile(t, dest); got != downloadPayload {
			t.Errorf("downloaded %q, want the payload stitched back together", got)
		}
	})

	t.Run("complete partial file finishes without a body", func(t *testing.T) {
		server := rangeServer(t, false)
		d := NewHTTPDownloader(gar.NewNopLogger())

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "gar_xml.zip"), []byte(downloadPayload), 0o644); err != nil {
			t.Fatalf("seeding dest file: %v", err)
		}

		dest, err := d.Download(ctx, server.URL+"/gar_xml.zip", dir)
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if got := readFile(t, dest); got != downloadPayload {
			t.Errorf("file = %q, want left intact", got)
		}
	})

	t.Run("server ignoring the range restarts the file", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", strconv.Itoa(len(downloadPayload)))
			w.Write([]byte(downloadPayload))
		}))
		t.Cleanup(server.Close)
		d := NewHTTPDownloader(gar.NewNopLogger())

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "dump.zip"), []byte("stale partial"), 0o644); err != nil {
			t.Fatalf("seeding dest file: %v", err)
		}

		dest, err := d.Download(ctx, server.URL+"/dump.zip", dir)
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if got := readFile(t, dest); got != downloadPayload {
			t.Errorf("file = %q, want replaced by the fresh payload", got)
		}
	})

	t.Run("gives up after the retry budget", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)
		d := NewHTTPDownloader(gar.NewNopLogger())

		_, err := d.Download(ctx, server.URL+"/dump.zip", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "failed after") {
			t.Fatalf("Download() error = %v, want retry exhaustion", err)
		}
	})
}
