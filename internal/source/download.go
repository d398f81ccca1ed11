package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/go-resty/resty/v2"

	"gar-go/internal/gar"
)

// defaultDownloadRetries is how many times a transfer is resumed before
// giving up.
const defaultDownloadRetries = 5

// HTTPDownloader fetches dump archives, resuming interrupted transfers with
// Range requests.
type HTTPDownloader struct {
	client  *resty.Client
	log     gar.Logger
	retries int
}

var _ gar.Downloader = (*HTTPDownloader)(nil)

func NewHTTPDownloader(log gar.Logger) *HTTPDownloader {
	client := resty.New()
	// Bodies are streamed straight to disk.
	client.SetDoNotParseResponse(true)
	return &HTTPDownloader{client: client, log: log, retries: defaultDownloadRetries}
}

// Download fetches rawURL into destDir, named after the URL's last path
// segment, and returns the local path. A partial file left by an earlier
// attempt is continued, not restarted.
func (d *HTTPDownloader) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("bad download url %q: %w", rawURL, err)
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		name = "gar-dump"
	}
	if destDir == "" {
		destDir = os.TempDir()
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(destDir, name)

	var lastErr error
	for attempt := 0; attempt < d.retries; attempt++ {
		done, err := d.fetch(ctx, rawURL, dest)
		if err == nil && done {
			return dest, nil
		}
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			d.log.Warn("download interrupted, retrying", "url", rawURL, "attempt", attempt+1, "error", err)
		}
	}
	return "", fmt.Errorf("download of %s failed after %d attempts: %w", rawURL, d.retries, lastErr)
}

// fetch makes one transfer attempt, appending to whatever dest already has.
// done is true when the server reports the file complete.
func (d *HTTPDownloader) fetch(ctx context.Context, rawURL, dest string) (done bool, err error) {
	var offset int64
	if info, err := os.Stat(dest); err == nil {
		offset = info.Size()
	}

	req := d.client.R().SetContext(ctx)
	if offset > 0 {
		req.SetHeader("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	resp, err := req.Get(rawURL)
	if err != nil {
		return false, err
	}
	body := resp.RawBody()
	defer body.Close()

	switch resp.StatusCode() {
	case http.StatusOK:
		// Server ignored the range; restart from scratch.
		offset = 0
	case http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		// Already have the whole file.
		return true, nil
	default:
		return false, fmt.Errorf("unexpected status %s", resp.Status())
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	written, err := io.Copy(f, body)
	if err != nil {
		return false, fmt.Errorf("after %d bytes: %w", offset+written, err)
	}
	if length := resp.RawResponse.ContentLength; length > 0 && written < length {
		return false, fmt.Errorf("short read: got %d of %d bytes", written, length)
	}
	return true, nil
}
