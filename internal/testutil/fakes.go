package testutil

import (
	"context"
	"errors"

	"gar-go/internal/gar"
)

// StubVersionClient serves a canned version list.
type StubVersionClient struct {
	Versions []*gar.Version
	Err      error
}

func (c *StubVersionClient) FetchVersions(ctx context.Context) ([]*gar.Version, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Versions, nil
}

// StubDownloader maps URLs to local paths prepared by the test.
type StubDownloader struct {
	Files map[string]string
}

func (d *StubDownloader) Download(ctx context.Context, url, destDir string) (string, error) {
	if path, ok := d.Files[url]; ok {
		return path, nil
	}
	return "", errors.New("no stub file for " + url)
}
