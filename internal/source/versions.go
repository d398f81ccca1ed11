package source

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"gar-go/internal/gar"
)

// DefaultVersionListURL is the official endpoint publishing the dump list.
const DefaultVersionListURL = "https://fias.nalog.ru/WebServices/Public/GetAllDownloadFileInfo"

// versionInfo is one entry of the published version list.
type versionInfo struct {
	VersionID     int    `json:"VersionId"`
	TextVersion   string `json:"TextVersion"`
	GarXMLFullURL string `json:"GarXMLFullURL"`
	GarXMLDelta   string `json:"GarXMLDeltaURL"`
}

// VersionListClient fetches the published dump versions.
type VersionListClient struct {
	client *resty.Client
	url    string
}

var _ gar.VersionClient = (*VersionListClient)(nil)

func NewVersionListClient(url string) *VersionListClient {
	if url == "" {
		url = DefaultVersionListURL
	}
	client := resty.New()
	client.SetTimeout(time.Minute)
	client.SetRetryCount(2)
	return &VersionListClient{client: client, url: url}
}

func (c *VersionListClient) FetchVersions(ctx context.Context) ([]*gar.Version, error) {
	var infos []versionInfo
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&infos).
		Get(c.url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("version list request failed: %s", resp.Status())
	}

	versions := make([]*gar.Version, 0, len(infos))
	for _, info := range infos {
		date, err := parseTextVersionDate(info.TextVersion)
		if err != nil {
			return nil, fmt.Errorf("version %d: %w", info.VersionID, err)
		}
		v := &gar.Version{Ver: info.VersionID, DumpDate: date}
		if info.GarXMLFullURL != "" {
			u := info.GarXMLFullURL
			v.CompleteXMLURL = &u
		}
		if info.GarXMLDelta != "" {
			u := info.GarXMLDelta
			v.DeltaXMLURL = &u
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// parseTextVersionDate extracts the date from a TextVersion string, which
// always ends with it as DD.MM.YYYY.
func parseTextVersionDate(text string) (time.Time, error) {
	if len(text) < 10 {
		return time.Time{}, fmt.Errorf("text version %q carries no date", text)
	}
	date, err := time.Parse("02.01.2006", text[len(text)-10:])
	if err != nil {
		return time.Time{}, fmt.Errorf("text version %q carries no date: %w", text, err)
	}
	return date, nil
}
