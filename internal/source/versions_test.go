package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchVersions(t *testing.T) {
	t.Run("parses the published list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"VersionId": 20221129, "TextVersion": "BETA версия от 29.11.2022",
				 "GarXMLFullURL": "https://dumps/full_29.zip", "GarXMLDeltaURL": "https://dumps/delta_29.zip"},
				{"VersionId": 20221125, "TextVersion": "BETA версия от 25.11.2022",
				 "GarXMLFullURL": "https://dumps/full_25.zip", "GarXMLDeltaURL": ""}
			]`))
		}))
		t.Cleanup(server.Close)

		versions, err := NewVersionListClient(server.URL).FetchVersions(context.Background())
		if err != nil {
			t.Fatalf("FetchVersions() error = %v", err)
		}
		if len(versions) != 2 {
			t.Fatalf("got %d versions, want 2", len(versions))
		}

		first := versions[0]
		if first.Ver != 20221129 {
			t.Errorf("ver = %d, want 20221129", first.Ver)
		}
		if !first.DumpDate.Equal(time.Date(2022, 11, 29, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("dumpdate = %v, want 2022-11-29", first.DumpDate)
		}
		if first.CompleteXMLURL == nil || *first.CompleteXMLURL != "https://dumps/full_29.zip" {
			t.Errorf("complete url = %v", first.CompleteXMLURL)
		}
		if first.DeltaXMLURL == nil || *first.DeltaXMLURL != "https://dumps/delta_29.zip" {
			t.Errorf("delta url = %v", first.DeltaXMLURL)
		}

		// An empty url string means the dump is not offered.
		if versions[1].DeltaXMLURL != nil {
			t.Errorf("delta url = %v, want nil", versions[1].DeltaXMLURL)
		}
	})

	t.Run("server error surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(server.Close)

		if _, err := NewVersionListClient(server.URL).FetchVersions(context.Background()); err == nil {
			t.Fatal("FetchVersions() error = nil, want failure status")
		}
	})

	t.Run("unparseable text version surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"VersionId": 1, "TextVersion": "no date here"}]`))
		}))
		t.Cleanup(server.Close)

		if _, err := NewVersionListClient(server.URL).FetchVersions(context.Background()); err == nil {
			t.Fatal("FetchVersions() error = nil, want date parse failure")
		}
	})
}

func TestParseTextVersionDate(t *testing.T) {
	t.Parallel()

	date, err := parseTextVersionDate("BETA версия от 25.11.2022")
	if err != nil {
		t.Fatalf("parseTextVersionDate() error = %v", err)
	}
	if !date.Equal(time.Date(2022, 11, 25, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, want 2022-11-25", date)
	}

	for _, text := range []string{"", "short", "ends with words not a date"} {
		if _, err := parseTextVersionDate(text); err == nil {
			t.Errorf("parseTextVersionDate(%q) error = nil, want failure", text)
		}
	}
}
