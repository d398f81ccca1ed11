package gar

import (
	"context"
	"time"
)

// TableHandle is one dump file inside a source: one table, one region.
type TableHandle struct {
	Name TableName
	// Region is empty for dictionary tables.
	Region string
	// Deleted marks removal files; they carry no loadable rows.
	Deleted bool
	// FileName is the path inside the source, for logging.
	FileName string
}

// TableList is a resolved source: the dump files grouped by table, ready to
// stream. Implementations live in internal/source.
type TableList interface {
	// Tables returns the handles grouped by table, regions in file order.
	Tables() map[TableName][]*TableHandle
	// Open streams the handle's records through the given filters. ver
	// seeds the context default for rows that do not carry their own.
	Open(h *TableHandle, ver int, filters FilterSet) (RecordIterator, error)
	// Ver is the dump version the source was resolved against, zero when
	// unknown.
	Ver() int
	// DumpDate is the date the source claims for itself, from its version
	// marker file or failing that from its file names.
	DumpDate() (time.Time, error)
	Close() error
}

// SourceResolver opens an archive or directory as a TableList.
type SourceResolver interface {
	// Resolve filters the source down to the wanted tables and regions.
	// ver may be zero when the version is not known yet; the importer then
	// maps the DumpDate to a version.
	Resolve(ctx context.Context, src string, ver int, regions []string, tables []TableName) (TableList, error)
	// List returns the immediate children of a directory of sources.
	List(ctx context.Context, dir string) ([]string, error)
}

// Downloader fetches dump archives over HTTP.
type Downloader interface {
	// Download fetches url into destDir and returns the local file path.
	// Interrupted transfers resume from the received byte count.
	Download(ctx context.Context, url, destDir string) (string, error)
}

// VersionClient fetches the published version list.
type VersionClient interface {
	FetchVersions(ctx context.Context) ([]*Version, error)
}
