package gar

import (
	"context"
	"time"
)

// BatchResult reports what a batched insert managed to commit.
type BatchResult struct {
	// Inserted counts rows committed, possibly across split sub-batches.
	Inserted int
	// Dropped holds the records whose singleton insert still failed.
	Dropped []Record
	// MaxDepth is the deepest split level reached while isolating failures.
	MaxDepth int
}

// Store persists registry rows, versions and watermarks.
// Lookup methods return (nil, nil) when the row does not exist.
type Store interface {
	// Version bookkeeping

	UpsertVersion(ctx context.Context, v *Version) error
	GetVersion(ctx context.Context, ver int) (*Version, error)
	LatestVersion(ctx context.Context) (*Version, error)
	// NearestVersionByDate returns the version dumped exactly on date, or
	// failing that the earliest version dumped after it.
	NearestVersionByDate(ctx context.Context, date time.Time) (*Version, error)
	// VersionsAfter returns versions with ver > after, ascending.
	VersionsAfter(ctx context.Context, after int) ([]*Version, error)

	// Watermarks

	GetStatus(ctx context.Context, table TableName, region *string) (*Status, error)
	SetStatus(ctx context.Context, s *Status) error
	DeleteStatuses(ctx context.Context, table TableName) error
	ListStatuses(ctx context.Context) ([]*Status, error)
	// MinStatusVersion returns the least watermark over the given tables,
	// with ok=false when none of them has one.
	MinStatusVersion(ctx context.Context, tables []TableName) (int, bool, error)
	CountStatuses(ctx context.Context) (int, error)

	// Row storage

	// InsertBatch commits records atomically, splitting on failure to
	// isolate bad rows. It never fails the whole batch for a data error;
	// uninsertable records come back in BatchResult.Dropped.
	InsertBatch(ctx context.Context, def *TableDef, recs []Record) (*BatchResult, error)
	// GetUpdateDate returns the stored updatedate for a primary key,
	// with ok=false when the row does not exist.
	GetUpdateDate(ctx context.Context, def *TableDef, pk int64) (time.Time, bool, error)
	UpdateRecord(ctx context.Context, def *TableDef, rec Record) error
	Truncate(ctx context.Context, def *TableDef) error

	// Cleanup, run after each dump is fully applied

	// UpdateTreeVer propagates versions from referring tables onto the
	// tree_ver of the object tables they reference, for refs at or above
	// minVer.
	UpdateTreeVer(ctx context.Context, tables []TableName, minVer int) error
	// RemoveNotActive deletes rows with isactive false from the given tables.
	RemoveNotActive(ctx context.Context, tables []TableName) error
	// RemoveOrphans deletes referring rows whose key matches no row in any
	// of the table's ref targets.
	RemoveOrphans(ctx context.Context, tables []TableName) error

	// ActiveTypeIDs returns the ids of active rows in a dictionary table.
	ActiveTypeIDs(ctx context.Context, def *TableDef) (map[int64]bool, error)

	// ListHouseParams returns house params of the given type ids with
	// ver >= minVer, restricted to regions when non-empty.
	ListHouseParams(ctx context.Context, typeIDs []int, minVer int, regions []string) ([]*HouseParam, error)

	// Index management around bulk loads

	DropIndexes(ctx context.Context) error
	RestoreIndexes(ctx context.Context) error

	Close() error
}
