package gar

import (
	"errors"
	"fmt"
)

// ErrBadTable marks a dump file whose contents cannot be parsed. The file is
// abandoned; whether the run continues depends on the skip-bad flag.
var ErrBadTable = errors.New("bad table file")

// ErrBadArchive marks an archive that cannot be opened or listed.
var ErrBadArchive = errors.New("bad archive")

// TableListError reports a source that yields no usable table list.
type TableListError struct {
	Src string
	Err error
}

func (e *TableListError) Error() string {
	return fmt.Sprintf("no tables found in %s: %v", e.Src, e.Err)
}

func (e *TableListError) Unwrap() error { return e.Err }

// NoFileForVersionError reports a gap in a manual update directory: a version
// newer than the watermark has no matching archive.
type NoFileForVersionError struct {
	Ver int
}

func (e *NoFileForVersionError) Error() string {
	return fmt.Sprintf("no file for version %d", e.Ver)
}
