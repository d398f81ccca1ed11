package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gar-go/internal/gar"
)

// fileNamePattern matches dump file names like
// 99/AS_HOUSES_20221125_f0f35c19-...-....XML, with an optional region
// directory and an optional DEL_ marker.
var fileNamePattern = regexp.MustCompile(
	`(?i)^(?:(?P<region>\d{2})/)?as_(?P<deleted>del_)?(?P<name>[a-z_]+)_(?P<date>\d+)_(?P<uuid>[a-z0-9-]{36})\.xml$`)

// versionMarker is the file at the archive root naming the dump date.
const versionMarker = "version.txt"

// parsedName is one dump file name taken apart.
type parsedName struct {
	Table   gar.TableName
	Region  string
	Deleted bool
	Date    string
}

// parseFileName decomposes a dump file name. ok is false for files that are
// not table dumps or belong to tables we do not track.
func parseFileName(name string) (parsedName, bool) {
	match := fileNamePattern.FindStringSubmatch(name)
	if match == nil {
		return parsedName{}, false
	}
	table, known := gar.ParseTableName(strings.ToLower(match[fileNamePattern.SubexpIndex("name")]))
	if !known {
		return parsedName{}, false
	}
	return parsedName{
		Table:   table,
		Region:  match[fileNamePattern.SubexpIndex("region")],
		Deleted: match[fileNamePattern.SubexpIndex("deleted")] != "",
		Date:    match[fileNamePattern.SubexpIndex("date")],
	}, true
}

// tableList is a resolved source, implementing gar.TableList.
type tableList struct {
	src     string
	wrapper wrapper
	ver     int
	handles map[gar.TableName][]*gar.TableHandle
	// dates holds the raw YYYYMMDD strings seen in file names, for dump
	// date inference when version.txt is missing.
	dates []string
}

// Resolver opens archives and directories as table lists.
type Resolver struct {
	Log gar.Logger
}

var _ gar.SourceResolver = (*Resolver)(nil)

func NewResolver(log gar.Logger) *Resolver {
	return &Resolver{Log: log}
}

// Resolve scans src and keeps the dump files matching the wanted tables and
// regions. A source with no usable files at all is a TableListError.
func (r *Resolver) Resolve(ctx context.Context, src string, ver int, regions []string, tables []gar.TableName) (gar.TableList, error) {
	w, err := openWrapper(src)
	if err != nil {
		return nil, &gar.TableListError{Src: src, Err: err}
	}

	wantedTables := make(map[gar.TableName]bool, len(tables))
	for _, name := range tables {
		wantedTables[name] = true
	}
	wantedRegions := make(map[string]bool, len(regions))
	for _, region := range regions {
		wantedRegions[region] = true
	}

	list := &tableList{
		src:     src,
		wrapper: w,
		ver:     ver,
		handles: make(map[gar.TableName][]*gar.TableHandle),
	}
	total := 0
	for _, name := range w.Names() {
		parsed, ok := parseFileName(name)
		if !ok {
			continue
		}
		list.dates = append(list.dates, parsed.Date)
		if len(wantedTables) > 0 && !wantedTables[parsed.Table] {
			continue
		}
		if parsed.Region != "" && len(wantedRegions) > 0 && !wantedRegions[parsed.Region] {
			continue
		}
		list.handles[parsed.Table] = append(list.handles[parsed.Table], &gar.TableHandle{
			Name:     parsed.Table,
			Region:   parsed.Region,
			Deleted:  parsed.Deleted,
			FileName: name,
		})
		total++
	}
	if total == 0 {
		w.Close()
		return nil, &gar.TableListError{Src: src, Err: errors.New("no table files matched")}
	}
	for _, handles := range list.handles {
		sort.Slice(handles, func(i, j int) bool { return handles[i].FileName < handles[j].FileName })
	}
	if r.Log != nil {
		r.Log.Debug("source resolved", "src", src, "files", total)
	}
	return list, nil
}

// List returns the immediate children of a directory, sorted by name.
func (r *Resolver) List(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing sources in %s: %w", dir, err)
	}
	children := make([]string, 0, len(entries))
	for _, entry := range entries {
		children = append(children, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(children)
	return children, nil
}

func (l *tableList) Tables() map[gar.TableName][]*gar.TableHandle { return l.handles }

func (l *tableList) Ver() int { return l.ver }

func (l *tableList) Open(h *gar.TableHandle, ver int, filters gar.FilterSet) (gar.RecordIterator, error) {
	if h.Deleted {
		return gar.NewEmptyIterator(), nil
	}
	rc, err := l.wrapper.Open(h.FileName)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", h.FileName, err)
	}
	ctx := gar.Context{Ver: ver, Region: h.Region}
	return gar.NewXMLIterator(gar.Tables[h.Name], rc, ctx, filters), nil
}

// DumpDate reads version.txt, which names the dump date as YYYY.MM.DD, and
// falls back to the newest date embedded in the file names.
func (l *tableList) DumpDate() (time.Time, error) {
	if rc, err := l.wrapper.Open(versionMarker); err == nil {
		raw, err := io.ReadAll(io.LimitReader(rc, 64))
		rc.Close()
		if err == nil {
			text := strings.TrimSpace(string(raw))
			if date, err := time.Parse("2006.01.02", text); err == nil {
				return date, nil
			}
		}
	}

	latest := ""
	for _, date := range l.dates {
		if len(date) == 8 && date > latest {
			latest = date
		}
	}
	if latest == "" {
		return time.Time{}, fmt.Errorf("cannot infer dump date of %s", l.src)
	}
	date, err := time.Parse("20060102", latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot infer dump date of %s: %w", l.src, err)
	}
	return date, nil
}

func (l *tableList) Close() error { return l.wrapper.Close() }
