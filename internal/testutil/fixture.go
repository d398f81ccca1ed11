package testutil

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// Row is one XML element's attributes in a fixture dump file.
type Row map[string]string

// Archive assembles a fake registry dump: per-table XML files, optionally
// under region directories, plus a version.txt marker.
type Archive struct {
	t     *testing.T
	files map[string]string
}

func NewArchive(t *testing.T) *Archive {
	t.Helper()
	return &Archive{t: t, files: make(map[string]string)}
}

// SetVersionTxt writes the dump date marker, date formatted YYYY.MM.DD.
func (a *Archive) SetVersionTxt(date string) *Archive {
	a.files["version.txt"] = date + "\n"
	return a
}

// AddTable adds one dump file. rawName is the file-name table token, e.g.
// "HOUSES" or "ADDR_OBJ"; region is empty for dictionary tables; date is
// YYYYMMDD. Element and attribute names are uppercased as in real dumps.
func (a *Archive) AddTable(region, rawName, date string, rows []Row) *Archive {
	a.t.Helper()
	name := fmt.Sprintf("AS_%s_%s_%s.XML", strings.ToUpper(rawName), date, uuid.NewString())
	if region != "" {
		name = region + "/" + name
	}
	a.files[name] = renderXML(strings.ToUpper(rawName), rows)
	return a
}

// AddDeletedTable adds a removal-marked dump file with no loadable rows.
func (a *Archive) AddDeletedTable(region, rawName, date string, rows []Row) *Archive {
	a.t.Helper()
	name := fmt.Sprintf("AS_DEL_%s_%s_%s.XML", strings.ToUpper(rawName), date, uuid.NewString())
	if region != "" {
		name = region + "/" + name
	}
	a.files[name] = renderXML(strings.ToUpper(rawName), rows)
	return a
}

// AddFile adds a raw file, for broken-input cases.
func (a *Archive) AddFile(name, content string) *Archive {
	a.files[name] = content
	return a
}

// WriteZip packs the archive as a zip file under dir and returns its path.
func (a *Archive) WriteZip(dir, name string) string {
	a.t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		a.t.Fatalf("creating fixture zip: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, fileName := range a.sortedNames() {
		entry, err := w.Create(fileName)
		if err != nil {
			a.t.Fatalf("adding %s to fixture zip: %v", fileName, err)
		}
		if _, err := entry.Write([]byte(a.files[fileName])); err != nil {
			a.t.Fatalf("writing %s to fixture zip: %v", fileName, err)
		}
	}
	if err := w.Close(); err != nil {
		a.t.Fatalf("closing fixture zip: %v", err)
	}
	return path
}

// WriteDir lays the archive out as plain files under dir and returns dir.
func (a *Archive) WriteDir(dir string) string {
	a.t.Helper()
	for fileName, content := range a.files {
		path := filepath.Join(dir, filepath.FromSlash(fileName))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			a.t.Fatalf("creating fixture dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			a.t.Fatalf("writing fixture file %s: %v", fileName, err)
		}
	}
	return dir
}

func (a *Archive) sortedNames() []string {
	names := make([]string, 0, len(a.files))
	for name := range a.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// renderXML renders rows as the dumps do: one root element, one child
// element per row, all data in attributes.
func renderXML(element string, rows []Row) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString("<" + element + "S>\n")
	for _, row := range rows {
		b.WriteString("  <" + element)
		keys := make([]string, 0, len(row))
		for key := range row {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			b.WriteString(" " + strings.ToUpper(key) + `="` + attrEscaper.Replace(row[key]) + `"`)
		}
		b.WriteString(" />\n")
	}
	b.WriteString("</" + element + "S>\n")
	return b.String()
}

// attrEscaper escapes attribute values. Ampersands escape too, so a literal
// &quot; in a fixture value survives decoding as &quot;, the way real dumps
// double-escape quotes in names.
var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")
