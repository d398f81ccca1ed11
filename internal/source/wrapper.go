package source

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nwaples/rardecode/v2"

	"gar-go/internal/gar"
)

// wrapper gives uniform access to a dump source: a directory, a zip archive
// or a rar archive. Names are slash-separated paths relative to the root.
type wrapper interface {
	Names() []string
	Open(name string) (io.ReadCloser, error)
	Close() error
}

// openWrapper picks the wrapper for src by inspecting it.
func openWrapper(src string) (wrapper, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gar.ErrBadArchive, err)
	}
	if info.IsDir() {
		return newDirWrapper(src)
	}

	magic := make([]byte, 4)
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", gar.ErrBadArchive, err)
	}
	if _, err := io.ReadFull(f, magic); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading %s: %v", gar.ErrBadArchive, src, err)
	}
	f.Close()

	switch {
	case string(magic) == "Rar!":
		return newRarWrapper(src)
	case magic[0] == 'P' && magic[1] == 'K':
		return newZipWrapper(src)
	}
	return nil, fmt.Errorf("%w: %s is neither a zip nor a rar archive", gar.ErrBadArchive, src)
}

// dirWrapper reads an unpacked dump laid out on disk.
type dirWrapper struct {
	root  string
	names []string
}

func newDirWrapper(root string) (*dirWrapper, error) {
	var names []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walking %s: %v", gar.ErrBadArchive, root, err)
	}
	return &dirWrapper{root: root, names: names}, nil
}

func (w *dirWrapper) Names() []string { return w.names }

func (w *dirWrapper) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(w.root, filepath.FromSlash(name)))
}

func (w *dirWrapper) Close() error { return nil }

// zipWrapper reads a dump packed as a zip archive.
type zipWrapper struct {
	rc    *zip.ReadCloser
	names []string
}

func newZipWrapper(path string) (*zipWrapper, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", gar.ErrBadArchive, path, err)
	}
	names := make([]string, 0, len(rc.File))
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	return &zipWrapper{rc: rc, names: names}, nil
}

func (w *zipWrapper) Names() []string { return w.names }

func (w *zipWrapper) Open(name string) (io.ReadCloser, error) {
	return w.rc.Open(name)
}

func (w *zipWrapper) Close() error { return w.rc.Close() }

// rarWrapper reads the official dumps, which ship as rar archives. The
// format only streams, so each Open rescans the archive to the entry.
type rarWrapper struct {
	path  string
	names []string
}

func newRarWrapper(path string) (*rarWrapper, error) {
	names, err := rarNames(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", gar.ErrBadArchive, path, err)
	}
	return &rarWrapper{path: path, names: names}, nil
}

func rarNames(path string) ([]string, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var names []string
	for {
		header, err := r.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		if header.IsDir {
			continue
		}
		names = append(names, filepath.ToSlash(header.Name))
	}
}

func (w *rarWrapper) Names() []string { return w.names }

func (w *rarWrapper) Open(name string) (io.ReadCloser, error) {
	r, err := rardecode.OpenReader(w.path)
	if err != nil {
		return nil, err
	}
	for {
		header, err := r.Next()
		if err == io.EOF {
			r.Close()
			return nil, fmt.Errorf("%s not found in %s", name, w.path)
		}
		if err != nil {
			r.Close()
			return nil, err
		}
		if filepath.ToSlash(header.Name) == name {
			// Reads stop at the entry's end; Close releases the archive.
			return r, nil
		}
	}
}

func (w *rarWrapper) Close() error { return nil }
