package imagefiles

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/sparsescene/internal/fsutil"
	"github.com/banshee-data/sparsescene/internal/security"
)

// lazyFile opens its backing file on first use so a registry over thousands
// of images does not hold thousands of descriptors.
type lazyFile struct {
	fsys fsutil.FileSystem
	path string
	f    fsutil.File
}

func (l *lazyFile) open() error {
	if l.f != nil {
		return nil
	}
	f, err := l.fsys.Open(l.path)
	if err != nil {
		return err
	}
	l.f = f
	return nil
}

func (l *lazyFile) Read(p []byte) (int, error) {
	if err := l.open(); err != nil {
		return 0, err
	}
	return l.f.Read(p)
}

func (l *lazyFile) Seek(offset int64, whence int) (int64, error) {
	if err := l.open(); err != nil {
		return 0, err
	}
	return l.f.Seek(offset, whence)
}

func (l *lazyFile) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

var _ io.ReadSeekCloser = (*lazyFile)(nil)

// FromDir registers a lazy source for every name that exists under dir.
// Names without a file, and names that would resolve outside dir, are left
// out so that the assembly stage reports them as unknown file names.
func FromDir(fsys fsutil.FileSystem, dir string, names []string) (*Registry, error) {
	reg := NewRegistry()
	missing := 0
	for _, name := range names {
		if err := security.ValidateRelativeName(name); err != nil {
			missing++
			opsf("skipping image file: %v", err)
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(name))
		if !fsys.Exists(path) {
			missing++
			opsf("image file %s not found", path)
			continue
		}
		if err := reg.Add(name, &lazyFile{fsys: fsys, path: path}); err != nil {
			return nil, fmt.Errorf("register %s: %w", path, err)
		}
	}
	diagf("registered %d of %d image files from %s (%d missing)", reg.Len(), len(names), dir, missing)
	return reg, nil
}
