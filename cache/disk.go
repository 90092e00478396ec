package cache

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DiskStore keeps one file per entry in a directory.
//
// Files are written to a temporary name and renamed, so readers never see a
// partial entry. Expiry is enforced by the Cache, not by the store.
type DiskStore struct {
	dir string
}

var _ Store = (*DiskStore)(nil)

// NewDiskStore returns a store in dir, an empty dir means a "pal" folder in the
// user cache directory.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "pal")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %q: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory of the store.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%x", sha1.Sum([]byte(key))))
}

func (s *DiskStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	content, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return content, true, nil
}

func (s *DiskStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return err
	}
	_, err = f.Write(value)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), s.path(key))
}
