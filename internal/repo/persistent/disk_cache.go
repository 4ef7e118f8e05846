package persistent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/andreyxaxa/Image-Cache/pkg/types/errs"
)

// pathHashLen must stay at 10 so existing cache directories remain valid.
const pathHashLen = 10

var errBadCacheName = errors.New("cache name must not contain a path separator")

// DiskCache is a flat directory of transformed images named
// {pathHash}.{key}{ext}. Entries are never rewritten in place.
type DiskCache struct {
	dir string
}

func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("DiskCache - NewDiskCache - os.MkdirAll: %w", err)
	}

	return &DiskCache{dir: dir}, nil
}

// PathHash is the first 10 hex chars of SHA-256 of the decoded site path.
func PathHash(sitePath string) string {
	sum := sha256.Sum256([]byte(sitePath))
	return hex.EncodeToString(sum[:])[:pathHashLen]
}

// CacheFileName keeps the leading dot of ext, so an empty key gives "hash..jpg".
func CacheFileName(sitePath, key, ext string) string {
	return PathHash(sitePath) + "." + key + strings.ToLower(ext)
}

func (c *DiskCache) Name(sitePath, key string) string {
	return CacheFileName(sitePath, key, path.Ext(sitePath))
}

func (c *DiskCache) Open(ctx context.Context, name string) (io.ReadCloser, int64, error) {
	full, err := c.resolve(name)
	if err != nil {
		return nil, 0, fmt.Errorf("DiskCache - Open: %w", err)
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, errs.ErrCacheMiss
		}
		return nil, 0, fmt.Errorf("DiskCache - Open - os.Open: %w", err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("DiskCache - Open - f.Stat: %w", err)
	}

	return f, st.Size(), nil
}

// Write stores data through a temp file and a rename, concurrent writers of the
// same name leave one complete file behind.
func (c *DiskCache) Write(ctx context.Context, name string, data []byte) error {
	full, err := c.resolve(name)
	if err != nil {
		return fmt.Errorf("DiskCache - Write: %w", err)
	}

	if err = os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("DiskCache - Write - os.MkdirAll: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("DiskCache - Write - os.CreateTemp: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("DiskCache - Write - tmp.Write: %w", err)
	}

	if err = os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("DiskCache - Write - os.Rename: %w", err)
	}

	return nil
}

// Purge removes every entry derived from sitePath and returns how many were removed.
func (c *DiskCache) Purge(ctx context.Context, sitePath string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, PathHash(sitePath)+".*"))
	if err != nil {
		return 0, fmt.Errorf("DiskCache - Purge - filepath.Glob: %w", err)
	}

	var removeErrs []error
	removed := 0

	for _, m := range matches {
		err = os.Remove(m)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			removeErrs = append(removeErrs, err)
			continue
		}
		removed++
	}

	if len(removeErrs) > 0 {
		return removed, fmt.Errorf("DiskCache - Purge - os.Remove: %w", errors.Join(removeErrs...))
	}

	return removed, nil
}

// Health checks that the cache directory is writable.
func (c *DiskCache) Health(ctx context.Context) error {
	marker := filepath.Join(c.dir, ".health_check")
	if err := os.WriteFile(marker, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("DiskCache - Health - os.WriteFile: %w", err)
	}
	_ = os.Remove(marker)

	return nil
}

func (c *DiskCache) resolve(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", errBadCacheName
	}

	return filepath.Join(c.dir, name), nil
}
