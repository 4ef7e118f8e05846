package persistent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/andreyxaxa/Image-Cache/pkg/types/errs"
)

// SourceFS reads originals from the content directory. Site paths are rooted
// at it: /uploads/a.jpg is {root}/uploads/a.jpg.
type SourceFS struct {
	root string
}

func NewSourceFS(root string) *SourceFS {
	return &SourceFS{root: root}
}

func (s *SourceFS) Read(ctx context.Context, sitePath string) ([]byte, error) {
	data, err := os.ReadFile(s.FilePath(sitePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("SourceFS - Read - %s: %w", sitePath, errs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("SourceFS - Read - os.ReadFile: %w", err)
	}

	return data, nil
}

// FilePath maps a site path to a file under root, never above it.
func (s *SourceFS) FilePath(sitePath string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+sitePath)))
}

// SitePath is the inverse of FilePath. It fails for files outside root.
func (s *SourceFS) SitePath(file string) (string, error) {
	rel, err := filepath.Rel(s.root, file)
	if err != nil {
		return "", fmt.Errorf("SourceFS - SitePath - filepath.Rel: %w", err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("SourceFS - SitePath - %s is outside %s", file, s.root)
	}

	return path.Clean("/" + filepath.ToSlash(rel)), nil
}
