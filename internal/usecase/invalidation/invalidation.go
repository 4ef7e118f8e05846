package invalidation

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/andreyxaxa/Image-Cache/internal/infrastructure/metrics"
	"github.com/andreyxaxa/Image-Cache/internal/repo"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
)

// Evictor drops in-memory state derived from an upload path.
type Evictor interface {
	Evict(path string)
}

type InvalidationUseCase struct {
	cache    repo.CacheRepo
	evictors []Evictor
	logger   logger.Interface
}

func New(cache repo.CacheRepo, l logger.Interface, evictors ...Evictor) *InvalidationUseCase {
	return &InvalidationUseCase{
		cache:    cache,
		evictors: evictors,
		logger:   l,
	}
}

// Purge deletes every cache entry of uploadPath and reports how many were removed.
// uploadPath may also be an absolute URL, only its path is used.
func (uc *InvalidationUseCase) Purge(ctx context.Context, uploadPath string) (int, error) {
	sitePath, err := normalize(uploadPath)
	if err != nil {
		return 0, fmt.Errorf("InvalidationUseCase - Purge - normalize: %w", err)
	}

	for _, e := range uc.evictors {
		e.Evict(sitePath)
	}

	n, err := uc.cache.Purge(ctx, sitePath)
	if err != nil {
		return n, fmt.Errorf("InvalidationUseCase - Purge - uc.cache.Purge: %w", err)
	}

	return n, nil
}

// InvalidateCacheFor is the hook of the upload deletion flow. Failures are
// logged and never returned to the caller.
func (uc *InvalidationUseCase) InvalidateCacheFor(ctx context.Context, uploadPath string, trigger string) {
	n, err := uc.Purge(ctx, uploadPath)
	if n > 0 {
		metrics.CachePurgedFilesTotal.WithLabelValues(trigger).Add(float64(n))
		uc.logger.Info("cache invalidated, path = %s, files = %d, trigger = %s", uploadPath, n, trigger)
	}
	if err != nil {
		uc.logger.Error(err, "InvalidationUseCase - InvalidateCacheFor")
	}
}

func normalize(uploadPath string) (string, error) {
	if strings.Contains(uploadPath, "://") {
		u, err := url.Parse(uploadPath)
		if err != nil {
			return "", fmt.Errorf("url.Parse: %w", err)
		}
		uploadPath = u.Path
	}

	if strings.TrimSpace(uploadPath) == "" {
		return "", fmt.Errorf("empty upload path")
	}

	return path.Clean("/" + uploadPath), nil
}
