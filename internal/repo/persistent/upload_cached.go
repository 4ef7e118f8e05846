package persistent

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Cache/internal/entity"
	"github.com/andreyxaxa/Image-Cache/internal/repo"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedUploadRepo memoizes found uploads by path. Misses are not cached so a
// fresh upload is visible on the next render.
type CachedUploadRepo struct {
	next  repo.UploadRepo
	cache *lru.Cache[string, *entity.Upload]
}

func NewCachedUploadRepo(next repo.UploadRepo, size int) (*CachedUploadRepo, error) {
	cache, err := lru.New[string, *entity.Upload](size)
	if err != nil {
		return nil, fmt.Errorf("CachedUploadRepo - New - lru.New: %w", err)
	}

	return &CachedUploadRepo{next: next, cache: cache}, nil
}

func (r *CachedUploadRepo) FindByPath(ctx context.Context, path string) (*entity.Upload, error) {
	if u, ok := r.cache.Get(path); ok {
		return u, nil
	}

	u, err := r.next.FindByPath(ctx, path)
	if err != nil {
		return nil, err
	}

	r.cache.Add(path, u)

	return u, nil
}

func (r *CachedUploadRepo) Evict(path string) {
	r.cache.Remove(path)
}
