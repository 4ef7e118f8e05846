package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/andreyxaxa/Image-Cache/config"
	"github.com/andreyxaxa/Image-Cache/internal/repo"
	"github.com/andreyxaxa/Image-Cache/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Cache/pkg/postgres"
	"github.com/andreyxaxa/Image-Cache/pkg/sqlite"
)

// CacheDir is where transformed variants live, {content}/images/cache unless configured.
func CacheDir(cfg *config.Config) string {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir
	}
	return filepath.Join(cfg.App.ContentPath, "images", "cache")
}

// OpenUploads connects the upload lookup backend. The returned func releases it.
func OpenUploads(ctx context.Context, cfg *config.Config) (repo.UploadRepo, func(), error) {
	switch cfg.UploadsDB.Driver {
	case config.DriverPostgres:
		pg, err := postgres.New(cfg.UploadsDB.URL, postgres.MaxPoolSize(cfg.UploadsDB.PoolMax))
		if err != nil {
			return nil, nil, fmt.Errorf("app - OpenUploads - postgres.New: %w", err)
		}
		return persistent.NewUploadPostgresRepo(pg), pg.Close, nil
	default:
		db, err := sqlite.New(ctx, cfg.UploadsDB.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("app - OpenUploads - sqlite.New: %w", err)
		}
		return persistent.NewUploadSQLiteRepo(db), func() { db.Close() }, nil
	}
}
