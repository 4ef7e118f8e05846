package repo

import (
	"context"
	"io"

	"github.com/andreyxaxa/Image-Cache/internal/entity"
)

type (
	UploadRepo interface {
		FindByPath(ctx context.Context, path string) (*entity.Upload, error)
	}

	SourceRepo interface {
		Read(ctx context.Context, sitePath string) ([]byte, error)
	}

	CacheRepo interface {
		Name(sitePath, key string) string
		Open(ctx context.Context, name string) (io.ReadCloser, int64, error)
		Write(ctx context.Context, name string, data []byte) error
		Purge(ctx context.Context, sitePath string) (int, error)
		Health(ctx context.Context) error
	}
)
