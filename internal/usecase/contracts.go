package usecase

import (
	"context"

	"github.com/andreyxaxa/Image-Cache/internal/entity"
)

type (
	TransformUseCase interface {
		Handle(ctx context.Context, req entity.TransformRequest) entity.Outcome
	}

	SrcsetUseCase interface {
		GenerateURL(rawURL string, params map[string]string) (string, error)
		InjectSrcset(ctx context.Context, html string) (string, error)
	}

	InvalidationUseCase interface {
		Purge(ctx context.Context, uploadPath string) (int, error)
		InvalidateCacheFor(ctx context.Context, uploadPath string, trigger string)
	}
)
