package v1

import (
	"github.com/andreyxaxa/Image-Cache/internal/usecase"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
)

type V1 struct {
	srcset     usecase.SrcsetUseCase
	inv        usecase.InvalidationUseCase
	adminToken string
	logger     logger.Interface
}
