package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/andreyxaxa/Image-Cache/internal/entity"
	"github.com/andreyxaxa/Image-Cache/internal/infrastructure"
	"github.com/andreyxaxa/Image-Cache/internal/infrastructure/metrics"
	"github.com/andreyxaxa/Image-Cache/internal/repo"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
	"github.com/andreyxaxa/Image-Cache/pkg/types/errs"
	"golang.org/x/sync/singleflight"
)

type Verifier interface {
	Verify(rawURL string) bool
}

type TransformUseCase struct {
	signer  Verifier
	cache   repo.CacheRepo
	sources repo.SourceRepo
	p       infrastructure.ImageProcessor
	logger  logger.Interface

	appURL        string
	uploadsPrefix string
	cpuTimeout    time.Duration

	flight singleflight.Group
}

// New builds the pipeline. appURL is the public origin the URLs were signed for
// (scheme://host[:port]), uploadsPrefix the site path of the uploads directory.
// A zero cpuTimeout disables the per-request processing deadline.
func New(
	signer Verifier,
	cache repo.CacheRepo,
	sources repo.SourceRepo,
	p infrastructure.ImageProcessor,
	l logger.Interface,
	appURL string,
	uploadsPrefix string,
	cpuTimeout time.Duration,
) *TransformUseCase {
	return &TransformUseCase{
		signer:        signer,
		cache:         cache,
		sources:       sources,
		p:             p,
		logger:        l,
		appURL:        origin(appURL),
		uploadsPrefix: "/" + strings.Trim(uploadsPrefix, "/"),
		cpuTimeout:    cpuTimeout,
	}
}

type result struct {
	data   []byte
	reason entity.FallthroughReason
}

// Handle runs the pipeline for one request. Stage order is fixed: filter,
// authorization, cache lookup, then the transform stages on a miss.
func (uc *TransformUseCase) Handle(ctx context.Context, req entity.TransformRequest) entity.Outcome {
	// 1. фильтр
	sitePath, ok := uc.sitePath(req.Path)
	if !ok || req.RawQuery == "" {
		return entity.Fallback(entity.NotTransform)
	}

	contentType, ok := entity.MimeTypeByExt(path.Ext(sitePath))
	if !ok {
		return entity.Fallback(entity.UnsupportedType)
	}

	query, err := url.ParseQuery(req.RawQuery)
	if err != nil {
		return entity.Fallback(entity.NotTransform)
	}

	spec := ParseSpec(query)
	if !spec.Recognized {
		return entity.Fallback(entity.NotTransform)
	}

	// 2. подпись
	if !uc.signer.Verify(uc.appURL + req.Path + "?" + req.RawQuery) {
		return entity.Outcome{Status: entity.Forbidden}
	}

	// 3. кэш
	name := uc.cache.Name(sitePath, spec.Key)

	body, size, err := uc.cache.Open(ctx, name)
	if err == nil {
		return entity.Outcome{
			Status:      entity.Served,
			Body:        body,
			Size:        int(size),
			ContentType: contentType,
			CacheHit:    true,
		}
	}
	if !errors.Is(err, errs.ErrCacheMiss) {
		uc.logger.Error(err, "TransformUseCase - Handle - uc.cache.Open")
	}

	// 4-16. одновременные промахи по одному файлу делят одну обработку
	v, _, _ := uc.flight.Do(name, func() (interface{}, error) {
		return uc.transform(context.WithoutCancel(ctx), sitePath, contentType, spec, name), nil
	})

	res := v.(result)
	if res.reason != "" {
		uc.logger.Debug("TransformUseCase - Handle - fallthrough %s: %s", sitePath, res.reason)
		return entity.Fallback(res.reason)
	}

	return entity.Outcome{
		Status:      entity.Served,
		Body:        io.NopCloser(bytes.NewReader(res.data)),
		Size:        len(res.data),
		ContentType: contentType,
	}
}

func (uc *TransformUseCase) transform(
	ctx context.Context,
	sitePath string,
	contentType string,
	spec entity.TransformSpec,
	name string,
) (res result) {
	// паника в обработке роняет только этот запрос
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error(fmt.Errorf("panic %v", r), "TransformUseCase - transform - panic, path = %s", sitePath)
			res = result{reason: entity.ProcessFailed}
		}
	}()

	// 4. оригинал
	data, err := uc.sources.Read(ctx, sitePath)
	if err != nil {
		if !errors.Is(err, errs.ErrRecordNotFound) {
			uc.logger.Error(err, "TransformUseCase - transform - uc.sources.Read")
		}
		return result{reason: entity.SourceMissing}
	}

	start := time.Now()

	cpuCtx := ctx
	if uc.cpuTimeout > 0 {
		var cancel context.CancelFunc
		cpuCtx, cancel = context.WithTimeout(ctx, uc.cpuTimeout)
		defer cancel()
	}

	// 5. анимация
	frames, err := uc.p.FrameCount(cpuCtx, contentType, data)
	if err != nil {
		uc.logger.Warn("TransformUseCase - transform - uc.p.FrameCount %s: %v", sitePath, err)
		return result{reason: entity.DecodeFailed}
	}
	if frames > 1 {
		return result{reason: entity.Animated}
	}

	img, err := uc.p.Decode(cpuCtx, data)
	if err != nil {
		uc.logger.Warn("TransformUseCase - transform - uc.p.Decode %s: %v", sitePath, err)
		return result{reason: entity.DecodeFailed}
	}

	// 6-14. операции по порядку
	for _, op := range spec.Operations {
		img, err = uc.p.Apply(cpuCtx, img, op)
		if err != nil {
			uc.logger.Warn("TransformUseCase - transform - uc.p.Apply %s: %v", sitePath, err)
			return result{reason: entity.ProcessFailed}
		}
	}

	// 15. качество
	out, err := uc.p.Encode(cpuCtx, img, contentType, spec.Quality)
	if err != nil {
		uc.logger.Warn("TransformUseCase - transform - uc.p.Encode %s: %v", sitePath, err)
		return result{reason: entity.EncodeFailed}
	}

	metrics.TransformDuration.WithLabelValues(contentType).Observe(time.Since(start).Seconds())

	// 16. кэш, отдаем результат даже если записать не удалось
	if err = uc.cache.Write(ctx, name, out); err != nil {
		metrics.CacheWriteErrorsTotal.Inc()
		uc.logger.Error(err, "TransformUseCase - transform - uc.cache.Write")
	}

	return result{data: out}
}

// origin drops everything after scheme://host[:port], URLs are signed for the origin only.
func origin(appURL string) string {
	u, err := url.Parse(appURL)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(appURL, "/")
	}

	return u.Scheme + "://" + u.Host
}

func (uc *TransformUseCase) sitePath(escaped string) (string, bool) {
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}

	cleaned := path.Clean("/" + decoded)
	if !strings.HasPrefix(cleaned, uc.uploadsPrefix+"/") {
		return "", false
	}

	return cleaned, true
}
