package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/andreyxaxa/Image-Cache/config"
	kafkactrl "github.com/andreyxaxa/Image-Cache/internal/controller/kafka"
	"github.com/andreyxaxa/Image-Cache/internal/controller/restapi"
	"github.com/andreyxaxa/Image-Cache/internal/controller/watcher"
	infrakafka "github.com/andreyxaxa/Image-Cache/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Image-Cache/internal/infrastructure/processor"
	"github.com/andreyxaxa/Image-Cache/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Cache/internal/usecase/invalidation"
	"github.com/andreyxaxa/Image-Cache/internal/usecase/srcset"
	"github.com/andreyxaxa/Image-Cache/internal/usecase/transform"
	"github.com/andreyxaxa/Image-Cache/pkg/httpserver"
	"github.com/andreyxaxa/Image-Cache/pkg/kafka/consumer"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
	"github.com/andreyxaxa/Image-Cache/pkg/signedurl"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// uploads lookup
	uploads, closeUploads, err := OpenUploads(ctx, cfg)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - OpenUploads: %w", err))
	}
	defer closeUploads()

	cachedUploads, err := persistent.NewCachedUploadRepo(uploads, cfg.UploadsDB.LRUSize)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - persistent.NewCachedUploadRepo: %w", err))
	}

	// disk cache, originals
	diskCache, err := persistent.NewDiskCache(CacheDir(cfg))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - persistent.NewDiskCache: %w", err))
	}
	sources := persistent.NewSourceFS(cfg.App.ContentPath)

	signer := signedurl.New(cfg.Signing.Secret)

	// Use-Case
	transformUseCase := transform.New(
		signer,
		diskCache,
		sources,
		processor.New(),
		l,
		cfg.App.URL,
		cfg.App.UploadsPrefix,
		cfg.Cache.CPUTimeout,
	)

	srcsetUseCase, err := srcset.New(cachedUploads, signer, cfg.App.URL, cfg.App.UploadsPrefix)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - srcset.New: %w", err))
	}

	invalidationUseCase := invalidation.New(diskCache, l, cachedUploads)

	// Kafka as Controller
	var kafkaController *kafkactrl.KafkaController
	if cfg.Kafka.Enabled {
		kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
		}

		kafkaController = kafkactrl.New(
			invalidationUseCase,
			infrakafka.NewDeletionEvents(kafkaConsumer),
			l,
			cfg.Kafka.CommitTimeout,
			cfg.Kafka.ProcessTimeout,
			runtime.NumCPU(),
		)
	}

	// Uploads Watcher
	var uploadsWatcher *watcher.Watcher
	if cfg.Watcher.Enabled {
		uploadsWatcher = watcher.New(sources.FilePath(cfg.App.UploadsPrefix), invalidationUseCase, sources, l)
	}

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.ReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	)
	restapi.NewRouter(httpServer.App, cfg, transformUseCase, srcsetUseCase, invalidationUseCase, diskCache, l)

	// Start Components
	if kafkaController != nil {
		err = kafkaController.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
		}
	}
	if uploadsWatcher != nil {
		err = uploadsWatcher.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - uploadsWatcher.Start: %w", err))
		}
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	if uploadsWatcher != nil {
		wShutdownCtx, wShutdownCancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
		defer wShutdownCancel()
		err = uploadsWatcher.Shutdown(wShutdownCtx)
		if err != nil {
			l.Error(fmt.Errorf("app - Run - uploadsWatcher.Shutdown: %w", err))
		}
	}

	if kafkaController != nil {
		kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.Kafka.ShutdownTimeout)
		defer kcShutdownCancel()
		err = kafkaController.Shutdown(kcShutdownCtx)
		if err != nil {
			l.Error(fmt.Errorf("app - Run - kafkaController.Shutdown: %w", err))
		}
	}
}
