package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/andreyxaxa/Image-Cache/internal/usecase"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
	"github.com/fsnotify/fsnotify"
)

const TriggerWatcher = "watcher"

// SitePathResolver maps a file on disk to the site path it is served under.
type SitePathResolver interface {
	SitePath(file string) (string, error)
}

// Watcher invalidates cached variants when an original upload disappears
// from the uploads directory, including its subdirectories. Known files are
// tracked so removing or renaming a directory invalidates every file below it.
type Watcher struct {
	dir      string
	inv      usecase.InvalidationUseCase
	resolver SitePathResolver
	logger   logger.Interface

	fsw    *fsnotify.Watcher
	ctx    context.Context

	mu    sync.Mutex
	files map[string]struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(dir string, inv usecase.InvalidationUseCase, resolver SitePathResolver, l logger.Interface) *Watcher {
	return &Watcher{
		dir:      dir,
		inv:      inv,
		resolver: resolver,
		logger:   l,
		files:    make(map[string]struct{}),
	}
}

func (w *Watcher) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Watcher - Start - watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Watcher - Start - fsnotify.NewWatcher: %w", err)
	}
	w.fsw = fsw

	err = w.addTree(w.dir)
	if err != nil {
		fsw.Close()
		return fmt.Errorf("Watcher - Start - w.addTree: %w", err)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.processEvents()

	w.logger.Info("Watcher - Start - watching %s", w.dir)

	return nil
}

// addTree watches root and every directory below it and remembers their files.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			w.track(p)
			return nil
		}

		return w.fsw.Add(p)
	})
}

func (w *Watcher) track(file string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[file] = struct{}{}
}

// forget drops name and every tracked file below it, returning all of them.
func (w *Watcher) forget(name string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	gone := []string{name}
	delete(w.files, name)

	prefix := name + string(filepath.Separator)
	for f := range w.files {
		if strings.HasPrefix(f, prefix) {
			gone = append(gone, f)
			delete(w.files, f)
		}
	}

	return gone
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error(err, "Watcher - processEvents - fsw.Errors")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// новые каталоги тоже отслеживаем
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if !info.IsDir() {
			w.track(event.Name)
			return
		}

		err = w.addTree(event.Name)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.logger.Error(err, "Watcher - handleEvent - w.addTree")
		}
		return
	}

	if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	for _, file := range w.forget(event.Name) {
		sitePath, err := w.resolver.SitePath(file)
		if err != nil {
			w.logger.Error(err, "Watcher - handleEvent - w.resolver.SitePath")
			continue
		}

		w.inv.InvalidateCacheFor(w.ctx, sitePath, TriggerWatcher)
	}
}

func (w *Watcher) Shutdown(ctx context.Context) error {
	if !w.started.Load() || w.cancel == nil {
		return nil
	}

	w.cancel()

	done := make(chan error, 1)

	go func() {
		w.wg.Wait()
		done <- w.fsw.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("Watcher - Shutdown - w.fsw.Close: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Watcher - Shutdown: %w", ctx.Err())
	}
}
