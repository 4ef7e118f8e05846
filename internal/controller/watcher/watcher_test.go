package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/andreyxaxa/Image-Cache/internal/repo/persistent"
	"github.com/andreyxaxa/Image-Cache/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidation struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingInvalidation) Purge(context.Context, string) (int, error) { return 0, nil }

func (r *recordingInvalidation) InvalidateCacheFor(_ context.Context, uploadPath string, trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if trigger == TriggerWatcher {
		r.paths = append(r.paths, uploadPath)
	}
}

func (r *recordingInvalidation) has(p string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, seen := range r.paths {
		if seen == p {
			return true
		}
	}
	return false
}

func TestWatcher_RemoveInvalidates(t *testing.T) {
	content := t.TempDir()
	uploads := filepath.Join(content, "uploads")
	nested := filepath.Join(uploads, "2024")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	top := filepath.Join(uploads, "a.jpg")
	deep := filepath.Join(nested, "b.png")
	require.NoError(t, os.WriteFile(top, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(deep, []byte("b"), 0o644))

	inv := &recordingInvalidation{}
	w := New(uploads, inv, persistent.NewSourceFS(content), logger.Nop())
	require.NoError(t, w.Start(context.Background()))
	defer func() {
		assert.NoError(t, w.Shutdown(context.Background()))
	}()

	require.NoError(t, os.Remove(top))
	require.NoError(t, os.Remove(deep))

	assert.Eventually(t, func() bool {
		return inv.has("/uploads/a.jpg") && inv.has("/uploads/2024/b.png")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	content := t.TempDir()
	uploads := filepath.Join(content, "uploads")
	require.NoError(t, os.MkdirAll(uploads, 0o755))

	inv := &recordingInvalidation{}
	w := New(uploads, inv, persistent.NewSourceFS(content), logger.Nop())
	require.NoError(t, w.Start(context.Background()))
	defer func() {
		assert.NoError(t, w.Shutdown(context.Background()))
	}()

	dir := filepath.Join(uploads, "2025")
	require.NoError(t, os.Mkdir(dir, 0o755))

	// ждем, пока каталог попадет под наблюдение
	file := filepath.Join(dir, "c.gif")
	require.Eventually(t, func() bool {
		for _, p := range w.fsw.WatchList() {
			if p == dir {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(file, []byte("c"), 0o644))
	require.NoError(t, os.Remove(file))

	assert.Eventually(t, func() bool { return inv.has("/uploads/2025/c.gif") }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_DirectoryRenameInvalidatesFiles(t *testing.T) {
	content := t.TempDir()
	uploads := filepath.Join(content, "uploads")
	nested := filepath.Join(uploads, "2024", "05")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "a.jpg"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "b.png"), []byte("b"), 0o644))

	inv := &recordingInvalidation{}
	w := New(uploads, inv, persistent.NewSourceFS(content), logger.Nop())
	require.NoError(t, w.Start(context.Background()))
	defer func() {
		assert.NoError(t, w.Shutdown(context.Background()))
	}()

	require.NoError(t, os.Rename(filepath.Join(uploads, "2024"), filepath.Join(uploads, "archive")))

	assert.Eventually(t, func() bool {
		return inv.has("/uploads/2024/05/a.jpg") && inv.has("/uploads/2024/05/b.png")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope"), &recordingInvalidation{}, persistent.NewSourceFS(t.TempDir()), logger.Nop())

	require.Error(t, w.Start(context.Background()))
}
