package persistent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andreyxaxa/Image-Cache/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFileName(t *testing.T) {
	sum := sha256.Sum256([]byte("/uploads/2020/01/photo.jpg"))
	hash := hex.EncodeToString(sum[:])[:10]

	assert.Equal(t, hash, PathHash("/uploads/2020/01/photo.jpg"))
	assert.Equal(t, hash+".abc.jpg", CacheFileName("/uploads/2020/01/photo.jpg", "abc", ".jpg"))
	assert.Equal(t, hash+"..jpg", CacheFileName("/uploads/2020/01/photo.jpg", "", ".JPG"))

	c := &DiskCache{dir: t.TempDir()}
	assert.Equal(t, PathHash("/uploads/a.PNG")+".k.png", c.Name("/uploads/a.PNG", "k"))
}

func TestDiskCache_WriteOpenPurge(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	c, err := NewDiskCache(dir)
	require.NoError(t, err)

	name := c.Name("/uploads/photo.jpg", "k1")

	_, _, err = c.Open(ctx, name)
	require.ErrorIs(t, err, errs.ErrCacheMiss)

	require.NoError(t, c.Write(ctx, name, []byte("first")))
	require.NoError(t, c.Write(ctx, c.Name("/uploads/photo.jpg", "k2"), []byte("second")))
	require.NoError(t, c.Write(ctx, c.Name("/uploads/other.jpg", "k1"), []byte("other")))

	body, n, err := c.Open(ctx, name)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, []byte("first"), data)
	assert.EqualValues(t, 5, n)

	removed, err := c.Purge(ctx, "/uploads/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, _, err = c.Open(ctx, name)
	assert.ErrorIs(t, err, errs.ErrCacheMiss)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, c.Name("/uploads/other.jpg", "k1"), entries[0].Name())

	removed, err = c.Purge(ctx, "/uploads/never-cached.jpg")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDiskCache_RejectsSeparators(t *testing.T) {
	ctx := context.Background()

	c, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, c.Write(ctx, "../escape.jpg", []byte("x")))
	_, _, err = c.Open(ctx, "a/b.jpg")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrCacheMiss)
}

func TestDiskCache_Health(t *testing.T) {
	c, err := NewDiskCache(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, c.Health(context.Background()))
}
