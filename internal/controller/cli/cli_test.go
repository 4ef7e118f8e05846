package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andreyxaxa/Image-Cache/config"
	"github.com/andreyxaxa/Image-Cache/internal/repo/persistent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		App: config.App{
			URL:           "https://blog.example.com",
			UploadsPrefix: "/uploads",
			ContentPath:   t.TempDir(),
		},
		Signing: config.Signing{Secret: "s3cret"},
		Cache:   config.Cache{Dir: t.TempDir()},
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return strings.TrimSpace(out.String()), err
}

func TestSignThenVerify(t *testing.T) {
	cfg := testConfig(t)

	signed, err := run(t, cfg, "sign", "/uploads/a.jpg", "-p", "width=300", "--param", "grayscale=1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "/uploads/a.jpg?"))
	assert.Contains(t, signed, "width=300")
	assert.Contains(t, signed, "key=")

	out, err := run(t, cfg, "verify", signed)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = run(t, cfg, "verify", strings.Replace(signed, "width=300", "width=301", 1))
	assert.ErrorIs(t, err, errSignatureMismatch)
}

func TestSign_InvalidParam(t *testing.T) {
	_, err := run(t, testConfig(t), "sign", "/uploads/a.jpg", "-p", "width")
	require.Error(t, err)
}

func TestCachePath(t *testing.T) {
	cfg := testConfig(t)

	out, err := run(t, cfg, "cache-path", "/uploads/My%20Photo.JPG?width=10&key=abc")
	require.NoError(t, err)

	want := filepath.Join(cfg.Cache.Dir, persistent.PathHash("/uploads/My Photo.JPG")+".abc.jpg")
	assert.Equal(t, want, out)

	_, err = run(t, cfg, "cache-path", "/uploads/a.jpg?width=10")
	require.Error(t, err)
}

func TestPurge(t *testing.T) {
	cfg := testConfig(t)

	hash := persistent.PathHash("/uploads/a.jpg")
	for _, name := range []string{hash + ".k1.jpg", hash + ".k2.jpg", persistent.PathHash("/uploads/b.jpg") + ".k1.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Cache.Dir, name), []byte("x"), 0o644))
	}

	out, err := run(t, cfg, "purge", "https://blog.example.com/uploads/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "2", out)

	left, err := os.ReadDir(cfg.Cache.Dir)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
