package srcset_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/andreyxaxa/Image-Cache/internal/entity"
	"github.com/andreyxaxa/Image-Cache/internal/usecase/srcset"
	"github.com/andreyxaxa/Image-Cache/pkg/signedurl"
	"github.com/andreyxaxa/Image-Cache/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret = "s3cr3t"
	appURL = "http://blog.example.com"
)

type fakeUploads struct {
	mu      sync.Mutex
	uploads map[string]*entity.Upload
	err     error
	lookups []string
}

func (f *fakeUploads) FindByPath(ctx context.Context, path string) (*entity.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups = append(f.lookups, path)
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.uploads[path]; ok {
		return u, nil
	}
	return nil, errs.ErrRecordNotFound
}

func upload(path string, width int) *entity.Upload {
	h := width / 2
	return &entity.Upload{Path: path, MimeType: "image/jpeg", Width: &width, Height: &h}
}

func newUseCase(t *testing.T, uploads *fakeUploads) *srcset.SrcsetUseCase {
	t.Helper()

	uc, err := srcset.New(uploads, signedurl.New(secret), appURL, "/uploads")
	require.NoError(t, err)

	return uc
}

func srcsetOf(t *testing.T, html string, selector string) (string, bool) {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return doc.Find(selector).Attr("srcset")
}

func TestGenerateURL(t *testing.T) {
	uc := newUseCase(t, &fakeUploads{})

	t.Run("cross origin untouched", func(t *testing.T) {
		in := "https://cdn.other.com/uploads/photo.jpg?width=1"
		out, err := uc.GenerateURL(in, map[string]string{"width": "200"})
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})

	t.Run("relative stays relative", func(t *testing.T) {
		out, err := uc.GenerateURL("/uploads/photo.jpg", map[string]string{"width": "200"})
		require.NoError(t, err)

		u, err := url.Parse(out)
		require.NoError(t, err)
		assert.Empty(t, u.Host)
		assert.Equal(t, "/uploads/photo.jpg", u.Path)
		assert.Equal(t, "200", u.Query().Get("width"))
		assert.True(t, signedurl.Verify(appURL+out, secret))
	})

	t.Run("same host absolute", func(t *testing.T) {
		out, err := uc.GenerateURL("http://BLOG.example.com/uploads/photo.jpg?width=9&key=old", map[string]string{"width": "400"})
		require.NoError(t, err)

		u, err := url.Parse(out)
		require.NoError(t, err)
		assert.Equal(t, "400", u.Query().Get("width"))
		assert.Len(t, u.Query()["key"], 1)
		assert.True(t, signedurl.Verify(out, secret))
	})
}

func TestInjectSrcset(t *testing.T) {
	uploads := &fakeUploads{uploads: map[string]*entity.Upload{
		"/uploads/2020/01/photo.jpg": upload("/uploads/2020/01/photo.jpg", 1000),
		"/uploads/small.jpg":         upload("/uploads/small.jpg", 150),
		"/uploads/exact.jpg":         upload("/uploads/exact.jpg", 200),
	}}
	uc := newUseCase(t, uploads)

	html := `<p>Intro</p>` +
		`<img id="photo" src="/uploads/2020/01/photo.jpg" alt="a">` +
		`<img id="small" src="/uploads/small.jpg">` +
		`<img id="exact" src="/uploads/exact.jpg">` +
		`<img id="unknown" src="/uploads/unknown.jpg">` +
		`<img id="remote" src="https://cdn.other.com/uploads/2020/01/photo.jpg">` +
		`<img id="theme" src="/assets/logo.png">`

	out, err := uc.InjectSrcset(context.Background(), html)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<p>Intro</p>"))
	assert.NotContains(t, out, "<body>")

	set, ok := srcsetOf(t, out, "#photo")
	require.True(t, ok)

	entries := strings.Split(set, ", ")
	require.Len(t, entries, 4)
	for i, want := range []string{"200", "400", "600", "800"} {
		parts := strings.Fields(entries[i])
		require.Len(t, parts, 2)
		assert.Equal(t, want+"w", parts[1])

		u, err := url.Parse(parts[0])
		require.NoError(t, err)
		assert.Equal(t, "/uploads/2020/01/photo.jpg", u.Path)
		assert.Equal(t, want, u.Query().Get("width"))
		assert.True(t, signedurl.Verify(appURL+parts[0], secret))
	}

	for _, id := range []string{"#small", "#exact", "#unknown", "#remote", "#theme"} {
		_, ok := srcsetOf(t, out, id)
		assert.False(t, ok, id)
	}

	assert.ElementsMatch(t, []string{
		"/uploads/2020/01/photo.jpg", "/uploads/small.jpg", "/uploads/exact.jpg", "/uploads/unknown.jpg",
	}, uploads.lookups)
}

func TestInjectSrcset_LookupErrorFailsAll(t *testing.T) {
	uploads := &fakeUploads{err: errors.New("db down")}
	uc := newUseCase(t, uploads)

	_, err := uc.InjectSrcset(context.Background(), `<img src="/uploads/a.jpg"><img src="/uploads/b.jpg">`)
	assert.Error(t, err)
}

func TestInjectSrcset_FullDocument(t *testing.T) {
	uploads := &fakeUploads{uploads: map[string]*entity.Upload{
		"/uploads/a.jpg": upload("/uploads/a.jpg", 450),
	}}
	uc := newUseCase(t, uploads)

	out, err := uc.InjectSrcset(context.Background(), `<html><head><title>t</title></head><body><img src="/uploads/a.jpg"></body></html>`)
	require.NoError(t, err)
	assert.Contains(t, out, "<title>t</title>")

	set, ok := srcsetOf(t, out, "img")
	require.True(t, ok)
	assert.Len(t, strings.Split(set, ", "), 2)
}

func TestNew_RequiresHost(t *testing.T) {
	_, err := srcset.New(&fakeUploads{}, signedurl.New(secret), "/relative", "/uploads")
	assert.Error(t, err)
}

func TestNew_SignsForOrigin(t *testing.T) {
	uc, err := srcset.New(&fakeUploads{}, signedurl.New(secret), appURL+"/blog/", "/uploads")
	require.NoError(t, err)

	out, err := uc.GenerateURL("uploads/a.jpg", map[string]string{"width": "100"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "/uploads/a.jpg?"), out)
	assert.True(t, signedurl.Verify(appURL+out, secret))
}
