package signedurl_test

import (
	"net/url"
	"testing"

	"github.com/andreyxaxa/Image-Cache/pkg/signedurl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "s3cr3t"

func TestSignVerify_RoundTrip(t *testing.T) {
	urls := []string{
		"http://blog.example.com/uploads/2020/01/photo.jpg?width=300",
		"http://blog.example.com/uploads/photo.jpg",
		"https://blog.example.com:8443/uploads/a%20b.png?crop=0,0,10,10&flip=h",
		"/uploads/2020/01/photo.jpg?width=300&height=200",
		"http://blog.example.com/uploads/photo.jpg?caption=hello world&x=(1)*",
	}

	for _, u := range urls {
		t.Run(u, func(t *testing.T) {
			signed, err := signedurl.Sign(u, secret)
			require.NoError(t, err)
			assert.True(t, signedurl.Verify(signed, secret), signed)
		})
	}
}

func TestVerify_Tampered(t *testing.T) {
	signed, err := signedurl.Sign("http://blog.example.com/uploads/photo.jpg?width=300&blur=2", secret)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(q url.Values)
	}{
		{name: "changed width", mutate: func(q url.Values) { q.Set("width", "301") }},
		{name: "changed blur", mutate: func(q url.Values) { q.Set("blur", "3") }},
		{name: "added param", mutate: func(q url.Values) { q.Set("grayscale", "1") }},
		{name: "removed param", mutate: func(q url.Values) { q.Del("blur") }},
		{name: "changed key", mutate: func(q url.Values) { q.Set("key", q.Get("key")[1:]+"0") }},
		{name: "removed key", mutate: func(q url.Values) { q.Del("key") }},
		{name: "empty key", mutate: func(q url.Values) { q.Set("key", "") }},
		{name: "repeated key", mutate: func(q url.Values) { q.Add("key", q.Get("key")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := u.Query()
			tt.mutate(q)

			mutated := *u
			mutated.RawQuery = q.Encode()

			assert.False(t, signedurl.Verify(mutated.String(), secret))
		})
	}
}

func TestVerify_OtherSecretOrPath(t *testing.T) {
	signed, err := signedurl.Sign("http://blog.example.com/uploads/photo.jpg?width=300", secret)
	require.NoError(t, err)

	assert.False(t, signedurl.Verify(signed, "other"))

	u, err := url.Parse(signed)
	require.NoError(t, err)
	u.Path = "/uploads/other.jpg"
	assert.False(t, signedurl.Verify(u.String(), secret))

	u, err = url.Parse(signed)
	require.NoError(t, err)
	u.Host = "evil.example.com"
	assert.False(t, signedurl.Verify(u.String(), secret))
}

func TestVerify_Malformed(t *testing.T) {
	assert.False(t, signedurl.Verify("http://blog.example.com/uploads/photo.jpg", secret))
	assert.False(t, signedurl.Verify("http://blog.example.com/uploads/photo.jpg?key=%zz", secret))
	assert.False(t, signedurl.Verify("http://[::1", secret))
}

func TestGenerateKey_OrderIndependent(t *testing.T) {
	a, err := signedurl.GenerateKey("http://blog.example.com/uploads/p.jpg?width=300&height=200&blur=1", secret)
	require.NoError(t, err)

	b, err := signedurl.GenerateKey("http://blog.example.com/uploads/p.jpg?blur=1&width=300&height=200", secret)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestGenerateKey_DistinctParams(t *testing.T) {
	a, err := signedurl.GenerateKey("http://blog.example.com/uploads/p.jpg?blur=1", secret)
	require.NoError(t, err)

	b, err := signedurl.GenerateKey("http://blog.example.com/uploads/p.jpg?blur=2", secret)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestGenerateKey_ParseError(t *testing.T) {
	_, err := signedurl.GenerateKey("http://[::1", secret)
	assert.Error(t, err)
}

func TestSign_AppendsKey(t *testing.T) {
	signed, err := signedurl.Sign("/uploads/p.jpg", secret)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/p.jpg", u.Path)
	assert.Len(t, u.Query().Get("key"), 64)

	signer := signedurl.New(secret)
	again, err := signer.Sign("/uploads/p.jpg")
	require.NoError(t, err)
	assert.Equal(t, signed, again)
	assert.True(t, signer.Verify(again))
}

func TestCanonicalQuery(t *testing.T) {
	values := url.Values{
		"width": {"300"},
		"crop":  {"0,0,10,10"},
		"note":  {"a b"},
		"x":     {"2", "1"},
	}

	assert.Equal(t, "crop=0%2C0%2C10%2C10&note=a%20b&width=300&x=2&x=1", signedurl.CanonicalQuery(values))
}

func TestEncodeComponent(t *testing.T) {
	assert.Equal(t, "a%20b!'()*-_.~%2F%3F%26", signedurl.EncodeComponent("a b!'()*-_.~/?&"))
}
