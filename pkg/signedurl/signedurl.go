// Package signedurl signs and verifies URLs with a shared secret.
//
// The signature is carried in the "key" query parameter and is the lowercase hex
// SHA-256 of secret + hostname + pathname + canonical query, where the canonical
// query is every other parameter encoded like encodeURIComponent and sorted by key.
// Nothing is stored server side, verification is pure recomputation.
package signedurl

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyParam is the query parameter holding the signature.
const KeyParam = "key"

type Signer struct {
	secret string
}

func New(secret string) *Signer {
	return &Signer{secret: secret}
}

func (s *Signer) GenerateKey(rawURL string) (string, error) {
	return GenerateKey(rawURL, s.secret)
}

func (s *Signer) Sign(rawURL string) (string, error) {
	return Sign(rawURL, s.secret)
}

func (s *Signer) Verify(rawURL string) bool {
	return Verify(rawURL, s.secret)
}

// GenerateKey returns the signature of rawURL. The "key" parameter, if any, is part of
// the signed content; callers verifying a URL must strip it first (see Verify).
func GenerateKey(rawURL, secret string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("signedurl - GenerateKey - url.Parse: %w", err)
	}

	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", fmt.Errorf("signedurl - GenerateKey - url.ParseQuery: %w", err)
	}

	return digest(secret, hostname(u), u.EscapedPath(), values), nil
}

// Sign appends the signature as the last query parameter.
func Sign(rawURL, secret string) (string, error) {
	key, err := GenerateKey(rawURL, secret)
	if err != nil {
		return "", fmt.Errorf("signedurl - Sign: %w", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("signedurl - Sign - url.Parse: %w", err)
	}

	pair := KeyParam + "=" + url.QueryEscape(key)
	if u.RawQuery == "" {
		u.RawQuery = pair
	} else {
		u.RawQuery += "&" + pair
	}

	return u.String(), nil
}

// Verify reports whether the "key" parameter of rawURL matches the rest of the URL.
// A missing, repeated or empty key verifies as false.
func Verify(rawURL, secret string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return false
	}

	keys := values[KeyParam]
	if len(keys) != 1 || keys[0] == "" {
		return false
	}
	given := keys[0]
	values.Del(KeyParam)

	expected := digest(secret, hostname(u), u.EscapedPath(), values)

	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

func digest(secret, hostname, pathname string, values url.Values) string {
	h := sha256.New()
	h.Write([]byte(secret))
	h.Write([]byte(hostname))
	h.Write([]byte(pathname))
	h.Write([]byte(CanonicalQuery(values)))

	return hex.EncodeToString(h.Sum(nil))
}

// CanonicalQuery encodes values sorted by encoded key. Values sharing a key keep
// their original relative order.
func CanonicalQuery(values url.Values) string {
	type pair struct {
		key   string
		value string
	}

	pairs := make([]pair, 0, len(values))
	for k, vs := range values {
		ek := EncodeComponent(k)
		for _, v := range vs {
			pairs = append(pairs, pair{key: ek, value: EncodeComponent(v)})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].key < pairs[j].key
	})

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}

	return b.String()
}

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeComponent escapes s the way encodeURIComponent does, so signatures stay
// interoperable with signers that use it.
func EncodeComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}

func hostname(u *url.URL) string {
	return strings.ToLower(u.Hostname())
}
