package srcset

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andreyxaxa/Image-Cache/internal/repo"
	"github.com/andreyxaxa/Image-Cache/pkg/signedurl"
	"github.com/andreyxaxa/Image-Cache/pkg/types/errs"
	"golang.org/x/sync/errgroup"
)

// VariantStep is the width interval of generated variants. Images narrower than
// one step get no srcset.
const VariantStep = 200

type Signer interface {
	Sign(rawURL string) (string, error)
}

type SrcsetUseCase struct {
	uploads repo.UploadRepo
	signer  Signer

	appURL        *url.URL
	uploadsPrefix string
}

func New(uploads repo.UploadRepo, signer Signer, appURL string, uploadsPrefix string) (*SrcsetUseCase, error) {
	u, err := url.Parse(appURL)
	if err != nil {
		return nil, fmt.Errorf("SrcsetUseCase - New - url.Parse: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("SrcsetUseCase - New - app url %q has no host", appURL)
	}

	return &SrcsetUseCase{
		uploads:       uploads,
		signer:        signer,
		appURL:        &url.URL{Scheme: u.Scheme, Host: u.Host},
		uploadsPrefix: "/" + strings.Trim(uploadsPrefix, "/"),
	}, nil
}

// GenerateURL merges params into rawURL and signs it. URLs on another host are
// returned unchanged. Relative input gives relative output, signed for the app host.
func (uc *SrcsetUseCase) GenerateURL(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("SrcsetUseCase - GenerateURL - url.Parse: %w", err)
	}

	if uc.foreign(u) {
		return rawURL, nil
	}

	q := u.Query()
	q.Del(signedurl.KeyParam)
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	relative := u.Host == ""
	abs := uc.appURL.ResolveReference(u)

	signed, err := uc.signer.Sign(abs.String())
	if err != nil {
		return "", fmt.Errorf("SrcsetUseCase - GenerateURL - uc.signer.Sign: %w", err)
	}

	if !relative {
		return signed, nil
	}

	s, err := url.Parse(signed)
	if err != nil {
		return "", fmt.Errorf("SrcsetUseCase - GenerateURL - url.Parse: %w", err)
	}

	return s.RequestURI(), nil
}

// InjectSrcset adds a srcset to every <img> pointing at a known upload at least
// VariantStep wide. Lookups run concurrently; the first lookup error fails the call.
func (uc *SrcsetUseCase) InjectSrcset(ctx context.Context, html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("SrcsetUseCase - InjectSrcset - goquery.NewDocumentFromReader: %w", err)
	}

	imgs := doc.Find("img[src]")
	srcsets := make([]string, imgs.Length())

	g, gctx := errgroup.WithContext(ctx)

	imgs.Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")

		sitePath, ok := uc.uploadPath(src)
		if !ok {
			return
		}

		g.Go(func() error {
			upload, err := uc.uploads.FindByPath(gctx, sitePath)
			if err != nil {
				if errors.Is(err, errs.ErrRecordNotFound) {
					return nil
				}
				return fmt.Errorf("SrcsetUseCase - InjectSrcset - uc.uploads.FindByPath: %w", err)
			}

			srcsets[i], err = uc.variants(src, upload.WidthOrZero())

			return err
		})
	})

	if err = g.Wait(); err != nil {
		return "", err
	}

	imgs.Each(func(i int, s *goquery.Selection) {
		if srcsets[i] != "" {
			s.SetAttr("srcset", srcsets[i])
		}
	})

	var out string
	if strings.Contains(strings.ToLower(html), "<html") {
		out, err = doc.Html()
	} else {
		out, err = doc.Find("body").Html()
	}
	if err != nil {
		return "", fmt.Errorf("SrcsetUseCase - InjectSrcset - Html: %w", err)
	}

	return out, nil
}

func (uc *SrcsetUseCase) variants(src string, width int) (string, error) {
	var entries []string

	for w := VariantStep; w < width; w += VariantStep {
		u, err := uc.GenerateURL(src, map[string]string{"width": strconv.Itoa(w)})
		if err != nil {
			return "", fmt.Errorf("SrcsetUseCase - variants: %w", err)
		}
		entries = append(entries, u+" "+strconv.Itoa(w)+"w")
	}

	return strings.Join(entries, ", "), nil
}

func (uc *SrcsetUseCase) uploadPath(src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil || uc.foreign(u) {
		return "", false
	}

	p := path.Clean("/" + u.Path)
	if !strings.HasPrefix(p, uc.uploadsPrefix+"/") {
		return "", false
	}

	return p, true
}

func (uc *SrcsetUseCase) foreign(u *url.URL) bool {
	return u.Host != "" && !strings.EqualFold(u.Hostname(), uc.appURL.Hostname())
}
