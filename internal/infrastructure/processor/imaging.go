package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"

	"github.com/andreyxaxa/Image-Cache/internal/entity"
	"github.com/andreyxaxa/Image-Cache/pkg/types/errs"
	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
)

const maxPaletteColors = 256

type ImageProcessor struct {
	filter imaging.ResampleFilter
}

func New() *ImageProcessor {
	return &ImageProcessor{filter: imaging.Lanczos}
}

// FrameCount returns the number of frames of a GIF and 1 for every other type.
func (p *ImageProcessor) FrameCount(ctx context.Context, contentType string, data []byte) (int, error) {
	if contentType != "image/gif" {
		return 1, nil
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("ImageProcessor - FrameCount - gif.DecodeAll: %w", err)
	}

	return len(g.Image), nil
}

func (p *ImageProcessor) Decode(ctx context.Context, data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Decode - imaging.Decode: %w", err)
	}

	return img, nil
}

// Apply runs a single operation. Operations that would not change the image
// (resize to a larger size, for instance) return it as is.
func (p *ImageProcessor) Apply(ctx context.Context, img image.Image, op entity.Operation) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ImageProcessor - Apply - %s: %w", op.Name(), err)
	}

	var res image.Image

	switch o := op.(type) {
	case entity.Resize:
		res = p.resize(img, o)
	case entity.Crop:
		res = imaging.Crop(img, image.Rect(o.X, o.Y, o.X+o.Width, o.Y+o.Height))
	case entity.Thumbnail:
		res = p.thumbnail(img, o)
	case entity.Rotate:
		// imaging rotates counter-clockwise
		res = imaging.Rotate(img, float64(360-o.Angle), color.Transparent)
	case entity.Flip:
		res = img
		if o.Horizontal {
			res = imaging.FlipH(res)
		}
		if o.Vertical {
			res = imaging.FlipV(res)
		}
	case entity.Grayscale:
		res = imaging.Grayscale(img)
	case entity.Colorize:
		res = colorize(img, o)
	case entity.Blur:
		res = imaging.Blur(img, min(o.Radius, entity.MaxBlurRadius))
	case entity.Colors:
		var err error
		res, err = quantizeColors(img, o.N)
		if err != nil {
			return nil, fmt.Errorf("ImageProcessor - Apply - quantizeColors: %w", err)
		}
	default:
		return nil, fmt.Errorf("ImageProcessor - Apply - %T: %w", op, errs.ErrUnknownOperation)
	}

	if res.Bounds().Empty() {
		return nil, fmt.Errorf("ImageProcessor - Apply - %s: empty result", op.Name())
	}

	return res, nil
}

// Encode writes img in the format of contentType. quality only affects JPEG,
// 0 keeps the encoder default.
func (p *ImageProcessor) Encode(ctx context.Context, img image.Image, contentType string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var format imaging.Format
	var opts []imaging.EncodeOption

	switch contentType {
	case "image/jpeg":
		format = imaging.JPEG
		if quality > 0 {
			opts = append(opts, imaging.JPEGQuality(quality))
		}
	case "image/png":
		format = imaging.PNG
	case "image/gif":
		format = imaging.GIF
	default:
		return nil, fmt.Errorf("ImageProcessor - Encode - %s: %w", contentType, errs.ErrUnsupportedFormat)
	}

	err := imaging.Encode(&buf, img, format, opts...)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Encode - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}

// resize never upscales: it only runs when the target is smaller than the source
// in at least one of the requested axes.
func (p *ImageProcessor) resize(img image.Image, o entity.Resize) image.Image {
	b := img.Bounds()

	switch {
	case o.Width > 0 && o.Height > 0:
		if o.Width < b.Dx() || o.Height < b.Dy() {
			return imaging.Fit(img, o.Width, o.Height, p.filter)
		}
	case o.Width > 0:
		if o.Width < b.Dx() {
			return imaging.Resize(img, o.Width, 0, p.filter)
		}
	case o.Height > 0:
		if o.Height < b.Dy() {
			return imaging.Resize(img, 0, o.Height, p.filter)
		}
	}

	return img
}

// thumbnail never upscales: a box larger than the source is shrunk, keeping
// its aspect, until it fits.
func (p *ImageProcessor) thumbnail(img image.Image, o entity.Thumbnail) image.Image {
	if o.Width == 0 || o.Height == 0 {
		return p.resize(img, entity.Resize{Width: o.Width, Height: o.Height})
	}

	b := img.Bounds()
	w, h := fitBox(o.Width, o.Height, b.Dx(), b.Dy())

	var resized *image.NRGBA
	if b.Dy() > b.Dx() {
		resized = imaging.Resize(img, w, 0, p.filter)
	} else {
		resized = imaging.Resize(img, 0, h, p.filter)
	}

	return imaging.CropCenter(resized, w, h)
}

func fitBox(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))

	return max(int(float64(w)*scale+0.5), 1), max(int(float64(h)*scale+0.5), 1)
}

// colorize blends every channel toward black by the given percentage.
func colorize(img image.Image, o entity.Colorize) image.Image {
	r := 1 - float64(o.R)/100
	g := 1 - float64(o.G)/100
	b := 1 - float64(o.B)/100

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: uint8(float64(c.R)*r + 0.5),
			G: uint8(float64(c.G)*g + 0.5),
			B: uint8(float64(c.B)*b + 0.5),
			A: c.A,
		}
	})
}

func quantizeColors(img image.Image, n int) (image.Image, error) {
	if n > maxPaletteColors {
		n = maxPaletteColors
	}

	q := quantize.MedianCutQuantizer{}
	palette := q.Quantize(make(color.Palette, 0, n), img)
	if len(palette) == 0 {
		return nil, fmt.Errorf("empty palette")
	}

	b := img.Bounds()
	dst := image.NewPaletted(b, palette)
	draw.FloydSteinberg.Draw(dst, b, img, b.Min)

	return dst, nil
}
