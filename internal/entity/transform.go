package entity

import "strings"

// TransformRequest is derived from a single HTTP request and never persisted.
type TransformRequest struct {
	// Path is the escaped request path, as it appears on the wire.
	Path     string
	RawQuery string
}

var mimeByExt = map[string]string{
	".gif":  "image/gif",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// MimeTypeByExt returns the content type of a transformable extension and false
// for everything else (svg, webp, ...), which is served untouched.
func MimeTypeByExt(ext string) (string, bool) {
	m, ok := mimeByExt[strings.ToLower(ext)]
	return m, ok
}

// Operation is one parsed transform. The concrete types below are the only
// implementations.
type Operation interface {
	Name() string
	isOperation()
}

type (
	Resize struct {
		Width  int // 0 when not requested
		Height int // 0 when not requested
	}

	Crop struct {
		X, Y          int
		Width, Height int
	}

	Thumbnail struct {
		Width, Height int
	}

	Rotate struct {
		Angle int
	}

	Flip struct {
		Horizontal bool
		Vertical   bool
	}

	Grayscale struct{}

	// Colorize holds percentages already inverted (100 - requested).
	Colorize struct {
		R, G, B int
	}

	Blur struct {
		Radius float64
	}

	Colors struct {
		N int
	}
)

func (Resize) Name() string    { return "resize" }
func (Crop) Name() string      { return "crop" }
func (Thumbnail) Name() string { return "thumbnail" }
func (Rotate) Name() string    { return "rotate" }
func (Flip) Name() string      { return "flip" }
func (Grayscale) Name() string { return "grayscale" }
func (Colorize) Name() string  { return "colorize" }
func (Blur) Name() string      { return "blur" }
func (Colors) Name() string    { return "colors" }

func (Resize) isOperation()    {}
func (Crop) isOperation()      {}
func (Thumbnail) isOperation() {}
func (Rotate) isOperation()    {}
func (Flip) isOperation()      {}
func (Grayscale) isOperation() {}
func (Colorize) isOperation()  {}
func (Blur) isOperation()      {}
func (Colors) isOperation()    {}

// Request limits. Larger values are clamped when the query is parsed.
const (
	MaxDimension  = 8192
	MaxBlurRadius = 100
)

// TransformSpec is the validated form of a transform query string.
type TransformSpec struct {
	// Operations are in pipeline order: resize, crop, thumbnail, rotate, flip,
	// grayscale, colorize, blur, colors.
	Operations []Operation
	// Quality is 0 when not requested.
	Quality int
	// Key is the signature carried by the request, empty when absent.
	Key string
	// Recognized is true when at least one transform parameter was present,
	// even if its value was later dropped as invalid.
	Recognized bool
}
