package transform

import (
	"net/url"
	"strings"

	"github.com/andreyxaxa/Image-Cache/internal/entity"
	"github.com/andreyxaxa/Image-Cache/pkg/signedurl"
)

var recognizedParams = []string{
	"width", "height", "crop", "thumbnail", "rotate", "flip",
	"grayscale", "colorize", "blur", "colors", "quality",
}

// ParseSpec validates the query once. Values that fail their range rules are
// dropped, never reported as errors.
func ParseSpec(query url.Values) entity.TransformSpec {
	spec := entity.TransformSpec{Key: query.Get(signedurl.KeyParam)}

	for _, p := range recognizedParams {
		if _, ok := query[p]; ok {
			spec.Recognized = true
			break
		}
	}

	if !spec.Recognized {
		return spec
	}

	add := func(op entity.Operation) {
		spec.Operations = append(spec.Operations, op)
	}

	// resize
	width, _ := parseInt(query.Get("width"))
	height, _ := parseInt(query.Get("height"))
	if width > 0 || height > 0 {
		add(entity.Resize{Width: dimension(width), Height: dimension(height)})
	}

	// crop
	if c, ok := parseInts(query.Get("crop"), 4); ok {
		x1, y1, x2, y2 := c[0], c[1], c[2], c[3]
		crop := entity.Crop{
			X:      min(x1, x2),
			Y:      min(y1, y2),
			Width:  abs(x2 - x1),
			Height: abs(y2 - y1),
		}
		if crop.Width > 0 && crop.Height > 0 {
			add(crop)
		}
	}

	// thumbnail
	if raw := query.Get("thumbnail"); raw != "" {
		parts := strings.Split(raw, ",")
		tw, _ := parseInt(parts[0])
		th := tw
		if len(parts) > 1 {
			th, _ = parseInt(parts[1])
		}
		if tw > 0 || th > 0 {
			add(entity.Thumbnail{Width: dimension(tw), Height: dimension(th)})
		}
	}

	// rotate
	if angle, ok := parseInt(query.Get("rotate")); ok && angle > 0 && angle < 360 {
		add(entity.Rotate{Angle: angle})
	}

	// flip
	switch query.Get("flip") {
	case "h":
		add(entity.Flip{Horizontal: true})
	case "v":
		add(entity.Flip{Vertical: true})
	case "both":
		add(entity.Flip{Horizontal: true, Vertical: true})
	}

	// grayscale
	if truthy(query.Get("grayscale")) {
		add(entity.Grayscale{})
	}

	// colorize
	if c, ok := parseInts(query.Get("colorize"), 3); ok {
		if inPercent(c[0]) && inPercent(c[1]) && inPercent(c[2]) {
			add(entity.Colorize{R: 100 - c[0], G: 100 - c[1], B: 100 - c[2]})
		}
	}

	// blur
	if radius, ok := parseInt(query.Get("blur")); ok && radius > 0 {
		add(entity.Blur{Radius: float64(min(radius, entity.MaxBlurRadius))})
	}

	// colors
	if n, ok := parseInt(query.Get("colors")); ok && n > 0 {
		add(entity.Colors{N: n})
	}

	// quality
	if q, ok := parseInt(query.Get("quality")); ok && q >= 1 && q <= 100 {
		spec.Quality = q
	}

	return spec
}

// parseInt reads a leading, optionally signed, decimal integer and ignores the
// rest: "300px" is 300, "px" fails.
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)

	i, neg := 0, false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	start := i
	n := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n > 1<<30 {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}

	if i == start {
		return 0, false
	}
	if neg {
		n = -n
	}

	return n, true
}

func parseInts(s string, n int) ([]int, bool) {
	if s == "" {
		return nil, false
	}

	parts := strings.Split(s, ",")
	if len(parts) < n {
		return nil, false
	}

	res := make([]int, n)
	for i := 0; i < n; i++ {
		v, ok := parseInt(parts[i])
		if !ok {
			return nil, false
		}
		res[i] = v
	}

	return res, true
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// dimension clamps a requested side to [0, entity.MaxDimension].
func dimension(v int) int {
	return min(max(v, 0), entity.MaxDimension)
}

func inPercent(v int) bool {
	return v >= 0 && v <= 100
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
