package photo

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// FallbackSize is returned by SelectBestSize when there is nothing to choose from.
const FallbackSize = "960w"

var defaultSizes = []string{"480w", "960w", "1600w", "2560w"}

// DefaultSizes returns the size list assumed when a photo's manifest is missing or corrupt.
func DefaultSizes() []string {
	return slices.Clone(defaultSizes)
}

// Viewport describes the rendering surface.
type Viewport struct {
	Width  int
	Height int
	DPR    float64
}

// DefaultViewport is used by renderers that have no client metrics.
var DefaultViewport = Viewport{Width: 1024, Height: 768, DPR: 1}

func (v Viewport) target() float64 {
	dpr := v.DPR
	if dpr <= 0 {
		dpr = 1
	}
	return float64(max(v.Width, v.Height)) * dpr
}

// ParseSizes decodes a JSON array of size labels. Corrupt or empty manifests yield DefaultSizes.
func ParseSizes(raw string) []string {
	var sizes []string
	if err := json.Unmarshal([]byte(raw), &sizes); err != nil || len(sizes) == 0 {
		return DefaultSizes()
	}
	return sizes
}

// ImageURL returns the URL of a single size variant.
func ImageURL(baseURL, basename, ext, size string) string {
	return fmt.Sprintf("%s%s_%s.%s", baseURL, basename, size, ext)
}

// BuildSrcset builds an img srcset value with one candidate per size label.
func BuildSrcset(baseURL, basename, ext string, sizes []string) string {
	cs := make([]string, 0, len(sizes))
	for _, s := range sizes {
		cs = append(cs, ImageURL(baseURL, basename, ext, s)+" "+s)
	}
	return strings.Join(cs, ", ")
}

// SelectBestSize picks the smallest size label that covers the viewport's longest edge at its
// pixel ratio, or the largest available one.
func SelectBestSize(sizes []string, vp Viewport) string {
	if len(sizes) == 0 {
		return FallbackSize
	}

	widths := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if w, ok := labelWidth(s); ok {
			widths = append(widths, w)
		}
	}
	if len(widths) == 0 {
		return sizes[0]
	}

	// Backends do not promise ascending manifests.
	slices.Sort(widths)

	target := vp.target()
	picked := widths[len(widths)-1]
	for _, w := range widths {
		if float64(w) >= target {
			picked = w
			break
		}
	}

	prefix := strconv.Itoa(picked)
	for _, s := range sizes {
		if strings.HasPrefix(s, prefix) {
			return s
		}
	}
	return sizes[len(sizes)-1]
}

// labelWidth returns the number formed by the digits of a label such as "960w".
func labelWidth(label string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return -1
		}
		return r
	}, label)
	if digits == "" {
		return 0, false
	}
	w, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return w, true
}
