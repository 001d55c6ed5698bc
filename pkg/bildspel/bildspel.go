// Package bildspel assembles gallery pages from the photo API and renders them to HTML.
package bildspel

import (
	"github.com/tstromberg/bildspel/pkg/photo"
)

// DefaultImageExt is the file extension of the backend's image variants.
const DefaultImageExt = "jpg"

// Config holds configuration for bildspel.
type Config struct {
	APIBaseURL   string
	ImageBaseURL string
	ImageExt     string

	OutDir    string
	AssetsDir string

	Title       string
	Description string

	// Viewport picks the fallback src for browsers that ignore srcset.
	Viewport photo.Viewport

	// Concurrency bounds parallel collection fetches.
	Concurrency int
}

func (c *Config) imageExt() string {
	if c.ImageExt == "" {
		return DefaultImageExt
	}
	return c.ImageExt
}

func (c *Config) viewport() photo.Viewport {
	if c.Viewport.Width == 0 && c.Viewport.Height == 0 {
		return photo.DefaultViewport
	}
	return c.Viewport
}

func (c *Config) concurrency() int {
	if c.Concurrency < 1 {
		return 4
	}
	return c.Concurrency
}
