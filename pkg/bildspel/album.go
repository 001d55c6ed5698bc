package bildspel

import (
	"github.com/tstromberg/bildspel/pkg/photo"
)

// Album is a rendered gallery page.
type Album struct {
	Slug    string
	OutPath string
	Hier    []string

	Title       string
	Description string
	Note        string

	Photos []photo.Photo
}

// NewAlbum builds the page for a fetched collection. Hidden photos are left out.
func NewAlbum(c *Config, slug string, cf *photo.CollectionFull) *Album {
	return &Album{
		Slug:        slug,
		OutPath:     collectionOutPath(c.OutDir, slug),
		Hier:        []string{"collections", slug},
		Title:       cf.Meta.Name,
		Description: cf.Meta.Description,
		Note:        cf.Meta.Note,
		Photos:      photo.Visible(cf.Photos),
	}
}
