package photo

import (
	"regexp"
	"strconv"
	"strings"
)

// CollectionMeta describes a collection as listed by the backend.
type CollectionMeta struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Note        string `json:"note,omitempty"`
	Description string `json:"description,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// CollectionFull is a collection with its photos in display order.
type CollectionFull struct {
	Meta   CollectionMeta `json:"meta"`
	Photos []Photo        `json:"photos"`
}

var (
	separatorRe    = regexp.MustCompile(`[\s_/]+`)
	nonSlugRe      = regexp.MustCompile(`[^a-z0-9-]`)
	multipleDashRe = regexp.MustCompile(`-+`)
)

// Slug returns the URL path segment for a collection, e.g. "Summer 2020" -> "summer-2020".
// Names without any usable characters fall back to the numeric id.
func (c CollectionMeta) Slug() string {
	s := strings.ToLower(strings.TrimSpace(c.Name))
	s = separatorRe.ReplaceAllString(s, "-")
	s = nonSlugRe.ReplaceAllString(s, "")
	s = multipleDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return strconv.Itoa(c.ID)
	}
	return s
}

// VisibleCollections drops hidden collections, preserving order.
func VisibleCollections(cs []CollectionMeta) []CollectionMeta {
	out := make([]CollectionMeta, 0, len(cs))
	for _, c := range cs {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}
