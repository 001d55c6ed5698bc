package bildspel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/tstromberg/bildspel/pkg/api"
	"github.com/tstromberg/bildspel/pkg/photo"
)

// NoticeUnavailable is shown on the index when random photos could not be fetched.
var NoticeUnavailable = "Photos are unavailable right now. Please try again later."

// Fetcher is the subset of the API client that page assembly needs.
type Fetcher interface {
	FetchRandomPhotos(ctx context.Context) ([]photo.Photo, error)
	FetchCollections(ctx context.Context) ([]photo.CollectionMeta, error)
	FetchCollectionBySlug(ctx context.Context, slug string) (*photo.CollectionFull, error)
}

// an Assembly is everything needed to render the site.
type Assembly struct {
	Recent      *Album
	Collections []photo.CollectionMeta
	Albums      []*Album

	// Notice is a user-visible message for a degraded index page.
	Notice string
}

// CollectIndex fetches the data for the index page: random photos and the collection list, in
// parallel. A failed photo fetch degrades to an empty gallery with a notice. A missing collections
// endpoint (404) yields no collections.
func CollectIndex(ctx context.Context, c *Config, f Fetcher) (*Assembly, error) {
	a := &Assembly{
		Recent: &Album{
			OutPath:     c.OutDir,
			Title:       c.Title,
			Description: c.Description,
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ps, err := f.FetchRandomPhotos(gctx)
		if err != nil {
			klog.Warningf("random photos unavailable: %v", err)
			a.Notice = NoticeUnavailable
			return nil
		}
		a.Recent.Photos = photo.Visible(ps)
		return nil
	})

	g.Go(func() error {
		cs, err := f.FetchCollections(gctx)
		if errors.Is(err, api.ErrNotFound) {
			klog.Warningf("collections endpoint not found, skipping collection pages: %v", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch collections: %w", err)
		}
		a.Collections = uniqueSlugs(photo.VisibleCollections(cs))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	klog.V(1).Infof("index: %d photos, %d collections", len(a.Recent.Photos), len(a.Collections))
	return a, nil
}

// Collect collects an assembly of every page on the site.
func Collect(ctx context.Context, c *Config, f Fetcher) (*Assembly, error) {
	klog.Infof("collect: %s -> %s", c.APIBaseURL, c.OutDir)

	a, err := CollectIndex(ctx, c, f)
	if err != nil {
		return nil, err
	}

	albums := make([]*Album, len(a.Collections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency())

	for i, m := range a.Collections {
		i, m := i, m
		g.Go(func() error {
			slug := m.Slug()
			cf, err := f.FetchCollectionBySlug(gctx, slug)
			if err != nil {
				return fmt.Errorf("fetch collection %q: %w", slug, err)
			}
			klog.V(1).Infof("collected %q with %d photos", slug, len(cf.Photos))
			albums[i] = NewAlbum(c, slug, cf)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.Albums = albums
	return a, nil
}

// uniqueSlugs keeps the first collection for each slug. Later ones would overwrite its page.
func uniqueSlugs(cs []photo.CollectionMeta) []photo.CollectionMeta {
	seen := map[string]int{}
	out := make([]photo.CollectionMeta, 0, len(cs))
	for _, m := range cs {
		slug := m.Slug()
		if id, ok := seen[slug]; ok {
			klog.Warningf("collection %d (%q) has the same slug %q as collection %d, skipping", m.ID, m.Name, slug, id)
			continue
		}
		seen[slug] = m.ID
		out = append(out, m)
	}
	return out
}
