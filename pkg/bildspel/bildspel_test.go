package bildspel

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstromberg/bildspel/pkg/api"
	"github.com/tstromberg/bildspel/pkg/photo"
)

func intp(i int) *int { return &i }

type fakeFetcher struct {
	random      []photo.Photo
	randomErr   error
	metas       []photo.CollectionMeta
	metasErr    error
	collections map[string]*photo.CollectionFull
	slugErr     error

	mu      sync.Mutex
	fetched []string
}

func (f *fakeFetcher) FetchRandomPhotos(context.Context) ([]photo.Photo, error) {
	return f.random, f.randomErr
}

func (f *fakeFetcher) FetchCollections(context.Context) ([]photo.CollectionMeta, error) {
	return f.metas, f.metasErr
}

func (f *fakeFetcher) FetchCollectionBySlug(_ context.Context, slug string) (*photo.CollectionFull, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, slug)
	f.mu.Unlock()

	if f.slugErr != nil {
		return nil, f.slugErr
	}
	cf, ok := f.collections[slug]
	if !ok {
		return nil, &api.StatusError{StatusCode: http.StatusNotFound, URL: "/collections/" + slug}
	}
	return cf, nil
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		random: []photo.Photo{
			{ID: 1, Basename: "one", Width: 300, Height: 200, AvailableSizes: `["480w","960w"]`, Year: intp(2020), Month: intp(5), Day: intp(3)},
			{ID: 2, Basename: "two", Hidden: true},
			{ID: 3, Basename: "three", Rotation: 1, Description: "harbour at dusk"},
		},
		metas: []photo.CollectionMeta{
			{ID: 10, Name: "Summer 2020", Note: "beach days"},
			{ID: 11, Name: "Secret", Hidden: true},
			{ID: 12, Name: "Winter"},
		},
		collections: map[string]*photo.CollectionFull{
			"summer-2020": {
				Meta:   photo.CollectionMeta{ID: 10, Name: "Summer 2020", Description: "sun"},
				Photos: []photo.Photo{{ID: 5, Basename: "five"}, {ID: 4, Basename: "four", Hidden: true}, {ID: 6, Basename: "six"}},
			},
			"winter": {
				Meta:   photo.CollectionMeta{ID: 12, Name: "Winter"},
				Photos: []photo.Photo{{ID: 7, Basename: "seven"}},
			},
		},
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		APIBaseURL:   "https://api.example.com",
		ImageBaseURL: "https://img.example.com/",
		OutDir:       t.TempDir(),
		Title:        "Test Gallery",
		Description:  "photos",
	}
}

func TestCollect(t *testing.T) {
	f := newFakeFetcher()
	a, err := Collect(context.Background(), testConfig(t), f)
	require.NoError(t, err)

	require.Len(t, a.Recent.Photos, 2)
	assert.Equal(t, 1, a.Recent.Photos[0].ID)
	assert.Equal(t, 3, a.Recent.Photos[1].ID)
	assert.Empty(t, a.Notice)

	require.Len(t, a.Collections, 2)
	assert.ElementsMatch(t, []string{"summer-2020", "winter"}, f.fetched)

	require.Len(t, a.Albums, 2)
	assert.Equal(t, "summer-2020", a.Albums[0].Slug)
	assert.Equal(t, "Summer 2020", a.Albums[0].Title)
	assert.Equal(t, []string{"collections", "summer-2020"}, a.Albums[0].Hier)
	require.Len(t, a.Albums[0].Photos, 2)
	assert.Equal(t, 5, a.Albums[0].Photos[0].ID)
	assert.Equal(t, 6, a.Albums[0].Photos[1].ID)
	assert.Equal(t, "winter", a.Albums[1].Slug)
}

func TestCollect_DuplicateSlugs(t *testing.T) {
	f := newFakeFetcher()
	f.metas = append(f.metas, photo.CollectionMeta{ID: 13, Name: "summer_2020"})

	a, err := Collect(context.Background(), testConfig(t), f)
	require.NoError(t, err)

	require.Len(t, a.Collections, 2)
	assert.Equal(t, 10, a.Collections[0].ID)
	assert.Equal(t, 12, a.Collections[1].ID)
	assert.ElementsMatch(t, []string{"summer-2020", "winter"}, f.fetched)
	require.Len(t, a.Albums, 2)

	var buf bytes.Buffer
	require.NoError(t, RenderIndex(&buf, testConfig(t), a))
	assert.Equal(t, 1, strings.Count(buf.String(), `href="collections/summer-2020/"`))
}

func TestCollect_RandomFailureDegrades(t *testing.T) {
	f := newFakeFetcher()
	f.randomErr = &api.StatusError{StatusCode: http.StatusBadGateway, URL: "/images/random"}

	a, err := Collect(context.Background(), testConfig(t), f)
	require.NoError(t, err)
	assert.Empty(t, a.Recent.Photos)
	assert.Equal(t, NoticeUnavailable, a.Notice)
	assert.Len(t, a.Albums, 2)
}

func TestCollect_CollectionsNotFound(t *testing.T) {
	f := newFakeFetcher()
	f.metasErr = &api.StatusError{StatusCode: http.StatusNotFound, URL: "/collections"}

	a, err := Collect(context.Background(), testConfig(t), f)
	require.NoError(t, err)
	assert.Empty(t, a.Collections)
	assert.Empty(t, a.Albums)
	assert.Empty(t, f.fetched)
}

func TestCollect_Failures(t *testing.T) {
	boom := errors.New("boom")

	f := newFakeFetcher()
	f.metasErr = boom
	_, err := Collect(context.Background(), testConfig(t), f)
	assert.ErrorIs(t, err, boom)

	f = newFakeFetcher()
	f.slugErr = boom
	_, err = Collect(context.Background(), testConfig(t), f)
	assert.ErrorIs(t, err, boom)
}

func TestRender(t *testing.T) {
	c := testConfig(t)
	c.AssetsDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(c.AssetsDir, "site.css"), []byte("body{color:red}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(c.AssetsDir, "README.txt"), []byte("ignored"), 0o600))

	a, err := Collect(context.Background(), c, newFakeFetcher())
	require.NoError(t, err)
	require.NoError(t, Render(c, a))

	index := readFile(t, filepath.Join(c.OutDir, "index.html"))
	assert.Contains(t, index, `id="lightbox"`)
	assert.Contains(t, index, `onclick="openLightbox(`)
	assert.Contains(t, index, `srcset="https://img.example.com/one_480w.jpg 480w, https://img.example.com/one_960w.jpg 960w"`)
	// 1024x768 default viewport: the largest available variant.
	assert.Contains(t, index, `src="https://img.example.com/one_960w.jpg"`)
	assert.Contains(t, index, "May 3, 2020")
	assert.Contains(t, index, "Date unknown")
	assert.Contains(t, index, "--rotation: 90deg")
	assert.Contains(t, index, `href="collections/summer-2020/"`)
	assert.Contains(t, index, "beach days")
	assert.NotContains(t, index, "two_")
	assert.NotContains(t, index, "Secret")
	assert.Contains(t, index, `src="_/lightbox.js"`)

	album := readFile(t, filepath.Join(c.OutDir, "collections", "summer-2020", "index.html"))
	assert.Contains(t, album, "<h1>Summer 2020</h1>")
	assert.Contains(t, album, `id="lightbox"`)
	assert.Contains(t, album, `src="../../_/lightbox.js"`)
	assert.Contains(t, album, "five_1600w.jpg 1600w")
	assert.NotContains(t, album, "four_")

	assert.FileExists(t, filepath.Join(c.OutDir, "collections", "winter", "index.html"))
	assert.FileExists(t, filepath.Join(c.OutDir, "_", "lightbox.js"))
	assert.Equal(t, "body{color:red}", readFile(t, filepath.Join(c.OutDir, "_", "site.css")))
	assert.NoFileExists(t, filepath.Join(c.OutDir, "_", "README.txt"))
}

func TestRenderIndex_Notice(t *testing.T) {
	c := testConfig(t)
	a := &Assembly{Recent: &Album{Title: c.Title}, Notice: NoticeUnavailable}

	var buf bytes.Buffer
	require.NoError(t, RenderIndex(&buf, c, a))
	assert.Contains(t, buf.String(), "unavailable right now")
	assert.Contains(t, buf.String(), "No photos to show.")
	assert.NotContains(t, buf.String(), "<nav")
}

func TestRenderAlbum_EscapesText(t *testing.T) {
	c := testConfig(t)
	a := &Album{
		Title:  `<script>alert(1)</script>`,
		Hier:   []string{"collections", "x"},
		Photos: []photo.Photo{{ID: 1, Basename: "p", Description: `"quoted" & <b>`}},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderAlbum(&buf, c, a))
	out := buf.String()
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.True(t, strings.Contains(out, "&#34;quoted&#34; &amp; &lt;b&gt;"), out)
}

func TestConfigDefaults(t *testing.T) {
	c := &Config{}
	assert.Equal(t, "jpg", c.imageExt())
	assert.Equal(t, photo.DefaultViewport, c.viewport())
	assert.Equal(t, 4, c.concurrency())

	c = &Config{ImageExt: "webp", Viewport: photo.Viewport{Width: 10}, Concurrency: 2}
	assert.Equal(t, "webp", c.imageExt())
	assert.Equal(t, 10, c.viewport().Width)
	assert.Equal(t, 2, c.concurrency())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(bs)
}
