package bildspel

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"github.com/tstromberg/bildspel/pkg/photo"
)

//go:embed assets/partials.tmpl
var partialsTmpl string

//go:embed assets/index.tmpl
var idxTmpl string

//go:embed assets/collection.tmpl
var collectionTmpl string

//go:embed assets/style.css
var styleText string

//go:embed assets/lightbox.js
var lightboxJS []byte

//go:embed assets/site.css
var siteCSS []byte

// assetsPrefix is the directory under the site root that holds static assets.
const assetsPrefix = "_"

// thumbSizes is the img sizes attribute for gallery tiles.
const thumbSizes = "(max-width: 640px) 100vw, (max-width: 1200px) 50vw, 33vw"

// Render writes the whole site to c.OutDir.
func Render(c *Config, a *Assembly) error {
	if err := copyAssets(c.AssetsDir, c.OutDir); err != nil {
		return fmt.Errorf("copyAssets: %w", err)
	}

	if err := writeIndex(c, a); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if err := writeAlbums(c, a.Albums); err != nil {
		return fmt.Errorf("write albums: %w", err)
	}

	return nil
}

// Asset returns an embedded static asset by name.
func Asset(name string) ([]byte, bool) {
	switch name {
	case "lightbox.js":
		return lightboxJS, true
	case "site.css":
		return siteCSS, true
	}
	return nil, false
}

// copyAssets writes the embedded assets, then copies any overrides from inDir.
func copyAssets(inDir string, outDir string) error {
	dest := filepath.Join(outDir, assetsPrefix)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	for _, name := range []string{"lightbox.js", "site.css"} {
		bs, _ := Asset(name)
		if err := os.WriteFile(filepath.Join(dest, name), bs, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	if inDir == "" {
		return nil
	}

	for _, ext := range []string{"png", "css", "js", "jpg", "gif", "svg", "ico", "webp"} {
		src := fmt.Sprintf("%s/*.%s", inDir, ext)
		ms, err := filepath.Glob(src)
		klog.V(1).Infof("copying %d assets from %s", len(ms), src)
		if err != nil {
			return err
		}
		for _, m := range ms {
			if err := copy.Copy(m, filepath.Join(dest, filepath.Base(m))); err != nil {
				return err
			}
		}
	}
	return nil
}

func collectionOutPath(outDir string, slug string) string {
	return filepath.Join(outDir, "collections", slug)
}

func writeIndex(c *Config, a *Assembly) error {
	klog.V(1).Infof("writing index with %d photos and %d collections ...", len(a.Recent.Photos), len(a.Collections))

	var buf bytes.Buffer
	if err := RenderIndex(&buf, c, a); err != nil {
		return fmt.Errorf("render index: %w", err)
	}

	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	p := filepath.Join(c.OutDir, "index.html")
	klog.V(1).Infof("Writing index to %s", p)
	return os.WriteFile(p, buf.Bytes(), 0o644)
}

func writeAlbums(c *Config, as []*Album) error {
	klog.Infof("Writing out %d albums ...", len(as))
	for _, a := range as {
		klog.V(1).Infof("rendering album %s [%s] with %d photos ...", a.Title, a.OutPath, len(a.Photos))

		var buf bytes.Buffer
		if err := RenderAlbum(&buf, c, a); err != nil {
			return fmt.Errorf("render album: %w", err)
		}

		if err := os.MkdirAll(a.OutPath, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}

		p := filepath.Join(a.OutPath, "index.html")
		klog.V(1).Infof("Writing album to %s", p)

		if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write file: %w", err)
		}
	}

	return nil
}

// RenderIndex renders the index page: the random gallery and the collection list.
func RenderIndex(w io.Writer, c *Config, a *Assembly) error {
	return execute(w, c, idxTmpl, a.Recent, a.Collections, a.Notice)
}

// RenderAlbum renders a single collection page.
func RenderAlbum(w io.Writer, c *Config, a *Album) error {
	return execute(w, c, collectionTmpl, a, nil, "")
}

func execute(w io.Writer, c *Config, ts string, a *Album, cs []photo.CollectionMeta, notice string) error {
	tmpl, err := template.New("page").Funcs(tmplFunctions(c)).Parse(partialsTmpl)
	if err != nil {
		return fmt.Errorf("parse partials: %w", err)
	}
	if tmpl, err = tmpl.Parse(ts); err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	data := struct {
		Site        string
		Album       *Album
		Collections []photo.CollectionMeta
		Notice      string
		Sizes       string
		Style       template.CSS
	}{
		Site:        c.Title,
		Album:       a,
		Collections: cs,
		Notice:      notice,
		Sizes:       thumbSizes,
		Style:       template.CSS(styleText),
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return nil
}

// tmplFunctions are functions available to our templates.
func tmplFunctions(c *Config) template.FuncMap {
	return template.FuncMap{
		"Srcset": func(p photo.Photo) string {
			return photo.BuildSrcset(c.ImageBaseURL, p.Basename, c.imageExt(), p.Sizes())
		},
		"BestSrc": func(p photo.Photo) string {
			size := photo.SelectBestSize(p.Sizes(), c.viewport())
			return photo.ImageURL(c.ImageBaseURL, p.Basename, c.imageExt(), size)
		},
		"PhotoDate": photo.FormatDate,
		"Rotation": func(p photo.Photo) int {
			return photo.RotationDegrees(p.Rotation)
		},
		"AltText": func(p photo.Photo) string {
			if p.Description != "" {
				return p.Description
			}
			return "Photo, " + photo.FormatDate(p)
		},
		"ToRoot": func(hier []string) string {
			var sb strings.Builder
			for range hier {
				sb.WriteString("../")
			}
			return sb.String()
		},
	}
}
