// Package serve renders gallery pages per request.
package serve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"k8s.io/klog/v2"

	"github.com/tstromberg/bildspel/pkg/api"
	"github.com/tstromberg/bildspel/pkg/bildspel"
)

// shutdownTimeout bounds how long in-flight requests get after cancellation.
const shutdownTimeout = 5 * time.Second

// Server renders pages from fresh API data on every request.
type Server struct {
	c *bildspel.Config
	f bildspel.Fetcher
}

// New creates a new server.
func New(c *bildspel.Config, f bildspel.Fetcher) *Server {
	return &Server{c: c, f: f}
}

// Router returns the HTTP handler for the site.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/", s.IndexHandler())
	r.Get("/collections/{slug}", s.CollectionHandler())
	r.Get("/_/{name}", s.AssetHandler())
	return r
}

// ListenAndServe serves the site on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	return Run(ctx, NewHTTPServer(addr, s.Router()))
}

// NewHTTPServer returns an http.Server for h with sane timeouts.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run serves hs until it fails or ctx is canceled, then shuts it down.
// A shutdown triggered by ctx is not an error.
func Run(ctx context.Context, hs *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		klog.Infof("Listening on %s...", hs.Addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	klog.Infof("shutting down %s ...", hs.Addr)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// IndexHandler renders the index with a new random selection of photos.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := bildspel.CollectIndex(r.Context(), s.c, s.f)
		if err != nil {
			upstreamError(w, r, err)
			return
		}

		var buf bytes.Buffer
		if err := bildspel.RenderIndex(&buf, s.c, a); err != nil {
			klog.Errorf("render index: %v", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		writeHTML(w, buf.Bytes())
	}
}

// CollectionHandler renders a single collection.
func (s *Server) CollectionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		cf, err := s.f.FetchCollectionBySlug(r.Context(), slug)
		if err != nil {
			upstreamError(w, r, err)
			return
		}
		if cf.Meta.Hidden {
			http.NotFound(w, r)
			return
		}

		var buf bytes.Buffer
		if err := bildspel.RenderAlbum(&buf, s.c, bildspel.NewAlbum(s.c, slug, cf)); err != nil {
			klog.Errorf("render collection %q: %v", slug, err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		writeHTML(w, buf.Bytes())
	}
}

// AssetHandler serves static assets, preferring overrides from the assets directory.
func (s *Server) AssetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if name != filepath.Base(name) || name == "." || name == ".." {
			http.NotFound(w, r)
			return
		}

		if s.c.AssetsDir != "" {
			p := filepath.Join(s.c.AssetsDir, name)
			if st, err := os.Stat(p); err == nil && st.Mode().IsRegular() {
				http.ServeFile(w, r, p)
				return
			}
		}

		bs, ok := bildspel.Asset(name)
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(bs))
	}
}

func writeHTML(w http.ResponseWriter, bs []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(bs); err != nil {
		klog.V(1).Infof("write response: %v", err)
	}
}

// upstreamError maps an API failure onto a response.
func upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		klog.V(1).Infof("%s canceled: %v", r.URL.Path, err)
		return
	}
	if errors.Is(err, api.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	klog.Errorf("%s: upstream: %v", r.URL.Path, err)
	http.Error(w, "photo service unavailable", http.StatusBadGateway)
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		klog.Infof("%s %s %d %dB %s [%s]", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}
