// Package validate runs post-build smoke checks against the environment and the emitted site.
package validate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"

	"github.com/tstromberg/bildspel/pkg/api"
	"github.com/tstromberg/bildspel/pkg/config"
)

var (
	lightboxRe = regexp.MustCompile(`id=("|')lightbox("|')`)
	onclickRe  = regexp.MustCompile(`onclick="openLightbox\(`)
)

// Options controls a validation run.
type Options struct {
	// DistDir is the build output directory.
	DistDir string
	// Getenv looks up environment variables, os.Getenv when nil.
	Getenv func(string) string
	// HTTPClient is used for the API reachability check, http.DefaultClient when nil.
	HTTPClient *http.Client
}

// Report collects validation results. Errors fail the build, warnings do not.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether no errors were found.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// String formats the report for the terminal.
func (r *Report) String() string {
	var sb strings.Builder
	sb.WriteString("[validate-build] Validation complete.")
	for _, s := range []struct {
		label string
		items []string
	}{{"Errors", r.Errors}, {"Warnings", r.Warnings}} {
		if len(s.items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s:", s.label)
		for _, i := range s.items {
			fmt.Fprintf(&sb, "\n  - %s", i)
		}
	}
	return sb.String()
}

// Run validates the environment, the build output in o.DistDir, and API reachability.
func Run(ctx context.Context, o Options) *Report {
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}

	r := &Report{}
	requireEnv(r, o.Getenv, config.EnvImageBaseURL, true)
	requireEnv(r, o.Getenv, config.EnvAPIBaseURL, false)

	checkDist(r, o.DistDir)

	if apiBase := o.Getenv(config.EnvAPIBaseURL); apiBase != "" {
		checkCollections(ctx, r, o.HTTPClient, apiBase)
	}
	return r
}

func requireEnv(r *Report, getenv func(string) string, name string, mustEndWithSlash bool) {
	v := getenv(name)
	if v == "" {
		r.errorf("Missing required environment variable %s", name)
		return
	}
	if mustEndWithSlash && !strings.HasSuffix(v, "/") {
		r.warnf("%s should end with a trailing slash (currently: %s)", name, v)
	}
}

func checkDist(r *Report, dist string) {
	st, err := os.Stat(dist)
	if err != nil || !st.IsDir() {
		r.errorf("%s/ directory does not exist. Did the build step run?", filepath.Base(dist))
		return
	}

	index := filepath.Join(dist, "index.html")
	bs, err := os.ReadFile(index)
	if err != nil {
		r.errorf("%s/index.html is missing.", filepath.Base(dist))
	} else {
		if !lightboxRe.Match(bs) {
			r.errorf("Lightbox markup (#lightbox) not found in index.html.")
		}
		if !onclickRe.Match(bs) {
			r.warnf(`No gallery image onclick="openLightbox(...)" found in index.html.`)
		}
	}

	pages := 0
	err = godirwalk.Walk(dist, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || !strings.HasSuffix(path, ".html") || filepath.Clean(path) == index {
				return nil
			}
			pages++
			bs, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if !lightboxRe.Match(bs) {
				rel, _ := filepath.Rel(dist, path)
				r.warnf("Lightbox markup (#lightbox) not found in %s.", rel)
			}
			return nil
		},
	})
	if err != nil {
		r.warnf("Could not walk %s: %v", dist, err)
	}
	klog.V(1).Infof("checked %d pages besides index.html", pages)
}

func checkCollections(ctx context.Context, r *Report, hc *http.Client, apiBase string) {
	c := api.New(apiBase, api.WithHTTPClient(hc))
	cs, err := c.FetchCollections(ctx)

	var se *api.StatusError
	switch {
	case errors.Is(err, api.ErrNotFound):
		r.warnf("Collections endpoint returned 404 (%s/collections). Static generation will skip collection pages.", c.BaseURL())
	case errors.As(err, &se):
		r.warnf("Collections endpoint returned status %d.", se.StatusCode)
	case err != nil:
		r.warnf("Collections endpoint fetch failed: %v", err)
	case len(cs) == 0:
		r.warnf("Collections endpoint returned an empty array. No collection pages will be generated.")
	}
}
