package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
	"k8s.io/klog/v2"

	"github.com/tstromberg/bildspel/pkg/api"
	"github.com/tstromberg/bildspel/pkg/bildspel"
	"github.com/tstromberg/bildspel/pkg/config"
	"github.com/tstromberg/bildspel/pkg/serve"
)

var (
	outDir      = flag.String("out", "dist", "Location of output directory")
	assetsDir   = flag.String("assets", "", "Optional directory of static asset overrides (site.css, favicon, ...)")
	envFile     = flag.String("env-file", ".env", "Path to a .env file with PUBLIC_* settings")
	title       = flag.String("title", "bildspel 📸", "Title of the site")
	description = flag.String("description", "", "Description shown under the title")
	ext         = flag.String("ext", bildspel.DefaultImageExt, "Image file extension on the image host")
	concurrency = flag.Int("concurrency", 4, "Number of collections to fetch at once")
	rps         = flag.Float64("rate", 0, "Maximum API requests per second (0 for unlimited)")
	listen      = flag.Bool("listen", false, "serve the output directory via HTTP")
	ssr         = flag.Bool("ssr", false, "render pages per request instead of building once")
	addr        = flag.String("addr", "localhost:12800", "host:port to bind to in listen or ssr mode")
	watchFlag   = flag.Bool("watch", false, "watch for changes to --assets and --env-file and rebuild")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *ssr {
		c, client, err := setup()
		if err != nil {
			klog.Exitf("setup failed: %v", err)
		}
		if err := serve.New(c, client).ListenAndServe(ctx, *addr); err != nil {
			klog.Exitf("listen failed: %v", err)
		}
		return
	}

	if *outDir == "" {
		klog.Exitf("--out is a required flag")
	}

	if err := build(ctx); err != nil {
		klog.Exitf("build failed: %v", err)
	}

	var wg sync.WaitGroup
	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(ctx); err != nil {
				klog.Exitf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serve.Run(ctx, serve.NewHTTPServer(*addr, http.FileServer(http.Dir(*outDir)))); err != nil {
				klog.Exitf("listen failed: %v", err)
			}
		}()
	}

	wg.Wait()
}

// setup reads the environment and flags into a site config and API client.
func setup() (*bildspel.Config, *api.Client, error) {
	env, err := config.FromEnvFile(*envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, nil, err
	}

	c := &bildspel.Config{
		APIBaseURL:   env.APIBaseURL,
		ImageBaseURL: env.ImageBaseURL,
		ImageExt:     *ext,
		OutDir:       *outDir,
		AssetsDir:    *assetsDir,
		Title:        *title,
		Description:  *description,
		Concurrency:  *concurrency,
	}

	opts := []api.Option{api.WithHTTPClient(&http.Client{Timeout: 30 * time.Second})}
	if *rps > 0 {
		opts = append(opts, api.WithRateLimit(rate.NewLimiter(rate.Limit(*rps), 1)))
	}
	return c, api.New(env.APIBaseURL, opts...), nil
}

// build fetches everything from the API and writes the site to --out.
func build(ctx context.Context) error {
	c, client, err := setup()
	if err != nil {
		return err
	}

	start := time.Now()
	a, err := bildspel.Collect(ctx, c, client)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	if err := bildspel.Render(c, a); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	klog.Infof("built %d collections into %s in %s", len(a.Albums), c.OutDir, time.Since(start).Round(time.Millisecond))
	return nil
}

// watch rebuilds the site when the assets directory or env file changes.
func watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace files rather than write them, so watch the env file's directory.
	dirs := []string{}
	if *assetsDir != "" {
		dirs = append(dirs, *assetsDir)
	}
	envPath := ""
	if *envFile != "" {
		envPath = filepath.Clean(*envFile)
		dirs = append(dirs, filepath.Dir(envPath))
	}

	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	klog.Infof("watching %d dirs ...", len(dirs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(event, envPath) {
				continue
			}
			klog.Infof("event: %s", event)
			if err := build(ctx); err != nil {
				klog.Errorf("rebuild failed: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

func relevant(e fsnotify.Event, envPath string) bool {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Rename) && !e.Has(fsnotify.Remove) {
		return false
	}
	if *assetsDir != "" && filepath.Dir(filepath.Clean(e.Name)) == filepath.Clean(*assetsDir) {
		return true
	}
	return envPath != "" && filepath.Clean(e.Name) == envPath
}
