// Package api fetches photos and collections from the gallery backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
	"k8s.io/klog/v2"

	"github.com/tstromberg/bildspel/pkg/photo"
)

// ErrNotFound matches a StatusError for a 404 response.
var ErrNotFound = errors.New("not found")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch failed: status %d %s", e.StatusCode, e.URL)
}

// Is reports whether target is ErrNotFound and this is a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client talks to the gallery backend. Each call is a single attempt: no retries, no caching.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, e.g. to add a transport or a timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit spaces out requests, for static builds against a shared backend.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) {
		c.rateLimiter = l
	}
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// getJSON issues a GET for path and decodes the response body into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	u := c.baseURL + path

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	klog.V(1).Infof("GET %s", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, URL: u}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}

// FetchRandomPhotos returns a random selection of photos.
func (c *Client) FetchRandomPhotos(ctx context.Context) ([]photo.Photo, error) {
	var raws []photo.RawPhoto
	if err := c.getJSON(ctx, "/images/random", &raws); err != nil {
		return nil, err
	}
	klog.V(2).Infof("fetched %d random photos", len(raws))
	return photo.NormalizeAll(raws), nil
}

// FetchCollections lists all collections.
func (c *Client) FetchCollections(ctx context.Context) ([]photo.CollectionMeta, error) {
	var cs []photo.CollectionMeta
	if err := c.getJSON(ctx, "/collections", &cs); err != nil {
		return nil, err
	}
	klog.V(2).Infof("fetched %d collections", len(cs))
	return cs, nil
}

// collectionResponse is the wire shape of a single collection.
type collectionResponse struct {
	Meta   photo.CollectionMeta `json:"meta"`
	Photos []photo.RawPhoto     `json:"photos"`
}

// FetchCollectionBySlug returns a collection and its photos in backend order.
func (c *Client) FetchCollectionBySlug(ctx context.Context, slug string) (*photo.CollectionFull, error) {
	var cr collectionResponse
	if err := c.getJSON(ctx, "/collections/"+url.PathEscape(slug), &cr); err != nil {
		return nil, err
	}
	klog.V(2).Infof("fetched collection %q with %d photos", slug, len(cr.Photos))
	return &photo.CollectionFull{
		Meta:   cr.Meta,
		Photos: photo.NormalizeAll(cr.Photos),
	}, nil
}
