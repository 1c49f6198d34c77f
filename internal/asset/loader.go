// Package asset fetches and decodes image assets from disk or over HTTP.
package asset

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	dlimage "depthlens/internal/image"
)

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 30 * time.Second

// Loader fetches and decodes one asset. Implementations must be safe for
// concurrent use.
type Loader interface {
	Load(ctx context.Context, url string) (*dlimage.Source, error)
}

// FileLoader reads assets from the local filesystem. Relative paths are
// resolved against Base.
type FileLoader struct {
	Base string
}

// Load opens and decodes a local image.
func (l *FileLoader) Load(ctx context.Context, ref string) (*dlimage.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(path) && l.Base != "" {
		path = filepath.Join(l.Base, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open asset: %w", err)
	}
	defer file.Close()

	return dlimage.Decode(ref, file)
}

// HTTPLoader downloads assets over http or https.
type HTTPLoader struct {
	Client *http.Client
}

// NewHTTPLoader creates a loader with a bounded client timeout.
func NewHTTPLoader(timeout time.Duration) *HTTPLoader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPLoader{Client: &http.Client{Timeout: timeout}}
}

// Load downloads and decodes an image.
func (l *HTTPLoader) Load(ctx context.Context, ref string) (*dlimage.Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return dlimage.Decode(ref, resp.Body)
}

// Router dispatches on the URL scheme: http(s) to HTTP, everything else to File.
type Router struct {
	HTTP Loader
	File Loader
}

// NewRouter creates a router with default loaders. Relative file paths
// resolve against base.
func NewRouter(base string, timeout time.Duration) *Router {
	return &Router{
		HTTP: NewHTTPLoader(timeout),
		File: &FileLoader{Base: base},
	}
}

// Load picks a loader by scheme.
func (r *Router) Load(ctx context.Context, ref string) (*dlimage.Source, error) {
	if IsRemote(ref) {
		return r.HTTP.Load(ctx, ref)
	}
	return r.File.Load(ctx, ref)
}

// IsRemote reports whether ref is an http or https URL.
func IsRemote(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
