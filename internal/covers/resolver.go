// Package covers resolves book cover images from the OpenLibrary covers
// endpoint. Lookup failure always degrades to "no cover": a broken or slow
// upstream must never block a book save.
package covers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultBaseURL is the public OpenLibrary covers host.
const DefaultBaseURL = "https://covers.openlibrary.org"

// Resolver probes the covers endpoint for an image matching an external book
// id (e.g. isbn/9780441172719) and reports the URL when one exists.
type Resolver struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewResolver creates a cover resolver with rate limiting. Zero values fall
// back to the public endpoint, a 10s timeout and one probe per second.
func NewResolver(baseURL string, timeout, probeInterval time.Duration) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if probeInterval <= 0 {
		probeInterval = time.Second
	}
	return &Resolver{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		rateLimiter: newRateLimiter(probeInterval),
	}
}

// Resolve returns the cover URL for the given id scheme and number, or ""
// when the cover does not exist or the probe fails. It never returns an
// error: callers substitute "no cover" and move on.
func (r *Resolver) Resolve(ctx context.Context, scheme, number string) string {
	if scheme == "" || number == "" {
		return ""
	}

	// default=false makes OpenLibrary 404 instead of serving a placeholder
	coverURL := fmt.Sprintf("%s/b/%s/%s-L.jpg?default=false",
		r.baseURL, url.PathEscape(scheme), url.PathEscape(number))

	r.rateLimiter.wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "BookNotes/1.0 (+https://github.com/wkxuan/booknotes)")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		log.Printf("Cover probe failed for %s/%s: %v", scheme, number, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("No cover for %s/%s (status %d)", scheme, number, resp.StatusCode)
		return ""
	}
	return coverURL
}
