package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/ducksearch/internal/fingerprint"
	"github.com/FranksOps/ducksearch/pkg/httpclient"
	"github.com/FranksOps/ducksearch/pkg/proxy"
	"github.com/FranksOps/ducksearch/pkg/ratelimit"
	"github.com/FranksOps/ducksearch/pkg/session"
	"github.com/FranksOps/ducksearch/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// Page is the raw outcome of a single page fetch.
type Page struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// FetchConfig configures a Fetcher.
type FetchConfig struct {
	Timeout time.Duration
	// MaxRedirects of 0 follows no redirects: the first redirect response is
	// an error. Negative values return redirect responses unfollowed.
	MaxRedirects int
	// Jar replays stored cookies on every request and ingests Set-Cookie
	// values from every response, successful or not.
	Jar       *session.Jar
	ProxyPool *proxy.Pool
	// UAPool supplies the User-Agent for requests whose headers carry none,
	// rotating per request. Nil means the fixed default signature.
	UAPool      *useragent.Pool
	Fingerprint fingerprint.Profile
	// Limiter, when set, is awaited before every request so all fetches
	// share one cadence.
	Limiter *ratelimit.Limiter
}

// Fetcher performs single URL fetches, carrying the session cookie jar and
// the global request cadence across calls.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher initializes a new Fetcher with the given configuration.
// A single client is held across requests so connection pooling persists
// for the lifetime of the Fetcher.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if string(cfg.Fingerprint) == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}

	// The proxy function reads from the request context so the pool can
	// rotate per request without mutating the shared transport.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if val := req.Context().Value(proxyKey); val != nil {
			if u, ok := val.(*url.URL); ok {
				return u, nil
			}
		}
		if req.URL.Hostname() == "127.0.0.1" || req.URL.Hostname() == "localhost" {
			// Keep system proxies away from local test servers.
			return nil, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{
		config: cfg,
		client: client,
	}, nil
}

// Fetch executes a GET request to the target URL with the provided headers
// and returns the raw page. Cookies held in the jar are attached on the way
// out; Set-Cookie values on the response are ingested before the status is
// checked, so cookies from a challenge response still carry into the next
// attempt. A non-2xx status is an error.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string, header http.Header) (*Page, error) {
	if f.config.Limiter != nil {
		if err := f.config.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if req.Header.Get("User-Agent") == "" {
		if f.config.UAPool != nil {
			req.Header.Set("User-Agent", f.config.UAPool.GetSequential())
		} else {
			req.Header.Set("User-Agent", useragent.Default)
		}
	}

	if f.config.Jar != nil {
		if cookie, ok := f.config.Jar.Header(); ok {
			req.Header.Set("Cookie", cookie)
		}
	}

	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		if activeProxy = f.config.ProxyPool.Next(); activeProxy != nil {
			req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
		}
	}

	resp, err := f.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.ProxyPool.MarkSuccess(activeProxy)
	}

	if f.config.Jar != nil {
		f.config.Jar.Ingest(resp.Header.Values("Set-Cookie"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	page := &Page{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Duration:   time.Since(start),
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return page, nil
}
