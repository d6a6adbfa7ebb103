// Package duckduckgo implements serp.Provider against DuckDuckGo's
// HTML-rendering endpoint. It owns the retry loop around the anti-bot
// challenge interstitial; fetching, cookie replay, and request cadence live
// in the scraper the client is constructed with.
package duckduckgo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/ducksearch/internal/bypass"
	"github.com/FranksOps/ducksearch/internal/scraper"
	"github.com/FranksOps/ducksearch/internal/serp"
	"github.com/FranksOps/ducksearch/pkg/backoff"
)

const (
	// Endpoint is the HTML results page. The lite/html endpoints are the
	// only ones that render without JavaScript.
	Endpoint = "https://duckduckgo.com/html/"
	// Referer sent with every request, pointing at the service root.
	Referer = "https://duckduckgo.com/"

	// maxAttempts bounds the challenge-retry loop, counting the first fetch.
	maxAttempts = 5

	defaultMaxResults = 10
)

// ensure Client implements serp.Provider
var _ serp.Provider = (*Client)(nil)

// Config configures a DuckDuckGo client.
type Config struct {
	// BaseURL overrides Endpoint, e.g. to point at a test server.
	BaseURL string
	// Fetcher performs the HTTP requests. Required.
	Fetcher *scraper.Fetcher
	// Backoff sizes the sleep between challenge retries. Defaults to the
	// standard policy (100ms base, 120s ceiling).
	Backoff *backoff.Policy
	// Detectors identify challenge pages. Defaults to bypass.DefaultDetectors.
	Detectors []bypass.Detector
	Logger    *slog.Logger
}

// Client issues searches against the DuckDuckGo HTML endpoint.
type Client struct {
	baseURL   string
	fetcher   *scraper.Fetcher
	policy    *backoff.Policy
	detectors []bypass.Detector
	logger    *slog.Logger
}

// New creates a Client from the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = Endpoint
	}
	if cfg.Backoff == nil {
		cfg.Backoff = backoff.New(0, 0)
	}
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		fetcher:   cfg.Fetcher,
		policy:    cfg.Backoff,
		detectors: cfg.Detectors,
		logger:    cfg.Logger,
	}, nil
}

// Search runs a single query and returns up to opts.MaxResults records in
// page order. Challenge pages are retried with backoff up to the attempt
// budget; every other failure surfaces immediately as a *serp.Error.
// No partial results are returned on failure.
func (c *Client) Search(ctx context.Context, query string, opts serp.Options) ([]serp.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, serp.NewError(serp.KindInput, "query is empty", nil)
	}

	maxResults := opts.MaxResults
	if maxResults == 0 {
		maxResults = defaultMaxResults
	}
	if maxResults < 0 {
		return nil, serp.NewError(serp.KindInput, fmt.Sprintf("maxResults must be positive, got %d", opts.MaxResults), nil)
	}

	reqURL := c.buildURL(query, opts)
	header := requestHeader(opts.UserAgent)

	var page *scraper.Page
	for attempt := 0; ; attempt++ {
		c.logger.Debug("fetching results page", "url", reqURL, "attempt", attempt)

		p, err := c.fetcher.Fetch(ctx, reqURL, header)
		if err != nil {
			return nil, serp.NewError(serp.KindTransport, "fetch results page", err)
		}

		challenged, source := bypass.Challenged(p, c.detectors)
		if !challenged {
			page = p
			break
		}

		c.logger.Warn("challenge page detected", "source", source, "attempt", attempt)
		if attempt+1 >= maxAttempts {
			return nil, serp.NewError(serp.KindChallenge,
				fmt.Sprintf("challenged on %d consecutive attempts", maxAttempts), nil)
		}
		if err := sleep(ctx, c.policy.Delay(attempt)); err != nil {
			return nil, serp.NewError(serp.KindTransport, "backoff interrupted", err)
		}
	}

	results, err := extract(page.Body, maxResults)
	if err != nil {
		return nil, serp.NewError(serp.KindExtract, "parse results page", err)
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// buildURL assembles the query URL. Parameters are omitted entirely when the
// corresponding option is unset rather than sent with a default value.
func (c *Client) buildURL(query string, opts serp.Options) string {
	params := url.Values{}
	params.Set("q", query)
	if opts.Locale != "" {
		params.Set("kl", opts.Locale)
	}
	if opts.Offset > 0 {
		params.Set("s", strconv.Itoa(opts.Offset))
	}
	if code, ok := safeSearchCode(opts.SafeSearch); ok {
		params.Set("kp", code)
	}
	return c.baseURL + "?" + params.Encode()
}

// safeSearchCode maps a safe-search level to DuckDuckGo's kp parameter.
func safeSearchCode(level serp.SafeSearch) (string, bool) {
	switch level {
	case serp.SafeSearchOff:
		return "-2", true
	case serp.SafeSearchModerate:
		return "0", true
	case serp.SafeSearchStrict:
		return "1", true
	}
	return "", false
}

// requestHeader builds the fixed browser-like header set. The cookie header
// is attached later by the fetcher from its session jar, which also fills in
// the User-Agent (pool rotation or the fixed default) when no override is set.
func requestHeader(ua string) http.Header {
	h := http.Header{}
	if ua != "" {
		h.Set("User-Agent", ua)
	}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9")
	h.Set("Accept-Language", "en-US,en;q=0.9")
	h.Set("Referer", Referer)
	return h
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
