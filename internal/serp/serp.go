package serp

import "context"

// Result is a single search result extracted from an engine's results page.
// Ordering follows the source markup; records are immutable once returned.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// SafeSearch selects the engine's content-filtering strictness.
type SafeSearch int

const (
	// SafeSearchUnset omits the safe-search parameter entirely.
	SafeSearchUnset SafeSearch = iota
	SafeSearchOff
	SafeSearchModerate
	SafeSearchStrict
)

// Options configures a single search call. The zero value is usable:
// no locale, no offset, default result cap, default user agent.
type Options struct {
	// Locale is an opaque language-region token forwarded verbatim (e.g. "us-en").
	Locale string
	// Offset is a pagination offset in the engine's native unit. Negative
	// values are clamped to zero.
	Offset int
	// SafeSearch sets the content-filtering level. Unset means the parameter
	// is not sent upstream.
	SafeSearch SafeSearch
	// MaxResults caps the returned records. Zero means the default of 10;
	// negative values are rejected.
	MaxResults int
	// UserAgent overrides the default desktop browser signature.
	UserAgent string
}

// Provider abstracts a search engine that can return ordered results for a
// query. Implementations may scrape HTML endpoints or call official APIs.
type Provider interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}
