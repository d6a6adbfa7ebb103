package duckduckgo

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/FranksOps/ducksearch/internal/serp"
	"github.com/PuerkitoBio/goquery"
)

// extract walks result containers in document order and collects up to
// maxResults records. Containers missing a title link, title text, or a
// resolvable destination are skipped, not errors; scanning stops once the
// cap is reached.
func extract(markup []byte, maxResults int) ([]serp.Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, err
	}

	var results []serp.Result
	doc.Find(".result").EachWithBreak(func(_ int, container *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}

		link := container.Find("a.result__a").First()
		if link.Length() == 0 {
			return true
		}

		title := strings.TrimSpace(link.Text())
		if title == "" {
			return true
		}

		href, ok := link.Attr("href")
		if !ok || href == "" {
			return true
		}
		target, ok := resolveHref(href)
		if !ok {
			return true
		}

		desc := strings.TrimSpace(container.Find(".result__snippet").First().Text())

		results = append(results, serp.Result{
			Title:       title,
			URL:         target,
			Description: desc,
		})
		return true
	})

	return results, nil
}

// resolveHref turns a result link into an absolute destination URL.
// DuckDuckGo wraps most destinations in a same-origin redirect path whose
// query string carries the real URL percent-encoded under "uddg" (ads use
// "rut"). Absolute hrefs pass through verbatim. The second return is false
// when no destination can be recovered.
func resolveHref(href string) (string, bool) {
	if !strings.HasPrefix(href, "/") {
		return href, true
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	q := u.Query()
	if dest := q.Get("uddg"); dest != "" {
		return dest, true
	}
	if dest := q.Get("rut"); dest != "" {
		return dest, true
	}
	return "", false
}
