//go:build integration

package test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/ducksearch/internal/fingerprint"
	"github.com/FranksOps/ducksearch/internal/pipeline"
	"github.com/FranksOps/ducksearch/internal/scraper"
	"github.com/FranksOps/ducksearch/internal/serp"
	"github.com/FranksOps/ducksearch/internal/serp/duckduckgo"
	"github.com/FranksOps/ducksearch/internal/storage"
	"github.com/FranksOps/ducksearch/pkg/backoff"
	"github.com/FranksOps/ducksearch/pkg/ratelimit"
	"github.com/FranksOps/ducksearch/pkg/session"
)

// mockBackend is an in-memory storage.Backend for verifying records
type mockBackend struct {
	mu      sync.Mutex
	records []*storage.SearchRecord
}

func (m *mockBackend) Save(ctx context.Context, rec *storage.SearchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}
func (m *mockBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.SearchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, nil
}
func (m *mockBackend) Close() error { return nil }

func serpPage(query string) string {
	return fmt.Sprintf(`<html><body>
		<div class="result">
			<a class="result__a" href="/l/?uddg=https%%3A%%2F%%2Fexample.com%%2F%s">Result for %s</a>
			<a class="result__snippet">snippet for %s</a>
		</div>
	</body></html>`, query, query, query)
}

func newClient(t *testing.T, baseURL string) *duckduckgo.Client {
	t.Helper()
	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
		Jar:         session.NewJar(),
		Limiter:     ratelimit.NewLimiter(0, 0),
	})
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}
	client, err := duckduckgo.New(duckduckgo.Config{
		BaseURL: baseURL,
		Fetcher: fetcher,
		Backoff: backoff.New(time.Millisecond, 10*time.Millisecond),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestIntegration_BatchSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, serpPage(r.URL.Query().Get("q")))
	}))
	defer ts.Close()

	backend := &mockBackend{}
	p := &pipeline.Pipeline{
		Provider:    newClient(t, ts.URL),
		Backend:     backend,
		Concurrency: 2,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	queries := []string{"alpha", "beta", "gamma"}
	records, err := p.Run(context.Background(), queries, serp.Options{})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.Query != queries[i] {
			t.Errorf("record %d: expected query %q, got %q", i, queries[i], rec.Query)
		}
		if rec.ResultCount != 1 || rec.Error != "" {
			t.Errorf("record %d: unexpected outcome %+v", i, rec)
		}
		want := "https://example.com/" + queries[i]
		if rec.Results[0].URL != want {
			t.Errorf("record %d: expected URL %q, got %q", i, want, rec.Results[0].URL)
		}
	}
	if len(backend.records) != 3 {
		t.Errorf("expected 3 persisted records, got %d", len(backend.records))
	}
}

func TestIntegration_ChallengeRecoveryViaCookie(t *testing.T) {
	// Challenge every request until the anonymity cookie appears, mimicking
	// the interstitial flow where retries carry the session forward
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/html")
		if c, err := r.Cookie("anon"); err == nil && c.Value == "granted" {
			fmt.Fprint(w, serpPage(r.URL.Query().Get("q")))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "anon", Value: "granted"})
		fmt.Fprint(w, `<html><body><form id="challenge-form"></form></body></html>`)
	}))
	defer ts.Close()

	client := newClient(t, ts.URL)

	results, err := client.Search(context.Background(), "alpha", serp.Options{})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("expected recovery on second attempt, got %d requests", got)
	}
}

func TestIntegration_BatchWithChallengedQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Query().Get("q") == "blocked" {
			fmt.Fprint(w, `<html><body><form id="challenge-form"></form></body></html>`)
			return
		}
		fmt.Fprint(w, serpPage(r.URL.Query().Get("q")))
	}))
	defer ts.Close()

	backend := &mockBackend{}
	p := &pipeline.Pipeline{
		Provider: newClient(t, ts.URL),
		Backend:  backend,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	records, err := p.Run(context.Background(), []string{"open", "blocked"}, serp.Options{})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	if records[0].Error != "" {
		t.Errorf("expected first query to succeed, got %q", records[0].Error)
	}
	if !records[1].Challenged || records[1].Error == "" {
		t.Errorf("expected challenged failure record, got %+v", records[1])
	}
}
