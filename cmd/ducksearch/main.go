package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/FranksOps/ducksearch/internal/analyzer"
	"github.com/FranksOps/ducksearch/internal/bypass"
	"github.com/FranksOps/ducksearch/internal/fingerprint"
	"github.com/FranksOps/ducksearch/internal/metrics"
	"github.com/FranksOps/ducksearch/internal/pipeline"
	"github.com/FranksOps/ducksearch/internal/report"
	"github.com/FranksOps/ducksearch/internal/scraper"
	"github.com/FranksOps/ducksearch/internal/serp"
	"github.com/FranksOps/ducksearch/internal/serp/duckduckgo"
	"github.com/FranksOps/ducksearch/internal/storage"
	"github.com/FranksOps/ducksearch/internal/storage/jsonbackend"
	"github.com/FranksOps/ducksearch/internal/storage/postgres"
	"github.com/FranksOps/ducksearch/internal/storage/sqlite"
	"github.com/FranksOps/ducksearch/pkg/backoff"
	"github.com/FranksOps/ducksearch/pkg/proxy"
	"github.com/FranksOps/ducksearch/pkg/ratelimit"
	"github.com/FranksOps/ducksearch/pkg/session"
	"github.com/FranksOps/ducksearch/pkg/useragent"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ducksearch [flags] QUERY...",
		Short: "Search DuckDuckGo's HTML endpoint from the command line",
		Long: `ducksearch issues one or more queries against DuckDuckGo's HTML
endpoint, riding out anti-bot challenge pages with jittered backoff, and
prints the extracted results. Searches within one invocation share a cookie
session and a global request cadence.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	flags := cmd.Flags()
	flags.String("config", "", "path to a YAML config file")
	flags.String("locale", "", "locale token forwarded as kl (e.g. us-en)")
	flags.Int("offset", 0, "pagination offset forwarded as s")
	flags.String("safesearch", "", "safe-search level: off, moderate or strict")
	flags.Int("max-results", 0, "cap on results per query (default 10)")
	flags.String("user-agent", "", "override the default browser signature")
	flags.Bool("rotate-ua", false, "rotate through a pool of desktop browser signatures")
	flags.Duration("interval", ratelimit.DefaultInterval, "minimum spacing between requests")
	flags.Duration("jitter", ratelimit.DefaultJitter, "random delay added on top of the interval")
	flags.Duration("timeout", 30*time.Second, "per-request timeout")
	flags.String("fingerprint", string(fingerprint.ProfileChrome), "TLS fingerprint profile: chrome, firefox, safari or go")
	flags.String("proxy-file", "", "file with proxy URLs, one per line")
	flags.Int("concurrency", 1, "parallel queries (session and cadence stay shared)")
	flags.String("store", "", "persist records to: sqlite, postgres or json")
	flags.String("dsn", "", "backend DSN (file path for sqlite/json)")
	flags.Int("metrics-port", 0, "expose Prometheus metrics on this port")
	flags.StringSlice("term", nil, "keep only results matching these terms")
	flags.Bool("json", false, "print results as JSON")
	flags.Bool("summary", false, "print a session summary to stderr")
	flags.Bool("verbose", false, "debug logging")

	cmd.AddCommand(newHistoryCmd())

	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query stored search records",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	flags := cmd.Flags()
	flags.String("store", "sqlite", "backend to read from: sqlite, postgres or json")
	flags.String("dsn", "", "backend DSN (file path for sqlite/json)")
	flags.String("query", "", "filter by exact query text")
	flags.Bool("challenged", false, "filter by the challenged flag")
	flags.Duration("since", 0, "only records newer than this age (e.g. 24h)")
	flags.Int("limit", 20, "maximum records to print")
	flags.Int("offset", 0, "records to skip, newest first")
	flags.Bool("json", false, "print records as JSON")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix("DUCKSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	level := slog.LevelInfo
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := searchOptions(v)
	if err != nil {
		return err
	}

	var pool *proxy.Pool
	if path := v.GetString("proxy-file"); path != "" {
		pool = proxy.NewPool(proxy.Config{})
		if err := pool.LoadFile(path); err != nil {
			return err
		}
	}

	var uaPool *useragent.Pool
	if v.GetBool("rotate-ua") {
		uaPool = useragent.NewPool(nil)
	}

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:     v.GetDuration("timeout"),
		Jar:         session.NewJar(),
		ProxyPool:   pool,
		UAPool:      uaPool,
		Fingerprint: fingerprint.Profile(v.GetString("fingerprint")),
		Limiter:     ratelimit.NewLimiter(v.GetDuration("interval"), v.GetDuration("jitter")),
	})
	if err != nil {
		return err
	}

	client, err := duckduckgo.New(duckduckgo.Config{
		Fetcher:   fetcher,
		Backoff:   backoff.New(0, 0),
		Detectors: bypass.DefaultDetectors(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, v)
	if err != nil {
		return err
	}
	if backend != nil {
		defer backend.Close()
	}

	if port := v.GetInt("metrics-port"); port > 0 {
		srv := metrics.Start(port)
		defer func() { _ = srv.Stop(context.Background()) }()
	}

	p := &pipeline.Pipeline{
		Provider:    client,
		Backend:     backend,
		Concurrency: v.GetInt("concurrency"),
		Logger:      logger,
	}

	records, err := p.Run(ctx, args, opts)
	if err != nil {
		return err
	}

	terms := v.GetStringSlice("term")
	for _, rec := range records {
		if err := printRecord(cmd, rec, terms, v.GetBool("json")); err != nil {
			return err
		}
	}

	if v.GetBool("summary") {
		summary := report.GenerateSummary(records)
		writeSummary := report.WriteText
		if v.GetBool("json") {
			writeSummary = report.WriteJSON
		}
		if err := writeSummary(os.Stderr, summary); err != nil {
			return err
		}
	}

	for _, rec := range records {
		if rec.Error != "" {
			return fmt.Errorf("%d of %d searches failed", failedCount(records), len(records))
		}
	}
	return nil
}

func searchOptions(v *viper.Viper) (serp.Options, error) {
	opts := serp.Options{
		Locale:     v.GetString("locale"),
		Offset:     v.GetInt("offset"),
		MaxResults: v.GetInt("max-results"),
		UserAgent:  v.GetString("user-agent"),
	}

	switch level := v.GetString("safesearch"); level {
	case "":
		opts.SafeSearch = serp.SafeSearchUnset
	case "off":
		opts.SafeSearch = serp.SafeSearchOff
	case "moderate":
		opts.SafeSearch = serp.SafeSearchModerate
	case "strict":
		opts.SafeSearch = serp.SafeSearchStrict
	default:
		return opts, fmt.Errorf("unknown safesearch level %q", level)
	}

	return opts, nil
}

func openBackend(ctx context.Context, v *viper.Viper) (storage.Backend, error) {
	store := v.GetString("store")
	dsn := v.GetString("dsn")

	switch store {
	case "":
		return nil, nil
	case "sqlite":
		if dsn == "" {
			dsn = "ducksearch.db"
		}
		return sqlite.New(dsn)
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres store requires --dsn")
		}
		return postgres.New(ctx, dsn)
	case "json":
		if dsn == "" {
			dsn = "ducksearch.ndjson"
		}
		return jsonbackend.New(dsn)
	default:
		return nil, fmt.Errorf("unknown store %q", store)
	}
}

func printRecord(cmd *cobra.Command, rec *storage.SearchRecord, terms []string, asJSON bool) error {
	results := analyzer.FilterByTerms(rec.Results, terms)
	matches := analyzer.MatchTerms(rec.Results, terms)

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Query   string               `json:"query"`
			Error   string               `json:"error,omitempty"`
			Results []serp.Result        `json:"results"`
			Matches []analyzer.TermMatch `json:"matches,omitempty"`
		}{Query: rec.Query, Error: rec.Error, Results: results, Matches: matches})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", rec.Query)
	if rec.Error != "" {
		fmt.Fprintf(out, "  error: %s\n", rec.Error)
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%2d. %s\n    %s\n", i+1, r.Title, r.URL)
		if r.Description != "" {
			fmt.Fprintf(out, "    %s\n", r.Description)
		}
	}
	if len(matches) > 0 {
		fmt.Fprint(out, "  matches:")
		for _, m := range matches {
			fmt.Fprintf(out, " %s=%d", m.Term, m.Count)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix("DUCKSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	ctx := cmd.Context()

	backend, err := openBackend(ctx, v)
	if err != nil {
		return err
	}
	if backend == nil {
		return fmt.Errorf("history requires --store")
	}
	defer backend.Close()

	filter := storage.Filter{
		Query:  v.GetString("query"),
		Limit:  v.GetInt("limit"),
		Offset: v.GetInt("offset"),
	}
	if cmd.Flags().Changed("challenged") {
		challenged := v.GetBool("challenged")
		filter.Challenged = &challenged
	}
	if age := v.GetDuration("since"); age > 0 {
		since := time.Now().Add(-age)
		filter.Since = &since
	}

	records, err := backend.Query(ctx, filter)
	if err != nil {
		return err
	}

	return printHistory(cmd, records, v.GetBool("json"))
}

func printHistory(cmd *cobra.Command, records []*storage.SearchRecord, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	out := cmd.OutOrStdout()
	for _, rec := range records {
		status := "ok"
		switch {
		case rec.Challenged:
			status = "challenged"
		case rec.Error != "":
			status = "error"
		}
		fmt.Fprintf(out, "%s  %-10s  %3d results  %8s  %s\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			status, rec.ResultCount, rec.Duration.Round(time.Millisecond), rec.Query)
	}
	return nil
}

func failedCount(records []*storage.SearchRecord) int {
	n := 0
	for _, rec := range records {
		if rec.Error != "" {
			n++
		}
	}
	return n
}
