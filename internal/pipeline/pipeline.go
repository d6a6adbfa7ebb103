package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/FranksOps/ducksearch/internal/metrics"
	"github.com/FranksOps/ducksearch/internal/serp"
	"github.com/FranksOps/ducksearch/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs a batch of queries through a serp.Provider, persisting one
// SearchRecord per query and feeding the metrics. Individual search failures
// are recorded, not fatal; the batch keeps going.
type Pipeline struct {
	Provider serp.Provider
	// Backend is optional; nil skips persistence.
	Backend storage.Backend
	// Concurrency bounds parallel searches. Values < 1 mean sequential.
	// The provider's jar and rate limiter are shared either way, so raising
	// this does not raise the request rate.
	Concurrency int
	Logger      *slog.Logger
}

// Run searches every query and returns the records in query order.
func (p *Pipeline) Run(ctx context.Context, queries []string, opts serp.Options) ([]*storage.SearchRecord, error) {
	if p.Provider == nil {
		return nil, fmt.Errorf("provider is nil")
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := p.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	records := make([]*storage.SearchRecord, len(queries))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, query := range queries {
		i, query := i, query
		g.Go(func() error {
			start := time.Now()
			results, err := p.Provider.Search(gCtx, query, opts)

			rec := &storage.SearchRecord{
				ID:          uuid.New().String(),
				Query:       query,
				ResultCount: len(results),
				Results:     results,
				Duration:    time.Since(start),
				CreatedAt:   start.UTC(),
			}
			if err != nil {
				rec.Error = err.Error()
				rec.Challenged = serp.IsKind(err, serp.KindChallenge)
				logger.Error("search failed", "query", query, "err", err)
			} else {
				logger.Debug("search done", "query", query, "results", len(results))
			}

			records[i] = rec
			metrics.RecordSearch(rec)

			if p.Backend != nil {
				if err := p.Backend.Save(gCtx, rec); err != nil {
					return fmt.Errorf("save record for %q: %w", query, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}
