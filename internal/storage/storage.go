package storage

import (
	"context"
	"time"

	"github.com/FranksOps/ducksearch/internal/serp"
)

// SearchRecord is the persisted outcome of a single search call.
type SearchRecord struct {
	ID          string
	Query       string
	ResultCount int
	Results     []serp.Result
	Challenged  bool // the call failed on exhausted challenge retries
	Duration    time.Duration
	CreatedAt   time.Time
	Error       string // non-empty if the search failed
}

// Filter selects SearchRecords on Query.
type Filter struct {
	Query      string
	Challenged *bool
	Since      *time.Time
	Limit      int
	Offset     int
}

// Backend defines the interface for storing and querying search records.
type Backend interface {
	Save(ctx context.Context, rec *SearchRecord) error
	Query(ctx context.Context, filter Filter) ([]*SearchRecord, error)
	Close() error
}
