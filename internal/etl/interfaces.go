package etl

import (
	"context"
	"net/url"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

// Fetcher issues one upstream request for an endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, ep models.Endpoint, query url.Values) (any, error)
}

// Sink stores an exported file under key, replacing any previous object.
type Sink interface {
	Put(ctx context.Context, key string, data []byte) error
	Describe(key string) string
}

// Mirror receives a copy of each exported table.
type Mirror interface {
	Load(ctx context.Context, runID, runDate string, table *models.Table) error
}
