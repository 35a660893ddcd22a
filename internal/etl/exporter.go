package etl

import (
	"context"
	"path"
	"strings"

	"github.com/BartekS5/opendota-extract/pkg/models"
)

// Exporter writes one Parquet file per endpoint per run date.
type Exporter struct {
	Sink   Sink
	Prefix string
}

func NewExporter(sink Sink, prefix string) *Exporter {
	return &Exporter{Sink: sink, Prefix: strings.Trim(prefix, "/")}
}

// ObjectKey is <prefix>/<run date>/<endpoint>.parquet. Re-running the same
// date produces the same key, so the sink overwrites the previous file.
func (e *Exporter) ObjectKey(runDate, endpoint string) string {
	return path.Join(e.Prefix, runDate, endpoint+".parquet")
}

// Export encodes the table and hands it to the sink, returning where it landed.
func (e *Exporter) Export(ctx context.Context, table *models.Table, runDate string) (string, error) {
	data, err := EncodeParquet(table)
	if err != nil {
		return "", newFailure(KindSink, err, "encode %s", table.Endpoint)
	}

	key := e.ObjectKey(runDate, table.Endpoint)
	if err := e.Sink.Put(ctx, key, data); err != nil {
		return "", newFailure(KindSink, err, "upload %s", e.Sink.Describe(key))
	}
	return e.Sink.Describe(key), nil
}
