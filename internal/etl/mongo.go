package etl

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BartekS5/opendota-extract/pkg/logger"
	"github.com/BartekS5/opendota-extract/pkg/models"
)

// MongoMirror copies each exported table into a collection named after the
// endpoint. Documents are keyed by run date and row index, so a re-run of the
// same date replaces that date's documents like the Parquet export does.
type MongoMirror struct {
	Client   *mongo.Client
	Database string
	Timeout  time.Duration
}

func NewMongoMirror(client *mongo.Client, database string) *MongoMirror {
	return &MongoMirror{Client: client, Database: database, Timeout: 30 * time.Second}
}

// MirrorDocuments converts table rows to upsert-ready documents.
func MirrorDocuments(runID, runDate string, table *models.Table) []bson.M {
	docs := make([]bson.M, 0, len(table.Rows))
	for i, row := range table.Rows {
		doc := bson.M{
			"_id":       fmt.Sprintf("%s:%d", runDate, i),
			"run_id":    runID,
			"run_date":  runDate,
			"row_index": i,
		}
		for k, v := range row {
			doc[k] = v
		}
		docs = append(docs, doc)
	}
	return docs
}

func (m *MongoMirror) Load(ctx context.Context, runID, runDate string, table *models.Table) error {
	coll := m.Client.Database(m.Database).Collection(table.Endpoint)

	ctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()

	// rows beyond this run's length belong to an earlier run of the same date
	stale := bson.M{"run_date": runDate, "row_index": bson.M{"$gte": len(table.Rows)}}
	if _, err := coll.DeleteMany(ctx, stale); err != nil {
		return fmt.Errorf("mongo delete stale %s rows: %w", table.Endpoint, err)
	}

	docs := MirrorDocuments(runID, runDate, table)
	if len(docs) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		filter := bson.M{"_id": doc["_id"]}
		model := mongo.NewReplaceOneModel().SetFilter(filter).SetReplacement(doc).SetUpsert(true)
		writes = append(writes, model)
	}

	res, err := coll.BulkWrite(ctx, writes)
	if err != nil {
		return fmt.Errorf("mongo bulk write %s: %w", table.Endpoint, err)
	}
	logger.Debugf("Mongo BulkWrite %s: Match %d, Mod %d, Upsert %d", table.Endpoint, res.MatchedCount, res.ModifiedCount, res.UpsertedCount)
	return nil
}
