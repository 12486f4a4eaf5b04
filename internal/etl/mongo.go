package etl

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BartekS5/xfer/pkg/models"
)

// MongoStore treats collections of one database as tables.
type MongoStore struct {
	Client   *mongo.Client
	Database string
	Log      *slog.Logger
}

func (m *MongoStore) coll(name string) *mongo.Collection {
	return m.Client.Database(m.Database).Collection(name)
}

func (m *MongoStore) Read(ctx context.Context, q Query) ([]models.Record, error) {
	findOpts := options.Find()
	if q.Limit > 0 {
		findOpts.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		findOpts.SetSkip(int64(q.Offset))
	}
	if q.OrderBy != "" {
		findOpts.SetSort(bson.D{{Key: q.OrderBy, Value: 1}})
	}

	cursor, err := m.coll(q.Table).Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.Record
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		results = append(results, models.Record(doc))
	}
	return results, cursor.Err()
}

// Insert uses an ordered InsertMany. Unlike the SQL stores a failure can
// leave the documents before the offending one written.
func (m *MongoStore) Insert(ctx context.Context, table string, rows []models.Record) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	docs := make([]interface{}, len(rows))
	for i, r := range rows {
		docs[i] = bson.M(r)
	}
	res, err := m.coll(table).InsertMany(ctx, docs)
	if err != nil {
		return 0, err
	}
	return len(res.InsertedIDs), nil
}

// Upsert issues one ordered BulkWrite of $set upserts filtered on the
// conflict key. Documents without a key value are skipped.
func (m *MongoStore) Upsert(ctx context.Context, table, conflictKey string, rows []models.Record) (int, error) {
	var writes []mongo.WriteModel
	for _, row := range rows {
		keyVal := row[conflictKey]
		if keyVal == nil {
			m.logger().Warn("skipping document without conflict key", slog.String("key", conflictKey))
			continue
		}
		model := mongo.NewUpdateOneModel().
			SetFilter(bson.M{conflictKey: keyVal}).
			SetUpdate(bson.M{"$set": bson.M(row)}).
			SetUpsert(true)
		writes = append(writes, model)
	}
	if len(writes) == 0 {
		return 0, nil
	}

	res, err := m.coll(table).BulkWrite(ctx, writes)
	if err != nil {
		return 0, err
	}
	m.logger().Debug("mongo bulk write",
		slog.Int64("matched", res.MatchedCount),
		slog.Int64("modified", res.ModifiedCount),
		slog.Int64("upserted", res.UpsertedCount))
	return int(res.MatchedCount + res.UpsertedCount), nil
}

func (m *MongoStore) Count(ctx context.Context, table string) (int64, error) {
	return m.coll(table).CountDocuments(ctx, bson.M{})
}

func (m *MongoStore) DeleteAll(ctx context.Context, table string) (int64, error) {
	res, err := m.coll(table).DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *MongoStore) logger() *slog.Logger {
	if m.Log == nil {
		return slog.Default()
	}
	return m.Log
}
