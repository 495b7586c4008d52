package serial

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const counterDocID = "memberSerNo"

// Mongo allocates serial numbers with findOneAndUpdate $inc against a
// counters collection, so the increment is atomic on the server even with
// multiple API instances.
type Mongo struct {
	counters *mongo.Collection
}

// NewMongo uses the given counters collection (one document per counter).
func NewMongo(counters *mongo.Collection) *Mongo {
	return &Mongo{counters: counters}
}

func (m *Mongo) Next(ctx context.Context) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": counterDocID},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("increment serial counter: %w", err)
	}
	return doc.Value, nil
}

func (m *Mongo) Ensure(ctx context.Context, floor int64) error {
	_, err := m.counters.UpdateOne(ctx,
		bson.M{"_id": counterDocID},
		bson.M{"$max": bson.M{"value": floor}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure serial counter floor: %w", err)
	}
	return nil
}
