package rejected

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"vanshavali/internal/payload"
	"vanshavali/internal/platform/mongodb"
	"vanshavali/internal/scope"
	"vanshavali/pkg/sentinel"
)

// Mongo persists rejection snapshots in the rejectedMemb collection.
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(client *mongodb.Client) *Mongo {
	return &Mongo{coll: client.DB.Collection(mongodb.CollRejected)}
}

func (s *Mongo) Insert(ctx context.Context, doc payload.Document) (Record, error) {
	res, err := s.coll.InsertOne(ctx, map[string]any(doc))
	if err != nil {
		return Record{}, fmt.Errorf("insert rejection: %w", err)
	}
	oid, _ := res.InsertedID.(bson.ObjectID)
	return Record{ID: oid.Hex(), Doc: doc}, nil
}

func (s *Mongo) List(ctx context.Context, sc scope.Filter) ([]Record, error) {
	cursor, err := s.coll.Find(ctx, mongodb.VanshFilter(sc),
		options.Find().
			SetProjection(mongodb.ImageProjection()).
			SetSort(bson.D{{Key: "rejectedAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list rejections: %w", err)
	}
	defer cursor.Close(ctx)

	var records []Record
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode rejection: %w", err)
		}
		id, doc := mongodb.DocFromRaw(raw)
		records = append(records, Record{ID: id, Doc: doc})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate rejections: %w", err)
	}
	return records, nil
}

func (s *Mongo) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete rejection: %w", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Mongo) Clear(ctx context.Context, sc scope.Filter) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, mongodb.VanshFilter(sc))
	if err != nil {
		return 0, fmt.Errorf("clear rejections: %w", err)
	}
	return res.DeletedCount, nil
}
