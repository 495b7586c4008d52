package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"vanshavali/internal/payload"
	"vanshavali/internal/platform/mongodb"
	"vanshavali/internal/scope"
	"vanshavali/pkg/sentinel"
)

// Mongo persists registrations in the registrations collection.
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(client *mongodb.Client) *Mongo {
	return &Mongo{coll: client.DB.Collection(mongodb.CollRegistrations)}
}

func (s *Mongo) Insert(ctx context.Context, doc payload.Document) (Record, error) {
	res, err := s.coll.InsertOne(ctx, map[string]any(doc))
	if err != nil {
		return Record{}, fmt.Errorf("insert registration: %w", err)
	}
	oid, _ := res.InsertedID.(bson.ObjectID)
	return Record{ID: oid.Hex(), Doc: doc}, nil
}

func (s *Mongo) FindByID(ctx context.Context, id string) (Record, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return Record{}, err
	}
	var raw bson.M
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("find registration: %w", err)
	}
	recID, doc := mongodb.DocFromRaw(raw)
	return Record{ID: recID, Doc: doc}, nil
}

func (s *Mongo) List(ctx context.Context, f scope.Filter) ([]Record, error) {
	cursor, err := s.coll.Find(ctx, mongodb.VanshFilter(f),
		options.Find().
			SetProjection(mongodb.ImageProjection()).
			SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer cursor.Close(ctx)

	var records []Record
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode registration: %w", err)
		}
		id, doc := mongodb.DocFromRaw(raw)
		records = append(records, Record{ID: id, Doc: doc})
	}
	return records, cursor.Err()
}

func (s *Mongo) UpdateReview(ctx context.Context, id, status, adminNotes string, reviewedAt time.Time) (Record, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return Record{}, err
	}
	var raw bson.M
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": status, "adminNotes": adminNotes, "reviewedAt": reviewedAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("update registration review: %w", err)
	}
	recID, doc := mongodb.DocFromRaw(raw)
	return Record{ID: recID, Doc: doc}, nil
}

func (s *Mongo) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
