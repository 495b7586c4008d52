package member

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"vanshavali/internal/payload"
	"vanshavali/internal/platform/mongodb"
	"vanshavali/internal/scope"
	"vanshavali/pkg/sentinel"
)

// Mongo persists members in the members collection. The unique serNo index
// created at startup turns write races into sentinel.ErrConflict instead of
// silent duplicates.
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(client *mongodb.Client) *Mongo {
	return &Mongo{coll: client.DB.Collection(mongodb.CollMembers)}
}

func (s *Mongo) Insert(ctx context.Context, doc payload.Document) (Record, error) {
	res, err := s.coll.InsertOne(ctx, map[string]any(doc))
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return Record{}, sentinel.ErrConflict
		}
		return Record{}, fmt.Errorf("insert member: %w", err)
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
		return Record{}, fmt.Errorf("find member: %w", err)
	}
	recID, doc := mongodb.DocFromRaw(raw)
	return Record{ID: recID, Doc: doc}, nil
}

func (s *Mongo) FindByName(ctx context.Context, firstName, lastName string) (Record, error) {
	// Both document shapes are still live: promoted members nest names
	// under personalDetails, rows imported from the old sheet keep them at
	// the root.
	query := bson.M{"$or": bson.A{
		bson.M{"personalDetails.firstName": firstName, "personalDetails.lastName": lastName},
		bson.M{"firstName": firstName, "lastName": lastName},
	}}
	var raw bson.M
	if err := s.coll.FindOne(ctx, query).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("find member by name: %w", err)
	}
	recID, doc := mongodb.DocFromRaw(raw)
	return Record{ID: recID, Doc: doc}, nil
}

func (s *Mongo) MaxSerNo(ctx context.Context) (int64, error) {
	var raw bson.M
	err := s.coll.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "serNo", Value: -1}}).SetProjection(bson.M{"serNo": 1}),
	).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("max serNo: %w", err)
	}
	_, doc := mongodb.DocFromRaw(raw)
	return SerNo(doc), nil
}

func (s *Mongo) SerNoTakenByOther(ctx context.Context, serNo int64, excludeID string) (bool, error) {
	query := bson.M{"serNo": serNo}
	if excludeID != "" {
		oid, err := mongodb.ObjectID(excludeID)
		if err != nil {
			return false, err
		}
		query["_id"] = bson.M{"$ne": oid}
	}
	count, err := s.coll.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check serNo: %w", err)
	}
	return count > 0, nil
}

func (s *Mongo) List(ctx context.Context, q ListQuery) ([]Record, int64, error) {
	filter := mongodb.VanshFilter(q.Scope)
	if q.Search != "" {
		or := bson.A{
			bson.M{"personalDetails.firstName": searchRegex(q.Search)},
			bson.M{"personalDetails.middleName": searchRegex(q.Search)},
			bson.M{"personalDetails.lastName": searchRegex(q.Search)},
			bson.M{"personalDetails.email": searchRegex(q.Search)},
			bson.M{"personalDetails.mobileNumber": searchRegex(q.Search)},
			bson.M{"personalDetails.vansh": searchRegex(q.Search)},
		}
		if n, err := strconv.ParseInt(q.Search, 10, 64); err == nil {
			or = append(or, bson.M{"serNo": n})
		}
		filter["$or"] = or
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1000
	}

	cursor, err := s.coll.Find(ctx, filter,
		options.Find().
			SetProjection(mongodb.ImageProjection()).
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(int64((page-1)*limit)).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	defer cursor.Close(ctx)

	records, err := decodeAll(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *Mongo) SearchByNamePrefix(ctx context.Context, query string, vansh scope.Vansh, limit int) ([]Record, error) {
	filter := mongodb.VanshFilter(scope.ForVansh(vansh.Name))
	filter["$or"] = bson.A{
		bson.M{"personalDetails.firstName": mongodb.PrefixMatch(query)},
		bson.M{"personalDetails.middleName": mongodb.PrefixMatch(query)},
		bson.M{"personalDetails.lastName": mongodb.PrefixMatch(query)},
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("search members: %w", err)
	}
	defer cursor.Close(ctx)
	return decodeAll(ctx, cursor)
}

func (s *Mongo) Update(ctx context.Context, id string, sets map[string]any) (Record, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return Record{}, err
	}
	var raw bson.M
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": sets},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, sentinel.ErrNotFound
		}
		if mongodb.IsDuplicateKey(err) {
			return Record{}, sentinel.ErrConflict
		}
		return Record{}, fmt.Errorf("update member: %w", err)
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
		return fmt.Errorf("delete member: %w", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Mongo) DeleteBySerNo(ctx context.Context, serNo int64) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"serNo": serNo}); err != nil {
		return fmt.Errorf("delete member by serNo: %w", err)
	}
	return nil
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]Record, error) {
	var records []Record
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode member: %w", err)
		}
		id, doc := mongodb.DocFromRaw(raw)
		records = append(records, Record{ID: id, Doc: doc})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return records, nil
}

func searchRegex(search string) bson.M {
	return bson.M{"$regex": regexEscape(search), "$options": "i"}
}

func regexEscape(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`, `.`, `\.`, `+`, `\+`, `*`, `\*`, `?`, `\?`,
		`(`, `\(`, `)`, `\)`, `[`, `\[`, `]`, `\]`, `{`, `\{`, `}`, `\}`,
		`^`, `\^`, `$`, `\$`, `|`, `\|`,
	)
	return replacer.Replace(s)
}
