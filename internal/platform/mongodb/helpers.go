package mongodb

import (
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"vanshavali/internal/payload"
	"vanshavali/internal/scope"
	"vanshavali/pkg/sentinel"
)

// VanshFilter translates a scope filter into its query form: numeric
// branches match the number or its string form (multipart submissions store
// vansh as a string, JSON bodies as a number), named branches match a
// case-insensitive anchored regex.
func VanshFilter(f scope.Filter) bson.M {
	v, ok := f.Vansh()
	if !ok {
		return bson.M{}
	}
	return bson.M{"personalDetails.vansh": vanshValue(v)}
}

func vanshValue(v scope.Vansh) any {
	if v.Numeric {
		return bson.M{"$in": bson.A{v.Number, v.Name}}
	}
	return bson.M{"$regex": "^" + regexp.QuoteMeta(v.Name) + "$", "$options": "i"}
}

// PrefixMatch builds an anchored case-insensitive prefix match. Anchoring
// lets the server walk a prefix index instead of scanning the collection.
func PrefixMatch(query string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(query), "$options": "i"}
}

// ImageProjection excludes every embedded image field from a query result.
func ImageProjection() bson.M {
	projection := bson.M{}
	for _, path := range payload.ImageFieldPaths {
		projection[path] = 0
	}
	return projection
}

// ObjectID parses a hex document id, mapping malformed input to
// sentinel.ErrNotFound: an id that cannot exist is indistinguishable from
// one that does not.
func ObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, sentinel.ErrNotFound
	}
	return oid, nil
}

// DocFromRaw strips the _id from a decoded document and returns the id hex
// plus the payload document.
func DocFromRaw(raw bson.M) (string, payload.Document) {
	id := ""
	if oid, ok := raw["_id"].(bson.ObjectID); ok {
		id = oid.Hex()
	}
	delete(raw, "_id")
	return id, payload.Document(raw)
}

// IsDuplicateKey reports whether an insert hit a unique index.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
