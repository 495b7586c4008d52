// Package mongodb owns the MongoDB connection and the schema bootstrap for
// the family collections.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names. The rejected collection keeps its historical name so
// existing deployments keep their data.
const (
	CollRegistrations = "registrations"
	CollMembers       = "members"
	CollRejected      = "rejectedMemb"
	CollCounters      = "counters"
	CollAuditEvents   = "audit_events"
)

// Client wraps the driver client with the database handle the stores share.
type Client struct {
	*mongo.Client
	DB *mongo.Database
}

// Connect opens and pings a MongoDB connection.
func Connect(ctx context.Context, uri, database string) (*Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Client{Client: client, DB: client.Database(database)}, nil
}

// EnsureIndexes creates the indexes the stores rely on. The unique serNo
// index is the backstop for serial-number uniqueness and must exist before
// approvals are served.
func EnsureIndexes(ctx context.Context, c *Client) error {
	indexes := map[string][]mongo.IndexModel{
		CollMembers: {
			{
				Keys:    bson.D{{Key: "serNo", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("unique_serno"),
			},
			{Keys: bson.D{{Key: "personalDetails.vansh", Value: 1}}},
			{Keys: bson.D{{Key: "personalDetails.firstName", Value: 1}, {Key: "personalDetails.lastName", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		CollRegistrations: {
			{Keys: bson.D{{Key: "personalDetails.vansh", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		CollRejected: {
			{Keys: bson.D{{Key: "rejectedAt", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}
	return nil
}
