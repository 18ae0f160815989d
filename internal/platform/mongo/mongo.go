// Package mongo connects the document store and bootstraps its indexes.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	CollectionUsers       = "users"
	CollectionPartners    = "partners"
	CollectionBusinesses  = "businesses"
	CollectionReferrals   = "referrals"
	CollectionSubmissions = "formsubmissions"
)

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes every store relies on for uniqueness and
// ordered listing. Creating an existing index is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionPartners: {
			{Keys: bson.D{{Key: "partner_email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		CollectionBusinesses: {
			{
				Keys: bson.D{{Key: "email", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("live_email_unique").
					SetPartialFilterExpression(bson.D{{Key: "isDeleted", Value: false}}),
			},
		},
		CollectionReferrals: {
			{Keys: bson.D{{Key: "referralId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "partnerId", Value: 1}}},
		},
		CollectionSubmissions: {
			{Keys: bson.D{{Key: "email", Value: 1}, {Key: "offerId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "partnerId", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique index violation.
func IsDuplicateKey(err error) bool {
	return err != nil && mongo.IsDuplicateKeyError(err)
}

// IsNoDocuments reports whether err means the filter matched nothing.
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
