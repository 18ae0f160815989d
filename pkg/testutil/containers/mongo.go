//go:build integration

package containers

import (
	"context"
	"testing"

	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoContainer wraps a testcontainers MongoDB instance with a connected client.
type MongoContainer struct {
	Container *tcmongo.MongoDBContainer
	URI       string
	Client    *mongo.Client
}

// NewMongoContainer starts MongoDB 7 and connects a client to it.
func NewMongoContainer(t *testing.T) *MongoContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get mongo connection string: %v", err)
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping mongo: %v", err)
	}

	return &MongoContainer{Container: container, URI: uri, Client: client}
}

// Database returns a fresh database handle, dropping any previous contents.
func (m *MongoContainer) Database(ctx context.Context, name string) (*mongo.Database, error) {
	db := m.Client.Database(name)
	if err := db.Drop(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
