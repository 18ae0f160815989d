package business

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"refeera/internal/business/models"
	mongostore "refeera/internal/platform/mongo"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

// MongoStore persists businesses in the businesses collection. A partial
// unique index on email covers live documents only.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(mongostore.CollectionBusinesses)}
}

func (s *MongoStore) Create(ctx context.Context, b *models.Business) error {
	if _, err := s.coll.InsertOne(ctx, b); err != nil {
		if mongostore.IsDuplicateKey(err) {
			return fmt.Errorf("create business: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id domain.BusinessID) (*models.Business, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *MongoStore) FindLiveByEmail(ctx context.Context, email string) (*models.Business, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}, {Key: "isDeleted", Value: false}})
}

func (s *MongoStore) List(ctx context.Context) ([]*models.Business, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer cur.Close(ctx)

	out := []*models.Business{}
	for cur.Next(ctx) {
		var b models.Business
		if err := cur.Decode(&b); err != nil {
			return nil, fmt.Errorf("decode business: %w", err)
		}
		normalize(&b)
		out = append(out, &b)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Update(ctx context.Context, b *models.Business) error {
	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: b.ID}}, b)
	if err != nil {
		if mongostore.IsDuplicateKey(err) {
			return fmt.Errorf("update business: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("update business: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D) (*models.Business, error) {
	var b models.Business
	if err := s.coll.FindOne(ctx, filter).Decode(&b); err != nil {
		if mongostore.IsNoDocuments(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find business: %w", err)
	}
	normalize(&b)
	return &b, nil
}

func normalize(b *models.Business) {
	if b.BusinessType == nil {
		b.BusinessType = []string{}
	}
	if b.PromotionalMaterials == nil {
		b.PromotionalMaterials = []string{}
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
}
