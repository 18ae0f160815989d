package user

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongostore "refeera/internal/platform/mongo"
	"refeera/internal/user/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

// MongoStore persists users in the users collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(mongostore.CollectionUsers)}
}

func (s *MongoStore) Create(ctx context.Context, u *models.User) error {
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongostore.IsDuplicateKey(err) {
			return fmt.Errorf("create user: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id domain.UserID) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *MongoStore) Exists(ctx context.Context, id domain.UserID) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) Update(ctx context.Context, u *models.User) error {
	res, err := s.coll.UpdateByID(ctx, u.ID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "username", Value: u.Username},
		{Key: "email", Value: u.Email},
		{Key: "password", Value: u.PasswordHash},
		{Key: "isVerified", Value: u.IsVerified},
		{Key: "updatedAt", Value: u.UpdatedAt},
	}}})
	if err != nil {
		if mongostore.IsDuplicateKey(err) {
			return fmt.Errorf("update user: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if mongostore.IsNoDocuments(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
