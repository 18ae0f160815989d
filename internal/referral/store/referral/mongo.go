package referral

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	mongostore "refeera/internal/platform/mongo"
	"refeera/internal/referral/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

// MongoStore persists referrals in the referrals collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(mongostore.CollectionReferrals)}
}

func (s *MongoStore) Create(ctx context.Context, r *models.Referral) error {
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		if mongostore.IsDuplicateKey(err) {
			return fmt.Errorf("create referral %s: %w", r.ReferralID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create referral: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id domain.ReferralID) (*models.Referral, error) {
	return s.findOne(ctx, bson.D{{Key: "referralId", Value: id}})
}

func (s *MongoStore) FindMatching(ctx context.Context, id domain.ReferralID, partnerID domain.PartnerID, offerID domain.OfferID) (*models.Referral, error) {
	return s.findOne(ctx, bson.D{
		{Key: "referralId", Value: id},
		{Key: "partnerId", Value: partnerID},
		{Key: "offerId", Value: offerID},
	})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D) (*models.Referral, error) {
	var r models.Referral
	if err := s.coll.FindOne(ctx, filter).Decode(&r); err != nil {
		if mongostore.IsNoDocuments(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find referral: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
