package partner

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"refeera/internal/partner/models"
	mongostore "refeera/internal/platform/mongo"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

// MongoStore persists partners in the partners collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(mongostore.CollectionPartners)}
}

func (s *MongoStore) Create(ctx context.Context, p *models.Partner) error {
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		if mongostore.IsDuplicateKey(err) {
			return fmt.Errorf("create partner: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create partner: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id domain.PartnerID) (*models.Partner, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *MongoStore) FindByUser(ctx context.Context, userID domain.UserID) (*models.Partner, error) {
	return s.findOne(ctx, bson.D{{Key: "user", Value: userID}},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.Partner, error) {
	return s.findOne(ctx, bson.D{{Key: "partner_email", Value: email}})
}

func (s *MongoStore) Exists(ctx context.Context, id domain.PartnerID) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check partner: %w", err)
	}
	return n > 0, nil
}

func (s *MongoStore) List(ctx context.Context) ([]*models.Partner, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	out := []*models.Partner{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode partners: %w", err)
	}
	for _, p := range out {
		normalize(p)
	}
	return out, nil
}

// Update replaces the stored document; _id, user and createdAt are carried
// on p unchanged.
func (s *MongoStore) Update(ctx context.Context, p *models.Partner) error {
	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: p.ID}}, p)
	if err != nil {
		if mongostore.IsDuplicateKey(err) {
			return fmt.Errorf("update partner: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("update partner: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id domain.PartnerID) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete partner: %w", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("delete partners: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (*models.Partner, error) {
	var p models.Partner
	if err := s.coll.FindOne(ctx, filter, opts...).Decode(&p); err != nil {
		if mongostore.IsNoDocuments(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find partner: %w", err)
	}
	normalize(&p)
	return &p, nil
}

func normalize(p *models.Partner) {
	if p.Experience == nil {
		p.Experience = []string{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
}
