package submission

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongostore "refeera/internal/platform/mongo"
	"refeera/internal/referral/models"
	"refeera/pkg/domain"
)

// MongoStore persists submissions in the formsubmissions collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(mongostore.CollectionSubmissions)}
}

// Upsert sets every payload field on the document for (email, offerId);
// _id and createdAt are only written when the document is inserted. Two
// concurrent first upserts can race on the unique (email, offerId) index; the
// loser retries once and then matches the winner's document.
func (s *MongoStore) Upsert(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	filter := bson.D{{Key: "email", Value: sub.Email}, {Key: "offerId", Value: sub.OfferID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "referralId", Value: sub.ReferralID},
			{Key: "partnerId", Value: sub.PartnerID},
			{Key: "fname", Value: sub.Fname},
			{Key: "lname", Value: sub.Lname},
			{Key: "phoneNo", Value: sub.PhoneNo},
			{Key: "medicaidMedicare", Value: sub.MedicaidMedicare},
			{Key: "address", Value: sub.Address},
			{Key: "state", Value: sub.State},
			{Key: "city", Value: sub.City},
			{Key: "postalCode", Value: sub.PostalCode},
			{Key: "country", Value: sub.Country},
			{Key: "dob", Value: sub.Dob},
			{Key: "ssn", Value: sub.Ssn},
			{Key: "gender", Value: sub.Gender},
			{Key: "hasSpouse", Value: sub.HasSpouse},
			{Key: "spouseFname", Value: sub.SpouseFname},
			{Key: "spouseLname", Value: sub.SpouseLname},
			{Key: "spouseSsn", Value: sub.SpouseSsn},
			{Key: "enrollSpouse", Value: sub.EnrollSpouse},
			{Key: "disqualified", Value: sub.Disqualified},
			{Key: "isPartialSubmission", Value: sub.IsPartialSubmission},
			{Key: "updatedAt", Value: sub.UpdatedAt},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: sub.ID},
			{Key: "createdAt", Value: sub.CreatedAt},
		}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Submission
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if mongostore.IsDuplicateKey(err) {
		err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert submission: %w", err)
	}
	normalizeTimes(&stored)
	return &stored, nil
}

func (s *MongoStore) FindByEmailOffer(ctx context.Context, email string, offer domain.OfferID) (*models.Submission, error) {
	var sub models.Submission
	err := s.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}, {Key: "offerId", Value: offer}}).Decode(&sub)
	if err != nil {
		if mongostore.IsNoDocuments(err) {
			return nil, errNotFound(offer)
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	normalizeTimes(&sub)
	return &sub, nil
}

// ListByPartner reads one page sorted by (createdAt, _id) with the social
// security fields projected away at the database.
func (s *MongoStore) ListByPartner(ctx context.Context, f models.SubmissionFilter, p models.Page) ([]*models.Submission, int64, error) {
	filter := bson.D{{Key: "partnerId", Value: f.PartnerID}}
	if f.OfferID != "" {
		filter = append(filter, bson.E{Key: "offerId", Value: f.OfferID})
	}
	if f.Email != "" {
		filter = append(filter, bson.E{Key: "email", Value: f.Email})
	}
	if f.IsPartialSubmission != nil {
		filter = append(filter, bson.E{Key: "isPartialSubmission", Value: *f.IsPartialSubmission})
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(p.Offset())).
		SetLimit(int64(p.Limit)).
		SetProjection(bson.D{{Key: "ssn", Value: 0}, {Key: "spouseSsn", Value: 0}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	defer cur.Close(ctx)

	var out []*models.Submission
	for cur.Next(ctx) {
		var sub models.Submission
		if err := cur.Decode(&sub); err != nil {
			return nil, 0, fmt.Errorf("decode submission: %w", err)
		}
		normalizeTimes(&sub)
		out = append(out, &sub)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, total, nil
}

func normalizeTimes(sub *models.Submission) {
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
}
