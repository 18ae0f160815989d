//go:build integration

package business_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"refeera/internal/business/models"
	"refeera/internal/business/store/business"
	"refeera/internal/platform/mongo"
	"refeera/internal/platform/postgres"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
	"refeera/pkg/testutil/containers"
	"refeera/pkg/wire"
)

type businessStore interface {
	Create(ctx context.Context, b *models.Business) error
	FindByID(ctx context.Context, id domain.BusinessID) (*models.Business, error)
	FindLiveByEmail(ctx context.Context, email string) (*models.Business, error)
	List(ctx context.Context) ([]*models.Business, error)
	Update(ctx context.Context, b *models.Business) error
}

type BusinessStoreSuite struct {
	suite.Suite
	backend string
	store   businessStore
	reset   func()
}

func TestBusinessStorePostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, &BusinessStoreSuite{backend: "postgres"})
}

func TestBusinessStoreMongo(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, &BusinessStoreSuite{backend: "mongo"})
}

func (s *BusinessStoreSuite) SetupSuite() {
	ctx := context.Background()
	switch s.backend {
	case "postgres":
		pg := containers.GetManager().GetPostgres(s.T())
		s.Require().NoError(postgres.Migrate(pg.DB))
		s.store = business.NewPostgres(pg.DB)
		s.reset = func() { s.Require().NoError(pg.TruncateTables(ctx, "businesses")) }
	case "mongo":
		mc := containers.GetManager().GetMongo(s.T())
		db, err := mc.Database(ctx, "business_store_test")
		s.Require().NoError(err)
		s.Require().NoError(mongo.EnsureIndexes(ctx, db))
		s.store = business.NewMongo(db)
		s.reset = func() {
			_, err := db.Collection(mongo.CollectionBusinesses).DeleteMany(ctx, map[string]any{})
			s.Require().NoError(err)
		}
	}
}

func (s *BusinessStoreSuite) SetupTest() {
	s.reset()
}

func (s *BusinessStoreSuite) newBusiness(email string) *models.Business {
	promoted := wire.OptionalBool{Set: true, Value: true}
	return models.NewBusiness(models.Input{
		BusinessName:          "Corner Cuts",
		PrimaryContact:        "Sam",
		BusinessAddress:       "1 Main St",
		PhoneNumber:           "555",
		Email:                 email,
		BusinessType:          wire.StringList{"Barbershop or salon", "Other"},
		OtherBusinessType:     "Food truck",
		HasPromotingEmployees: promoted,
		IsAuthorized:          true,
	}, "hash", time.Now().UTC().Truncate(time.Millisecond))
}

func (s *BusinessStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	b := s.newBusiness("shop@example.com")
	s.Require().NoError(s.store.Create(ctx, b))

	found, err := s.store.FindLiveByEmail(ctx, "shop@example.com")
	s.Require().NoError(err)
	s.Equal(b.ID, found.ID)
	s.Equal([]string{"Barbershop or salon", "Other"}, found.BusinessType)
	s.Equal("Food truck", found.OtherBusinessType)
	s.Require().NotNil(found.HasPromotingEmployees)
	s.True(*found.HasPromotingEmployees)
	s.Equal([]string{}, found.PromotionalMaterials)
	s.Equal("hash", found.PasswordHash)
	s.True(b.CreatedAt.Equal(found.CreatedAt))
}

func (s *BusinessStoreSuite) TestSoftDeleteFreesEmail() {
	ctx := context.Background()
	first := s.newBusiness("shop@example.com")
	s.Require().NoError(s.store.Create(ctx, first))
	s.ErrorIs(s.store.Create(ctx, s.newBusiness("shop@example.com")), sentinel.ErrAlreadyUsed)

	first.IsDeleted = true
	s.Require().NoError(s.store.Update(ctx, first))
	s.Require().NoError(s.store.Create(ctx, s.newBusiness("shop@example.com")))

	all, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal(first.ID, all[0].ID)
	s.True(all[0].IsDeleted)
}

func (s *BusinessStoreSuite) TestUpdateMissing() {
	s.ErrorIs(s.store.Update(context.Background(), s.newBusiness("ghost@example.com")), sentinel.ErrNotFound)
}
