package submission

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refeera/internal/referral/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

var columns = []string{
	"id", "referral_id", "partner_id", "offer_id", "fname", "lname", "email", "phone_no",
	"medicaid_medicare", "address", "state", "city", "postal_code", "country", "dob", "ssn", "gender",
	"has_spouse", "spouse_fname", "spouse_lname", "spouse_ssn", "enroll_spouse", "disqualified",
	"is_partial_submission", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresUpsertReturnsStoredIdentity(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	sub := models.NewSubmission(models.SubmissionInput{
		ReferralID: "r-1", PartnerID: "p-1", OfferID: "aca", Email: "a@example.com", MedicaidMedicare: "yes",
	}, time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT ON CONSTRAINT submissions_email_offer_key DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("existing-id", created))

	stored, err := store.Upsert(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "existing-id", stored.ID)
	assert.Equal(t, created, stored.CreatedAt)
	assert.True(t, stored.Disqualified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListByPartnerBuildsFilter(t *testing.T) {
	store, mock := newMockStore(t)
	partial := true
	filter := models.SubmissionFilter{PartnerID: "p-1", OfferID: "rx", Email: "a@example.com", IsPartialSubmission: &partial}
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM submissions WHERE partner_id = $1 AND offer_id = $2 AND email = $3 AND is_partial_submission = $4")).
		WithArgs("p-1", "rx", "a@example.com", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq LIMIT $5 OFFSET $6")).
		WithArgs("p-1", "rx", "a@example.com", true, 5, 10).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"s-1", "r-1", "p-1", "rx", "Jane", "Doe", "a@example.com", "555",
			"no", "", "", "", "", "", "", "", "female",
			"no", "", "", "", "", false,
			true, now, now,
		))

	page, total, err := store.ListByPartner(context.Background(), filter, models.Page{Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 11, total)
	require.Len(t, page, 1)
	assert.Equal(t, domain.OfferRx, page[0].OfferID)
	assert.Equal(t, "Jane", page[0].View().Fname)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByEmailOfferNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1 AND offer_id = $2")).
		WithArgs("a@example.com", "aca").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := store.FindByEmailOffer(context.Background(), "a@example.com", domain.OfferACA)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
