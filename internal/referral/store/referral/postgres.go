package referral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"refeera/internal/platform/postgres"
	"refeera/internal/referral/models"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

// PostgresStore persists referrals in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.Referral) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO referrals (referral_id, partner_id, offer_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, r.ReferralID, r.PartnerID, r.OfferID, r.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "referrals_pkey") {
			return fmt.Errorf("create referral %s: %w", r.ReferralID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create referral: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ReferralID) (*models.Referral, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT referral_id, partner_id, offer_id, created_at
		FROM referrals
		WHERE referral_id = $1
	`, id)
	return scanReferral(row)
}

func (s *PostgresStore) FindMatching(ctx context.Context, id domain.ReferralID, partnerID domain.PartnerID, offerID domain.OfferID) (*models.Referral, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT referral_id, partner_id, offer_id, created_at
		FROM referrals
		WHERE referral_id = $1 AND partner_id = $2 AND offer_id = $3
	`, id, partnerID, offerID)
	return scanReferral(row)
}

func scanReferral(row *sql.Row) (*models.Referral, error) {
	var r models.Referral
	if err := row.Scan(&r.ReferralID, &r.PartnerID, &r.OfferID, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find referral: %w", err)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
