package business

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"refeera/internal/business/models"
	"refeera/internal/platform/postgres"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

const liveEmailIndex = "businesses_live_email_key"

const businessColumns = `id, business_name, primary_contact, business_address, phone_number, email,
	password_hash, website_or_social_media, business_type, other_business_type, weekly_foot_traffic,
	has_promoting_employees, promotional_materials, onboarding_call, payout_method, offer_services,
	referral_source, referral_partner, is_authorized, is_deleted, is_active, created_at, updated_at`

// PostgresStore persists businesses in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, b *models.Business) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO businesses (`+businessColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`,
		b.ID, b.BusinessName, b.PrimaryContact, b.BusinessAddress, b.PhoneNumber, b.Email,
		b.PasswordHash, b.WebsiteOrSocialMedia, pq.Array(b.BusinessType), b.OtherBusinessType, b.WeeklyFootTraffic,
		b.HasPromotingEmployees, pq.Array(b.PromotionalMaterials), b.OnboardingCall, b.PayoutMethod, b.OfferServices,
		b.ReferralSource, b.ReferralPartner, b.IsAuthorized, b.IsDeleted, b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, liveEmailIndex) {
			return fmt.Errorf("create business: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.BusinessID) (*models.Business, error) {
	return s.findOne(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, id)
}

func (s *PostgresStore) FindLiveByEmail(ctx context.Context, email string) (*models.Business, error) {
	return s.findOne(ctx, `SELECT `+businessColumns+` FROM businesses WHERE email = $1 AND NOT is_deleted`, email)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Business, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+businessColumns+` FROM businesses ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	out := []*models.Business{}
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, b *models.Business) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE businesses SET
			business_name = $2, primary_contact = $3, business_address = $4, phone_number = $5, email = $6,
			password_hash = $7, website_or_social_media = $8, business_type = $9, other_business_type = $10,
			weekly_foot_traffic = $11, has_promoting_employees = $12, promotional_materials = $13,
			onboarding_call = $14, payout_method = $15, offer_services = $16, referral_source = $17,
			referral_partner = $18, is_authorized = $19, is_deleted = $20, is_active = $21, updated_at = $22
		WHERE id = $1
	`,
		b.ID, b.BusinessName, b.PrimaryContact, b.BusinessAddress, b.PhoneNumber, b.Email,
		b.PasswordHash, b.WebsiteOrSocialMedia, pq.Array(b.BusinessType), b.OtherBusinessType,
		b.WeeklyFootTraffic, b.HasPromotingEmployees, pq.Array(b.PromotionalMaterials),
		b.OnboardingCall, b.PayoutMethod, b.OfferServices, b.ReferralSource,
		b.ReferralPartner, b.IsAuthorized, b.IsDeleted, b.IsActive, b.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, liveEmailIndex) {
			return fmt.Errorf("update business: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("update business: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update business: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Business, error) {
	b, err := scanBusiness(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find business: %w", err)
	}
	return b, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBusiness(row scanner) (*models.Business, error) {
	var (
		b        models.Business
		promoted sql.NullBool
	)
	err := row.Scan(
		&b.ID, &b.BusinessName, &b.PrimaryContact, &b.BusinessAddress, &b.PhoneNumber, &b.Email,
		&b.PasswordHash, &b.WebsiteOrSocialMedia, pq.Array(&b.BusinessType), &b.OtherBusinessType, &b.WeeklyFootTraffic,
		&promoted, pq.Array(&b.PromotionalMaterials), &b.OnboardingCall, &b.PayoutMethod, &b.OfferServices,
		&b.ReferralSource, &b.ReferralPartner, &b.IsAuthorized, &b.IsDeleted, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if promoted.Valid {
		v := promoted.Bool
		b.HasPromotingEmployees = &v
	}
	if b.BusinessType == nil {
		b.BusinessType = []string{}
	}
	if b.PromotionalMaterials == nil {
		b.PromotionalMaterials = []string{}
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}
