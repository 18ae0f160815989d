package partner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"refeera/internal/partner/models"
	"refeera/internal/platform/postgres"
	"refeera/pkg/domain"
	"refeera/pkg/platform/sentinel"
)

const partnerColumns = `id, user_id, name, email, number, location, state, earning, contact_method,
	experience, experience_other, currently_promote, promotion_details, weekly_reach, languages,
	language_other, weekly_hours, promotion_method, zoom_training, bonus_eligible, selfie,
	referral_code, created_at, updated_at`

// PostgresStore persists partners in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Partner) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO partners (`+partnerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`,
		p.ID, p.UserID, p.Name, p.Email, p.Number, p.Location, p.State, p.Earning, p.ContactMethod,
		pq.Array(p.Experience), p.ExperienceOther, p.CurrentlyPromote, p.PromotionDetails, p.WeeklyReach, pq.Array(p.Languages),
		p.LanguageOther, p.WeeklyHours, p.PromotionMethod, p.ZoomTraining, p.BonusEligible, p.Selfie,
		p.ReferralCode, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "partners_email_key") {
			return fmt.Errorf("create partner: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create partner: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.PartnerID) (*models.Partner, error) {
	return s.findOne(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID domain.UserID) (*models.Partner, error) {
	return s.findOne(ctx, `SELECT `+partnerColumns+` FROM partners WHERE user_id = $1 ORDER BY seq LIMIT 1`, userID)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Partner, error) {
	return s.findOne(ctx, `SELECT `+partnerColumns+` FROM partners WHERE email = $1`, email)
}

func (s *PostgresStore) Exists(ctx context.Context, id domain.PartnerID) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM partners WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check partner: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Partner, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+partnerColumns+` FROM partners ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	out := []*models.Partner{}
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partners: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Partner) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE partners SET
			name = $2, email = $3, number = $4, location = $5, state = $6, earning = $7,
			contact_method = $8, experience = $9, experience_other = $10, currently_promote = $11,
			promotion_details = $12, weekly_reach = $13, languages = $14, language_other = $15,
			weekly_hours = $16, promotion_method = $17, zoom_training = $18, bonus_eligible = $19,
			selfie = $20, referral_code = $21, updated_at = $22
		WHERE id = $1
	`,
		p.ID, p.Name, p.Email, p.Number, p.Location, p.State, p.Earning,
		p.ContactMethod, pq.Array(p.Experience), p.ExperienceOther, p.CurrentlyPromote,
		p.PromotionDetails, p.WeeklyReach, pq.Array(p.Languages), p.LanguageOther,
		p.WeeklyHours, p.PromotionMethod, p.ZoomTraining, p.BonusEligible,
		p.Selfie, p.ReferralCode, p.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "partners_email_key") {
			return fmt.Errorf("update partner: email: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("update partner: %w", err)
	}
	return requireAffected(res, "update partner")
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.PartnerID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM partners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete partner: %w", err)
	}
	return requireAffected(res, "delete partner")
}

func (s *PostgresStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM partners`)
	if err != nil {
		return 0, fmt.Errorf("delete partners: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete partners: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Partner, error) {
	p, err := scanPartner(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find partner: %w", err)
	}
	return p, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPartner(row scanner) (*models.Partner, error) {
	var p models.Partner
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.Number, &p.Location, &p.State, &p.Earning, &p.ContactMethod,
		pq.Array(&p.Experience), &p.ExperienceOther, &p.CurrentlyPromote, &p.PromotionDetails, &p.WeeklyReach, pq.Array(&p.Languages),
		&p.LanguageOther, &p.WeeklyHours, &p.PromotionMethod, &p.ZoomTraining, &p.BonusEligible, &p.Selfie,
		&p.ReferralCode, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Experience == nil {
		p.Experience = []string{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
