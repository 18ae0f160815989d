package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"refeera/internal/referral/models"
	"refeera/pkg/domain"
)

const submissionColumns = `id, referral_id, partner_id, offer_id, fname, lname, email, phone_no,
	medicaid_medicare, address, state, city, postal_code, country, dob, ssn, gender,
	has_spouse, spouse_fname, spouse_lname, spouse_ssn, enroll_spouse, disqualified,
	is_partial_submission, created_at, updated_at`

// listColumns mirrors submissionColumns with the social security numbers
// blanked, so listings never read them off disk.
const listColumns = `id, referral_id, partner_id, offer_id, fname, lname, email, phone_no,
	medicaid_medicare, address, state, city, postal_code, country, dob, '' AS ssn, gender,
	has_spouse, spouse_fname, spouse_lname, '' AS spouse_ssn, enroll_spouse, disqualified,
	is_partial_submission, created_at, updated_at`

// PostgresStore persists submissions in PostgreSQL. Listing order follows
// the seq column, which records insertion order.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert inserts sub or overwrites every payload column of the existing row
// for (email, offer_id). id, seq and created_at of an existing row survive.
func (s *PostgresStore) Upsert(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		ON CONFLICT ON CONSTRAINT submissions_email_offer_key DO UPDATE SET
			referral_id = EXCLUDED.referral_id,
			partner_id = EXCLUDED.partner_id,
			fname = EXCLUDED.fname,
			lname = EXCLUDED.lname,
			phone_no = EXCLUDED.phone_no,
			medicaid_medicare = EXCLUDED.medicaid_medicare,
			address = EXCLUDED.address,
			state = EXCLUDED.state,
			city = EXCLUDED.city,
			postal_code = EXCLUDED.postal_code,
			country = EXCLUDED.country,
			dob = EXCLUDED.dob,
			ssn = EXCLUDED.ssn,
			gender = EXCLUDED.gender,
			has_spouse = EXCLUDED.has_spouse,
			spouse_fname = EXCLUDED.spouse_fname,
			spouse_lname = EXCLUDED.spouse_lname,
			spouse_ssn = EXCLUDED.spouse_ssn,
			enroll_spouse = EXCLUDED.enroll_spouse,
			disqualified = EXCLUDED.disqualified,
			is_partial_submission = EXCLUDED.is_partial_submission,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	stored := *sub
	err := s.db.QueryRowContext(ctx, query,
		sub.ID, sub.ReferralID, sub.PartnerID, sub.OfferID, sub.Fname, sub.Lname, sub.Email, sub.PhoneNo,
		sub.MedicaidMedicare, sub.Address, sub.State, sub.City, sub.PostalCode, sub.Country, sub.Dob, sub.Ssn, sub.Gender,
		sub.HasSpouse, sub.SpouseFname, sub.SpouseLname, sub.SpouseSsn, sub.EnrollSpouse, sub.Disqualified,
		sub.IsPartialSubmission, sub.CreatedAt, sub.UpdatedAt,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert submission: %w", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	return &stored, nil
}

func (s *PostgresStore) FindByEmailOffer(ctx context.Context, email string, offer domain.OfferID) (*models.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE email = $1 AND offer_id = $2`,
		email, offer)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound(offer)
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) ListByPartner(ctx context.Context, f models.SubmissionFilter, p models.Page) ([]*models.Submission, int64, error) {
	where, args := buildFilter(f)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM submissions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	n := len(args)
	query := `SELECT ` + listColumns + ` FROM submissions WHERE ` + where +
		` ORDER BY seq LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate submissions: %w", err)
	}
	return out, total, nil
}

func buildFilter(f models.SubmissionFilter) (string, []any) {
	clauses := []string{"partner_id = $1"}
	args := []any{f.PartnerID}
	add := func(column string, v any) {
		args = append(args, v)
		clauses = append(clauses, column+" = $"+strconv.Itoa(len(args)))
	}
	if f.OfferID != "" {
		add("offer_id", f.OfferID)
	}
	if f.Email != "" {
		add("email", f.Email)
	}
	if f.IsPartialSubmission != nil {
		add("is_partial_submission", *f.IsPartialSubmission)
	}
	return strings.Join(clauses, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*models.Submission, error) {
	var sub models.Submission
	err := row.Scan(
		&sub.ID, &sub.ReferralID, &sub.PartnerID, &sub.OfferID, &sub.Fname, &sub.Lname, &sub.Email, &sub.PhoneNo,
		&sub.MedicaidMedicare, &sub.Address, &sub.State, &sub.City, &sub.PostalCode, &sub.Country, &sub.Dob, &sub.Ssn, &sub.Gender,
		&sub.HasSpouse, &sub.SpouseFname, &sub.SpouseLname, &sub.SpouseSsn, &sub.EnrollSpouse, &sub.Disqualified,
		&sub.IsPartialSubmission, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	return &sub, nil
}
