package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"relief/pkg/domain"
	"relief/pkg/platform/sentinel"
)

// PostgresStore persists profiles in PostgreSQL. It implements Store but not
// Feed; push subscriptions come from the in-process feed that the hydration
// layer wraps around saves.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `uid, email, first_name, last_name, phone, street, city, state, zip, country,
	employer, job_title, active_identity_id, fund_code, fund_name, verification_status,
	eligibility_status, role, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, p *UserProfile) error {
	activeID := sql.NullString{}
	if p.ActiveIdentityID != nil {
		activeID = sql.NullString{String: p.ActiveIdentityID.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		insert into profiles (`+profileColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		on conflict (uid) do update set
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			street = excluded.street,
			city = excluded.city,
			state = excluded.state,
			zip = excluded.zip,
			country = excluded.country,
			employer = excluded.employer,
			job_title = excluded.job_title,
			active_identity_id = excluded.active_identity_id,
			fund_code = excluded.fund_code,
			fund_name = excluded.fund_name,
			verification_status = excluded.verification_status,
			eligibility_status = excluded.eligibility_status,
			role = excluded.role,
			updated_at = excluded.updated_at`,
		p.UID.String(), p.Email, p.FirstName, p.LastName, p.Phone,
		p.Street, p.City, p.State, p.Zip, p.Country,
		p.Employer, p.JobTitle, activeID,
		p.FundCode.String(), p.FundName, string(p.VerificationStatus),
		string(p.EligibilityStatus), string(p.Role), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUID(ctx context.Context, uid string) (*UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+profileColumns+` from profiles where uid = $1`, uid)
	return scanProfile(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+profileColumns+` from profiles where lower(email) = lower($1)`, email)
	return scanProfile(row)
}

func scanProfile(row *sql.Row) (*UserProfile, error) {
	var (
		p              UserProfile
		uid            string
		activeID       sql.NullString
		fundCode       string
		verification   string
		eligibility    string
		role           string
		created, utime time.Time
	)
	err := row.Scan(&uid, &p.Email, &p.FirstName, &p.LastName, &p.Phone,
		&p.Street, &p.City, &p.State, &p.Zip, &p.Country,
		&p.Employer, &p.JobTitle, &activeID,
		&fundCode, &p.FundName, &verification, &eligibility, &role,
		&created, &utime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.UID = domain.UserID(uid)
	if activeID.Valid {
		id := domain.IdentityID(activeID.String)
		p.ActiveIdentityID = &id
	}
	p.FundCode = domain.FundCode(fundCode)
	p.VerificationStatus = domain.VerificationStatus(verification)
	p.EligibilityStatus = domain.EligibilityStatus(eligibility)
	p.Role = domain.Role(role)
	p.CreatedAt = created
	p.UpdatedAt = utime
	return &p, nil
}
