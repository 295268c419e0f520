package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"relief/internal/fund"
	"relief/pkg/domain"
	"relief/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const identityColumns = `id, owner_uid, fund_code, fund_name, method,
	verification_status, eligibility_status, created_at, last_used_at`

func (s *PostgresStore) Upsert(ctx context.Context, fi FundIdentity) error {
	lastUsed := sql.NullTime{}
	if fi.LastUsedAt != nil {
		lastUsed = sql.NullTime{Time: *fi.LastUsedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		insert into fund_identities (`+identityColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		on conflict (id) do update set
			fund_name = excluded.fund_name,
			method = excluded.method,
			verification_status = excluded.verification_status,
			eligibility_status = excluded.eligibility_status,
			last_used_at = excluded.last_used_at`,
		fi.ID.String(), fi.OwnerUID.String(), fi.FundCode.String(), fi.FundName,
		string(fi.Method), string(fi.VerificationStatus), string(fi.EligibilityStatus),
		fi.CreatedAt, lastUsed,
	)
	if err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (FundIdentity, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+identityColumns+` from fund_identities where id = $1`, id)
	fi, err := scanIdentity(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FundIdentity{}, sentinel.ErrNotFound
		}
		return FundIdentity{}, err
	}
	return fi, nil
}

func (s *PostgresStore) ListForUser(ctx context.Context, uid string) ([]FundIdentity, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+identityColumns+` from fund_identities where owner_uid = $1 order by id`, uid)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []FundIdentity
	for rows.Next() {
		fi, err := scanIdentity(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, fi)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from fund_identities where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanIdentity(scan func(...any) error) (FundIdentity, error) {
	var (
		fi                         FundIdentity
		id, owner, code, name      string
		method, verif, eligibility string
		created                    time.Time
		lastUsed                   sql.NullTime
	)
	if err := scan(&id, &owner, &code, &name, &method, &verif, &eligibility, &created, &lastUsed); err != nil {
		return FundIdentity{}, err
	}
	fi.ID = domain.IdentityID(id)
	fi.OwnerUID = domain.UserID(owner)
	fi.FundCode = domain.FundCode(code)
	fi.FundName = name
	fi.Method = fund.VerificationMethod(method)
	fi.VerificationStatus = domain.VerificationStatus(verif)
	fi.EligibilityStatus = domain.EligibilityStatus(eligibility)
	fi.CreatedAt = created
	if lastUsed.Valid {
		t := lastUsed.Time
		fi.LastUsedAt = &t
	}
	return fi, nil
}
