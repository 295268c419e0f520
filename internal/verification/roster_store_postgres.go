package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"relief/pkg/platform/sentinel"
)

type PostgresRosterStore struct {
	db *sql.DB
}

func NewPostgresRosterStore(db *sql.DB) *PostgresRosterStore {
	return &PostgresRosterStore{db: db}
}

func (s *PostgresRosterStore) FindMember(ctx context.Context, fundCode, memberID string) (RosterMember, error) {
	var m RosterMember
	err := s.db.QueryRowContext(ctx, `
		select fund_code, member_id, year_hash, digit_hash
		from roster_members
		where fund_code = $1 and member_id = $2`,
		fundCode, memberID,
	).Scan(&m.FundCode, &m.MemberID, &m.YearHash, &m.DigitHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RosterMember{}, sentinel.ErrNotFound
		}
		return RosterMember{}, fmt.Errorf("find roster member: %w", err)
	}
	return m, nil
}
