package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"relief/internal/profile"
	"relief/pkg/domain"
	"relief/pkg/platform/sentinel"
)

// PostgresStore persists applications in PostgreSQL. The profile snapshot and
// event details go into jsonb columns; balance and routing fields stay
// relational for querying.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const applicationColumns = `id, owner_uid, fund_code, profile_snapshot, event_details,
	submitted_date, status, reasons, decisioned_date,
	twelve_month_remaining, lifetime_remaining, submitted_by, is_proxy`

func (s *PostgresStore) Create(ctx context.Context, app Application) (Application, error) {
	app.ID = domain.NewApplicationID()

	snapshot, err := json.Marshal(app.ProfileSnapshot)
	if err != nil {
		return Application{}, fmt.Errorf("marshal profile snapshot: %w", err)
	}
	event, err := json.Marshal(app.Event)
	if err != nil {
		return Application{}, fmt.Errorf("marshal event details: %w", err)
	}
	reasons, err := json.Marshal(app.Reasons)
	if err != nil {
		return Application{}, fmt.Errorf("marshal reasons: %w", err)
	}
	decisioned := sql.NullTime{}
	if app.DecisionedDate != nil {
		decisioned = sql.NullTime{Time: *app.DecisionedDate, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		insert into applications (`+applicationColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		app.ID.String(), app.OwnerUID.String(), app.FundCode.String(),
		snapshot, event, app.SubmittedDate, string(app.Status), reasons, decisioned,
		app.TwelveMonthRemaining, app.LifetimeRemaining,
		app.SubmittedBy.String(), app.IsProxy,
	)
	if err != nil {
		return Application{}, fmt.Errorf("insert application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) ListForOwner(ctx context.Context, uid string) ([]Application, error) {
	return s.list(ctx,
		`select `+applicationColumns+` from applications
		 where owner_uid = $1 order by submitted_date desc`, uid)
}

func (s *PostgresStore) ListForProxySubmitter(ctx context.Context, uid string) ([]Application, error) {
	return s.list(ctx,
		`select `+applicationColumns+` from applications
		 where is_proxy and submitted_by = $1 order by submitted_date desc`, uid)
}

func (s *PostgresStore) LatestForOwnerAndFund(ctx context.Context, uid, fundCode string) (Application, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+applicationColumns+` from applications
		 where owner_uid = $1 and fund_code = $2
		 order by submitted_date desc limit 1`, uid, fundCode)
	app, err := scanApplication(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, sentinel.ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		app, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	return out, rows.Err()
}

func scanApplication(scan func(...any) error) (Application, error) {
	var (
		app                     Application
		id, owner, code, status string
		submittedBy             string
		snapshot, event         []byte
		reasons                 []byte
		submitted               time.Time
		decisioned              sql.NullTime
	)
	err := scan(&id, &owner, &code, &snapshot, &event,
		&submitted, &status, &reasons, &decisioned,
		&app.TwelveMonthRemaining, &app.LifetimeRemaining, &submittedBy, &app.IsProxy)
	if err != nil {
		return Application{}, err
	}
	app.ID = domain.ApplicationID(id)
	app.OwnerUID = domain.UserID(owner)
	app.FundCode = domain.FundCode(code)
	app.Status = Status(status)
	app.SubmittedBy = domain.UserID(submittedBy)
	app.SubmittedDate = submitted
	if decisioned.Valid {
		t := decisioned.Time
		app.DecisionedDate = &t
	}
	var snap profile.UserProfile
	if err := json.Unmarshal(snapshot, &snap); err != nil {
		return Application{}, fmt.Errorf("unmarshal profile snapshot: %w", err)
	}
	app.ProfileSnapshot = snap
	if err := json.Unmarshal(event, &app.Event); err != nil {
		return Application{}, fmt.Errorf("unmarshal event details: %w", err)
	}
	if err := json.Unmarshal(reasons, &app.Reasons); err != nil {
		return Application{}, fmt.Errorf("unmarshal reasons: %w", err)
	}
	return app, nil
}
