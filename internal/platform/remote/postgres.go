package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourmoney-sync-agent/internal/domain/record"
	"github.com/yourmoney-sync-agent/internal/platform/persistence"
)

// PostgresStore implements the Store interface against the remote Postgres
// transactions table
type PostgresStore struct {
	querier persistence.Querier
	logger  *slog.Logger
	timeout time.Duration
}

// NewPostgresStore creates a new remote store client
func NewPostgresStore(logger *slog.Logger, db *persistence.RemoteDB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{
		querier: db.Pool(),
		logger:  logger,
		timeout: timeout,
	}
}

const recordColumns = `id::text, user_id, name, category, amount::text, date, created_at, updated_at`

// CreateRecord inserts the record under its client-generated id.
func (s *PostgresStore) CreateRecord(ctx context.Context, rec *record.Record) (*record.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO transactions (id, user_id, name, category, amount, date, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5::numeric, $6, $7, $8)
		RETURNING ` + recordColumns

	row := s.querier.QueryRow(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Name,
		rec.Category,
		rec.Amount.String(),
		rec.Date,
		rec.CreatedAt,
		rec.UpdatedAt,
	)

	stored, err := scanRemoteRecord(row)
	if err != nil {
		s.logger.Warn("Remote create failed", "record_id", rec.ID, "error", err)
		return nil, fmt.Errorf("remote create for record %s failed: %w", rec.ID, err)
	}

	return stored, nil
}

// UpdateRecord applies only the changed fields and bumps updated_at.
func (s *PostgresStore) UpdateRecord(ctx context.Context, id string, updates *record.Updates) (*record.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	setParts := []string{}
	args := []interface{}{}

	appendSet := func(expr string, value interface{}) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf(expr, len(args)))
	}

	if updates.Name != nil {
		appendSet("name = $%d", *updates.Name)
	}
	if updates.Category != nil {
		appendSet("category = $%d", *updates.Category)
	}
	if updates.Amount != nil {
		appendSet("amount = $%d::numeric", updates.Amount.String())
	}
	if updates.Date != nil {
		appendSet("date = $%d", record.NormalizeDate(*updates.Date))
	}
	appendSet("updated_at = $%d", time.Now().UTC())

	args = append(args, id)
	query := `
		UPDATE transactions
		SET ` + strings.Join(setParts, ", ") + `
		WHERE id = $` + strconv.Itoa(len(args)) + `::uuid
		RETURNING ` + recordColumns

	stored, err := scanRemoteRecord(s.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound{ID: id}
		}
		s.logger.Warn("Remote update failed", "record_id", id, "error", err)
		return nil, fmt.Errorf("remote update for record %s failed: %w", id, err)
	}

	return stored, nil
}

// DeleteRecord removes the row; deleting an absent row is a success.
func (s *PostgresStore) DeleteRecord(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		DELETE FROM transactions
		WHERE id = $1::uuid
	`

	if _, err := s.querier.Exec(ctx, query, id); err != nil {
		s.logger.Warn("Remote delete failed", "record_id", id, "error", err)
		return fmt.Errorf("remote delete for record %s failed: %w", id, err)
	}

	return nil
}

// QueryRecords returns the user's most recent records, newest first.
func (s *PostgresStore) QueryRecords(ctx context.Context, userID string, limit int) ([]*record.Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + recordColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC
		LIMIT $2
	`

	rows, err := s.querier.Query(ctx, query, userID, limit)
	if err != nil {
		s.logger.Warn("Remote query failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("remote query for user %s failed: %w", userID, err)
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		rec, err := scanRemoteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan remote record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating remote records: %w", err)
	}

	return records, nil
}

// RecordExists reports whether a row with the id exists remotely.
func (s *PostgresStore) RecordExists(ctx context.Context, id string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions WHERE id = $1::uuid
		)
	`

	var exists bool
	if err := s.querier.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("remote existence check for record %s failed: %w", id, err)
	}

	return exists, nil
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func scanRemoteRecord(row pgx.Row) (*record.Record, error) {
	var rec record.Record
	var amount string

	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Category, &amount, &rec.Date, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid remote amount %q: %w", amount, err)
	}
	rec.Amount = parsed

	return &rec, nil
}
