package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/yourmoney-sync-agent/internal/domain/record"
)

// RecordRepository implements record.Repository on SQLite
type RecordRepository struct {
	db     DBTX
	logger *slog.Logger
}

// NewRecordRepository creates a new SQLite record repository
func NewRecordRepository(logger *slog.Logger, db DBTX) record.Repository {
	return &RecordRepository{
		db:     db,
		logger: logger,
	}
}

// Put inserts or fully overwrites the record at its id.
func (r *RecordRepository) Put(ctx context.Context, rec *record.Record) error {
	query := `
		INSERT INTO offline_transactions (id, user_id, name, category, amount, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			category = excluded.category,
			amount = excluded.amount,
			date = excluded.date,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Name,
		rec.Category,
		rec.Amount.String(),
		formatTime(rec.Date),
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		r.logger.Error("Failed to put record into local store",
			"record_id", rec.ID,
			"error", err,
		)
		return fmt.Errorf("failed to put record: %w", err)
	}

	return nil
}

// GetAll returns every cached record owned by userID. A failed read or an
// unscannable row degrades to "no cached data" rather than an error; the
// cache is best-effort by contract.
func (r *RecordRepository) GetAll(ctx context.Context, userID string) []*record.Record {
	query := `
		SELECT id, user_id, name, category, amount, date, created_at, updated_at
		FROM offline_transactions
		WHERE user_id = ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Warn("Failed to read local record store, returning empty result",
			"user_id", userID,
			"error", err,
		)
		return nil
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			r.logger.Warn("Skipping unreadable local record row", "error", err)
			continue
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		r.logger.Warn("Error iterating local records, returning partial result",
			"user_id", userID,
			"error", err,
		)
	}

	return records
}

// GetByID returns the record or ErrRecordNotFound. A corrupt row is treated
// as absent, never as a reader crash.
func (r *RecordRepository) GetByID(ctx context.Context, id string) (*record.Record, error) {
	query := `
		SELECT id, user_id, name, category, amount, date, created_at, updated_at
		FROM offline_transactions
		WHERE id = ?
	`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, record.ErrRecordNotFound{ID: id}
		}
		r.logger.Warn("Treating unreadable local record as absent",
			"record_id", id,
			"error", err,
		)
		return nil, record.ErrRecordNotFound{ID: id}
	}

	return rec, nil
}

// Remove deletes the entry; an absent id is a no-op.
func (r *RecordRepository) Remove(ctx context.Context, id string) error {
	query := `
		DELETE FROM offline_transactions
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to remove record from local store",
			"record_id", id,
			"error", err,
		)
		return fmt.Errorf("failed to remove record: %w", err)
	}

	return nil
}

// rowScanner lets scanRecord serve both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*record.Record, error) {
	var rec record.Record
	var amount, date, created, updated string

	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Category, &amount, &date, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	if rec.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("invalid stored created_at %q: %w", created, err)
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("invalid stored updated_at %q: %w", updated, err)
	}

	return &rec, nil
}
