package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfield/expensesync/internal/client/models"
	"github.com/openfield/expensesync/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, d *models.Draft) (int64, error) {
	query := `INSERT INTO drafts (project_id, amount, currency, vendor_name, category, expense_date, image_base64, image_mime, created_at, retry_count, last_error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '')
	`
	d.CreatedAt = time.Now().UTC()
	d.RetryCount = 0
	d.LastError = ""

	res, err := r.db.ExecContext(ctx, query,
		d.ProjectID, d.Amount.String(), d.Currency, d.VendorName, d.Category, d.ExpenseDate,
		d.ImageBase64, d.ImageMime, d.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue draft: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get draft id: %w", err)
	}
	d.ID = id
	return id, nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.Draft, error) {
	query := `SELECT id, project_id, amount, currency, vendor_name, category, expense_date, image_base64, image_mime, created_at, retry_count, last_error
		FROM drafts ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select drafts: %w", err)
	}
	defer rows.Close()

	var result []*models.Draft
	for rows.Next() {
		item := &models.Draft{}
		var amount string
		if err := rows.Scan(&item.ID, &item.ProjectID, &amount, &item.Currency,
			&item.VendorName, &item.Category, &item.ExpenseDate,
			&item.ImageBase64, &item.ImageMime, &item.CreatedAt,
			&item.RetryCount, &item.LastError); err != nil {
			return nil, err
		}
		item.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount in draft %d: %w", item.ID, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Remove deletes a synced draft. It expects exactly one row to be affected.
func (r *SQLiteRepository) Remove(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

func (r *SQLiteRepository) RecordFailure(ctx context.Context, id int64, message string) error {
	query := `UPDATE drafts SET retry_count = retry_count + 1, last_error = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, message, id); err != nil {
		return fmt.Errorf("failed to record draft failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM drafts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count drafts: %w", err)
	}
	return n, nil
}
