// Package expenses provides the PostgreSQL-backed repository for server-side
// expense records and the public transparency projection.
package expenses

import (
	"context"
	"fmt"

	"github.com/openfield/expensesync/internal/dbx"
	"github.com/openfield/expensesync/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts one immutable expense record.
func (r *PostgresRepository) Create(ctx context.Context, e *models.Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, project_id, amount, currency, vendor_name, category, expense_date, receipt_key, receipt_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.ProjectID, e.Amount, e.Currency, e.VendorName, e.Category, e.ExpenseDate, e.ReceiptKey, e.ReceiptURL)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByUser returns the caller's records, newest capture first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	query := `SELECT id, user_id, project_id, amount, currency, vendor_name, category,
			to_char(expense_date, 'YYYY-MM-DD'), receipt_key, receipt_url, created_at
		FROM expenses
		WHERE user_id = $1
		ORDER BY created_at DESC
		`
	return r.list(ctx, query, userID)
}

// ListAll returns every record, newest capture first. Admin-only listing.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Expense, error) {
	query := `SELECT id, user_id, project_id, amount, currency, vendor_name, category,
			to_char(expense_date, 'YYYY-MM-DD'), receipt_key, receipt_url, created_at
		FROM expenses
		ORDER BY created_at DESC
		`
	return r.list(ctx, query)
}

// ListByProject backs the public transparency view: every record for the
// project ordered by expense date ascending.
func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Expense, error) {
	query := `SELECT id, user_id, project_id, amount, currency, vendor_name, category,
			to_char(expense_date, 'YYYY-MM-DD'), receipt_key, receipt_url, created_at
		FROM expenses
		WHERE project_id = $1
		ORDER BY expense_date ASC
		`
	return r.list(ctx, query, projectID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	var result []*models.Expense
	for rows.Next() {
		var item models.Expense
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProjectID, &item.Amount, &item.Currency,
			&item.VendorName, &item.Category, &item.ExpenseDate, &item.ReceiptKey, &item.ReceiptURL, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
