package expenses

import (
	"context"

	"github.com/openfield/expensesync/internal/server/models"
)

// Repository persists append-only expense records. There is deliberately no
// update or delete: records are immutable once written.
type Repository interface {
	Create(ctx context.Context, expense *models.Expense) error
	ListByUser(ctx context.Context, userID string) ([]*models.Expense, error)
	ListAll(ctx context.Context) ([]*models.Expense, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Expense, error)
}
