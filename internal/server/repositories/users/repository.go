package users

import (
	"context"

	"github.com/openfield/expensesync/internal/server/models"
)

// Repository persists user identities.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
