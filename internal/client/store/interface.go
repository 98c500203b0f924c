// Package store implements the durable draft queue: a local, persistent
// append log of captured expenses awaiting sync. Rows survive process
// restarts; a draft leaves the queue only when its sync succeeds.
package store

import (
	"context"

	"github.com/openfield/expensesync/internal/client/models"
)

// Repository is the draft-queue contract used by the capture flow and the
// sync engine.
type Repository interface {
	// Enqueue persists a new draft, stamping CreatedAt and zero retry
	// bookkeeping, and returns the assigned id.
	Enqueue(ctx context.Context, draft *models.Draft) (int64, error)

	// ListPending returns all queued drafts oldest-first. Sync processes
	// them in capture order so the transparency view stays chronological.
	ListPending(ctx context.Context) ([]*models.Draft, error)

	// Remove deletes a draft after a successful sync.
	Remove(ctx context.Context, id int64) error

	// RecordFailure increments the draft's retry counter and overwrites its
	// last error, leaving every other field untouched.
	RecordFailure(ctx context.Context, id int64, message string) error

	// Count reports the current queue depth.
	Count(ctx context.Context) (int, error)
}
