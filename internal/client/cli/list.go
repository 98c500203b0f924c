package cli

import (
	"context"
	"fmt"
)

// List prints the drafts still waiting in the local queue, oldest first.
func (a *App) List(ctx context.Context) error {
	drafts, err := a.queue.ListPending(ctx)
	if err != nil {
		return err
	}

	if len(drafts) == 0 {
		printlnFn("Queue is empty.")
		return nil
	}

	for _, d := range drafts {
		line := fmt.Sprintf("#%d  %s  %s %s  %s  %s", d.ID, d.ExpenseDate, d.Amount.String(), d.Currency, d.Category, d.ProjectID)
		if d.RetryCount > 0 {
			line += fmt.Sprintf("  (retries: %d, last error: %s)", d.RetryCount, d.LastError)
		}
		printlnFn(line)
	}
	return nil
}
