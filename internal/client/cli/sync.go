package cli

import (
	"context"
	"fmt"

	"github.com/openfield/expensesync/internal/common"
)

// Sync runs a pass right now and reports the outcome. If a background pass
// is already active the engine returns a zero result and we say so instead
// of pretending nothing was queued.
func (a *App) Sync(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrorNotLoggedIn
	}

	n, err := a.queue.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		printlnFn("Nothing to sync.")
		return nil
	}

	res := a.engine.RunPass(ctx)
	if res.Synced == 0 && res.Failed == 0 {
		printlnFn("Sync already in progress or server unreachable.")
		return nil
	}

	printlnFn(fmt.Sprintf("Synced %d draft(s), %d failed.", res.Synced, res.Failed))
	return nil
}
