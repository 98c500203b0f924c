// Package sync moves queued expense drafts to the server: the Engine runs
// single-flight sync passes over the durable draft store, and the Controller
// decides when passes happen.
package sync

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync/atomic"

	"github.com/openfield/expensesync/internal/client/api"
	"github.com/openfield/expensesync/internal/client/imagex"
	"github.com/openfield/expensesync/internal/client/models"
	"github.com/openfield/expensesync/internal/client/store"
	"github.com/openfield/expensesync/internal/logging"
	"github.com/openfield/expensesync/internal/netx"
)

// Result summarizes one sync pass.
type Result struct {
	Synced int
	Failed int
}

// State is the engine's explicit single-flight token.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

// Backend is the remote surface the engine needs: reachability, presigned
// receipt uploads, and record inserts. *api.Client satisfies it.
type Backend interface {
	Ping(ctx context.Context) error
	HasToken() bool
	PresignReceipt(ctx context.Context, projectID, contentType string) (*api.PresignedUpload, error)
	CreateExpense(ctx context.Context, record *api.ExpenseRecord) error
}

// Engine uploads queued drafts sequentially in capture order. At most one
// pass runs at a time process-wide; a pass requested while one is active is
// a no-op returning a zero Result.
type Engine struct {
	backend Backend
	queue   store.Repository
	log     logging.Logger

	state atomic.Int32

	// seams for tests
	sanitize func(imageBase64 string) (string, string, error)
	upload   func(ctx context.Context, url string, body []byte, contentType string) error
}

func NewEngine(backend Backend, queue store.Repository, log logging.Logger) *Engine {
	return &Engine{
		backend:  backend,
		queue:    queue,
		log:      log,
		sanitize: imagex.Sanitize,
		upload:   netx.UploadToPresignedURL,
	}
}

// State reports whether a pass is currently running.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// RunPass drains the queue once. Preconditions checked before any work: the
// server must be reachable and a session token present; otherwise the queue
// is left untouched. One draft's failure never aborts the pass — it is
// recorded on the draft and the pass moves on.
func (e *Engine) RunPass(ctx context.Context) Result {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return Result{}
	}
	defer e.state.Store(int32(StateIdle))

	if !e.backend.HasToken() {
		return Result{}
	}
	if err := e.backend.Ping(ctx); err != nil {
		return Result{}
	}

	drafts, err := e.queue.ListPending(ctx)
	if err != nil {
		e.log.Error(ctx, "listing pending drafts failed", "error", err)
		return Result{}
	}

	var res Result
	for _, d := range drafts {
		if err := e.syncDraft(ctx, d); err != nil {
			if rerr := e.queue.RecordFailure(ctx, d.ID, err.Error()); rerr != nil {
				e.log.Error(ctx, "recording draft failure failed", "id", d.ID, "error", rerr)
			}
			e.log.Warn(ctx, "draft sync failed", "id", d.ID, "error", err)
			res.Failed++
			continue
		}
		if err := e.queue.Remove(ctx, d.ID); err != nil {
			// The record is already remote; losing the delete means a
			// duplicate on the next pass (accepted at-least-once semantics).
			e.log.Error(ctx, "removing synced draft failed", "id", d.ID, "error", err)
		}
		res.Synced++
	}

	e.log.Info(ctx, "sync pass finished", "synced", res.Synced, "failed", res.Failed)
	return res
}

// syncDraft performs the per-draft protocol: strip image metadata, upload
// under a fresh namespaced key, then insert the record referencing the
// upload. The draft is only removed by the caller when every step succeeded.
func (e *Engine) syncDraft(ctx context.Context, d *models.Draft) error {
	cleanBase64, mime, err := e.sanitize(d.ImageBase64)
	if err != nil {
		return fmt.Errorf("sanitize image: %w", err)
	}

	body, err := base64.StdEncoding.DecodeString(cleanBase64)
	if err != nil {
		return fmt.Errorf("decode sanitized image: %w", err)
	}

	up, err := e.backend.PresignReceipt(ctx, d.ProjectID, mime)
	if err != nil {
		return fmt.Errorf("presign upload: %w", err)
	}

	if err := e.upload(ctx, up.URL, body, mime); err != nil {
		return fmt.Errorf("upload receipt: %w", err)
	}

	record := &api.ExpenseRecord{
		ProjectID:   d.ProjectID,
		Amount:      d.Amount.String(),
		Currency:    d.Currency,
		VendorName:  d.VendorName,
		Category:    d.Category,
		ExpenseDate: d.ExpenseDate,
		ReceiptKey:  up.Key,
	}
	if err := e.backend.CreateExpense(ctx, record); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}

	return nil
}
