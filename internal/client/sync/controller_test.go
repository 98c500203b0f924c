package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfield/expensesync/internal/client/api"
)

// lockedBackend is safe to mutate from the test goroutine while the
// controller loop is running.
type lockedBackend struct {
	mu      stdsync.Mutex
	pingErr error
	created int
}

func (b *lockedBackend) setPingErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pingErr = err
}

func (b *lockedBackend) createdCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created
}

func (b *lockedBackend) Ping(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pingErr
}

func (b *lockedBackend) HasToken() bool { return true }

func (b *lockedBackend) PresignReceipt(_ context.Context, projectID, _ string) (*api.PresignedUpload, error) {
	return &api.PresignedUpload{Key: "receipts/u1/" + projectID + "/k", URL: "http://storage.test/put"}, nil
}

func (b *lockedBackend) CreateExpense(context.Context, *api.ExpenseRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created++
	return nil
}

// long enough that timers never fire during a test unless the test wants
// them to
const never = time.Hour

func startController(t *testing.T, backend Backend, intervals Intervals) (*Controller, *ChanEventSource, *Engine) {
	t.Helper()
	queue := setupQueue(t)
	engine := newTestEngine(backend, queue)
	source := NewChanEventSource()
	c := NewController(engine, queue, backend, testLogger(), intervals, source)
	c.Start(context.Background())
	t.Cleanup(c.Stop)
	return c, source, engine
}

func TestControllerManualTrigger(t *testing.T) {
	backend := &lockedBackend{}
	c, _, e := startController(t, backend, Intervals{OnlineCheck: never, Sync: never, CountRefresh: never})

	enqueue(t, e.queue, "p1", "10")
	c.RequestSync()

	assert.Eventually(t, func() bool {
		st := c.Status()
		return st.LastResult == Result{Synced: 1, Failed: 0} && st.QueuedCount == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, backend.createdCount())
}

func TestControllerWakeEventTagFilter(t *testing.T) {
	backend := &lockedBackend{}
	c, source, e := startController(t, backend, Intervals{OnlineCheck: never, Sync: never, CountRefresh: never})

	enqueue(t, e.queue, "p1", "10")

	source.Notify("unrelated-job")
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, backend.createdCount())

	source.Notify(WakeTag)
	assert.Eventually(t, func() bool {
		return c.Status().QueuedCount == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, backend.createdCount())
}

func TestControllerOfflineToOnlineTransition(t *testing.T) {
	backend := &lockedBackend{}
	backend.setPingErr(fmt.Errorf("network unreachable"))

	c, _, e := startController(t, backend, Intervals{OnlineCheck: 20 * time.Millisecond, Sync: never, CountRefresh: never})

	enqueue(t, e.queue, "p1", "10")

	assert.Eventually(t, func() bool {
		return !c.Status().Online
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, backend.createdCount())

	// coming back online flushes the queue without waiting for the sync timer
	backend.setPingErr(nil)
	assert.Eventually(t, func() bool {
		st := c.Status()
		return st.Online && st.QueuedCount == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, backend.createdCount())
}

func TestControllerCountRefresh(t *testing.T) {
	backend := &lockedBackend{}
	backend.setPingErr(fmt.Errorf("network unreachable"))

	c, _, e := startController(t, backend, Intervals{OnlineCheck: never, Sync: never, CountRefresh: 20 * time.Millisecond})

	// drafts captured while offline show up in the count without any sync
	enqueue(t, e.queue, "p1", "10")
	enqueue(t, e.queue, "p1", "20")

	assert.Eventually(t, func() bool {
		return c.Status().QueuedCount == 2
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, backend.createdCount())

	n, err := e.queue.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
