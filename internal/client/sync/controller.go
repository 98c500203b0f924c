package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/openfield/expensesync/internal/client/store"
	"github.com/openfield/expensesync/internal/logging"
)

// WakeEvent is a platform-delivered background-sync signal forwarded to the
// controller, e.g. from a service-worker style scheduler.
type WakeEvent struct {
	Tag string
}

// WakeTag identifies wake signals addressed to the expense sync machinery;
// events with other tags are ignored.
const WakeTag = "expense-sync"

// EventSource delivers wake events. It is injected at construction and
// released at Stop, so the controller is testable without a real platform
// runtime.
type EventSource interface {
	Events() <-chan WakeEvent
	Close() error
}

// Status is the controller's externally visible state, polled by the UI.
type Status struct {
	Online      bool
	Syncing     bool
	QueuedCount int
	LastResult  Result
}

// Intervals configures the controller's timers. The count refresh is
// deliberately faster than the sync interval: queue depth must stay fresh in
// the UI even while offline, and refreshing it implies no network traffic.
type Intervals struct {
	OnlineCheck  time.Duration
	Sync         time.Duration
	CountRefresh time.Duration
}

// Controller decides when sync passes run: on offline→online transitions,
// on a periodic timer while online, on explicit user request, and on wake
// events. All triggers funnel into the engine, whose single-flight token
// makes overlapping requests harmless.
type Controller struct {
	engine    *Engine
	queue     store.Repository
	backend   Backend
	log       logging.Logger
	intervals Intervals
	source    EventSource

	manual chan struct{}
	done   chan struct{}
	cancel context.CancelFunc

	mu     stdsync.Mutex
	status Status
}

func NewController(engine *Engine, queue store.Repository, backend Backend, log logging.Logger, intervals Intervals, source EventSource) *Controller {
	return &Controller{
		engine:    engine,
		queue:     queue,
		backend:   backend,
		log:       log,
		intervals: intervals,
		source:    source,
		manual:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Start launches the scheduling loop. All queue and sync work happens on
// this single goroutine; other goroutines only post triggers and read
// Status.
func (c *Controller) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.loop(ctx)
}

// Stop tears the loop down and releases the event source.
func (c *Controller) Stop() {
	c.cancel()
	<-c.done
	if err := c.source.Close(); err != nil {
		c.log.Warn(context.Background(), "closing event source failed", "error", err)
	}
}

// RequestSync triggers a pass regardless of timer phase. Non-blocking; if a
// request is already queued the extra one is dropped.
func (c *Controller) RequestSync() {
	select {
	case c.manual <- struct{}{}:
	default:
	}
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.done)

	onlineTicker := time.NewTicker(c.intervals.OnlineCheck)
	defer onlineTicker.Stop()
	syncTicker := time.NewTicker(c.intervals.Sync)
	defer syncTicker.Stop()
	countTicker := time.NewTicker(c.intervals.CountRefresh)
	defer countTicker.Stop()

	// establish initial state before the first tick
	c.checkOnline(ctx)
	c.refreshCount(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case <-onlineTicker.C:
			if c.checkOnline(ctx) {
				// offline→online transition: flush the queue right away
				c.runPass(ctx)
			}

		case <-syncTicker.C:
			if c.Status().Online {
				c.runPass(ctx)
			}

		case <-c.manual:
			c.runPass(ctx)

		case ev, ok := <-c.source.Events():
			if !ok {
				continue
			}
			if ev.Tag == WakeTag {
				c.runPass(ctx)
			}

		case <-countTicker.C:
			c.refreshCount(ctx)
		}
	}
}

// checkOnline probes the server and records the result, returning true only
// on an offline→online transition.
func (c *Controller) checkOnline(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := c.backend.Ping(pingCtx)
	cancel()

	online := err == nil

	c.mu.Lock()
	wasOnline := c.status.Online
	c.status.Online = online
	c.mu.Unlock()

	if online != wasOnline {
		c.log.Info(ctx, "connectivity changed", "online", online)
	}
	return online && !wasOnline
}

func (c *Controller) runPass(ctx context.Context) {
	c.setSyncing(true)
	result := c.engine.RunPass(ctx)
	c.setSyncing(false)

	c.mu.Lock()
	c.status.LastResult = result
	c.mu.Unlock()

	c.refreshCount(ctx)
}

func (c *Controller) refreshCount(ctx context.Context) {
	n, err := c.queue.Count(ctx)
	if err != nil {
		c.log.Error(ctx, "queue count failed", "error", err)
		return
	}
	c.mu.Lock()
	c.status.QueuedCount = n
	c.mu.Unlock()
}

func (c *Controller) setSyncing(v bool) {
	c.mu.Lock()
	c.status.Syncing = v
	c.mu.Unlock()
}
