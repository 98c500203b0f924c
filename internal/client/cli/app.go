package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/openfield/expensesync/internal/client/api"
	"github.com/openfield/expensesync/internal/client/config"
	"github.com/openfield/expensesync/internal/client/store"
	"github.com/openfield/expensesync/internal/client/sync"
	"github.com/openfield/expensesync/internal/logging"

	_ "modernc.org/sqlite"
)

// apiService is the remote surface the CLI commands need. *api.Client
// satisfies it; tests can provide a stub.
type apiService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	ClearToken()
	HasToken() bool
	Ping(ctx context.Context) error
	ExtractReceipt(ctx context.Context, imageBase64, mimeType string) (*api.Extraction, error)
}

// App wires the local draft store, the API client and the sync machinery
// behind an interactive command loop.
type App struct {
	config     *config.Config
	api        apiService
	queue      store.Repository
	controller *sync.Controller
	engine     *sync.Engine
	source     *sync.ChanEventSource
	db         *sql.DB
	log        logging.Logger
	reader     *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	queue, db, err := store.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	apiClient := api.New(c.ServerEndpointAddr)

	engine := sync.NewEngine(apiClient, queue, log)
	source := sync.NewChanEventSource()
	controller := sync.NewController(engine, queue, apiClient, log, sync.Intervals{
		OnlineCheck:  c.OnlineCheckInterval,
		Sync:         c.SyncInterval,
		CountRefresh: c.CountRefreshInterval,
	}, source)

	return &App{
		config:     c,
		api:        apiClient,
		queue:      queue,
		controller: controller,
		engine:     engine,
		source:     source,
		db:         db,
		log:        log,
		reader:     bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the sync controller and the REPL, and tears both down when the
// user exits. SIGUSR1 is forwarded to the controller as a wake event so an
// external scheduler can trigger background sync.
func (a *App) Run(ctx context.Context) {
	a.controller.Start(ctx)
	defer func() {
		a.controller.Stop()
		_ = a.db.Close()
	}()

	wake := make(chan os.Signal, 1)
	signal.Notify(wake, syscall.SIGUSR1)
	defer signal.Stop(wake)
	go func() {
		for range wake {
			a.source.Notify(sync.WakeTag)
		}
	}()

	printlnFn("expensesync CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.api.HasToken()
}

func (a *App) getStatus() string {
	st := a.controller.Status()

	s := "offline"
	if st.Online {
		s = "online"
	}
	if st.Syncing {
		s += ", syncing"
	}
	if st.QueuedCount > 0 {
		s += fmt.Sprintf(", %d queued", st.QueuedCount)
	}
	return "(" + s + ")"
}
