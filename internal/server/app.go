// Package server wires the HTTP API server: database and migrations, object
// storage, the SQL safety gate and read-only executor, and graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/openfield/expensesync/internal/logging"
	"github.com/openfield/expensesync/internal/server/config"
	"github.com/openfield/expensesync/internal/server/httpapi"
	"github.com/openfield/expensesync/internal/server/llm"
	"github.com/openfield/expensesync/internal/server/migrations"
	"github.com/openfield/expensesync/internal/server/ocr"
	"github.com/openfield/expensesync/internal/server/queryexec"
	"github.com/openfield/expensesync/internal/server/repositories/expenses"
	"github.com/openfield/expensesync/internal/server/repositories/users"
	"github.com/openfield/expensesync/internal/server/sqlgate"
	"github.com/openfield/expensesync/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := runMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	executor, err := queryexec.New(c.ReadOnlyDSN)
	if err != nil {
		return nil, fmt.Errorf("analytics executor: %w", err)
	}

	gate := sqlgate.New(c.AnalyticsSchema, c.AnalyticsTable, c.AnalyticsRowCeiling)

	api := httpapi.NewServer(
		c,
		logger,
		users.NewPostgresRepository(db),
		expenses.NewPostgresRepository(db),
		storage.NewService(c),
		gate,
		executor,
		llm.NewHTTPGenerator(c.LLMEndpoint, c.LLMAPIKey, c.LLMModel),
		ocr.NewHTTPExtractor(c.OCREndpoint, c.OCRAPIKey),
	)

	return &App{config: c, logger: logger, db: db, api: api}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return app.db.Close()
}
