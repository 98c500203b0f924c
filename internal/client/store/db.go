package store

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/openfield/expensesync/internal/client/store/migrations"
)

// RunMigrations applies the embedded goose migrations to the local queue db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the local SQLite queue at dsn,
// applies migrations, and returns a ready repository.
func InitDatabase(ctx context.Context, dsn string) (*SQLiteRepository, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return NewSQLiteRepository(db), db, nil
}
