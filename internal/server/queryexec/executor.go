// Package queryexec runs already-validated analytics statements against
// Postgres using a separate, minimally privileged credential. It performs no
// validation of its own and must only ever receive output of the sqlgate.
package queryexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ErrNoReadOnlyDSN is returned by New when the analytics credential is not
// configured. The executor refuses to fall back to the application DSN.
var ErrNoReadOnlyDSN = errors.New("read-only DSN is not configured")

// Executor executes one sanitized statement per call on a short-lived
// connection. Admin analytics calls are low-frequency; statement isolation
// matters more than pooling latency here, so no connection survives a call.
type Executor struct {
	dsn string
}

// New validates that a read-only DSN is present and returns an Executor
// bound to it.
func New(readOnlyDSN string) (*Executor, error) {
	if readOnlyDSN == "" {
		return nil, ErrNoReadOnlyDSN
	}
	return &Executor{dsn: readOnlyDSN}, nil
}

// Execute opens a single-connection handle, runs exactly the statement it
// was given, and returns the rows as column-name keyed maps. The connection
// is torn down on every exit path.
func (e *Executor) Execute(ctx context.Context, sanitized string) ([]map[string]any, error) {
	db, err := sql.Open("pgx", e.dsn)
	if err != nil {
		return nil, fmt.Errorf("open analytics connection: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	rows, err := db.QueryContext(ctx, sanitized)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeValue converts driver byte slices to strings so rows serialize to
// JSON as text rather than base64.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
