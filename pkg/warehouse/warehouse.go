// Package warehouse executes analyst-generated SQL against the warehouse over
// a short-lived connection. Execution is an optional capability: when the
// connection parameters are incomplete the executor reports the capability as
// disabled rather than failing, since missing credentials are a configuration
// choice, not a fault.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"
)

// ErrDisabled signals that SQL execution is not configured. It is a
// capability sentinel, not a failure; callers render a notice, not an error.
var ErrDisabled = errors.New("sql execution disabled: warehouse connection parameters not configured")

// QueryError is a warehouse execution failure: bad SQL, connection refused,
// permission denied. It aborts only the results step of an interaction.
type QueryError struct {
	Message string
	Cause   error
}

func (e *QueryError) Error() string {
	return "query failed: " + e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Cause
}

// QueryResult holds the columns and rows of one executed statement. Results
// are rendered and discarded; they are never persisted across turns.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Config holds the warehouse connection parameters. All six plus the account
// must be present for execution to be enabled.
type Config struct {
	Account   string
	User      string
	Password  string
	Role      string
	Warehouse string
	Database  string
	Schema    string
}

// Enabled reports whether every connection parameter is present.
func (c Config) Enabled() bool {
	return c.Account != "" &&
		c.User != "" &&
		c.Password != "" &&
		c.Role != "" &&
		c.Warehouse != "" &&
		c.Database != "" &&
		c.Schema != ""
}

// openFunc opens a fresh database handle for a single execution.
type openFunc func(ctx context.Context) (*sql.DB, error)

// Option configures an Executor.
type Option func(*Executor)

// WithOpener overrides how the executor acquires a database handle.
// Used in tests to substitute a local database for the warehouse.
func WithOpener(open openFunc) Option {
	return func(e *Executor) {
		e.open = open
	}
}

// Executor runs one statement at a time against the warehouse. Every call
// acquires its own connection and releases it before returning; nothing is
// pooled or shared across turns.
type Executor struct {
	config Config
	logger *zap.Logger
	open   openFunc
}

func NewExecutor(config Config, logger *zap.Logger, opts ...Option) *Executor {
	e := &Executor{
		config: config,
		logger: logger,
	}
	e.open = e.openSnowflake

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Disabled reports whether the execution capability is unconfigured.
func (e *Executor) Disabled() bool {
	return !e.config.Enabled()
}

// Execute runs a single statement and returns its columns and rows.
// Returns ErrDisabled when the capability is unconfigured and a *QueryError
// on any execution failure. The connection and cursor are released on every
// exit path.
func (e *Executor) Execute(ctx context.Context, statement string) (*QueryResult, error) {
	if e.Disabled() {
		return nil, ErrDisabled
	}

	db, err := e.open(ctx)
	if err != nil {
		return nil, &QueryError{Message: "opening warehouse connection", Cause: err}
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, &QueryError{Message: err.Error(), Cause: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Message: "reading result columns", Cause: err}
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, &QueryError{Message: "scanning result row", Cause: err}
		}

		// Drivers hand back []byte for text columns; convert for display.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, &QueryError{Message: "iterating result rows", Cause: err}
	}

	e.logger.Debug("statement executed",
		zap.Int("columns", len(result.Columns)),
		zap.Int("rows", len(result.Rows)),
	)

	return result, nil
}

// openSnowflake opens a short-lived handle to the warehouse.
func (e *Executor) openSnowflake(_ context.Context) (*sql.DB, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   e.config.Account,
		User:      e.config.User,
		Password:  e.config.Password,
		Role:      e.config.Role,
		Warehouse: e.config.Warehouse,
		Database:  e.config.Database,
		Schema:    e.config.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("building warehouse DSN: %w", err)
	}

	return sql.Open("snowflake", dsn)
}
