// Package conn owns the connection scope: one database handle pinned to a
// single connection, one transaction, and the commit-or-rollback decision
// made when the scope ends.
package conn

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/shipq/sqltable/dburl"
	"github.com/shipq/sqltable/logging"
	"github.com/shipq/sqltable/nanoid"
	"github.com/shipq/sqltable/query/compile"
	"github.com/shipq/sqltable/sqlerr"
)

// DefaultPath is the SQLite file used when neither Path nor URL is set.
const DefaultPath = "database.db"

// Config controls how a Scope connects and how it ends.
type Config struct {
	// Path is a SQLite database file. Ignored when URL is set.
	Path string
	// URL selects the engine by scheme: sqlite://, postgres://, mysql://.
	URL string
	// Commit makes Close commit the scope's transaction instead of
	// rolling it back.
	Commit bool
	// OutputQueries logs every statement and its parameters before it runs.
	OutputQueries bool
	// Logger receives query and lifecycle records. Nil means
	// logging.ProdLogger.
	Logger *slog.Logger
}

// DefaultConfig returns the defaults: database.db, no commit, no query log.
func DefaultConfig() Config {
	return Config{Path: DefaultPath}
}

// Result is what the engine returned for one statement.
type Result struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
	LastInsertID int64
}

// Scope is an open connection with a running transaction. It is not safe
// for concurrent use.
type Scope struct {
	id      string
	cfg     Config
	target  dburl.Target
	dialect compile.Dialect
	db      *sql.DB
	tx      *sql.Tx
	logger  *slog.Logger
	closed  bool
}

// Open connects, verifies the connection and begins the scope's
// transaction.
func Open(ctx context.Context, cfg Config) (*Scope, error) {
	path := cfg.Path
	if path == "" && cfg.URL == "" {
		path = DefaultPath
	}

	target, err := dburl.Resolve(cfg.URL, path)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindConnection, "resolve database", err)
	}
	dialect, err := compile.DialectByName(target.Dialect)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindConnection, "resolve database", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.ProdLogger
	}
	id := nanoid.New()
	logger = logger.With("scope_id", id)

	db, err := sql.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, sqlerr.Wrap(sqlerr.KindConnection, "open database", err)
	}
	// A scope is one connection; :memory: databases depend on it too.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, sqlerr.Wrap(sqlerr.KindConnection, "connect to "+target.Dialect, err)
	}

	if target.Dialect == dburl.DialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, sqlerr.Wrap(sqlerr.KindConnection, "enable foreign keys", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, sqlerr.Wrap(sqlerr.KindConnection, "begin transaction", err)
	}

	logger.DebugContext(ctx, "scope_opened",
		"dialect", target.Dialect,
		"commit", cfg.Commit,
	)

	return &Scope{
		id:      id,
		cfg:     cfg,
		target:  target,
		dialect: dialect,
		db:      db,
		tx:      tx,
		logger:  logger,
	}, nil
}

// WithScope opens a scope, runs fn and always closes the scope. The
// transaction is committed only when cfg.Commit is set and fn succeeded.
func WithScope(ctx context.Context, cfg Config, fn func(*Scope) error) (err error) {
	s, err := Open(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			s.Rollback()
			panic(p)
		}
		var closeErr error
		if err != nil {
			closeErr = s.Rollback()
		} else {
			closeErr = s.Close()
		}
		if err == nil {
			err = closeErr
		}
	}()

	return fn(s)
}

// ID returns the identifier attached to the scope's log records.
func (s *Scope) ID() string { return s.id }

// Dialect returns the SQL dialect of the connected engine.
func (s *Scope) Dialect() compile.Dialect { return s.dialect }

// Logger returns the scope's logger.
func (s *Scope) Logger() *slog.Logger { return s.logger }

// Execute runs one compiled statement inside the scope's transaction.
// Statements that return rows are read to completion.
func (s *Scope) Execute(ctx context.Context, c compile.Compiled) (*Result, error) {
	if s.closed {
		return nil, sqlerr.New(sqlerr.KindConnection, "scope is closed")
	}

	if c.Unfiltered {
		s.logger.WarnContext(ctx, "unfiltered_statement", "sql", c.SQL)
	}
	if s.cfg.OutputQueries {
		logging.LogQuery(ctx, s.logger, c.SQL, c.Params)
	}

	if c.ReturnsRows {
		return s.query(ctx, c)
	}

	res, err := s.tx.ExecContext(ctx, c.SQL, c.Params...)
	if err != nil {
		return nil, engineError(c.SQL, err)
	}

	result := &Result{}
	if n, err := res.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	// pgx reports no insert id; its inserts use RETURNING instead.
	if id, err := res.LastInsertId(); err == nil {
		result.LastInsertID = id
	}
	return result, nil
}

func (s *Scope) query(ctx context.Context, c compile.Compiled) (*Result, error) {
	rows, err := s.tx.QueryContext(ctx, c.SQL, c.Params...)
	if err != nil {
		return nil, engineError(c.SQL, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, engineError(c.SQL, err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, engineError(c.SQL, err)
		}
		for i, v := range values {
			// Drivers may reuse byte buffers between rows.
			if b, ok := v.([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, engineError(c.SQL, err)
	}

	result.RowsAffected = int64(len(result.Rows))
	return result, nil
}

// Close ends the scope: the transaction is committed when the scope was
// opened with Commit, rolled back otherwise. The database handle is
// always released. Closing twice is a no-op.
func (s *Scope) Close() error {
	return s.end(s.cfg.Commit)
}

// Rollback ends the scope without committing, whatever the configuration.
func (s *Scope) Rollback() error {
	return s.end(false)
}

func (s *Scope) end(commit bool) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if commit {
		if err = s.tx.Commit(); err != nil {
			err = sqlerr.Wrap(sqlerr.KindConnection, "commit", err)
		} else {
			s.logger.Debug("scope_committed")
		}
	} else {
		if err = s.tx.Rollback(); err != nil {
			err = sqlerr.Wrap(sqlerr.KindConnection, "rollback", err)
		} else {
			s.logger.Debug("scope_rolled_back")
		}
	}

	if closeErr := s.db.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close %s database: %w", s.target.Dialect, closeErr)
	}

	s.logger.Debug("scope_closed")
	return err
}
