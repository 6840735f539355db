package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/yigit/enrollment/internal/pkg/logger"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteDB wraps a SQLite handle opened for single-writer transactions.
type SQLiteDB struct {
	DB        *sql.DB
	TxTimeout time.Duration
}

// SQLiteDSN builds the connection string for path. Every transaction begins
// IMMEDIATE, so a transaction holds the database write lock from its first
// statement and readers inside it see every previously committed write.
func SQLiteDSN(path string) string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "busy_timeout(10000)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Set("_txlock", "immediate")
	return filepath.Clean(path) + "?" + params.Encode()
}

// NewSQLiteDB opens the SQLite database at path.
func NewSQLiteDB(ctx context.Context, path string, txTimeout time.Duration) (*SQLiteDB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if strings.Contains(path, ":memory:") {
		// every pooled connection would see its own private database
		return nil, fmt.Errorf("in-memory sqlite is not supported, use a file path")
	}

	sqlDB, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if txTimeout <= 0 {
		txTimeout = DefaultTxTimeout
	}
	return &SQLiteDB{DB: sqlDB, TxTimeout: txTimeout}, nil
}

// Close closes the SQLite handle.
func (db *SQLiteDB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// SQLTransactionFn is a function that executes within a database/sql transaction
type SQLTransactionFn func(ctx context.Context, tx *sql.Tx) error

// WithTransaction runs fn within a transaction, rolling back on failure or panic.
func (db *SQLiteDB) WithTransaction(ctx context.Context, fn SQLTransactionFn) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, db.TxTimeout)
		defer cancel()
	}

	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			logger.Error().Err(rbErr).Msg("Failed to rollback transaction")
			return fmt.Errorf("error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
