package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/budget-ledger/internal/application/port"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type txKey struct{}

const (
	defaultBeginAttempts = 3
	defaultBeginBackoff  = 50 * time.Millisecond
	defaultSlowTx        = 500 * time.Millisecond
)

// TxManager runs budget operations inside one SQLite transaction carried by ctx.
// The connection must be opened with _txlock=immediate: BEGIN then takes the
// write lock, so two operations reserving from the same category serialize
// instead of both reading the old used value.
type TxManager struct {
	db            *sql.DB
	logger        *zap.Logger
	beginAttempts int
	beginBackoff  time.Duration
	slowTx        time.Duration
}

// TxOption tunes a TxManager
type TxOption func(*TxManager)

// WithBeginRetry sets how often BEGIN is retried while the write lock is busy
func WithBeginRetry(attempts int, backoff time.Duration) TxOption {
	return func(m *TxManager) {
		if attempts > 0 {
			m.beginAttempts = attempts
		}
		m.beginBackoff = backoff
	}
}

// WithSlowThreshold sets the duration above which a committed transaction is logged
func WithSlowThreshold(d time.Duration) TxOption {
	return func(m *TxManager) { m.slowTx = d }
}

// NewTxManager wraps db
func NewTxManager(db *sql.DB, logger *zap.Logger, opts ...TxOption) *TxManager {
	m := &TxManager{
		db:            db,
		logger:        logger,
		beginAttempts: defaultBeginAttempts,
		beginBackoff:  defaultBeginBackoff,
		slowTx:        defaultSlowTx,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithTransaction implements port.TransactionManager.
// Nested calls join the transaction already carried by ctx.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	started := time.Now()
	tx, err := m.begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			m.logger.Error("Budget transaction panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("Failed to roll back budget transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		m.logger.Error("Failed to commit budget transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}

	if elapsed := time.Since(started); m.slowTx > 0 && elapsed > m.slowTx {
		m.logger.Warn("Slow budget transaction", zap.Duration("elapsed", elapsed))
	}
	return nil
}

// begin retries while another writer holds the lock past the driver's busy timeout.
// Nothing has run inside the transaction yet, so retrying is safe.
func (m *TxManager) begin(ctx context.Context) (*sql.Tx, error) {
	var lastErr error
	for attempt := 1; attempt <= m.beginAttempts; attempt++ {
		tx, err := m.db.BeginTx(ctx, nil)
		if err == nil {
			return tx, nil
		}
		lastErr = err
		if !IsBusy(err) || attempt == m.beginAttempts {
			break
		}

		m.logger.Warn("Write lock busy, retrying BEGIN", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("begin transaction: %w", ctx.Err())
		case <-time.After(m.beginBackoff * time.Duration(attempt)):
		}
	}

	m.logger.Error("Failed to begin budget transaction", zap.Error(lastErr))
	return nil, fmt.Errorf("begin transaction: %w", lastErr)
}

// IsBusy reports whether err is SQLite refusing the write lock
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

func txFrom(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// InTransaction reports whether ctx carries an open transaction
func InTransaction(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ExecutorFrom returns the transaction carried by ctx, or db when there is none
func ExecutorFrom(ctx context.Context, db *sql.DB) Executor {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return db
}

var _ port.TransactionManager = (*TxManager)(nil)
