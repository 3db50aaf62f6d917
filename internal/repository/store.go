package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/todoman/internal/model"
)

// DefaultTimeout はストア操作1回あたりのデフォルトのタイムアウト。
const DefaultTimeout = 5 * time.Second

// PostgreSQLのSQLSTATE
const (
	pqUniqueViolation      pq.ErrorCode = "23505"
	pqQueryCanceled        pq.ErrorCode = "57014"
	pqAdminShutdown        pq.ErrorCode = "57P01"
	pqSerializationFailure pq.ErrorCode = "40001"
	pqDeadlockDetected     pq.ErrorCode = "40P01"
	pqClassConnection      pq.ErrorClass = "08"
)

// withTimeout はストア操作用にタイムアウト付きのコンテキストを返す。
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// wrapError はドライバのエラーを操作名付きでラップする。
// タイムアウトや接続断はmodel.ErrTransientStoreとしても判定できるようにする。
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, model.ErrTransientStore, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsTransient はリトライで回復しうるエラーかどうかを判定する。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, model.ErrTransientStore) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqQueryCanceled, pqAdminShutdown, pqSerializationFailure, pqDeadlockDetected:
			return true
		}
		return pqErr.Code.Class() == pqClassConnection
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// isUniqueViolation は一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
