package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	dbMaxAttempts    = 3
	dbInitialBackoff = 50 * time.Millisecond
)

// retryableDBOperation retries transient SQLite failures (locked/busy). The
// cache database is opened by a single process, but the gateway and the
// session loop can touch it concurrently.
func retryableDBOperation(ctx context.Context, operation func() error, operationName string) error {
	var lastErr error

	for attempt := 1; attempt <= dbMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableDBError(err) {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("%s failed: %w", operationName, err)
		}

		if attempt == dbMaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * dbInitialBackoff):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, dbMaxAttempts, lastErr)
}

func isRetryableDBError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "busy")
}
