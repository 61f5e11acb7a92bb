package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"roomchat/internal/security"

	_ "github.com/mattn/go-sqlite3"
)

// Database is the local persistence for the chat engine: the short-lived
// per-room history page cache and per-room preferences. Keys are stored
// plaintext; cached page payloads may be encrypted at rest.
type Database struct {
	db        *sql.DB
	encryptor *encryptor
}

func New(dbPath string) (*Database, error) {
	if err := security.ValidateFilePath(dbPath); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	encryptor, err := NewEncryptor()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize encryptor: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	return &Database{db: db, encryptor: encryptor}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// SaveHistoryPage stores the freshest history page for a room, replacing any
// previous cached page.
func (d *Database) SaveHistoryPage(ctx context.Context, roomID string, payload []byte) error {
	encrypted, err := d.encryptor.EncryptIfEnabled(string(payload))
	if err != nil {
		return fmt.Errorf("failed to encrypt cached page: %w", err)
	}

	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertHistoryPageQuery, roomID, encrypted, time.Now().UTC())
		return err
	}, "save history page")
}

// GetHistoryPage returns the cached page for a room if one exists and is
// younger than ttl. The second return value reports a usable hit.
func (d *Database) GetHistoryPage(ctx context.Context, roomID string, ttl time.Duration) ([]byte, bool, error) {
	var payload string
	var fetchedAt time.Time

	err := retryableDBOperation(ctx, func() error {
		return d.db.QueryRowContext(ctx, selectHistoryPageQuery, roomID).Scan(&payload, &fetchedAt)
	}, "get history page")
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if time.Since(fetchedAt) > ttl {
		return nil, false, nil
	}

	decrypted, err := d.encryptor.DecryptIfEnabled(payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decrypt cached page: %w", err)
	}
	return []byte(decrypted), true, nil
}

// InvalidateHistoryPage drops the cached page for a room. Called after every
// successful mutating action so the next load never serves stale data.
func (d *Database) InvalidateHistoryPage(ctx context.Context, roomID string) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, deleteHistoryPageQuery, roomID)
		return err
	}, "invalidate history page")
}

// SetLastActiveTab records the per-room tab preference.
func (d *Database) SetLastActiveTab(ctx context.Context, roomID, tab string) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, upsertRoomPrefQuery, roomID, tab, time.Now().UTC())
		return err
	}, "set last active tab")
}

// GetLastActiveTab returns the stored tab preference, or "" when none exists.
func (d *Database) GetLastActiveTab(ctx context.Context, roomID string) (string, error) {
	var tab string
	err := retryableDBOperation(ctx, func() error {
		return d.db.QueryRowContext(ctx, selectRoomPrefQuery, roomID).Scan(&tab)
	}, "get last active tab")
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return tab, nil
}

// ClearLastActiveTab drops the room's tab preference. Called alongside the
// page invalidation after every successful mutating action; absence of a row
// is not an error.
func (d *Database) ClearLastActiveTab(ctx context.Context, roomID string) error {
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, deleteRoomPrefQuery, roomID)
		return err
	}, "clear last active tab")
}

// CleanupExpiredPages removes cache rows older than ttl. Run opportunistically;
// reads already ignore expired rows.
func (d *Database) CleanupExpiredPages(ctx context.Context, ttl time.Duration) error {
	cutoff := time.Now().UTC().Add(-ttl)
	return retryableDBOperation(ctx, func() error {
		_, err := d.db.ExecContext(ctx, deleteExpiredHistoryQuery, cutoff)
		return err
	}, "cleanup expired pages")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
