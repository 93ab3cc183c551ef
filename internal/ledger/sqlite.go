// internal/ledger/sqlite.go
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
)

// SQLite is a ledger backed by an embedded SQLite database, so delivered
// URLs survive process restarts. Lookup errors degrade to "not delivered"
// and marking errors are logged and dropped: ledger trouble must never stop
// a running job, the worst case is a redelivered item.
type SQLite struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLite opens (or creates) the ledger database at path.
func NewSQLite(path string, logger zerolog.Logger) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger database path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping ledger database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `CREATE TABLE IF NOT EXISTS delivered_media (
		url TEXT PRIMARY KEY,
		delivered_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	return &SQLite{
		db:     db,
		logger: logger.With().Str("component", "ledger").Logger(),
	}, nil
}

// Contains reports whether the URL was already delivered.
func (s *SQLite) Contains(url string) bool {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM delivered_media WHERE url = ?)", url,
	).Scan(&exists)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("ledger lookup failed")
		return false
	}
	return exists
}

// MarkDelivered records the URL as delivered.
func (s *SQLite) MarkDelivered(url string) {
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO delivered_media (url, delivered_at) VALUES (?, ?)",
		url, time.Now().UTC(),
	)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", url).Msg("ledger insert failed")
	}
}

// Len returns the number of recorded URLs.
func (s *SQLite) Len() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM delivered_media").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
