package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps snapshots in a single SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string, log zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("snapshot cache opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			kind       TEXT    NOT NULL,
			key        TEXT    NOT NULL,
			fetched_at INTEGER NOT NULL,
			payload    BLOB    NOT NULL,
			PRIMARY KEY (kind, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_fetched ON snapshots(fetched_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, kind, key string) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		fetched int64
		payload []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload FROM snapshots WHERE kind = ? AND key = ?`, kind, key,
	).Scan(&fetched, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("read snapshot %s/%s: %w", kind, key, err)
	}
	return Snapshot{Payload: payload, FetchedAt: time.Unix(fetched, 0)}, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, kind, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO snapshots (kind, key, fetched_at, payload)
		VALUES (?,?,?,?)
		ON CONFLICT(kind, key) DO UPDATE SET fetched_at = excluded.fetched_at, payload = excluded.payload`,
		kind, key, s.now().Unix(), payload,
	)
	if err != nil {
		return fmt.Errorf("write snapshot %s/%s: %w", kind, key, err)
	}
	return nil
}

// Prune deletes snapshots older than maxAge and returns how many were removed.
func (s *SQLiteStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE fetched_at < ?`, s.now().Add(-maxAge).Unix())
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
