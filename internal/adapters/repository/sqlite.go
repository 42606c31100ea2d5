package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/okian/jasstafel/internal/domain/model"
	"github.com/okian/jasstafel/pkg/metrics"
	_ "modernc.org/sqlite"
)

// sqlitePragmas are applied by the driver to every new connection.
const sqlitePragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists snapshots in a SQLite file.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens a SQLite store at path and applies migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + sqlitePragmas
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; sync workers queue on the pool instead of racing for the file lock.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	s := &SQLiteStore{sqlDB: sqlDB}
	metrics.UpdateStoredGames(s.Count(context.Background()))
	return s, nil
}

func applyMigrations(db *sql.DB) error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := db.Exec(string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

// Close releases the SQLite connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save upserts snap unless the stored version is the same or newer.
func (s *SQLiteStore) Save(ctx context.Context, snap model.Snapshot) (bool, error) { //nolint:gocritic // hugeParam: snapshots are values
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if strings.TrimSpace(snap.GameID) == "" {
		return false, ErrInvalidGameID
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}

	res, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO game_snapshots (game_id, version, state, rounds, payload, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(game_id) DO UPDATE SET
	version = excluded.version,
	state = excluded.state,
	rounds = excluded.rounds,
	payload = excluded.payload,
	updated_at = excluded.updated_at
WHERE excluded.version > game_snapshots.version
`,
		snap.GameID,
		int64(snap.Version),
		snap.State,
		len(snap.Rounds),
		payload,
		toMillis(snap.TS),
	)
	if err != nil {
		return false, fmt.Errorf("save snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save snapshot: %w", err)
	}
	if n > 0 {
		metrics.UpdateStoredGames(s.Count(ctx))
	}
	return n > 0, nil
}

// Latest loads the stored snapshot of gameID.
func (s *SQLiteStore) Latest(ctx context.Context, gameID string) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	var payload []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload FROM game_snapshots WHERE game_id = ?`, gameID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Delete removes gameID.
func (s *SQLiteStore) Delete(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM game_snapshots WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	metrics.UpdateStoredGames(s.Count(ctx))
	return nil
}

// Count returns the number of stored games, or 0 if the query fails.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_snapshots`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().UTC().UnixMilli()
	}
	return t.UTC().UnixMilli()
}
