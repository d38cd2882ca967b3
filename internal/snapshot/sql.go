package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type dialect struct {
	driver string
	schema string
	upsert string
	get    string
	delete string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS game_snapshots (
  id TEXT PRIMARY KEY,
  data TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL
)`,
	upsert: `INSERT INTO game_snapshots (id, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
	get:    `SELECT data FROM game_snapshots WHERE id = ?`,
	delete: `DELETE FROM game_snapshots WHERE id = ?`,
}

var postgresDialect = dialect{
	driver: "postgres",
	schema: `CREATE TABLE IF NOT EXISTS game_snapshots (
  id UUID PRIMARY KEY,
  data TEXT NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	upsert: `INSERT INTO game_snapshots (id, data, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
	get:    `SELECT data FROM game_snapshots WHERE id = $1`,
	delete: `DELETE FROM game_snapshots WHERE id = $1`,
}

type sqlRepo struct {
	db *sql.DB
	d  dialect
}

// NewSQLiteRepo opens a sqlite file (or ":memory:") and ensures the schema.
func NewSQLiteRepo(ctx context.Context, path string) (Repo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, err
	}
	// 单连接: :memory: 每个连接都是独立的库
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newSQLRepo(ctx, db, sqliteDialect)
}

func NewPostgresRepo(ctx context.Context, dsn string) (Repo, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, err
	}
	return newSQLRepo(ctx, db, postgresDialect)
}

func newSQLRepo(ctx context.Context, db *sql.DB, d dialect) (Repo, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure %s schema: %w", d.driver, err)
	}
	return &sqlRepo{db: db, d: d}, nil
}

func (r *sqlRepo) Put(ctx context.Context, id uuid.UUID, data []byte) error {
	_, err := r.db.ExecContext(ctx, r.d.upsert, id.String(), string(data), time.Now().UTC())
	return err
}

func (r *sqlRepo) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var data string
	err := r.db.QueryRowContext(ctx, r.d.get, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (r *sqlRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, r.d.delete, id.String())
	return err
}

func (r *sqlRepo) Close() error {
	return r.db.Close()
}
