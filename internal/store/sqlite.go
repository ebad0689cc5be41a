// Package store persists vessel state between simulator runs so an
// activation can catch up on the time spent offline.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Load when no snapshot exists for a vessel.
var ErrNotFound = errors.New("store: snapshot not found")

// PoolState is one stored resource pool.
type PoolState struct {
	Part     string
	Resource string
	Amount   float64
	Max      float64
}

// TankState is the persisted part of a boiloff engine.
type TankState struct {
	Tank           string
	LastUpdateTime float64
	CoolingEnabled bool
}

// Snapshot is the persisted state of a vessel.
type Snapshot struct {
	Vessel      string
	MissionTime float64
	SavedAt     time.Time
	Pools       []PoolState
	Tanks       []TankState
}

// SQLiteStore keeps snapshots in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vessels (
			name TEXT PRIMARY KEY,
			mission_time REAL NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pools (
			vessel TEXT NOT NULL REFERENCES vessels(name) ON DELETE CASCADE,
			part TEXT NOT NULL,
			resource TEXT NOT NULL,
			amount REAL NOT NULL,
			max REAL NOT NULL,
			PRIMARY KEY (vessel, part, resource)
		);`,
		`CREATE TABLE IF NOT EXISTS tanks (
			vessel TEXT NOT NULL REFERENCES vessels(name) ON DELETE CASCADE,
			tank TEXT NOT NULL,
			last_update_time REAL NOT NULL,
			cooling_enabled INTEGER NOT NULL,
			PRIMARY KEY (vessel, tank)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the stored snapshot for snap.Vessel.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.Vessel == "" {
		return fmt.Errorf("store: snapshot without vessel")
	}
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO vessels(name, mission_time, saved_at) VALUES(?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET mission_time=excluded.mission_time, saved_at=excluded.saved_at`,
		snap.Vessel, snap.MissionTime, snap.SavedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save vessel: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pools WHERE vessel = ?`, snap.Vessel); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tanks WHERE vessel = ?`, snap.Vessel); err != nil {
		return err
	}
	for _, p := range snap.Pools {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pools(vessel, part, resource, amount, max) VALUES(?, ?, ?, ?, ?)`,
			snap.Vessel, p.Part, p.Resource, p.Amount, p.Max); err != nil {
			return fmt.Errorf("save pool %s/%s: %w", p.Part, p.Resource, err)
		}
	}
	for _, t := range snap.Tanks {
		enabled := 0
		if t.CoolingEnabled {
			enabled = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tanks(vessel, tank, last_update_time, cooling_enabled) VALUES(?, ?, ?, ?)`,
			snap.Vessel, t.Tank, t.LastUpdateTime, enabled); err != nil {
			return fmt.Errorf("save tank %s: %w", t.Tank, err)
		}
	}
	return tx.Commit()
}

// Load returns the snapshot for vessel or ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context, vessel string) (Snapshot, error) {
	snap := Snapshot{Vessel: vessel}
	var savedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT mission_time, saved_at FROM vessels WHERE name = ?`, vessel).Scan(&snap.MissionTime, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return Snapshot{}, fmt.Errorf("parse saved_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT part, resource, amount, max FROM pools WHERE vessel = ? ORDER BY part, resource`, vessel)
	if err != nil {
		return Snapshot{}, err
	}
	for rows.Next() {
		var p PoolState
		if err := rows.Scan(&p.Part, &p.Resource, &p.Amount, &p.Max); err != nil {
			rows.Close()
			return Snapshot{}, err
		}
		snap.Pools = append(snap.Pools, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT tank, last_update_time, cooling_enabled FROM tanks WHERE vessel = ? ORDER BY tank`, vessel)
	if err != nil {
		return Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var t TankState
		var enabled int
		if err := rows.Scan(&t.Tank, &t.LastUpdateTime, &enabled); err != nil {
			return Snapshot{}, err
		}
		t.CoolingEnabled = enabled != 0
		snap.Tanks = append(snap.Tanks, t)
	}
	return snap, rows.Err()
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
