// Package persistence provides the SQLite simulation journal: periodic
// agent snapshots, the detour decision feed, and a small meta table. The
// journal is observability, not recovery; the simulation is correct without
// it.
package persistence

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for the simulation journal.
type DB struct {
	conn *sqlx.DB
}

// AgentRecord is one row of the agent snapshot table.
type AgentRecord struct {
	Name          string  `db:"name"`
	Mode          string  `db:"mode"`
	RoutineType   string  `db:"routine_type"`
	CurrentNode   string  `db:"current_node"`
	TargetNode    string  `db:"target_node"`
	Lat           float64 `db:"lat"`
	Lng           float64 `db:"lng"`
	PathProgress  float64 `db:"path_progress"`
	DetoursToday  int     `db:"detours_today"`
	UpdatedMinute float64 `db:"updated_minute"`
}

// DetourRecord is one row of the detour decision feed.
type DetourRecord struct {
	ID           int64   `db:"id"`
	SimMinutes   float64 `db:"sim_minutes"`
	Agent        string  `db:"agent"`
	ChoiceID     string  `db:"choice_id"`
	Category     string  `db:"category"`
	Label        string  `db:"label"`
	Thought      string  `db:"thought"`
	DwellMinutes float64 `db:"dwell_minutes"`
}

// Open opens or creates the journal at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return db, nil
}

// Close closes the journal.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS agents (
		name TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		routine_type TEXT NOT NULL,
		current_node TEXT NOT NULL,
		target_node TEXT NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		path_progress REAL NOT NULL,
		detours_today INTEGER NOT NULL,
		updated_minute REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS detour_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sim_minutes REAL NOT NULL,
		agent TEXT NOT NULL,
		choice_id TEXT NOT NULL,
		category TEXT NOT NULL,
		label TEXT NOT NULL,
		thought TEXT NOT NULL,
		dwell_minutes REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sim_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_detour_events_agent ON detour_events(agent);
	CREATE INDEX IF NOT EXISTS idx_detour_events_minutes ON detour_events(sim_minutes);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveAgents writes the current agent snapshot (full replace).
func (db *DB) SaveAgents(records []AgentRecord) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return err
	}
	for _, r := range records {
		_, err := tx.NamedExec(`
			INSERT INTO agents (name, mode, routine_type, current_node, target_node,
				lat, lng, path_progress, detours_today, updated_minute)
			VALUES (:name, :mode, :routine_type, :current_node, :target_node,
				:lat, :lng, :path_progress, :detours_today, :updated_minute)`, r)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AppendDetourEvent adds one decision outcome to the feed.
func (db *DB) AppendDetourEvent(r DetourRecord) error {
	_, err := db.conn.NamedExec(`
		INSERT INTO detour_events (sim_minutes, agent, choice_id, category, label, thought, dwell_minutes)
		VALUES (:sim_minutes, :agent, :choice_id, :category, :label, :thought, :dwell_minutes)`, r)
	return err
}

// RecentDetourEvents returns the newest events, most recent first.
func (db *DB) RecentDetourEvents(limit int) ([]DetourRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []DetourRecord
	err := db.conn.Select(&out,
		"SELECT * FROM detour_events ORDER BY id DESC LIMIT ?", limit)
	return out, err
}

// SetMeta stores one key/value pair.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO sim_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

// GetMeta fetches one value; empty string when absent.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM sim_meta WHERE key = ?", key)
	if err != nil {
		return "", err
	}
	return value, nil
}
