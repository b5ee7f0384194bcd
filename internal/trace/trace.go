// Package trace records committed accessibility events into a SQLite
// database for offline inspection. It is a debugging sidecar: the bridge
// itself keeps no persistent state, and a missing or broken trace never
// affects commit semantics.
package trace

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/semabridge/internal/event"
)

// Recorder is the SQLite data access layer for trace sessions.
type Recorder struct {
	db *sql.DB
}

// Open opens a SQLite trace database at dbPath with WAL mode enabled and
// runs the schema migration.
func Open(dbPath string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open trace database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping trace database: %w", err)
	}
	r := &Recorder{db: db}
	if err := r.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the underlying database connection.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Migrate creates the trace tables and indexes. Idempotent.
func (r *Recorder) Migrate() error {
	if _, err := r.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate trace schema: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS sessions (
  id          TEXT PRIMARY KEY,
  label       TEXT,
  started_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS commits (
  id            INTEGER PRIMARY KEY,
  session_id    TEXT NOT NULL REFERENCES sessions(id),
  seq           INTEGER NOT NULL,
  committed_at  TIMESTAMP NOT NULL,
  node_count    INTEGER NOT NULL,
  event_count   INTEGER NOT NULL,
  warning_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
  id         INTEGER PRIMARY KEY,
  commit_id  INTEGER NOT NULL REFERENCES commits(id),
  ordinal    INTEGER NOT NULL,
  target_id  INTEGER NOT NULL,
  kind       TEXT NOT NULL,
  role       TEXT NOT NULL,
  name       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_commits_session ON commits(session_id);
CREATE INDEX IF NOT EXISTS idx_events_commit ON events(commit_id);
CREATE INDEX IF NOT EXISTS idx_events_target ON events(target_id);
`

// Session is one recorded bridge lifetime.
type Session struct {
	ID        string
	Label     string
	StartedAt time.Time
}

// CommitRecord summarizes one recorded commit.
type CommitRecord struct {
	ID           int64
	SessionID    string
	Seq          uint64
	CommittedAt  time.Time
	NodeCount    int
	EventCount   int
	WarningCount int
}

// EventRecord is one recorded targeted event.
type EventRecord struct {
	CommitID int64
	Seq      uint64
	Ordinal  int
	TargetID int32
	Kind     string
	Role     string
	Name     string
}

// BeginSession inserts a new session row and returns its generated id.
func (r *Recorder) BeginSession(label string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(
		"INSERT INTO sessions (id, label, started_at) VALUES (?, ?, ?)",
		id, label, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	return id, nil
}

// RecordCommit transactionally writes one commit and its drained events.
func (r *Recorder) RecordCommit(sessionID string, seq uint64, nodeCount, warningCount int, events []event.TargetedEvent) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO commits (session_id, seq, committed_at, node_count, event_count, warning_count) VALUES (?, ?, ?, ?, ?, ?)",
		sessionID, seq, time.Now(), nodeCount, len(events), warningCount,
	)
	if err != nil {
		return fmt.Errorf("insert commit: %w", err)
	}
	commitID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("commit id: %w", err)
	}

	for i, ev := range events {
		_, err := tx.Exec(
			"INSERT INTO events (commit_id, ordinal, target_id, kind, role, name) VALUES (?, ?, ?, ?, ?, ?)",
			commitID, i, int32(ev.TargetID), ev.Kind.String(), ev.Node.Role.String(), ev.Node.Name,
		)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}

	return tx.Commit()
}

// Sessions returns all recorded sessions, oldest first.
func (r *Recorder) Sessions() ([]Session, error) {
	rows, err := r.db.Query("SELECT id, label, started_at FROM sessions ORDER BY started_at, id")
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Label, &s.StartedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Commits returns the commits of one session in sequence order.
func (r *Recorder) Commits(sessionID string) ([]CommitRecord, error) {
	rows, err := r.db.Query(
		"SELECT id, session_id, seq, committed_at, node_count, event_count, warning_count FROM commits WHERE session_id = ? ORDER BY seq",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()

	var out []CommitRecord
	for rows.Next() {
		var c CommitRecord
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Seq, &c.CommittedAt,
			&c.NodeCount, &c.EventCount, &c.WarningCount); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Events returns every event of one session ordered by commit sequence and
// position within the commit.
func (r *Recorder) Events(sessionID string) ([]EventRecord, error) {
	rows, err := r.db.Query(`
		SELECT e.commit_id, c.seq, e.ordinal, e.target_id, e.kind, e.role, e.name
		FROM events e
		JOIN commits c ON c.id = e.commit_id
		WHERE c.session_id = ?
		ORDER BY c.seq, e.ordinal`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var e EventRecord
		if err := rows.Scan(&e.CommitID, &e.Seq, &e.Ordinal, &e.TargetID,
			&e.Kind, &e.Role, &e.Name); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
