package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bioseqlab/crisprflow/core"
)

// SQLiteSink stores audit events in a SQLite database, indexed by session id
// and timestamp so each session's partition reads back in append order.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the database at dsn and runs migrations.
func NewSQLiteSink(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	sink := &SQLiteSink{db: db}
	if err := sink.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit database: %w", err)
	}
	return sink, nil
}

func (s *SQLiteSink) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS audit_events (
			event_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			ts DATETIME NOT NULL,
			event TEXT NOT NULL,
			payload TEXT,
			seq INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_events(session_id, seq)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteSink) Close() error { return s.db.Close() }

// Append inserts one event row. seq is assigned per session so partition
// order survives identical timestamps.
func (s *SQLiteSink) Append(ctx context.Context, event core.AuditEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_events (event_id, session_id, ts, event, payload, seq)
		 VALUES (?, ?, ?, ?, ?,
		   (SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_events WHERE session_id = ?))`,
		event.ID, event.SessionID, event.Timestamp, event.Kind, string(payload), event.SessionID)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ReadEvents returns one session's partition in append order.
func (s *SQLiteSink) ReadEvents(ctx context.Context, sessionID string) ([]core.AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, session_id, ts, event, payload
		 FROM audit_events WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []core.AuditEvent
	for rows.Next() {
		var ev core.AuditEvent
		var payload sql.NullString
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Timestamp, &ev.Kind, &payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &ev.Payload); err != nil {
				ev.Payload = map[string]any{"raw": payload.String}
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ListSessions returns distinct session ids present in the sink, sorted.
func (s *SQLiteSink) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT session_id FROM audit_events ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("query audit sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
