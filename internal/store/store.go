// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/reaper/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for sessions, their events and the draft.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			goal INTEGER NOT NULL,
			words INTEGER NOT NULL,
			chars INTEGER NOT NULL,
			survived_ms INTEGER NOT NULL,
			peak_ms INTEGER NOT NULL,
			deaths INTEGER NOT NULL,
			punishments INTEGER NOT NULL,
			flows INTEGER NOT NULL,
			ghosts INTEGER NOT NULL,
			ascended INTEGER NOT NULL,
			zen INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_events (
			session_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			at TEXT NOT NULL,
			time_left_ms INTEGER NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS drafts (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			text TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_events_type ON session_events(type);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished session and its event log.
func (s *Store) InsertSession(ctx context.Context, stats model.SessionStats, events []model.SessionEvent) (int64, error) {
	var id int64
	err := retryOp(defaultRetryConfig, func() error {
		var err error
		id, err = s.insertSession(ctx, stats, events)
		return err
	})
	return id, err
}

func (s *Store) insertSession(ctx context.Context, stats model.SessionStats, events []model.SessionEvent) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (uid, started_at, ended_at, goal, words, chars, survived_ms, peak_ms, deaths, punishments, flows, ghosts, ascended, zen)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.UID,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Goal,
		stats.Words,
		stats.Chars,
		stats.SurvivedMs,
		stats.PeakMs,
		stats.Deaths,
		stats.Punishments,
		stats.Flows,
		stats.Ghosts,
		stats.Ascended,
		stats.Zen,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(events) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_events (session_id, seq, type, at, time_left_ms, status)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ev := range events {
			if _, err := stmt.ExecContext(ctx, id, ev.Seq, ev.Type, ev.At.Format(time.RFC3339Nano), ev.TimeLeftMs, ev.Status); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSessions returns session aggregates filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, uid, ended_at, goal, words, survived_ms, deaths, punishments, flows, ghosts, ascended
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.UID, &endedAt, &agg.Goal, &agg.Words, &agg.SurvivedMs,
			&agg.Deaths, &agg.Punishments, &agg.Flows, &agg.Ghosts, &agg.Ascended); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	return sessions, nil
}

// ListEvents returns the event log of one session in order.
func (s *Store) ListEvents(ctx context.Context, sessionID int64) ([]model.SessionEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, type, at, time_left_ms, status
		 FROM session_events
		 WHERE session_id = ?
		 ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var events []model.SessionEvent
	for rows.Next() {
		var ev model.SessionEvent
		var at string
		if err := rows.Scan(&ev.Seq, &ev.Type, &at, &ev.TimeLeftMs, &ev.Status); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		ev.At = parsed
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// EventCounts tallies event types across the given sessions, most frequent first.
func (s *Store) EventCounts(ctx context.Context, sessionIDs []int64) ([]model.EventCount, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(sessionIDs))
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT type, COUNT(*) AS n
		FROM session_events
		WHERE session_id IN (%s)
		GROUP BY type
		ORDER BY n DESC, type ASC`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.EventCount
	for rows.Next() {
		var c model.EventCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveDraft replaces the stored draft.
func (s *Store) SaveDraft(ctx context.Context, draft model.Draft) error {
	return retryOp(defaultRetryConfig, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO drafts (id, text, updated_at) VALUES (1, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET text = excluded.text, updated_at = excluded.updated_at`,
			draft.Text, draft.UpdatedAt.Format(time.RFC3339Nano))
		return err
	})
}

// LoadDraft returns the stored draft. ok is false when there is none.
func (s *Store) LoadDraft(ctx context.Context) (draft model.Draft, ok bool, err error) {
	var updatedAt string
	row := s.db.QueryRowContext(ctx, `SELECT text, updated_at FROM drafts WHERE id = 1`)
	if err := row.Scan(&draft.Text, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Draft{}, false, nil
		}
		return model.Draft{}, false, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return model.Draft{}, false, err
	}
	draft.UpdatedAt = parsed
	return draft, true, nil
}

// DiscardDraft deletes the stored draft, if any.
func (s *Store) DiscardDraft(ctx context.Context) error {
	return retryOp(defaultRetryConfig, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = 1`)
		return err
	})
}
