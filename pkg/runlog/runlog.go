// Package runlog persists the experiment event trail: every submission,
// stage transition, post-run action and abort, one row each.
//
// The log is an audit artifact, not control state; a workflow never
// fails because its events could not be recorded.
package runlog

import (
	"context"
	"database/sql"
	"time"

	xerrors "github.com/scgcore/quantd/pkg/errors"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS "events" (
	"id"       INTEGER PRIMARY KEY AUTOINCREMENT,
	"at"       TEXT NOT NULL,
	"group_id" TEXT NOT NULL,
	"stage"    TEXT NOT NULL,
	"level"    TEXT NOT NULL,
	"message"  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS "events_group_id" ON "events" ("group_id", "id");
`

// Level classifies an event row.
type Level string

const (
	Info  Level = "info"
	Error Level = "error"
)

// Event is one row of the experiment event trail.
type Event struct {
	At      time.Time
	GroupID string
	Stage   string
	Level   Level
	Message string
}

// Log is the sqlite-backed event log.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the event log at path.
func Open(path string) (*Log, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, xerrors.Wrap(err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, xerrors.Wrap(err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, xerrors.Wrap(err)
	}
	return &Log{db: db}, nil
}

func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Append records one event.
func (l *Log) Append(ctx context.Context, ev Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO "events" ("at", "group_id", "stage", "level", "message") VALUES (?, ?, ?, ?, ?)`,
		at.Format(timeFormat), ev.GroupID, ev.Stage, string(ev.Level), ev.Message,
	)
	if err != nil {
		return xerrors.Wrap(err)
	}
	return nil
}

// Recent returns the latest events of one plate group, newest first,
// at most limit rows.
func (l *Log) Recent(ctx context.Context, groupID string, limit int) ([]Event, error) {
	rows, err := l.db.QueryContext(
		ctx,
		`SELECT "at", "group_id", "stage", "level", "message" FROM "events"
		 WHERE "group_id" = ? ORDER BY "id" DESC LIMIT ?`,
		groupID, limit,
	)
	if err != nil {
		return nil, xerrors.Wrap(err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			ev    Event
			at    string
			level string
		)
		if err := rows.Scan(&at, &ev.GroupID, &ev.Stage, &level, &ev.Message); err != nil {
			return nil, xerrors.Wrap(err)
		}
		ev.At, err = time.Parse(timeFormat, at)
		if err != nil {
			return nil, xerrors.Wrap(err)
		}
		ev.Level = Level(level)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(err)
	}
	return events, nil
}
