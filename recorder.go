package stagehand

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Recorder persists dispatched pointer events and marks to a SQLite file,
// grouped into sessions. Attach it to a scene as an event tap, bracket a
// run with Begin/End, and read the rows back with Events or turn them into
// a replayable script with ReplayScript.
//
// Insert failures inside the tap are logged and dropped; a recording
// problem must not disturb the run being recorded.
type Recorder struct {
	db        *sql.DB
	sessionID string
}

// OpenRecorder opens (creating if needed) the SQLite database at path and
// runs migrations.
func OpenRecorder(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open recorder database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	r := &Recorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the database connection.
func (r *Recorder) Close() error {
	return r.db.Close()
}

func (r *Recorder) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			type TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			button INTEGER NOT NULL,
			node TEXT,
			label TEXT,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("recorder migration failed: %w", err)
		}
	}
	return nil
}

// Attach registers the recorder as an event tap on the scene.
func (r *Recorder) Attach(s *Scene) {
	s.Tap(r.tap)
}

// Begin starts a new named session and returns its ID. Events dispatched
// before Begin or after End are not recorded.
func (r *Recorder) Begin(name string) (string, error) {
	id := uuid.New().String()
	_, err := r.db.Exec(`INSERT INTO sessions (id, name) VALUES (?, ?)`, id, name)
	if err != nil {
		return "", fmt.Errorf("begin session: %w", err)
	}
	r.sessionID = id
	return id, nil
}

// End finalizes the active session.
func (r *Recorder) End() error {
	if r.sessionID == "" {
		return nil
	}
	_, err := r.db.Exec(`UPDATE sessions SET ended_at = CURRENT_TIMESTAMP WHERE id = ?`, r.sessionID)
	r.sessionID = ""
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (r *Recorder) tap(ev TapEvent) {
	if r.sessionID == "" {
		return
	}
	_, err := r.db.Exec(
		`INSERT INTO events (session_id, frame, type, x, y, button, node, label) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.sessionID, ev.Frame, ev.Type.String(), ev.Pos.X, ev.Pos.Y, int(ev.Button), ev.Node, ev.Label,
	)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[stagehand] recorder: insert event: %v\n", err)
	}
}

// RecordedEvent is one row of a recorded session.
type RecordedEvent struct {
	Frame  uint64
	Type   string
	X, Y   float64
	Button MouseButton
	Node   string
	Label  string
}

// Events returns a session's events in dispatch order.
func (r *Recorder) Events(sessionID string) ([]RecordedEvent, error) {
	rows, err := r.db.Query(
		`SELECT frame, type, x, y, button, node, label FROM events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []RecordedEvent
	for rows.Next() {
		var ev RecordedEvent
		var button int
		var node, label sql.NullString
		if err := rows.Scan(&ev.Frame, &ev.Type, &ev.X, &ev.Y, &button, &node, &label); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Button = MouseButton(button)
		ev.Node = node.String
		ev.Label = label.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ReplayScript reconstructs a Script from a recorded session. Press/release
// pairs at the same position become click steps; pairs at different
// positions become drag steps sized by their frame gap. Marks are kept.
// Hover motions are dropped — replay re-synthesizes them.
func (r *Recorder) ReplayScript(sessionID string) (*Script, error) {
	events, err := r.Events(sessionID)
	if err != nil {
		return nil, err
	}

	var steps []Step
	var downEv *RecordedEvent
	for i := range events {
		ev := events[i]
		switch ev.Type {
		case "down":
			downEv = &events[i]
		case "up":
			if downEv == nil {
				continue
			}
			if ev.X == downEv.X && ev.Y == downEv.Y {
				steps = append(steps, Step{
					Action: "click", X: ev.X, Y: ev.Y, Button: ev.Button.String(),
				})
			} else {
				frames := int(ev.Frame-downEv.Frame) + 2
				steps = append(steps, Step{
					Action: "drag",
					FromX:  downEv.X, FromY: downEv.Y, ToX: ev.X, ToY: ev.Y,
					Frames: frames, Button: ev.Button.String(),
				})
			}
			downEv = nil
		case "mark":
			steps = append(steps, Step{Action: "mark", Label: ev.Label})
		}
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("replay session %s: no replayable steps", sessionID)
	}
	return &Script{Steps: steps}, nil
}
