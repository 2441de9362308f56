// Package journal is the persistent audit log of routing sessions.
//
// Every analysis, phase change and budget operation the engine performs is
// written as an event in SQLite with FTS5 full-text search, so past sessions
// can be listed, searched and summarized. The journal is write-behind: the
// in-memory engine state is the source of truth, never the journal.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/skillgate/internal/errs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// ─── Types ───────────────────────────────────────────────────────────────────

// Kind classifies an event.
type Kind string

const (
	KindAnalysis      Kind = "analysis"
	KindTransition    Kind = "transition"
	KindPhaseComplete Kind = "phase_complete"
	KindPhaseReset    Kind = "phase_reset"
	KindActivation    Kind = "activation"
	KindDeactivation  Kind = "deactivation"
	KindEviction      Kind = "eviction"
	KindFileLoad      Kind = "file_load"
	KindFileUnload    Kind = "file_unload"
)

var validKinds = map[Kind]bool{
	KindAnalysis:      true,
	KindTransition:    true,
	KindPhaseComplete: true,
	KindPhaseReset:    true,
	KindActivation:    true,
	KindDeactivation:  true,
	KindEviction:      true,
	KindFileLoad:      true,
	KindFileUnload:    true,
}

// ValidateKind returns an error if the kind is not recognized.
func ValidateKind(k Kind) error {
	if !validKinds[k] {
		return fmt.Errorf("invalid event kind %q", k)
	}
	return nil
}

// Event is one journal entry. Subject is the skill, phase or path the event
// is about; Input is the raw user request for analyses.
type Event struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"session_id"`
	Kind      Kind           `json:"kind"`
	Subject   string         `json:"subject,omitempty"`
	Summary   string         `json:"summary"`
	Input     string         `json:"input,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt string         `json:"created_at"`
}

// SearchResult embeds an Event with its FTS5 rank.
type SearchResult struct {
	Event
	Rank float64 `json:"rank"`
}

// Session is a journal session with its event count.
type Session struct {
	ID         string  `json:"id"`
	Workflow   string  `json:"workflow"`
	StartedAt  string  `json:"started_at"`
	EndedAt    *string `json:"ended_at,omitempty"`
	EventCount int     `json:"event_count"`
}

// SubjectCount is a subject with how often it appeared.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// Stats holds aggregate journal statistics.
type Stats struct {
	TotalSessions int            `json:"total_sessions"`
	TotalEvents   int            `json:"total_events"`
	ByKind        map[string]int `json:"by_kind"`
	TopSkills     []SubjectCount `json:"top_skills"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds journal configuration.
type Config struct {
	Path             string
	MaxSearchResults int
	MaxSummaryLength int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Path:             filepath.Join(home, ".skillgate", "journal.db"),
		MaxSearchResults: 50,
		MaxSummaryLength: 500,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed journal. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	cfg Config

	mu      sync.Mutex
	session string
}

// New opens (creating if needed) the journal database with WAL mode and
// runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = DefaultConfig().MaxSearchResults
	}
	if cfg.MaxSummaryLength <= 0 {
		cfg.MaxSummaryLength = DefaultConfig().MaxSummaryLength
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	db, err := openDB("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.cfg.Path }

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			workflow   TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at   TEXT
		);

		CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT    NOT NULL,
			kind       TEXT    NOT NULL,
			subject    TEXT    NOT NULL DEFAULT '',
			summary    TEXT    NOT NULL,
			input      TEXT    NOT NULL DEFAULT '',
			details    TEXT,
			created_at TEXT    NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
		CREATE INDEX IF NOT EXISTS idx_events_kind    ON events(kind);
		CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS events_fts USING fts5(
			subject,
			summary,
			input,
			content='events',
			content_rowid='id'
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'trigger' AND name = 'events_fts_insert'").Scan(&name)
	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER events_fts_insert AFTER INSERT ON events BEGIN
				INSERT INTO events_fts(rowid, subject, summary, input)
				VALUES (new.id, new.subject, new.summary, new.input);
			END;

			CREATE TRIGGER events_fts_delete AFTER DELETE ON events BEGIN
				INSERT INTO events_fts(events_fts, rowid, subject, summary, input)
				VALUES ('delete', old.id, old.subject, old.summary, old.input);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	return nil
}

// ─── Sessions ────────────────────────────────────────────────────────────────

// StartSession opens a new session and makes it current.
func (s *Store) StartSession(ctx context.Context, workflow string) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, workflow, started_at) VALUES (?, ?, ?)",
		id, workflow, Now(),
	); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	s.mu.Lock()
	s.session = id
	s.mu.Unlock()
	return id, nil
}

// EndSession marks a session ended. Ending the current session clears it.
func (s *Store) EndSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL", Now(), id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("open session", id)
	}
	s.mu.Lock()
	if s.session == id {
		s.session = ""
	}
	s.mu.Unlock()
	return nil
}

// CurrentSession returns the current session id, empty if none.
func (s *Store) CurrentSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Sessions lists the most recent sessions with their event counts.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.workflow, s.started_at, s.ended_at, COUNT(e.id)
		FROM sessions s
		LEFT JOIN events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Session
	for rows.Next() {
		var ss Session
		if err := rows.Scan(&ss.ID, &ss.Workflow, &ss.StartedAt, &ss.EndedAt, &ss.EventCount); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// ─── Events ──────────────────────────────────────────────────────────────────

// Record appends an event to the given session, or to the current session
// when ev.SessionID is empty.
func (s *Store) Record(ctx context.Context, ev Event) error {
	if err := ValidateKind(ev.Kind); err != nil {
		return errs.Validation(err.Error(), map[string]any{"kind": string(ev.Kind)})
	}
	if strings.TrimSpace(ev.Summary) == "" {
		return errs.Validationf("event summary is required")
	}
	sessionID := ev.SessionID
	if sessionID == "" {
		sessionID = s.CurrentSession()
	}
	if sessionID == "" {
		return errs.Validationf("no active journal session")
	}

	var details any
	if len(ev.Details) > 0 {
		b, err := json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("record: encode details: %w", err)
		}
		details = string(b)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO events (session_id, kind, subject, summary, input, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, string(ev.Kind), ev.Subject,
		Truncate(ev.Summary, s.cfg.MaxSummaryLength), ev.Input, details, Now(),
	); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return nil
}

// Recent returns the newest events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, kind, subject, summary, input, details, created_at, 0
		FROM events
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	results, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	out := make([]Event, len(results))
	for i, r := range results {
		out[i] = r.Event
	}
	return out, nil
}

// Search runs an FTS5 query over subjects, summaries and inputs. An empty
// query falls back to the most recent events.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxSearchResults {
		limit = s.cfg.MaxSearchResults
	}

	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, session_id, kind, subject, summary, input, details, created_at, 0
			FROM events ORDER BY id DESC LIMIT ?`, limit)
		if err != nil {
			return nil, fmt.Errorf("search recent: %w", err)
		}
		return scanEvents(rows)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.session_id, e.kind, e.subject, e.summary, e.input, e.details, e.created_at, fts.rank
		FROM events_fts fts
		JOIN events e ON e.id = fts.rowid
		WHERE events_fts MATCH ?
		ORDER BY fts.rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return scanEvents(rows)
}

// Stats returns aggregate counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByKind: map[string]int{}}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&stats.TotalSessions); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM events GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ByKind[k] = n
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT subject, COUNT(*) AS n FROM events
		WHERE kind = ? AND subject != ''
		GROUP BY subject
		ORDER BY n DESC, subject ASC
		LIMIT 5`, string(KindActivation))
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var sc SubjectCount
		if err := rows.Scan(&sc.Subject, &sc.Count); err != nil {
			return nil, err
		}
		stats.TopSkills = append(stats.TopSkills, sc)
	}
	return stats, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func scanEvents(rows *sql.Rows) ([]SearchResult, error) {
	defer func() { _ = rows.Close() }()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var kind string
		var details sql.NullString
		if err := rows.Scan(&r.ID, &r.SessionID, &kind, &r.Subject, &r.Summary, &r.Input, &details, &r.CreatedAt, &r.Rank); err != nil {
			return nil, err
		}
		r.Kind = Kind(kind)
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &r.Details); err != nil {
				return nil, fmt.Errorf("decode details of event %d: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "spec forge" → `"spec" "forge"`
func sanitizeFTS(query string) string {
	var quoted []string
	for _, w := range strings.Fields(query) {
		w = strings.ReplaceAll(w, `"`, "")
		if w != "" {
			quoted = append(quoted, `"`+w+`"`)
		}
	}
	return strings.Join(quoted, " ")
}

// Truncate shortens s to max runes, adding an ellipsis when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// SortedKinds returns the keys of a ByKind map in stable order.
func SortedKinds(byKind map[string]int) []string {
	keys := make([]string, 0, len(byKind))
	for k := range byKind {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Now returns the current time formatted for SQLite.
func Now() string {
	return timeNow().UTC().Format("2006-01-02 15:04:05")
}
