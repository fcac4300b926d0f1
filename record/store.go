// Package record persists rendered frames to SQLite so a session can be
// inspected or replayed after the guest is gone.
package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/wippyai/wasm-renderer/record/migrations"
	"github.com/wippyai/wasm-renderer/schema"
)

var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("record: not found")
	// ErrAlreadyExists is returned when a session or frame is recorded twice.
	ErrAlreadyExists = errors.New("record: already exists")
)

// Session describes a loaded guest.
type Session struct {
	CreatedAt time.Time
	ID        string
	Signature string
	Schema    schema.Schema
}

// Frame is one render step of a session.
type Frame struct {
	Overrides map[int]any
	SessionID string
	Output    string
	Number    uint64
	Elapsed   time.Duration
	Failed    bool
}

// Store persists sessions and frames in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite recording and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateSession records a loaded guest.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(sess.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	schemaJSON, err := json.Marshal(sess.Schema)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO sessions (id, signature, schema_json, created_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Signature, string(schemaJSON), toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns one session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	var (
		sess       Session
		schemaJSON string
		createdAt  int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, signature, schema_json, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Signature, &schemaJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	if sess.Schema, err = schema.Parse(schemaJSON); err != nil {
		return Session{}, fmt.Errorf("decode schema: %w", err)
	}
	sess.CreatedAt = fromMillis(createdAt)
	return sess, nil
}

// AppendFrame records one render step.
func (s *Store) AppendFrame(ctx context.Context, f Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	overrides := f.Overrides
	if overrides == nil {
		overrides = map[int]any{}
	}
	paramsJSON, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO frames (session_id, frame, elapsed_ms, params_json, output, failed) VALUES (?, ?, ?, ?, ?, ?)`,
		f.SessionID, int64(f.Number), f.Elapsed.Milliseconds(), string(paramsJSON), f.Output, f.Failed,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("append frame: %w", err)
	}
	return nil
}

// ListFrames returns a session's frames in order.
func (s *Store) ListFrames(ctx context.Context, sessionID string) ([]Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT frame, elapsed_ms, params_json, output, failed FROM frames WHERE session_id = ? ORDER BY frame`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var (
			f          Frame
			number     int64
			elapsedMS  int64
			paramsJSON string
		)
		if err := rows.Scan(&number, &elapsedMS, &paramsJSON, &f.Output, &f.Failed); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &f.Overrides); err != nil {
			return nil, fmt.Errorf("decode overrides: %w", err)
		}
		f.SessionID = sessionID
		f.Number = uint64(number)
		f.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return frames, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
