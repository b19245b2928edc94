// Package diagnostics provides a durable, append-only log of invocation
// outcomes, entirely separate from replay. Traces themselves are never
// persisted — an invocation's call-site history exists only in memory for
// the lifetime of its attempts and is discarded once it commits or fails
// for good. This store instead records, after the fact, that an
// invocation with a given correlation id finished and how, for
// operational visibility across process restarts.
package diagnostics

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dflemstr/tokamak-go/internal/canonical"
)

//go:embed schema.sql
var schemaSQL string

// Store records invocation outcomes in a SQLite database. Opened with a
// single connection, since diagnostics writes are low-volume and never
// need to race each other.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at path and applies its schema.
// Open is idempotent: calling it again against the same path is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("diagnostics: connect %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("diagnostics: pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("diagnostics: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one outcome row. When outcomeErr is nil, result is
// stored too: a map[string]any is encoded with the canonical package, and
// any other value (including struct{}{}), or a map that canonical.Marshal
// cannot encode, is recorded with its %v string form rather than failing
// the whole write.
func (s *Store) Record(invocationID string, outcomeErr error, result any) error {
	var errMsg sql.NullString
	if outcomeErr != nil {
		errMsg = sql.NullString{String: outcomeErr.Error(), Valid: true}
	}

	var resultJSON sql.NullString
	if outcomeErr == nil {
		if encoded, ok := encodeResult(result); ok {
			resultJSON = sql.NullString{String: encoded, Valid: true}
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO outcomes (invocation_id, committed_at, succeeded, error_message, result_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(invocation_id) DO NOTHING
	`,
		invocationID,
		time.Now().Unix(),
		outcomeErr == nil,
		errMsg,
		resultJSON,
	)
	if err != nil {
		return fmt.Errorf("diagnostics: record %s: %w", invocationID, err)
	}
	return nil
}

func encodeResult(result any) (string, bool) {
	asMap, ok := result.(map[string]any)
	if !ok {
		return fmt.Sprintf("%v", result), true
	}
	encoded, err := canonical.Marshal(asMap)
	if err != nil {
		return fmt.Sprintf("%v", result), true
	}
	return string(encoded), true
}

// Outcome is one row of the outcomes table.
type Outcome struct {
	InvocationID string
	CommittedAt  time.Time
	Succeeded    bool
	ErrorMessage string
	ResultJSON   string
}

// Get returns the recorded outcome for invocationID, or sql.ErrNoRows if
// none was recorded.
func (s *Store) Get(invocationID string) (*Outcome, error) {
	row := s.db.QueryRow(`
		SELECT invocation_id, committed_at, succeeded, error_message, result_json
		FROM outcomes WHERE invocation_id = ?
	`, invocationID)

	var o Outcome
	var committedAt int64
	var errMsg, resultJSON sql.NullString
	if err := row.Scan(&o.InvocationID, &committedAt, &o.Succeeded, &errMsg, &resultJSON); err != nil {
		return nil, err
	}
	o.CommittedAt = time.Unix(committedAt, 0)
	o.ErrorMessage = errMsg.String
	o.ResultJSON = resultJSON.String
	return &o, nil
}
