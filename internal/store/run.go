package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one compile(+execute) invocation: the document that was compiled,
// the query produced, what the endpoint returned, and what the shaper
// produced from it.
type Run struct {
	ID            string
	Seq           int64
	DocumentHash  string
	CompiledQuery string
	RawBindings   string // raw SPARQL JSON results, stored verbatim
	ShapedOutput  string // shaped output document, JSON-encoded; "" if the run failed before shaping
	RunError      string // non-empty when the run failed; ShapedOutput is then unset
	CreatedAt     time.Time
}

// NewRunID mints a UUIDv7 run identifier — time-ordered, so lexical and
// seq ordering agree without an extra index.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// WriteRun inserts a run record. Uses ON CONFLICT(id) DO NOTHING so retried
// writes (for example after a crash mid-query) are idempotent.
func (s *Store) WriteRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, document_hash, compiled_query, raw_bindings, shaped_output, run_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID, r.Seq, r.DocumentHash, r.CompiledQuery, r.RawBindings,
		nullIfEmpty(r.ShapedOutput), nullIfEmpty(r.RunError), r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// GetRun retrieves a single run by ID. Returns sql.ErrNoRows if absent.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, document_hash, compiled_query, raw_bindings, shaped_output, run_error, created_at
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListRuns returns every run for documentHash (or every run, if
// documentHash is ""), ordered by seq then id for deterministic replay.
func (s *Store) ListRuns(ctx context.Context, documentHash string) ([]Run, error) {
	query := `SELECT id, seq, document_hash, compiled_query, raw_bindings, shaped_output, run_error, created_at FROM runs`
	args := []any{}
	if documentHash != "" {
		query += ` WHERE document_hash = ?`
		args = append(args, documentHash)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRunRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if out == nil {
		out = []Run{}
	}
	return out, nil
}

// NextSeq returns one past the highest seq recorded so far, 0 for an empty
// log.
func (s *Store) NextSeq(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM runs`).Scan(&max); err != nil {
		return 0, fmt.Errorf("compute next seq: %w", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return max.Int64 + 1, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row *sql.Row) (Run, error) {
	return scanAny(row)
}

func scanRunRows(rows *sql.Rows) (Run, error) {
	return scanAny(rows)
}

func scanAny(s scanner) (Run, error) {
	var r Run
	var shapedOutput, runError sql.NullString
	var createdAt string
	if err := s.Scan(&r.ID, &r.Seq, &r.DocumentHash, &r.CompiledQuery, &r.RawBindings, &shapedOutput, &runError, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.ShapedOutput = shapedOutput.String
	r.RunError = runError.String
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse run timestamp: %w", err)
	}
	r.CreatedAt = ts
	return r, nil
}
