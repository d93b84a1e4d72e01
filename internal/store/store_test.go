package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	if err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='runs'",
	).Scan(&name); err != nil {
		t.Errorf("runs table not found after idempotent opens: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want %q", mode, "wal")
	}
}

func TestSchema_RunsTableAndIndexes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	columns := tableColumns(t, s.db, "runs")
	for _, col := range []string{
		"id", "seq", "document_hash", "compiled_query",
		"raw_bindings", "shaped_output", "run_error", "created_at",
	} {
		if !contains(columns, col) {
			t.Errorf("runs table missing column %q", col)
		}
	}

	indexes := tableIndexes(t, s.db, "runs")
	for _, idx := range []string{"idx_runs_document_hash", "idx_runs_seq"} {
		if !contains(indexes, idx) {
			t.Errorf("runs table missing index %q", idx)
		}
	}
}

func TestWriteRunAndGetRun(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	run := Run{
		ID:            NewRunID(),
		Seq:           0,
		DocumentHash:  DocumentHash([]byte(`{"proto":{"id":"?id"}}`)),
		CompiledQuery: "SELECT ?id WHERE { ?id a ?type }",
		RawBindings:   `{"results":{"bindings":[]}}`,
		ShapedOutput:  `[]`,
		CreatedAt:     time.Now(),
	}
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if got.CompiledQuery != run.CompiledQuery {
		t.Errorf("CompiledQuery = %q, want %q", got.CompiledQuery, run.CompiledQuery)
	}
	if got.DocumentHash != run.DocumentHash {
		t.Errorf("DocumentHash = %q, want %q", got.DocumentHash, run.DocumentHash)
	}
	if got.RunError != "" {
		t.Errorf("RunError = %q, want empty", got.RunError)
	}
}

func TestWriteRun_IdempotentOnConflict(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	run := Run{
		ID:            NewRunID(),
		Seq:           0,
		DocumentHash:  DocumentHash([]byte("doc")),
		CompiledQuery: "SELECT * WHERE { ?s ?p ?o }",
		RawBindings:   "{}",
		CreatedAt:     time.Now(),
	}
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("first WriteRun() failed: %v", err)
	}
	// Retried write with the same ID must not error.
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("second WriteRun() (retry) failed: %v", err)
	}

	runs, err := s.ListRuns(ctx, run.DocumentHash)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("len(runs) = %d, want 1 (conflict should be a no-op)", len(runs))
	}
}

func TestGetRun_NotFound(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := s.GetRun(ctx, "missing"); err != sql.ErrNoRows {
		t.Errorf("GetRun() error = %v, want sql.ErrNoRows", err)
	}
}

func TestListRuns_OrderedBySeq(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	hash := DocumentHash([]byte("shared"))
	for i := int64(2); i >= 0; i-- {
		run := Run{
			ID:            NewRunID(),
			Seq:           i,
			DocumentHash:  hash,
			CompiledQuery: "SELECT * WHERE { ?s ?p ?o }",
			RawBindings:   "{}",
			CreatedAt:     time.Now(),
		}
		if err := s.WriteRun(ctx, run); err != nil {
			t.Fatalf("WriteRun() seq %d failed: %v", i, err)
		}
	}

	runs, err := s.ListRuns(ctx, hash)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	for i, r := range runs {
		if r.Seq != int64(i) {
			t.Errorf("runs[%d].Seq = %d, want %d", i, r.Seq, i)
		}
	}
}

func TestListRuns_EmptyReturnsEmptySliceNotNil(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	runs, err := s.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if runs == nil {
		t.Error("ListRuns() returned nil, want empty non-nil slice")
	}
}

func TestNextSeq(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	seq, err := s.NextSeq(ctx)
	if err != nil {
		t.Fatalf("NextSeq() on empty log failed: %v", err)
	}
	if seq != 0 {
		t.Errorf("NextSeq() on empty log = %d, want 0", seq)
	}

	run := Run{
		ID:            NewRunID(),
		Seq:           seq,
		DocumentHash:  DocumentHash([]byte("x")),
		CompiledQuery: "SELECT * WHERE { ?s ?p ?o }",
		RawBindings:   "{}",
		CreatedAt:     time.Now(),
	}
	if err := s.WriteRun(ctx, run); err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}

	next, err := s.NextSeq(ctx)
	if err != nil {
		t.Fatalf("NextSeq() failed: %v", err)
	}
	if next != 1 {
		t.Errorf("NextSeq() after one write = %d, want 1", next)
	}
}

func TestDocumentHash_DeterministicAndDistinct(t *testing.T) {
	a := DocumentHash([]byte(`{"proto":{"id":"?id"}}`))
	b := DocumentHash([]byte(`{"proto":{"id":"?id"}}`))
	if a != b {
		t.Error("DocumentHash() is not deterministic for identical input")
	}

	c := DocumentHash([]byte(`{"proto":{"id":"?other"}}`))
	if a == c {
		t.Error("DocumentHash() collided for distinct input")
	}
}

func tableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("table_info(%s): %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scanning column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func tableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("listing indexes for %s: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scanning index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(items []string, item string) bool {
	for _, s := range items {
		if s == item {
			return true
		}
	}
	return false
}
