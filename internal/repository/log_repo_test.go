package repository

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"receipt_relay/internal/models"
	"receipt_relay/internal/repository/db"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestLogAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewLogSQLite(db)

	// Generated id and timestamp string are unknown; match the statement and
	// the literal args we control.
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO activity_log (id, occurred_at, severity, message, meta)
		VALUES (?, ?, ?, ?, ?)
	`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(),
			"INFO", "hello",
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Append(testCtx(t), models.LogEntry{
		// EntryID empty -> repo generates
		// OccurredAt zero -> repo stamps UTC now
		Severity: "  info ",
		Message:  "hello",
		Metadata: map[string]any{"order": "1042"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestLogAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewLogSQLite(db)

	mock.ExpectExec("INSERT INTO activity_log").
		WillReturnError(errors.New("down"))

	err = repo.Append(testCtx(t), models.LogEntry{
		Severity: "error",
		Message:  "x",
	})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestLogList_NoFilters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewLogSQLite(db)

	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "severity", "message", "meta"}).
		AddRow("a", ts, "INFO", "first", nil).
		AddRow("b", ts.Add(time.Second), "SUCCESS", "second", `{"order":"1042"}`)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, occurred_at, severity, message, meta FROM activity_log ORDER BY occurred_at ASC`,
	)).WillReturnRows(rows)

	got, err := repo.List(testCtx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Message != "first" || got[1].Message != "second" {
		t.Fatalf("unexpected order: %q, %q", got[0].Message, got[1].Message)
	}
	meta, ok := got[1].Metadata.(map[string]any)
	if !ok || meta["order"] != "1042" {
		t.Fatalf("metadata not decoded: %#v", got[1].Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestLogList_AllFilters(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewLogSQLite(db)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)

	// Bounds must be bound in the same text layout Append stores, or the
	// inclusive [from, to] comparison breaks at exact-second equality.
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, occurred_at, severity, message, meta FROM activity_log`+
			` WHERE occurred_at >= ? AND occurred_at <= ? AND severity = ?`+
			` ORDER BY occurred_at ASC`,
	)).
		WithArgs("2026-08-01 00:00:00", "2026-08-31 23:59:59", "ERROR").
		WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at", "severity", "message", "meta"}))

	got, err := repo.List(testCtx(t), from, to, " error ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestLogList_InclusiveAtExactBound(t *testing.T) {
	t.Parallel()

	conn, err := db.InitDB(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	defer func() { _ = conn.Close() }()

	repo := NewLogSQLite(conn)

	at := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	if err := repo.Append(testCtx(t), models.LogEntry{
		EntryID:    "edge",
		OccurredAt: at,
		Severity:   "INFO",
		Message:    "on the boundary",
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	// [from, to] is inclusive: an entry stored exactly at the bound matches.
	got, err := repo.List(testCtx(t), at, at, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EntryID != "edge" {
		t.Fatalf("entry at the exact bound not returned: %+v", got)
	}

	// Just past the bound excludes it again.
	got, err = repo.List(testCtx(t), at.Add(time.Second), time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("entry before the lower bound returned: %+v", got)
	}
}

func TestLogList_MalformedMetaKeptRaw(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewLogSQLite(db)

	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "occurred_at", "severity", "message", "meta"}).
		AddRow("a", ts, "INFO", "x", `{broken json`)

	mock.ExpectQuery("SELECT id, occurred_at, severity, message, meta FROM activity_log").
		WillReturnRows(rows)

	got, err := repo.List(testCtx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if raw, ok := got[0].Metadata.(string); !ok || raw != `{broken json` {
		t.Fatalf("malformed meta not kept raw: %#v", got[0].Metadata)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestLogList_QueryError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewLogSQLite(db)

	mock.ExpectQuery("SELECT id, occurred_at, severity, message, meta FROM activity_log").
		WillReturnError(errors.New("locked"))

	if _, err := repo.List(testCtx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
