package repository

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestOperatorCreate_Success(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewOperatorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
		WithArgs("alice", "$2a$fakehash").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create("alice", "$2a$fakehash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestOperatorCreate_DuplicateUsername(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewOperatorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(insertOperatorSQL)).
		WithArgs("alice", "h").
		WillReturnError(errors.New("UNIQUE constraint failed: operators.username"))

	_, err = repo.Create("alice", "h")
	if err == nil || !strings.Contains(err.Error(), "UNIQUE constraint") {
		t.Fatalf("expected constraint error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestOperatorGetByUsername_Found(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewOperatorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "password_hash"}).
		AddRow(7, "alice", "$2a$fakehash")

	mock.ExpectQuery(regexp.QuoteMeta(selectOperatorByUsernameSQL)).
		WithArgs("alice").
		WillReturnRows(rows)

	got, err := repo.GetByUsername("alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got == nil || got.ID != 7 || got.Username != "alice" || got.PasswordHash != "$2a$fakehash" {
		t.Fatalf("unexpected operator: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestOperatorGetByUsername_NotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewOperatorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectOperatorByUsernameSQL)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash"}))

	got, err := repo.GetByUsername("ghost")
	if err != nil {
		t.Fatalf("missing operator must not be an error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil operator, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
