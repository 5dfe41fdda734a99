package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Repository{db: db}, mock
}

// TestMigrate_ExecError tests that a failing migration aborts startup
func TestMigrate_ExecError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scoreboards").WillReturnError(errors.New("disk I/O error"))

	if err := repo.migrate(); err == nil {
		t.Error("expected migration error, got nil")
	}
}

// TestSaveScoreboard_ExecError tests that write failures surface to the caller
func TestSaveScoreboard_ExecError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO scoreboards").
		WithArgs("ns", "001", `{}`, sqlmock.AnyArg()).
		WillReturnError(errors.New("database is locked"))

	saved, err := repo.SaveScoreboard(context.Background(), "ns", "001", []byte(`{}`))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !saved.IsZero() {
		t.Errorf("expected zero time on failure, got %v", saved)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestGetScoreboard_QueryError tests that driver errors are not reported as not found
func TestGetScoreboard_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM scoreboards").WillReturnError(errors.New("connection reset"))

	_, err := repo.GetScoreboard(context.Background(), "ns")
	if err == nil || err == ErrNotFound {
		t.Errorf("expected driver error, got %v", err)
	}
}

// TestGetScoreboard_BadTimestamp tests that an unreadable timestamp does not lose the payload
func TestGetScoreboard_BadTimestamp(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"namespace", "court_id", "payload", "updated_at"}).
		AddRow("ns", "001", `{"currentSet":1}`, "not-a-time")
	mock.ExpectQuery("SELECT (.+) FROM scoreboards").WithArgs("ns").WillReturnRows(rows)

	rec, err := repo.GetScoreboard(context.Background(), "ns")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(rec.Payload) != `{"currentSet":1}` || !rec.UpdatedAt.IsZero() {
		t.Errorf("record = %+v", rec)
	}
}

// TestListScoreboards_QueryError tests query failure
func TestListScoreboards_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM scoreboards").WillReturnError(errors.New("query failed"))

	if _, err := repo.ListScoreboards(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestListScoreboards_ScanError tests row scanning error
func TestListScoreboards_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Too few columns forces a scan failure
	rows := sqlmock.NewRows([]string{"namespace", "court_id"}).AddRow("ns", "001")
	mock.ExpectQuery("SELECT (.+) FROM scoreboards").WillReturnRows(rows)

	if _, err := repo.ListScoreboards(context.Background()); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

// TestListScoreboards_RowError tests iteration error
func TestListScoreboards_RowError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"namespace", "court_id", "payload", "updated_at"}).
		AddRow("a", "001", `{}`, "2026-05-01T10:00:00.000Z").
		AddRow("b", "002", `{}`, "2026-05-01T10:00:00.000Z").
		RowError(1, errors.New("row error"))
	mock.ExpectQuery("SELECT (.+) FROM scoreboards").WillReturnRows(rows)

	if _, err := repo.ListScoreboards(context.Background()); err == nil {
		t.Error("expected row iteration error, got nil")
	}
}

// TestPublishScoreboard_ExecError tests publish failure
func TestPublishScoreboard_ExecError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT OR REPLACE INTO published_scoreboards").WillReturnError(errors.New("readonly database"))

	if _, err := repo.PublishScoreboard(context.Background(), "001", []byte(`{}`)); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestGetPublishedScoreboard_QueryError tests query failure
func TestGetPublishedScoreboard_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM published_scoreboards").WillReturnError(errors.New("boom"))

	_, err := repo.GetPublishedScoreboard(context.Background(), "001")
	if err == nil || err == ErrNotFound {
		t.Errorf("expected driver error, got %v", err)
	}
}

// TestClearTable_ExecError tests delete failure on a whitelisted table
func TestClearTable_ExecError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM published_scoreboards").WillReturnError(errors.New("locked"))

	if err := repo.ClearTable(context.Background(), "published_scoreboards"); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestClose_NilDB tests closing a repository that never opened
func TestClose_NilDB(t *testing.T) {
	repo := &Repository{}
	if err := repo.Close(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
