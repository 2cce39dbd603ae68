package workflow

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAcquireRollupLock_Granted(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectQuery("SELECT GET_LOCK").
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK(?, 30)"}).AddRow(1))

	if err := AcquireRollupLock(db, testUserId, testBusinessId); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAcquireRollupLock_HeldElsewhere(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectQuery("SELECT GET_LOCK").
		WillReturnRows(sqlmock.NewRows([]string{"GET_LOCK(?, 30)"}).AddRow(0))

	if err := AcquireRollupLock(db, testUserId, testBusinessId); err == nil {
		t.Fatal("expected an error when the lock is held by another connection")
	}
}

func TestReleaseRollupLock(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectQuery("SELECT RELEASE_LOCK").
		WillReturnRows(sqlmock.NewRows([]string{"RELEASE_LOCK(?)"}).AddRow(1))

	ReleaseRollupLock(db, testUserId, testBusinessId)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
