package workflow

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// newMockGorm opens a gorm handle over sqlmock so the idempotency and lock
// helpers run their real SQL without a MySQL server.
func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatal(err)
	}
	return gormDB, mock
}

func idempotencyRow(id int, status string, updatedAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "business_id", "handler_name", "message_id", "status", "updated_at"}).
		AddRow(id, testBusinessId, "SM", "1", status, updatedAt)
}

func TestBeginIdempotency_FirstDeliveryInserts(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectExec("INSERT INTO .idempotency_keys.").WillReturnResult(sqlmock.NewResult(1, 1))

	skip, err := BeginIdempotency(db, testBusinessId, "SM", "1")
	if err != nil {
		t.Fatal(err)
	}
	if skip {
		t.Fatal("first delivery must not be skipped")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBeginIdempotency_DuplicateOfSucceededSkips(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectExec("INSERT INTO .idempotency_keys.").
		WillReturnError(&mysqlDriver.MySQLError{Number: 1062})
	mock.ExpectQuery("SELECT .* FROM .idempotency_keys.").
		WillReturnRows(idempotencyRow(7, "SUCCEEDED", time.Now()))

	skip, err := BeginIdempotency(db, testBusinessId, "SM", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !skip {
		t.Fatal("redelivery of a SUCCEEDED message must be skipped")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBeginIdempotency_InProgressAsksForRetry(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectExec("INSERT INTO .idempotency_keys.").
		WillReturnError(&mysqlDriver.MySQLError{Number: 1062})
	mock.ExpectQuery("SELECT .* FROM .idempotency_keys.").
		WillReturnRows(idempotencyRow(7, "STARTED", time.Now()))

	_, err := BeginIdempotency(db, testBusinessId, "SM", "1")
	if !errors.Is(err, ErrIdempotencyInProgress) {
		t.Fatalf("err = %v, want ErrIdempotencyInProgress", err)
	}
}

func TestBeginIdempotency_StaleStartedIsReclaimed(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectExec("INSERT INTO .idempotency_keys.").
		WillReturnError(&mysqlDriver.MySQLError{Number: 1062})
	mock.ExpectQuery("SELECT .* FROM .idempotency_keys.").
		WillReturnRows(idempotencyRow(7, "STARTED", time.Now().Add(-10*time.Minute)))
	mock.ExpectExec("UPDATE .idempotency_keys.").WillReturnResult(sqlmock.NewResult(0, 1))

	skip, err := BeginIdempotency(db, testBusinessId, "SM", "1")
	if err != nil {
		t.Fatal(err)
	}
	if skip {
		t.Fatal("stale STARTED row must be reclaimed, not skipped")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBeginIdempotency_FailedIsRetried(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectExec("INSERT INTO .idempotency_keys.").
		WillReturnError(&mysqlDriver.MySQLError{Number: 1062})
	mock.ExpectQuery("SELECT .* FROM .idempotency_keys.").
		WillReturnRows(idempotencyRow(7, "FAILED", time.Now()))
	mock.ExpectExec("UPDATE .idempotency_keys.").WillReturnResult(sqlmock.NewResult(0, 1))

	skip, err := BeginIdempotency(db, testBusinessId, "SM", "1")
	if err != nil {
		t.Fatal(err)
	}
	if skip {
		t.Fatal("FAILED row must be retried, not skipped")
	}
}

func TestMarkIdempotencySucceeded(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectExec("UPDATE .idempotency_keys.").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := MarkIdempotencySucceeded(db, testBusinessId, "SM", "1"); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMarkIdempotencyFailed(t *testing.T) {
	db, mock := newMockGorm(t)
	mock.ExpectExec("UPDATE .idempotency_keys.").WillReturnResult(sqlmock.NewResult(0, 1))

	if err := MarkIdempotencyFailed(db, testBusinessId, "SM", "1", errors.New("boom")); err != nil {
		t.Fatal(err)
	}
}

func TestIsDuplicateKeyErr(t *testing.T) {
	if !isDuplicateKeyErr(&mysqlDriver.MySQLError{Number: 1062}) {
		t.Fatal("1062 is a duplicate key error")
	}
	if !isDuplicateKeyErr(fmt.Errorf("create: %w", &mysqlDriver.MySQLError{Number: 1062})) {
		t.Fatal("wrapped 1062 is a duplicate key error")
	}
	if isDuplicateKeyErr(&mysqlDriver.MySQLError{Number: 1213}) {
		t.Fatal("deadlock is not a duplicate key error")
	}
	if isDuplicateKeyErr(errors.New("plain")) {
		t.Fatal("plain error is not a duplicate key error")
	}
}
