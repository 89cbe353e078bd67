package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventreserve/internal/domain"
)

var eventRowColumns = []string{"id", "title", "description", "start_date", "end_date", "location", "status", "max_attendees", "created_by", "created_at", "updated_at"}

func eventRow(t *testing.T, id string, status string, maxAttendees int) *sqlmock.Rows {
	t.Helper()
	now := time.Now()
	return sqlmock.NewRows(eventRowColumns).
		AddRow(id, "Title", "Description", now, now.Add(time.Hour), "Main hall", status, maxAttendees, "admin-1", now, now)
}

func TestUnitOfWork_AdmissionCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs("ev-1").
		WillReturnRows(eventRow(t, "ev-1", "PUBLISHED", 10))
	mock.ExpectQuery(`SELECT id, event_id, user_id, status, created_at, updated_at\s+FROM reservations\s+WHERE event_id = \$1 AND user_id = \$2 AND status = ANY\(\$3\)`).
		WithArgs("ev-1", "user-a", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations WHERE event_id = \$1 AND status = ANY\(\$2\)`).
		WithArgs("ev-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs(sqlmock.AnyArg(), "ev-1", "user-a", "PENDING", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	uow := NewReservationUnitOfWork(db)
	err = uow.Do(context.Background(), func(tx domain.ReservationTx) error {
		event, err := tx.GetEventForUpdate(context.Background(), "ev-1")
		require.NoError(t, err)
		assert.Equal(t, 10, event.MaxAttendees)

		_, err = tx.FindActiveReservation(context.Background(), "ev-1", "user-a")
		require.ErrorIs(t, err, domain.ErrNotFound)

		count, err := tx.CountReservations(context.Background(), "ev-1", domain.ActiveStatuses)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		r := domain.NewReservation("ev-1", "user-a", now, now)
		require.NoError(t, tx.InsertReservation(context.Background(), r))
		assert.NotEmpty(t, r.ID)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs("ev-1").
		WillReturnRows(eventRow(t, "ev-1", "PUBLISHED", 1))
	mock.ExpectRollback()

	uow := NewReservationUnitOfWork(db)
	err = uow.Do(context.Background(), func(tx domain.ReservationTx) error {
		if _, err := tx.GetEventForUpdate(context.Background(), "ev-1"); err != nil {
			return err
		}
		return domain.ErrCapacityExceeded
	})
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitOfWork_BeginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	uow := NewReservationUnitOfWork(db)
	called := false
	err = uow.Do(context.Background(), func(tx domain.ReservationTx) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationTx_FindActiveReservation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, event_id, user_id, status, created_at, updated_at\s+FROM reservations\s+WHERE event_id = \$1 AND user_id = \$2 AND status = ANY\(\$3\)`).
		WithArgs("ev-1", "user-a", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "status", "created_at", "updated_at"}).
			AddRow("res-1", "ev-1", "user-a", "PENDING", now, now))
	mock.ExpectCommit()

	uow := NewReservationUnitOfWork(db)
	err = uow.Do(context.Background(), func(tx domain.ReservationTx) error {
		r, err := tx.FindActiveReservation(context.Background(), "ev-1", "user-a")
		require.NoError(t, err)
		assert.Equal(t, "res-1", r.ID)
		assert.Equal(t, domain.ReservationPending, r.Status)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationTx_UpdateReservationStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE reservations SET status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("res-1", "CONFIRMED", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE reservations SET status = \$2, updated_at = \$3 WHERE id = \$1`).
		WithArgs("res-missing", "CANCELED", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	uow := NewReservationUnitOfWork(db)
	err = uow.Do(context.Background(), func(tx domain.ReservationTx) error {
		require.NoError(t, tx.UpdateReservationStatus(context.Background(), "res-1", domain.ReservationConfirmed, now))
		err := tx.UpdateReservationStatus(context.Background(), "res-missing", domain.ReservationCanceled, now)
		require.ErrorIs(t, err, domain.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationTx_GetReservationForUpdate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, event_id, user_id, status, created_at, updated_at\s+FROM reservations\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs("res-missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	uow := NewReservationUnitOfWork(db)
	err = uow.Do(context.Background(), func(tx domain.ReservationTx) error {
		_, err := tx.GetReservationForUpdate(context.Background(), "res-missing")
		return err
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
