package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventreserve/internal/domain"
)

func TestEventRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	event := &domain.Event{
		Title:        "Go conference",
		Description:  "Two days of talks",
		StartDate:    now,
		EndDate:      now.Add(8 * time.Hour),
		Location:     "Main hall",
		Status:       domain.EventDraft,
		MaxAttendees: 100,
		CreatedByID:  "admin-1",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(`INSERT INTO events`).
		WithArgs(sqlmock.AnyArg(), "Go conference", "Two days of talks", now, now.Add(8*time.Hour), "Main hall", "DRAFT", 100, "admin-1", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewEventRepository(db)
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(eventRow(t, "ev-1", "PUBLISHED", 50))
	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
		WithArgs("ev-missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewEventRepository(db)

	event, err := repo.GetByID(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "ev-1", event.ID)
	assert.Equal(t, domain.EventPublished, event.Status)
	assert.Equal(t, 50, event.MaxAttendees)

	_, err = repo.GetByID(context.Background(), "ev-missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_GetWithAvailability(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	columns := append(append([]string{}, eventRowColumns...), "count")
	mock.ExpectQuery(`SELECT e\.id, (.+) COUNT\(r\.id\)\s+FROM events e\s+LEFT JOIN reservations r`).
		WithArgs("ev-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("ev-1", "Title", "Description", now, now.Add(time.Hour), "Main hall", "PUBLISHED", 50, "admin-1", now, now, 12))

	repo := NewEventRepository(db)
	event, err := repo.GetWithAvailability(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 12, event.ReservationCount)
	assert.Equal(t, 38, event.Remaining)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Only the provided fields appear in the SET clause, in order.
	mock.ExpectQuery(`UPDATE events SET updated_at = NOW\(\), title = \$1, status = \$2\s+WHERE id = \$3\s+RETURNING`).
		WithArgs("Renamed", "PUBLISHED", "ev-1").
		WillReturnRows(eventRow(t, "ev-1", "PUBLISHED", 50))

	repo := NewEventRepository(db)
	title := "Renamed"
	status := domain.EventPublished
	event, err := repo.Update(context.Background(), "ev-1", domain.EventUpdate{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.EventPublished, event.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Update_NoFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// An empty update degrades to a plain fetch.
	mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(eventRow(t, "ev-1", "DRAFT", 50))

	repo := NewEventRepository(db)
	event, err := repo.Update(context.Background(), "ev-1", domain.EventUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "ev-1", event.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
		WithArgs("ev-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewEventRepository(db)
	require.NoError(t, repo.Delete(context.Background(), "ev-1"))
	require.ErrorIs(t, repo.Delete(context.Background(), "ev-missing"), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Delete_ReservationAdmittedConcurrently(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// A reservation slipping in between the service's active-count check
	// and the delete trips the foreign key; the caller still gets a
	// conflict, not an internal error.
	mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
		WithArgs("ev-1").
		WillReturnError(&pq.Error{Code: "23503"})

	repo := NewEventRepository(db)
	require.ErrorIs(t, repo.Delete(context.Background(), "ev-1"), domain.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events WHERE 1=1 AND title ILIKE \$1 AND status = \$2`).
		WithArgs("%go%", "PUBLISHED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT (.+)\s+FROM events\s+WHERE 1=1 AND title ILIKE \$1 AND status = \$2\s+ORDER BY created_at DESC\s+LIMIT \$3 OFFSET \$4`).
		WithArgs("%go%", "PUBLISHED", 2, 2).
		WillReturnRows(sqlmock.NewRows(eventRowColumns).
			AddRow("ev-3", "Go workshop", "", now, now.Add(time.Hour), "Room 2", "PUBLISHED", 20, "admin-1", now, now).
			AddRow("ev-4", "Go meetup", "", now, now.Add(time.Hour), "Room 3", "PUBLISHED", 20, "admin-1", now, now))

	repo := NewEventRepository(db)
	events, total, err := repo.List(context.Background(),
		domain.EventFilter{Search: "go", Status: domain.EventPublished},
		domain.PaginationParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, events, 2)
	assert.Equal(t, "Go workshop", events[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_CountActiveReservations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations WHERE event_id = \$1 AND status = ANY\(\$2\)`).
		WithArgs("ev-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	repo := NewEventRepository(db)
	count, err := repo.CountActiveReservations(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
