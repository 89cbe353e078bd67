package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventreserve/internal/domain"
)

const eventColumns = "id, title, description, start_date, end_date, location, status, max_attendees, created_by, created_at, updated_at"

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO events (id, title, description, start_date, end_date, location, status, max_attendees, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.StartDate, e.EndDate, e.Location,
		string(e.Status), e.MaxAttendees, e.CreatedByID, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEventRow(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetWithAvailability(ctx context.Context, id string) (*domain.EventWithAvailability, error) {
	query := `
		SELECT e.id, e.title, e.description, e.start_date, e.end_date, e.location, e.status, e.max_attendees, e.created_by, e.created_at, e.updated_at,
		       COUNT(r.id)
		FROM events e
		LEFT JOIN reservations r ON r.event_id = e.id AND r.status = ANY($2)
		WHERE e.id = $1
		GROUP BY e.id
	`
	e := &domain.Event{}
	var status string
	var count int
	err := r.DB.QueryRowContext(ctx, query, id, pq.Array(statusStrings(domain.ActiveStatuses))).Scan(
		&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.Location,
		&status, &e.MaxAttendees, &e.CreatedByID, &e.CreatedAt, &e.UpdatedAt,
		&count,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	return &domain.EventWithAvailability{
		Event:            e,
		ReservationCount: count,
		Remaining:        e.MaxAttendees - count,
	}, nil
}

func (r *eventRepository) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, n))
		args = append(args, value)
		n++
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.StartDate != nil {
		add("start_date", *upd.StartDate)
	}
	if upd.EndDate != nil {
		add("end_date", *upd.EndDate)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.MaxAttendees != nil {
		add("max_attendees", *upd.MaxAttendees)
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING `+eventColumns+`
	`, strings.Join(setClauses, ", "), n)
	return scanEventRow(r.DB.QueryRowContext(ctx, query, args...))
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		// A reservation admitted after the service's active-count check
		// trips the reservations.event_id foreign key here.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return fmt.Errorf("event has reservations: %w", domain.ErrConflict)
		}
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	n := 1
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, fmt.Sprintf("title ILIKE $%d", n))
		args = append(args, "%"+s+"%")
		n++
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", n))
		args = append(args, string(filter.Status))
		n++
	}
	predicate := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM events WHERE ` + predicate
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT `+eventColumns+`
		FROM events
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, predicate, n, n+1)
	args = append(args, params.Limit, params.Offset())
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e := &domain.Event{}
		var status string
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.Location, &status, &e.MaxAttendees, &e.CreatedByID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		e.Status = domain.EventStatus(status)
		events = append(events, e)
	}
	return events, total, rows.Err()
}

func (r *eventRepository) CountActiveReservations(ctx context.Context, id string) (int, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND status = ANY($2)`
	var count int
	err := r.DB.QueryRowContext(ctx, query, id, pq.Array(statusStrings(domain.ActiveStatuses))).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanEventRow(row *sql.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var status string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.Location, &status, &e.MaxAttendees, &e.CreatedByID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.Status = domain.EventStatus(status)
	return e, nil
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
