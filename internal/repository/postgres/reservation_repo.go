package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventreserve/internal/domain"
)

const reservationDetailColumns = `
	r.id, r.event_id, r.user_id, r.status, r.created_at, r.updated_at,
	e.id, e.title, e.description, e.start_date, e.end_date, e.location, e.status, e.max_attendees, e.created_by, e.created_at, e.updated_at,
	u.id, u.email, u.first_name, u.last_name, u.role, u.created_at, u.updated_at`

type reservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(db *sql.DB) domain.ReservationRepository {
	return &reservationRepository{
		DB: db,
	}
}

func (r *reservationRepository) GetDetailByID(ctx context.Context, id string) (*domain.ReservationDetail, error) {
	query := `
		SELECT ` + reservationDetailColumns + `
		FROM reservations r
		JOIN events e ON e.id = r.event_id
		JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
	`
	detail, err := scanReservationDetail(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return detail, nil
}

func (r *reservationRepository) List(ctx context.Context, filter domain.ReservationFilter, params domain.PaginationParams) ([]*domain.ReservationDetail, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	n := 1
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("r.user_id = $%d", n))
		args = append(args, filter.UserID)
		n++
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("r.status = $%d", n))
		args = append(args, string(filter.Status))
		n++
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, fmt.Sprintf("(e.title ILIKE $%d OR u.first_name ILIKE $%d OR u.last_name ILIKE $%d)", n, n, n))
		args = append(args, "%"+s+"%")
		n++
	}
	predicate := strings.Join(where, " AND ")

	// One read-only transaction so total and the returned page come
	// from the same snapshot.
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("begin read transaction: %w", err)
	}
	defer tx.Rollback()

	countQuery := `
		SELECT COUNT(*)
		FROM reservations r
		JOIN events e ON e.id = r.event_id
		JOIN users u ON u.id = r.user_id
		WHERE ` + predicate
	var total int
	if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT `+reservationDetailColumns+`
		FROM reservations r
		JOIN events e ON e.id = r.event_id
		JOIN users u ON u.id = r.user_id
		WHERE %s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d
	`, predicate, n, n+1)
	args = append(args, params.Limit, params.Offset())
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	details := make([]*domain.ReservationDetail, 0)
	for rows.Next() {
		detail, err := scanReservationDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("commit read transaction: %w", err)
	}
	return details, total, nil
}

// rowScanner abstracts sql.Row and sql.Rows for detail scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservationDetail(row rowScanner) (*domain.ReservationDetail, error) {
	res := &domain.Reservation{}
	ev := &domain.Event{}
	u := &domain.User{}
	var resStatus, evStatus, role string
	err := row.Scan(
		&res.ID, &res.EventID, &res.UserID, &resStatus, &res.CreatedAt, &res.UpdatedAt,
		&ev.ID, &ev.Title, &ev.Description, &ev.StartDate, &ev.EndDate, &ev.Location, &evStatus, &ev.MaxAttendees, &ev.CreatedByID, &ev.CreatedAt, &ev.UpdatedAt,
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Status = domain.ReservationStatus(resStatus)
	ev.Status = domain.EventStatus(evStatus)
	u.Role = domain.Role(role)
	return &domain.ReservationDetail{Reservation: res, Event: ev, User: u}, nil
}
