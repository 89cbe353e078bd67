package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"eventreserve/internal/domain"
)

type reservationUnitOfWork struct {
	DB *sql.DB
}

// NewReservationUnitOfWork returns a unit of work running callbacks
// inside a single database transaction. Row-level locks taken by the
// callback (event and reservation rows) are held until the transaction
// commits or rolls back, which makes the read-then-write sequences of
// admission and confirmation atomic with respect to each other.
func NewReservationUnitOfWork(db *sql.DB) domain.ReservationUnitOfWork {
	return &reservationUnitOfWork{
		DB: db,
	}
}

func (u *reservationUnitOfWork) Do(ctx context.Context, fn func(tx domain.ReservationTx) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&reservationTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// reservationTx implements domain.ReservationTx over a live sql.Tx.
type reservationTx struct {
	tx *sql.Tx
}

func (t *reservationTx) GetEventForUpdate(ctx context.Context, eventID string) (*domain.Event, error) {
	// The row lock serializes concurrent admissions and confirmations
	// on the same event until this transaction resolves.
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	return scanEventRow(t.tx.QueryRowContext(ctx, query, eventID))
}

func (t *reservationTx) FindActiveReservation(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	query := `
		SELECT id, event_id, user_id, status, created_at, updated_at
		FROM reservations
		WHERE event_id = $1 AND user_id = $2 AND status = ANY($3)
	`
	return scanReservation(t.tx.QueryRowContext(ctx, query, eventID, userID, pq.Array(statusStrings(domain.ActiveStatuses))))
}

func (t *reservationTx) CountReservations(ctx context.Context, eventID string, statuses []domain.ReservationStatus) (int, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE event_id = $1 AND status = ANY($2)`
	var count int
	err := t.tx.QueryRowContext(ctx, query, eventID, pq.Array(statusStrings(statuses))).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (t *reservationTx) GetReservationForUpdate(ctx context.Context, id string) (*domain.Reservation, error) {
	query := `
		SELECT id, event_id, user_id, status, created_at, updated_at
		FROM reservations
		WHERE id = $1
		FOR UPDATE
	`
	return scanReservation(t.tx.QueryRowContext(ctx, query, id))
}

func (t *reservationTx) InsertReservation(ctx context.Context, r *domain.Reservation) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	query := `
		INSERT INTO reservations (id, event_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := t.tx.ExecContext(ctx, query, r.ID, r.EventID, r.UserID, string(r.Status), r.CreatedAt, r.UpdatedAt)
	return err
}

func (t *reservationTx) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus, updatedAt time.Time) error {
	query := `UPDATE reservations SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := t.tx.ExecContext(ctx, query, id, string(status), updatedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanReservation(row *sql.Row) (*domain.Reservation, error) {
	r := &domain.Reservation{}
	var status string
	err := row.Scan(&r.ID, &r.EventID, &r.UserID, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	r.Status = domain.ReservationStatus(status)
	return r, nil
}
