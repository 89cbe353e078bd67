package domain

import (
	"context"
	"time"
)

// ReservationStatus is the lifecycle status of a reservation.
type ReservationStatus string

// Reservation lifecycle statuses. PENDING is the initial status; all
// others are terminal except that CONFIRMED may still be canceled.
const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationRefused   ReservationStatus = "REFUSED"
	ReservationCanceled  ReservationStatus = "CANCELED"
)

// Valid reports whether s is a known reservation status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationRefused, ReservationCanceled:
		return true
	}
	return false
}

// allowedTransitions is the reservation state machine. A missing entry
// or an empty list means the state is terminal.
var allowedTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationRefused, ReservationCanceled},
	ReservationConfirmed: {ReservationCanceled},
	ReservationRefused:   {},
	ReservationCanceled:  {},
}

// CanTransition reports whether the state machine allows moving a
// reservation from one status to another.
func CanTransition(from, to ReservationStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ActiveStatuses are the statuses holding a seat: they count against
// capacity at admission and make a reservation a duplicate blocker.
var ActiveStatuses = []ReservationStatus{ReservationPending, ReservationConfirmed}

// Reservation represents a participant's seat reservation on an event.
// swagger:model Reservation
type Reservation struct {
	ID        string            `json:"id"`
	EventID   string            `json:"event_id"`
	UserID    string            `json:"user_id"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewReservation returns a new PENDING reservation. ID is typically set by the repository on create.
func NewReservation(eventID, userID string, createdAt, updatedAt time.Time) *Reservation {
	return &Reservation{
		EventID:   eventID,
		UserID:    userID,
		Status:    ReservationPending,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// ReservationDetail bundles a reservation with its event and owner for reads.
type ReservationDetail struct {
	Reservation *Reservation `json:"reservation"`
	Event       *Event       `json:"event"`
	User        *User        `json:"user"`
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	// Search matches the event title or the reservation owner's first
	// or last name, case-insensitively.
	Search string
	// Status filters exactly on that status when non-empty.
	Status ReservationStatus
	// UserID restricts results to one owner when non-empty. The listing
	// service always sets it for participants.
	UserID string
}

// ReservationTx is the transaction-scoped view of reservation and event
// storage. Every read reflects writes already staged in the same
// transaction and, where the method says so, locks the rows it reads.
type ReservationTx interface {
	// GetEventForUpdate loads the event and acquires a row-level
	// exclusive lock on it, serializing concurrent admissions and
	// confirmations for the same event until the transaction resolves.
	GetEventForUpdate(ctx context.Context, eventID string) (*Event, error)
	// FindActiveReservation returns the reservation in PENDING or
	// CONFIRMED status for the (event, user) pair, or ErrNotFound.
	FindActiveReservation(ctx context.Context, eventID, userID string) (*Reservation, error)
	// CountReservations counts the event's reservations whose status is
	// in statuses. Absence of rows yields 0.
	CountReservations(ctx context.Context, eventID string, statuses []ReservationStatus) (int, error)
	// GetReservationForUpdate loads the reservation and locks its row.
	GetReservationForUpdate(ctx context.Context, id string) (*Reservation, error)
	InsertReservation(ctx context.Context, r *Reservation) error
	UpdateReservationStatus(ctx context.Context, id string, status ReservationStatus, updatedAt time.Time) error
}

// ReservationUnitOfWork runs fn inside one database transaction. The
// transaction commits when fn returns nil and rolls back otherwise, so
// a failing step leaves no partial writes.
type ReservationUnitOfWork interface {
	Do(ctx context.Context, fn func(tx ReservationTx) error) error
}

// ReservationRepository defines the read-only interface for
// reservation retrieval outside the admission and transition
// transactions.
type ReservationRepository interface {
	// GetDetailByID returns the reservation with its event and owner.
	GetDetailByID(ctx context.Context, id string) (*ReservationDetail, error)
	// List returns one page of reservation details plus the total count
	// for the same predicate, read from a single consistent snapshot.
	List(ctx context.Context, filter ReservationFilter, params PaginationParams) ([]*ReservationDetail, int, error)
}

// TicketData is the data contract handed to the ticket renderer for a
// confirmed reservation.
type TicketData struct {
	ReservationID string            `json:"reservation_id"`
	UserFullName  string            `json:"user_full_name"`
	Email         string            `json:"email"`
	EventTitle    string            `json:"event_title"`
	EventDate     time.Time         `json:"event_date"`
	Location      string            `json:"location"`
	Status        ReservationStatus `json:"status"`
}

// ReservationService defines the reservation lifecycle operations.
type ReservationService interface {
	// Create admits a new PENDING reservation for the user on the
	// event, enforcing publication, uniqueness, and capacity in one
	// atomic transaction.
	Create(ctx context.Context, eventID, userID string) (*Reservation, error)
	// UpdateStatus transitions a reservation through the state machine.
	// Participants may only cancel their own reservations; organizers
	// may confirm, refuse, or cancel any reservation. The CONFIRMED
	// transition re-checks capacity against confirmed seats only.
	UpdateStatus(ctx context.Context, reservationID string, newStatus ReservationStatus, actorID string, actorRole Role) (*Reservation, error)
	// Get returns a reservation with its event and owner. Participants
	// may only read their own reservations.
	Get(ctx context.Context, reservationID, actorID string, actorRole Role) (*ReservationDetail, error)
	// List returns a page of reservations. Participants are always
	// scoped to their own reservations regardless of the filter.
	List(ctx context.Context, actorID string, actorRole Role, filter ReservationFilter, params PaginationParams) ([]*ReservationDetail, int, error)
	// TicketData returns the printable ticket payload for the owner of
	// a confirmed reservation.
	TicketData(ctx context.Context, reservationID, actorID string) (*TicketData, error)
}
