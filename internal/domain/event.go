package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle status of an event.
type EventStatus string

// Event lifecycle statuses. Only published events accept reservations.
const (
	EventDraft     EventStatus = "DRAFT"
	EventPublished EventStatus = "PUBLISHED"
	EventCanceled  EventStatus = "CANCELED"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	return s == EventDraft || s == EventPublished || s == EventCanceled
}

// Event represents an event organizers publish and participants reserve seats on.
// swagger:model Event
type Event struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	StartDate    time.Time   `json:"start_date"`
	EndDate      time.Time   `json:"end_date"`
	Location     string      `json:"location"`
	Status       EventStatus `json:"status"`
	MaxAttendees int         `json:"max_attendees"`
	CreatedByID  string      `json:"created_by_id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title, description, location string, startDate, endDate time.Time, status EventStatus, maxAttendees int, createdByID string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:        title,
		Description:  description,
		StartDate:    startDate,
		EndDate:      endDate,
		Location:     location,
		Status:       status,
		MaxAttendees: maxAttendees,
		CreatedByID:  createdByID,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// EventWithAvailability bundles an event with its reservation load for reads.
// Remaining is MaxAttendees minus the number of reservations holding a seat.
type EventWithAvailability struct {
	*Event
	ReservationCount int `json:"reservation_count"`
	Remaining        int `json:"remaining"`
}

// EventUpdate carries the optional fields of a partial event update.
// Nil fields are left unchanged.
type EventUpdate struct {
	Title        *string
	Description  *string
	StartDate    *time.Time
	EndDate      *time.Time
	Location     *string
	Status       *EventStatus
	MaxAttendees *int
}

// EventFilter narrows event listings.
type EventFilter struct {
	// Search matches the event title, case-insensitively.
	Search string
	// Status filters exactly on that status when non-empty.
	Status EventStatus
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// GetWithAvailability also counts reservations holding a seat
	// (PENDING or CONFIRMED) for the event.
	GetWithAvailability(ctx context.Context, id string) (*EventWithAvailability, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, id string) error
	// List returns one page of events matching the filter plus the total
	// count for the same predicate.
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	// CountActiveReservations counts reservations in PENDING or
	// CONFIRMED status referencing the event. Used to block deletion.
	CountActiveReservations(ctx context.Context, id string) (int, error)
}

// EventService defines organizer and participant operations on events.
type EventService interface {
	Create(ctx context.Context, event *Event) error
	// Get returns the event with its remaining capacity. Participants
	// may only see published events.
	Get(ctx context.Context, id string, role Role) (*EventWithAvailability, error)
	Update(ctx context.Context, id string, upd EventUpdate) (*Event, error)
	// Delete removes an event. Deletion is refused while active
	// reservations reference the event.
	Delete(ctx context.Context, id string) error
	// List returns a page of events. Participants only see published
	// events regardless of the status filter.
	List(ctx context.Context, role Role, filter EventFilter, params PaginationParams) ([]*Event, int, error)
}
