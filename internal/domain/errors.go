package domain

import "errors"

// Sentinel errors shared across services. Repositories and services
// wrap these with fmt.Errorf("...: %w", err) to add context; the HTTP
// layer maps them to status codes with errors.Is.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned on a role or ownership violation.
	ErrForbidden = errors.New("not allowed")

	// ErrConflict is returned when a write collides with existing state,
	// e.g. a duplicate active reservation for the same event and user.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState is returned when an operation is not legal in the
	// entity's current state, e.g. reserving on an unpublished event or
	// an illegal reservation status transition.
	ErrInvalidState = errors.New("invalid state")

	// ErrCapacityExceeded is returned when an admission or confirmation
	// would push an event past its max attendees.
	ErrCapacityExceeded = errors.New("event is full")

	// ErrInvalidCredentials is returned on a failed login or an invalid
	// refresh token.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateEmail is returned when registering with an email that
	// is already taken.
	ErrDuplicateEmail = errors.New("email already exists")
)
