package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventreserve/internal/domain"
)

type reservationService struct {
	uow            domain.ReservationUnitOfWork
	reservationRepo domain.ReservationRepository
	contextTimeout time.Duration
}

func NewReservationService(
	uow domain.ReservationUnitOfWork,
	reservationRepo domain.ReservationRepository,
	timeout time.Duration,
) domain.ReservationService {
	return &reservationService{
		uow:             uow,
		reservationRepo: reservationRepo,
		contextTimeout:  timeout,
	}
}

// Create admits a new reservation. All checks and the insert run inside
// one transaction; the event row lock taken first serializes concurrent
// admissions for the same event, so two requests for the last seat (or
// for the same user) cannot both pass the checks.
func (s *reservationService) Create(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var created *domain.Reservation
	err := s.uow.Do(ctx, func(tx domain.ReservationTx) error {
		event, err := tx.GetEventForUpdate(ctx, eventID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("event %w", domain.ErrNotFound)
			}
			return fmt.Errorf("get event: %w", err)
		}

		if event.Status != domain.EventPublished {
			return fmt.Errorf("event is not published: %w", domain.ErrInvalidState)
		}

		existing, err := tx.FindActiveReservation(ctx, eventID, userID)
		if err == nil {
			return fmt.Errorf("reservation already exists with status %s: %w", existing.Status, domain.ErrConflict)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("find active reservation: %w", err)
		}

		// Admission counts both seat-holding statuses: PENDING requests
		// hold soft seats so the event never collects more holds than
		// capacity.
		count, err := tx.CountReservations(ctx, eventID, domain.ActiveStatuses)
		if err != nil {
			return fmt.Errorf("count reservations: %w", err)
		}
		if count >= event.MaxAttendees {
			return domain.ErrCapacityExceeded
		}

		now := time.Now()
		created = domain.NewReservation(eventID, userID, now, now)
		if err := tx.InsertReservation(ctx, created); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateStatus moves a reservation through the state machine. The
// CONFIRMED transition alone re-checks capacity, and only against
// already-confirmed seats: pending requests may exceed capacity, but a
// seat becomes irrevocable first-confirmed-first-served.
func (s *reservationService) UpdateStatus(ctx context.Context, reservationID string, newStatus domain.ReservationStatus, actorID string, actorRole domain.Role) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !newStatus.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", newStatus, domain.ErrInvalidState)
	}
	if !domain.CanRequestTransition(actorRole, newStatus) {
		return nil, domain.ErrForbidden
	}

	var updated *domain.Reservation
	err := s.uow.Do(ctx, func(tx domain.ReservationTx) error {
		reservation, err := tx.GetReservationForUpdate(ctx, reservationID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("reservation %w", domain.ErrNotFound)
			}
			return fmt.Errorf("get reservation: %w", err)
		}

		if !domain.CanAccessReservation(actorRole, reservation.UserID, actorID) {
			return domain.ErrForbidden
		}

		if !domain.CanTransition(reservation.Status, newStatus) {
			return fmt.Errorf("invalid transition from %s to %s: %w", reservation.Status, newStatus, domain.ErrInvalidState)
		}

		if newStatus == domain.ReservationConfirmed {
			event, err := tx.GetEventForUpdate(ctx, reservation.EventID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("event %w", domain.ErrNotFound)
				}
				return fmt.Errorf("get event: %w", err)
			}
			count, err := tx.CountReservations(ctx, event.ID, []domain.ReservationStatus{domain.ReservationConfirmed})
			if err != nil {
				return fmt.Errorf("count confirmed reservations: %w", err)
			}
			if count >= event.MaxAttendees {
				return domain.ErrCapacityExceeded
			}
		}

		now := time.Now()
		if err := tx.UpdateReservationStatus(ctx, reservationID, newStatus, now); err != nil {
			return fmt.Errorf("update reservation status: %w", err)
		}
		updated = reservation
		updated.Status = newStatus
		updated.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *reservationService) Get(ctx context.Context, reservationID, actorID string, actorRole domain.Role) (*domain.ReservationDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	detail, err := s.reservationRepo.GetDetailByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("reservation %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	if !domain.CanAccessReservation(actorRole, detail.Reservation.UserID, actorID) {
		return nil, domain.ErrForbidden
	}
	return detail, nil
}

func (s *reservationService) List(ctx context.Context, actorID string, actorRole domain.Role, filter domain.ReservationFilter, params domain.PaginationParams) ([]*domain.ReservationDetail, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Participants only ever see their own reservations, whatever the
	// supplied filter says.
	if actorRole == domain.RoleParticipant {
		filter.UserID = actorID
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	details, total, err := s.reservationRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	if details == nil {
		details = []*domain.ReservationDetail{}
	}
	return details, total, nil
}

func (s *reservationService) TicketData(ctx context.Context, reservationID, actorID string) (*domain.TicketData, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	detail, err := s.reservationRepo.GetDetailByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("reservation %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	// Tickets are personal: only the owner may download one, organizers
	// included.
	if detail.Reservation.UserID != actorID {
		return nil, domain.ErrForbidden
	}
	if detail.Reservation.Status != domain.ReservationConfirmed {
		return nil, fmt.Errorf("ticket only for confirmed reservations: %w", domain.ErrInvalidState)
	}
	return &domain.TicketData{
		ReservationID: detail.Reservation.ID,
		UserFullName:  detail.User.FullName(),
		Email:         detail.User.Email,
		EventTitle:    detail.Event.Title,
		EventDate:     detail.Event.StartDate,
		Location:      detail.Event.Location,
		Status:        detail.Reservation.Status,
	}, nil
}
