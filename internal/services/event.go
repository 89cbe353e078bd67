package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventreserve/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) Create(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.CreatedByID == "" {
		return fmt.Errorf("event owner is required")
	}
	if event.MaxAttendees < 1 {
		return fmt.Errorf("max attendees must be at least 1: %w", domain.ErrInvalidState)
	}
	if event.Status == "" {
		event.Status = domain.EventDraft
	}
	if !event.Status.Valid() {
		return fmt.Errorf("unknown event status %q: %w", event.Status, domain.ErrInvalidState)
	}
	if !event.EndDate.After(event.StartDate) {
		return fmt.Errorf("end date must be after start date: %w", domain.ErrInvalidState)
	}

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	return s.eventRepo.Create(ctx, event)
}

func (s *eventService) Get(ctx context.Context, id string, role domain.Role) (*domain.EventWithAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetWithAvailability(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("event %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Unpublished events are only visible to organizers.
	if role == domain.RoleParticipant && event.Status != domain.EventPublished {
		return nil, fmt.Errorf("event is not published: %w", domain.ErrInvalidState)
	}
	return event, nil
}

func (s *eventService) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("event %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if upd.MaxAttendees != nil && *upd.MaxAttendees < 1 {
		return nil, fmt.Errorf("max attendees must be at least 1: %w", domain.ErrInvalidState)
	}
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, fmt.Errorf("unknown event status %q: %w", *upd.Status, domain.ErrInvalidState)
	}

	updated, err := s.eventRepo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("event %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

// Delete removes an event. An event with PENDING or CONFIRMED
// reservations cannot be deleted; canceling or refusing them first is
// up to the organizer. This keeps reservation rows from ever pointing
// at a missing event.
func (s *eventService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.eventRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("event %w", domain.ErrNotFound)
		}
		return fmt.Errorf("get event: %w", err)
	}
	active, err := s.eventRepo.CountActiveReservations(ctx, id)
	if err != nil {
		return fmt.Errorf("count active reservations: %w", err)
	}
	if active > 0 {
		return fmt.Errorf("event has %d active reservations: %w", active, domain.ErrConflict)
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("event %w", domain.ErrNotFound)
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) List(ctx context.Context, role domain.Role, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Participants only browse the published catalog.
	if role == domain.RoleParticipant {
		filter.Status = domain.EventPublished
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 10
	}

	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}
