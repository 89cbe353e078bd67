package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"eventreserve/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	events       map[string]*domain.Event
	activeCounts map[string]int
	nextID       int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:       make(map[string]*domain.Event),
		activeCounts: make(map[string]int),
		nextID:       1,
	}
}

func (f *fakeEventRepo) add(id string, status domain.EventStatus, maxAttendees int) *domain.Event {
	e := &domain.Event{
		ID:           id,
		Title:        "Event " + id,
		Location:     "Main hall",
		StartDate:    time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 10, 1, 22, 0, 0, 0, time.UTC),
		Status:       status,
		MaxAttendees: maxAttendees,
		CreatedByID:  "admin-1",
	}
	f.events[id] = e
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, event *domain.Event) error {
	event.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	stored := *event
	f.events[event.ID] = &stored
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetWithAvailability(ctx context.Context, id string) (*domain.EventWithAvailability, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	count := f.activeCounts[id]
	return &domain.EventWithAvailability{
		Event:            e,
		ReservationCount: count,
		Remaining:        e.MaxAttendees - count,
	}, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.StartDate != nil {
		e.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		e.EndDate = *upd.EndDate
	}
	if upd.Location != nil {
		e.Location = *upd.Location
	}
	if upd.Status != nil {
		e.Status = *upd.Status
	}
	if upd.MaxAttendees != nil {
		e.MaxAttendees = *upd.MaxAttendees
	}
	e.UpdatedAt = time.Now()
	return e, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var matched []*domain.Event
	for _, e := range f.events {
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if s := strings.ToLower(strings.TrimSpace(filter.Search)); s != "" &&
			!strings.Contains(strings.ToLower(e.Title), s) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := len(matched)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeEventRepo) CountActiveReservations(ctx context.Context, id string) (int, error) {
	return f.activeCounts[id], nil
}

func newTestEventService(repo *fakeEventRepo) domain.EventService {
	return NewEventService(repo, time.Second)
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 11, 5, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	t.Run("defaults to draft", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestEventService(repo)

		event := &domain.Event{
			Title:        "Go conference",
			StartDate:    start,
			EndDate:      end,
			MaxAttendees: 100,
			CreatedByID:  "admin-1",
		}
		require.NoError(t, svc.Create(ctx, event))
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, domain.EventDraft, event.Status)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		repo := newFakeEventRepo()
		svc := newTestEventService(repo)

		cases := []struct {
			name  string
			event domain.Event
		}{
			{"missing owner", domain.Event{Title: "t", StartDate: start, EndDate: end, MaxAttendees: 1}},
			{"zero capacity", domain.Event{Title: "t", StartDate: start, EndDate: end, MaxAttendees: 0, CreatedByID: "admin-1"}},
			{"unknown status", domain.Event{Title: "t", StartDate: start, EndDate: end, MaxAttendees: 1, CreatedByID: "admin-1", Status: "OPEN"}},
			{"end before start", domain.Event{Title: "t", StartDate: end, EndDate: start, MaxAttendees: 1, CreatedByID: "admin-1"}},
			{"end equals start", domain.Event{Title: "t", StartDate: start, EndDate: start, MaxAttendees: 1, CreatedByID: "admin-1"}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				event := tc.event
				require.Error(t, svc.Create(ctx, &event))
				assert.Empty(t, repo.events)
			})
		}
	})
}

func TestGetEvent_Visibility(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	repo.add("ev-1", domain.EventPublished, 10)
	repo.add("ev-2", domain.EventDraft, 10)
	repo.activeCounts["ev-1"] = 3
	svc := newTestEventService(repo)

	got, err := svc.Get(ctx, "ev-1", domain.RoleParticipant)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ReservationCount)
	assert.Equal(t, 7, got.Remaining)

	// Drafts exist but are hidden from participants.
	_, err = svc.Get(ctx, "ev-2", domain.RoleParticipant)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = svc.Get(ctx, "ev-2", domain.RoleAdminOrg)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "ev-missing", domain.RoleParticipant)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	repo.add("ev-1", domain.EventDraft, 10)
	svc := newTestEventService(repo)

	title := "Renamed"
	status := domain.EventPublished
	updated, err := svc.Update(ctx, "ev-1", domain.EventUpdate{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, domain.EventPublished, updated.Status)

	zero := 0
	_, err = svc.Update(ctx, "ev-1", domain.EventUpdate{MaxAttendees: &zero})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	bogus := domain.EventStatus("OPEN")
	_, err = svc.Update(ctx, "ev-1", domain.EventUpdate{Status: &bogus})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = svc.Update(ctx, "ev-missing", domain.EventUpdate{Title: &title})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	repo.add("ev-1", domain.EventPublished, 10)
	repo.add("ev-2", domain.EventPublished, 10)
	repo.activeCounts["ev-2"] = 4
	svc := newTestEventService(repo)

	require.NoError(t, svc.Delete(ctx, "ev-1"))
	_, ok := repo.events["ev-1"]
	assert.False(t, ok)

	// Active reservations block deletion.
	err := svc.Delete(ctx, "ev-2")
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "4 active reservations")
	_, ok = repo.events["ev-2"]
	assert.True(t, ok)

	require.ErrorIs(t, svc.Delete(ctx, "ev-missing"), domain.ErrNotFound)
}

func TestListEvents(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	repo.add("ev-1", domain.EventPublished, 10).Title = "Go conference"
	repo.add("ev-2", domain.EventDraft, 10).Title = "Rust meetup"
	repo.add("ev-3", domain.EventPublished, 10).Title = "Go workshop"
	svc := newTestEventService(repo)

	// Participants only see published events, whatever the filter says.
	events, total, err := svc.List(ctx, domain.RoleParticipant, domain.EventFilter{Status: domain.EventDraft}, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, e := range events {
		assert.Equal(t, domain.EventPublished, e.Status)
	}

	// Organizers see every status.
	_, total, err = svc.List(ctx, domain.RoleAdminOrg, domain.EventFilter{}, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	// Title search combines with the role scoping.
	events, total, err = svc.List(ctx, domain.RoleParticipant, domain.EventFilter{Search: "go"}, domain.PaginationParams{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 1)
	assert.Equal(t, "Go conference", events[0].Title)
}
