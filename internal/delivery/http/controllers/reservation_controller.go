package controllers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"eventreserve/internal/delivery/http/helpers"
	"eventreserve/internal/delivery/http/middleware"
	"eventreserve/internal/domain"
)

type ReservationController struct {
	Logger   *slog.Logger
	Service  domain.ReservationService
	Renderer domain.TicketRenderer
}

func NewReservationController(logger *slog.Logger, svc domain.ReservationService, renderer domain.TicketRenderer) *ReservationController {
	return &ReservationController{
		Logger:   logger,
		Service:  svc,
		Renderer: renderer,
	}
}

// CreateReservationRequest is the request body for POST /reservations.
type CreateReservationRequest struct {
	EventID string `json:"event_id"`
}

// Validate implements helpers.Validator.
func (c CreateReservationRequest) Validate() []string {
	var errs []string
	if c.EventID == "" {
		errs = append(errs, "event_id is required")
	} else if !uuidRegex.MatchString(c.EventID) {
		errs = append(errs, "event_id must be a UUID")
	}
	return errs
}

// CreateReservationSuccessResponse is the success response envelope for POST /reservations (201).
type CreateReservationSuccessResponse struct {
	Data  *domain.Reservation `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// CreateReservation godoc
// @Summary Reserve a seat on an event
// @Description Creates a PENDING reservation for the authenticated participant. Fails when the event is not published (400), the participant already holds an active reservation for it (409), or the event has no free seats left (400).
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reservation body CreateReservationRequest true "Target event"
// @Success 201 {object} controllers.CreateReservationSuccessResponse "data contains the created reservation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /reservations [post]
func (c *ReservationController) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, _, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	reservation, err := c.Service.Create(r.Context(), req.EventID, userID)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reservation)
}

// UpdateReservationStatusRequest is the request body for PATCH /reservations/{reservationID}.
type UpdateReservationStatusRequest struct {
	Status domain.ReservationStatus `json:"status"`
}

// Validate implements helpers.Validator.
func (u UpdateReservationStatusRequest) Validate() []string {
	if u.Status == "" {
		return []string{"status is required"}
	}
	if !u.Status.Valid() {
		return []string{"status must be one of PENDING, CONFIRMED, REFUSED, CANCELED"}
	}
	return nil
}

// ReservationSuccessResponse is the success response envelope for single-reservation writes (200).
type ReservationSuccessResponse struct {
	Data  *domain.Reservation `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// UpdateReservationStatus godoc
// @Summary Transition a reservation
// @Description Moves the reservation to a new status through the state machine. Organizers may confirm, refuse, or cancel any reservation; participants may only cancel their own. Confirming re-checks capacity against already confirmed seats.
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param reservationID path string true "Reservation ID (UUID)"
// @Param body body UpdateReservationStatusRequest true "Target status"
// @Success 200 {object} controllers.ReservationSuccessResponse "data contains the updated reservation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /reservations/{reservationID} [patch]
func (c *ReservationController) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	reservationID := r.PathValue("reservationID")
	if !uuidRegex.MatchString(reservationID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid reservationID")
		return
	}
	var req UpdateReservationStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, role, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	reservation, err := c.Service.UpdateStatus(r.Context(), reservationID, req.Status, userID, role)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reservation)
}

// GetReservationSuccessResponse is the success response envelope for GET /reservations/{reservationID} (200).
type GetReservationSuccessResponse struct {
	Data  *domain.ReservationDetail `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// GetReservation godoc
// @Summary Get a reservation
// @Description Returns the reservation with its event and owner. Participants may only read their own reservations.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param reservationID path string true "Reservation ID (UUID)"
// @Success 200 {object} controllers.GetReservationSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /reservations/{reservationID} [get]
func (c *ReservationController) GetReservation(w http.ResponseWriter, r *http.Request) {
	reservationID := r.PathValue("reservationID")
	if !uuidRegex.MatchString(reservationID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid reservationID")
		return
	}
	userID, role, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	detail, err := c.Service.Get(r.Context(), reservationID, userID, role)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, detail)
}

// ListReservations godoc
// @Summary List reservations
// @Description Returns a page of reservations with their events and owners. Participants only see their own reservations; organizers see all. Supports status filtering and a case-insensitive search over event title and owner name.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Param search query string false "Match event title or owner name"
// @Param status query string false "Filter on reservation status"
// @Success 200 {object} helpers.PaginatedResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /reservations [get]
func (c *ReservationController) ListReservations(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	filter := domain.ReservationFilter{
		Search: r.URL.Query().Get("search"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.ReservationStatus(s)
		if !status.Valid() {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}
	params := helpers.ParsePagination(r)

	details, total, err := c.Service.List(r.Context(), userID, role, filter, params)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPaginatedResponse(details, params, total))
}

// DownloadTicket godoc
// @Summary Download the ticket for a confirmed reservation
// @Description Streams a PDF ticket. Only the reservation owner may download it, and only once the reservation is CONFIRMED.
// @Tags reservations
// @Produce application/pdf
// @Security BearerAuth
// @Param reservationID path string true "Reservation ID (UUID)"
// @Success 200 {file} binary "PDF ticket"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /reservations/{reservationID}/ticket [get]
func (c *ReservationController) DownloadTicket(w http.ResponseWriter, r *http.Request) {
	reservationID := r.PathValue("reservationID")
	if !uuidRegex.MatchString(reservationID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid reservationID")
		return
	}
	userID, _, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	data, err := c.Service.TicketData(r.Context(), reservationID, userID)
	if err != nil {
		respondError(c.Logger, w, r, err)
		return
	}

	// Render to a buffer first so a renderer failure can still produce
	// a JSON error instead of a truncated download.
	var buf bytes.Buffer
	if err := c.Renderer.Render(data, &buf); err != nil {
		respondError(c.Logger, w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=ticket-%s.pdf", data.ReservationID))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
