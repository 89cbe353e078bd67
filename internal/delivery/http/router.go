package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventreserve/internal/delivery/http/controllers"
	"eventreserve/internal/delivery/http/middleware"
	"eventreserve/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	reservationController *controllers.ReservationController,
	verifier domain.TokenVerifier,
) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier)
	adminOnly := middleware.RequireRole(domain.RoleAdminOrg)
	participantOnly := middleware.RequireRole(domain.RoleParticipant)

	// Auth
	mux.HandleFunc("POST /auth/register", authController.Register)
	mux.HandleFunc("POST /auth/login", authController.Login)
	mux.HandleFunc("POST /auth/refresh", authController.Refresh)
	mux.HandleFunc("POST /auth/logout", authController.Logout)

	// Events
	mux.HandleFunc("GET /events", auth(eventController.ListEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEvent))
	mux.HandleFunc("POST /events", auth(adminOnly(eventController.CreateEvent)))
	mux.HandleFunc("PUT /events/{eventID}", auth(adminOnly(eventController.UpdateEvent)))
	mux.HandleFunc("DELETE /events/{eventID}", auth(adminOnly(eventController.DeleteEvent)))

	// Reservations
	mux.HandleFunc("POST /reservations", auth(participantOnly(reservationController.CreateReservation)))
	mux.HandleFunc("GET /reservations", auth(reservationController.ListReservations))
	mux.HandleFunc("GET /reservations/{reservationID}", auth(reservationController.GetReservation))
	mux.HandleFunc("PATCH /reservations/{reservationID}", auth(reservationController.UpdateReservationStatus))
	mux.HandleFunc("GET /reservations/{reservationID}/ticket", auth(reservationController.DownloadTicket))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
